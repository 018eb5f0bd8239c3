package expense

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/splitledger/internal/expense/split"
)

// CreateExpenseRequest represents the request to create an expense.
// Inputs holds what was typed per participant: an amount for EXACT, a
// percentage for PERCENT, a share count for SHARES. EQUAL ignores it.
type CreateExpenseRequest struct {
	GroupID        string            `json:"group_id" validate:"required"`
	Title          string            `json:"title" validate:"required,min=1,max=255"`
	Amount         decimal.Decimal   `json:"amount" validate:"gt=0"`
	PaidByID       string            `json:"paid_by_id" validate:"required"`
	Date           *time.Time        `json:"date,omitempty"`
	Category       string            `json:"category" validate:"required,max=50"`
	SplitType      split.SplitType   `json:"split_type" validate:"required,oneof=EQUAL EXACT PERCENT SHARES"`
	ParticipantIDs []string          `json:"participant_ids" validate:"required,min=1,dive,required"`
	Inputs         map[string]string `json:"inputs,omitempty"`
}

// UpdateExpenseRequest replaces every editable field of an expense.
// Splits are recomputed from scratch.
type UpdateExpenseRequest struct {
	Title          string            `json:"title" validate:"required,min=1,max=255"`
	Amount         decimal.Decimal   `json:"amount" validate:"gt=0"`
	PaidByID       string            `json:"paid_by_id" validate:"required"`
	Date           *time.Time        `json:"date,omitempty"`
	Category       string            `json:"category" validate:"required,max=50"`
	SplitType      split.SplitType   `json:"split_type" validate:"required,oneof=EQUAL EXACT PERCENT SHARES"`
	ParticipantIDs []string          `json:"participant_ids" validate:"required,min=1,dive,required"`
	Inputs         map[string]string `json:"inputs,omitempty"`
}

// ExpenseResponse represents the response for an expense
type ExpenseResponse struct {
	ID            string                         `json:"id"`
	GroupID       string                         `json:"group_id"`
	Title         string                         `json:"title"`
	Amount        string                         `json:"amount"`
	PaidByID      string                         `json:"paid_by_id"`
	Date          string                         `json:"date"`
	Category      string                         `json:"category"`
	Kind          Kind                           `json:"kind"`
	SplitType     split.SplitType                `json:"split_type"`
	SplitMetadata map[string]split.OriginalInput `json:"split_metadata,omitempty"`
	Splits        []*SplitResponse               `json:"splits"`
	CreatedAt     string                         `json:"created_at"`
	UpdatedAt     string                         `json:"updated_at"`
}

// SplitResponse represents the response for a split
type SplitResponse struct {
	UserID string `json:"user_id"`
	Amount string `json:"amount"`
}

// ToResponse converts an Expense model to an ExpenseResponse DTO
func (e *Expense) ToResponse() *ExpenseResponse {
	resp := &ExpenseResponse{
		ID:            e.ID,
		GroupID:       e.GroupID,
		Title:         e.Title,
		Amount:        e.Amount.StringFixed(2),
		PaidByID:      e.PaidByID,
		Date:          e.Date.Format(time.RFC3339),
		Category:      e.Category,
		Kind:          e.Kind,
		SplitType:     e.SplitType,
		SplitMetadata: e.SplitMetadata,
		Splits:        make([]*SplitResponse, len(e.Splits)),
		CreatedAt:     e.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:     e.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
	for i, s := range e.Splits {
		resp.Splits[i] = &SplitResponse{UserID: s.UserID, Amount: s.Amount.StringFixed(2)}
	}
	return resp
}

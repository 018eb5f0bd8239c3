package notification

import "time"

// Type represents the kind of activity a notification reports
type Type string

const (
	TypeExpenseAdded      Type = "EXPENSE_ADDED"
	TypeExpenseUpdated    Type = "EXPENSE_UPDATED"
	TypeExpenseDeleted    Type = "EXPENSE_DELETED"
	TypeSettlementAdded   Type = "SETTLEMENT_ADDED"
	TypeSettlementUpdated Type = "SETTLEMENT_UPDATED"
)

// Valid reports whether t is one of the activity types above
func (t Type) Valid() bool {
	switch t {
	case TypeExpenseAdded, TypeExpenseUpdated, TypeExpenseDeleted, TypeSettlementAdded, TypeSettlementUpdated:
		return true
	}
	return false
}

// Filter narrows a recipient's feed
type Filter struct {
	RecipientID string
	UnreadOnly  bool
	Types       []Type
	GroupID     string
}

// Notification tells a user about activity on an expense that involves them
type Notification struct {
	ID          int64     `json:"id"`
	RecipientID string    `json:"recipient_id"`
	Type        Type      `json:"type"`
	Message     string    `json:"message"`
	IsRead      bool      `json:"is_read"`
	GroupID     *string   `json:"group_id,omitempty"`
	ExpenseID   *string   `json:"expense_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

package expense

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/splitledger/internal/expense/split"
)

// Kind distinguishes ordinary expenses from recorded debt payments
type Kind string

const (
	KindExpense    Kind = "EXPENSE"
	KindSettlement Kind = "SETTLEMENT"
)

// SettlementCategory is the display category given to settlements.
// Clients may not use it for ordinary expenses.
const SettlementCategory = "Settlement"

// Expense represents an expense (or settlement) recorded in a group
type Expense struct {
	ID            string          `json:"id"`
	GroupID       string          `json:"group_id"`
	Title         string          `json:"title"`
	Amount        decimal.Decimal `json:"amount"`
	PaidByID      string          `json:"paid_by_id"`
	Date          time.Time       `json:"date"`
	Category      string          `json:"category"`
	Kind          Kind            `json:"kind"`
	SplitType     split.SplitType `json:"split_type"`
	SplitMetadata split.Metadata  `json:"split_metadata,omitempty"`
	Splits        []*Split        `json:"splits"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Split is one participant's owed share of an expense
type Split struct {
	ID        int64           `json:"id"`
	ExpenseID string          `json:"expense_id"`
	UserID    string          `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// IsSettlement reports whether the expense records a payment between two users
func (e *Expense) IsSettlement() bool {
	return e.Kind == KindSettlement
}

// ParticipantIDs lists split owners in allocation order
func (e *Expense) ParticipantIDs() []string {
	ids := make([]string, len(e.Splits))
	for i, s := range e.Splits {
		ids[i] = s.UserID
	}
	return ids
}

func (e *Expense) applyAllocation(alloc *split.Allocation) {
	e.SplitMetadata = alloc.Metadata
	e.Splits = make([]*Split, len(alloc.Splits))
	for i, s := range alloc.Splits {
		e.Splits[i] = &Split{ExpenseID: e.ID, UserID: s.UserID, Amount: s.Amount}
	}
}

// Filter narrows a group's expense history
type Filter struct {
	GroupID  string
	Category string
	PaidByID string
	// Ascending sorts oldest first; history defaults to newest first
	Ascending bool
	// Limit of 0 returns every matching expense
	Limit  int
	Offset int
}

// Totals aggregates money over every expense matching a Filter
type Totals struct {
	Count   int
	Spend   decimal.Decimal
	Settled decimal.Decimal
}

// Net is spend with settlements deducted
func (t Totals) Net() decimal.Decimal {
	return t.Spend.Sub(t.Settled)
}

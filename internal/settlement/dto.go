package settlement

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/splitledger/internal/ledger"
)

// CreateSettlementRequest records that From paid To outside the app
type CreateSettlementRequest struct {
	From   string          `json:"from" validate:"required"`
	To     string          `json:"to" validate:"required"`
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
	Date   *time.Time      `json:"date,omitempty"`
}

// UpdateSettlementRequest changes the amount of a recorded settlement.
// The original date is kept unless a new one is given.
type UpdateSettlementRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
	Date   *time.Time      `json:"date,omitempty"`
}

// BalanceResponse is one user's net position
type BalanceResponse struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	Net         string `json:"net"`
}

// DebtResponse is one suggested transfer
type DebtResponse struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Amount  string `json:"amount"`
	Message string `json:"message"` // e.g., "Carol owes Alice 60.00"
}

// GroupOverviewResponse represents balances and the settlement plan of a group
type GroupOverviewResponse struct {
	GroupID    string             `json:"group_id"`
	Balances   []*BalanceResponse `json:"balances"`
	Debts      []*DebtResponse    `json:"debts"`
	TotalSpend string             `json:"total_spend"`
	NetTotal   string             `json:"net_total"`
}

// SummaryResponse is the caller's position across every group
type SummaryResponse struct {
	UserID    string          `json:"user_id"`
	Net       string          `json:"net"`
	ToReceive string          `json:"to_receive"`
	ToSettle  string          `json:"to_settle"`
	Debts     []*DebtResponse `json:"debts"`
	Credits   []*DebtResponse `json:"credits"`
}

func nameOf(names map[string]string, userID string) string {
	if name := names[userID]; name != "" {
		return name
	}
	return userID
}

func debtResponse(d ledger.Debt, names map[string]string) *DebtResponse {
	return &DebtResponse{
		From:    d.From,
		To:      d.To,
		Amount:  d.Amount.StringFixed(2),
		Message: fmt.Sprintf("%s owes %s %s", nameOf(names, d.From), nameOf(names, d.To), d.Amount.StringFixed(2)),
	}
}

func debtResponses(debts []ledger.Debt, names map[string]string) []*DebtResponse {
	out := make([]*DebtResponse, len(debts))
	for i, d := range debts {
		out[i] = debtResponse(d, names)
	}
	return out
}

// ToResponse converts a GroupOverview to its DTO
func (o *GroupOverview) ToResponse() *GroupOverviewResponse {
	resp := &GroupOverviewResponse{
		GroupID:    o.GroupID,
		Balances:   make([]*BalanceResponse, len(o.Balances)),
		Debts:      debtResponses(o.Debts, o.Names),
		TotalSpend: o.TotalSpend.StringFixed(2),
		NetTotal:   o.NetTotal.StringFixed(2),
	}
	for i, b := range o.Balances {
		resp.Balances[i] = &BalanceResponse{
			UserID:      b.UserID,
			DisplayName: o.Names[b.UserID],
			Net:         b.Net.StringFixed(2),
		}
	}
	return resp
}

func summaryResponse(s ledger.Summary) *SummaryResponse {
	return &SummaryResponse{
		UserID:    s.UserID,
		Net:       s.Net.StringFixed(2),
		ToReceive: s.ToReceive.StringFixed(2),
		ToSettle:  s.ToSettle.StringFixed(2),
		Debts:     debtResponses(s.Debts, nil),
		Credits:   debtResponses(s.Credits, nil),
	}
}

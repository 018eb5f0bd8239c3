package settlement

import (
	"github.com/shopspring/decimal"

	"github.com/fkhayef/splitledger/internal/ledger"
)

// GroupOverview is the balance sheet of one group computed from its full history
type GroupOverview struct {
	GroupID    string
	Balances   []ledger.Balance
	Debts      []ledger.Debt
	TotalSpend decimal.Decimal
	NetTotal   decimal.Decimal
	// display names by user id, for members only
	Names map[string]string
}

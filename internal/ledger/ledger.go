// Package ledger derives balances and settlement plans from expense history.
// Nothing here is persisted; results are recomputed from the latest expenses
// on every request.
package ledger

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/splitledger/internal/expense"
	"github.com/fkhayef/splitledger/internal/group"
)

// Balance is a user's net position: positive is owed money, negative owes money
type Balance struct {
	UserID string          `json:"user_id"`
	Net    decimal.Decimal `json:"net"`
}

// Debt is one transfer in a settlement plan
type Debt struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// CalculateBalances credits each payer with the expense amount and debits each
// split owner with their share. Settlements count like any other expense.
//
// Members come first in the order given, followed by any other user seen in
// the expenses (a removed member, say) in order of first appearance.
func CalculateBalances(members []*group.Member, expenses []*expense.Expense) []Balance {
	nets := make(map[string]decimal.Decimal)
	order := make([]string, 0, len(members))

	touch := func(userID string) {
		if _, ok := nets[userID]; !ok {
			nets[userID] = decimal.Zero
			order = append(order, userID)
		}
	}

	for _, m := range members {
		touch(m.UserID)
	}

	for _, e := range expenses {
		touch(e.PaidByID)
		nets[e.PaidByID] = nets[e.PaidByID].Add(e.Amount)

		for _, s := range e.Splits {
			touch(s.UserID)
			nets[s.UserID] = nets[s.UserID].Sub(s.Amount)
		}
	}

	balances := make([]Balance, len(order))
	for i, userID := range order {
		balances[i] = Balance{UserID: userID, Net: nets[userID]}
	}
	return balances
}

// SimplifyDebts turns balances into a list of transfers by repeatedly matching
// the largest remaining debtor with the largest remaining creditor.
//
// Greedy, so not always the fewest possible transfers. It emits at most one
// fewer transfer than there are non-zero balances.
func SimplifyDebts(balances []Balance) []Debt {
	var creditors, debtors []Balance
	for _, b := range balances {
		net := b.Net.Round(2)
		switch {
		case net.IsPositive():
			creditors = append(creditors, Balance{UserID: b.UserID, Net: net})
		case net.IsNegative():
			debtors = append(debtors, Balance{UserID: b.UserID, Net: net.Neg()})
		}
	}

	largestFirst := func(a, b Balance) int { return b.Net.Cmp(a.Net) }
	slices.SortStableFunc(creditors, largestFirst)
	slices.SortStableFunc(debtors, largestFirst)

	var debts []Debt
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := decimal.Min(debtors[i].Net, creditors[j].Net)

		debts = append(debts, Debt{
			From:   debtors[i].UserID,
			To:     creditors[j].UserID,
			Amount: amount,
		})

		debtors[i].Net = debtors[i].Net.Sub(amount)
		creditors[j].Net = creditors[j].Net.Sub(amount)

		if !debtors[i].Net.IsPositive() {
			i++
		}
		if !creditors[j].Net.IsPositive() {
			j++
		}
	}

	return debts
}

// TotalSpend adds up ordinary expenses. Settlements move money between
// members without anything being bought, so they are left out.
func TotalSpend(expenses []*expense.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		if !e.IsSettlement() {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// NetTotal is TotalSpend with every settlement deducted
func NetTotal(expenses []*expense.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		if e.IsSettlement() {
			total = total.Sub(e.Amount)
		} else {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// Summary is one user's position across a set of balances
type Summary struct {
	UserID    string
	Net       decimal.Decimal
	ToReceive decimal.Decimal
	ToSettle  decimal.Decimal
	// Debts the user has to pay
	Debts []Debt
	// Credits the user is due to receive
	Credits []Debt
}

// Summarize picks out userID's balance and the transfers involving them
func Summarize(userID string, balances []Balance, debts []Debt) Summary {
	summary := Summary{
		UserID:    userID,
		Net:       decimal.Zero,
		ToReceive: decimal.Zero,
		ToSettle:  decimal.Zero,
		Debts:     []Debt{},
		Credits:   []Debt{},
	}

	for _, b := range balances {
		if b.UserID == userID {
			summary.Net = b.Net
			break
		}
	}
	if summary.Net.IsPositive() {
		summary.ToReceive = summary.Net
	} else if summary.Net.IsNegative() {
		summary.ToSettle = summary.Net.Neg()
	}

	for _, d := range debts {
		switch userID {
		case d.From:
			summary.Debts = append(summary.Debts, d)
		case d.To:
			summary.Credits = append(summary.Credits, d)
		}
	}

	return summary
}

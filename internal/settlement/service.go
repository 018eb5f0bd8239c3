package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fkhayef/splitledger/internal/expense"
	"github.com/fkhayef/splitledger/internal/expense/split"
	"github.com/fkhayef/splitledger/internal/group"
	"github.com/fkhayef/splitledger/internal/ledger"
)

// Common errors
var (
	ErrCannotSettleSelf = errors.New("cannot settle with yourself")
	ErrNotSettlement    = errors.New("expense is not a settlement")
)

// Expenses is the part of the expense service settlements are recorded through
type Expenses interface {
	Record(ctx context.Context, callerID string, e *expense.Expense, participantIDs []string, inputs map[string]string) (*expense.Expense, error)
	Replace(ctx context.Context, callerID string, e *expense.Expense, participantIDs []string, inputs map[string]string) (*expense.Expense, error)
	Get(ctx context.Context, callerID, id string) (*expense.Expense, error)
	AllForGroup(ctx context.Context, groupID string) ([]*expense.Expense, error)
	AllForUser(ctx context.Context, userID string) ([]*expense.Expense, error)
}

// Groups answers membership questions about groups
type Groups interface {
	RequireMember(ctx context.Context, groupID, userID string) error
	GetMembers(ctx context.Context, groupID string) ([]*group.Member, error)
}

// Service computes balances and records settlements
type Service struct {
	expenses Expenses
	groups   Groups
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new settlement service
func NewService(expenses Expenses, groups Groups, logger *slog.Logger) *Service {
	return &Service{
		expenses: expenses,
		groups:   groups,
		logger:   logger,
		now:      time.Now,
	}
}

// GroupBalances computes every balance in a group and the transfers that would settle them
func (s *Service) GroupBalances(ctx context.Context, callerID, groupID string) (*GroupOverview, error) {
	if err := s.groups.RequireMember(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	members, err := s.groups.GetMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}

	history, err := s.expenses.AllForGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	balances := ledger.CalculateBalances(members, history)
	return &GroupOverview{
		GroupID:    groupID,
		Balances:   balances,
		Debts:      ledger.SimplifyDebts(balances),
		TotalSpend: ledger.TotalSpend(history),
		NetTotal:   ledger.NetTotal(history),
		Names:      group.DisplayNames(members),
	}, nil
}

// Record books a payment from req.From to req.To as a settlement expense:
// paid by the debtor, one EXACT split owned by the creditor.
func (s *Service) Record(ctx context.Context, callerID, groupID string, req *CreateSettlementRequest) (*expense.Expense, error) {
	if req.From == req.To {
		return nil, ErrCannotSettleSelf
	}

	title, err := s.title(ctx, groupID, req.From, req.To)
	if err != nil {
		return nil, err
	}

	date := s.now().UTC()
	if req.Date != nil {
		date = *req.Date
	}

	settlement := &expense.Expense{
		GroupID:   groupID,
		Title:     title,
		Amount:    req.Amount,
		PaidByID:  req.From,
		Date:      date,
		Category:  expense.SettlementCategory,
		Kind:      expense.KindSettlement,
		SplitType: split.SplitTypeExact,
	}

	inputs := map[string]string{req.To: req.Amount.String()}
	recorded, err := s.expenses.Record(ctx, callerID, settlement, []string{req.To}, inputs)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Settlement recorded",
		"expense_id", recorded.ID,
		"group_id", groupID,
		"from", req.From,
		"to", req.To,
		"amount", req.Amount.StringFixed(2),
	)
	return recorded, nil
}

// Update changes the amount (and optionally the date) of a recorded settlement
func (s *Service) Update(ctx context.Context, callerID, id string, req *UpdateSettlementRequest) (*expense.Expense, error) {
	existing, err := s.expenses.Get(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	if !existing.IsSettlement() || len(existing.Splits) != 1 {
		return nil, ErrNotSettlement
	}

	to := existing.Splits[0].UserID
	title, err := s.title(ctx, existing.GroupID, existing.PaidByID, to)
	if err != nil {
		return nil, err
	}

	date := existing.Date
	if req.Date != nil {
		date = *req.Date
	}

	updated := &expense.Expense{
		ID:        existing.ID,
		GroupID:   existing.GroupID,
		Title:     title,
		Amount:    req.Amount,
		PaidByID:  existing.PaidByID,
		Date:      date,
		Category:  expense.SettlementCategory,
		Kind:      expense.KindSettlement,
		SplitType: split.SplitTypeExact,
	}

	inputs := map[string]string{to: req.Amount.String()}
	result, err := s.expenses.Replace(ctx, callerID, updated, []string{to}, inputs)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Settlement updated", "expense_id", id, "amount", req.Amount.StringFixed(2))
	return result, nil
}

// Summary is userID's position across every expense they paid for or share in
func (s *Service) Summary(ctx context.Context, userID string) (ledger.Summary, error) {
	history, err := s.expenses.AllForUser(ctx, userID)
	if err != nil {
		return ledger.Summary{}, err
	}

	balances := ledger.CalculateBalances([]*group.Member{{UserID: userID}}, history)
	return ledger.Summarize(userID, balances, ledger.SimplifyDebts(balances)), nil
}

// title names both parties, falling back to ids for users without a profile name
func (s *Service) title(ctx context.Context, groupID, from, to string) (string, error) {
	members, err := s.groups.GetMembers(ctx, groupID)
	if err != nil {
		return "", err
	}
	names := group.DisplayNames(members)
	return fmt.Sprintf("Settle: %s paid %s", nameOf(names, from), nameOf(names, to)), nil
}


package expense

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fkhayef/splitledger/internal/expense/split"
	"github.com/fkhayef/splitledger/internal/group"
)

// Common errors
var (
	ErrExpenseNotFound      = errors.New("expense not found")
	ErrReservedCategory     = errors.New("category is reserved for settlements")
	ErrPayerNotMember       = errors.New("payer is not a member of this group")
	ErrParticipantNotMember = errors.New("participant is not a member of this group")
	ErrIsSettlement         = errors.New("expense is a settlement; edit it as a settlement")
)

// GroupMembers answers membership questions about groups
type GroupMembers interface {
	RequireMember(ctx context.Context, groupID, userID string) error
	GetMembers(ctx context.Context, groupID string) ([]*group.Member, error)
}

// Notifier is told about saved and deleted expenses so the people on them can be informed
type Notifier interface {
	ExpenseSaved(ctx context.Context, actorID string, e *Expense, created bool) error
	ExpenseDeleted(ctx context.Context, actorID string, e *Expense) error
}

// Service handles expense business logic
type Service struct {
	repo         *Repository
	members      GroupMembers
	splitFactory *split.Factory // Factory pattern for creating split strategies
	notifier     Notifier       // optional
	logger       *slog.Logger
	now          func() time.Time
}

// NewService creates a new expense service with dependencies injected.
// notifier may be nil.
func NewService(repo *Repository, members GroupMembers, splitFactory *split.Factory, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		repo:         repo,
		members:      members,
		splitFactory: splitFactory,
		notifier:     notifier,
		logger:       logger,
		now:          time.Now,
	}
}

// Create records an ordinary expense and allocates its splits
func (s *Service) Create(ctx context.Context, callerID string, req *CreateExpenseRequest) (*Expense, error) {
	if req.Category == SettlementCategory {
		return nil, ErrReservedCategory
	}

	expense := &Expense{
		GroupID:   req.GroupID,
		Title:     req.Title,
		Amount:    req.Amount,
		PaidByID:  req.PaidByID,
		Date:      s.dateOrNow(req.Date),
		Category:  req.Category,
		Kind:      KindExpense,
		SplitType: req.SplitType,
	}
	return s.Record(ctx, callerID, expense, req.ParticipantIDs, req.Inputs)
}

// Record validates and allocates a new expense of any kind, then persists it
// together with its splits. ID is assigned here.
func (s *Service) Record(ctx context.Context, callerID string, expense *Expense, participantIDs []string, inputs map[string]string) (*Expense, error) {
	if err := s.prepare(ctx, callerID, expense, participantIDs, inputs); err != nil {
		return nil, err
	}

	expense.ID = uuid.NewString()
	for _, sp := range expense.Splits {
		sp.ExpenseID = expense.ID
	}

	if err := s.repo.Create(ctx, expense); err != nil {
		s.logger.ErrorContext(ctx, "Failed to create expense", "group_id", expense.GroupID, "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "Expense created",
		"expense_id", expense.ID,
		"group_id", expense.GroupID,
		"kind", expense.Kind,
		"split_type", expense.SplitType,
		"amount", expense.Amount.StringFixed(2),
	)
	s.notify(ctx, expense, func(n Notifier) error { return n.ExpenseSaved(ctx, callerID, expense, true) })
	return expense, nil
}

// Update replaces every editable field of an ordinary expense and recomputes its splits
func (s *Service) Update(ctx context.Context, callerID, id string, req *UpdateExpenseRequest) (*Expense, error) {
	existing, err := s.Get(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	if existing.IsSettlement() {
		return nil, ErrIsSettlement
	}
	if req.Category == SettlementCategory {
		return nil, ErrReservedCategory
	}

	expense := &Expense{
		ID:        existing.ID,
		GroupID:   existing.GroupID,
		Title:     req.Title,
		Amount:    req.Amount,
		PaidByID:  req.PaidByID,
		Date:      s.dateOrNow(req.Date),
		Category:  req.Category,
		Kind:      existing.Kind,
		SplitType: req.SplitType,
	}
	return s.Replace(ctx, callerID, expense, req.ParticipantIDs, req.Inputs)
}

// Replace re-validates and re-allocates an existing expense, then overwrites
// the stored record and all of its splits.
func (s *Service) Replace(ctx context.Context, callerID string, expense *Expense, participantIDs []string, inputs map[string]string) (*Expense, error) {
	if err := s.prepare(ctx, callerID, expense, participantIDs, inputs); err != nil {
		return nil, err
	}

	if err := s.repo.Replace(ctx, expense); err != nil {
		if !errors.Is(err, ErrExpenseNotFound) {
			s.logger.ErrorContext(ctx, "Failed to update expense", "expense_id", expense.ID, "error", err)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "Expense updated",
		"expense_id", expense.ID,
		"split_type", expense.SplitType,
		"amount", expense.Amount.StringFixed(2),
	)
	s.notify(ctx, expense, func(n Notifier) error { return n.ExpenseSaved(ctx, callerID, expense, false) })
	return expense, nil
}

// prepare checks membership of caller, payer and participants, then runs the allocator
func (s *Service) prepare(ctx context.Context, callerID string, expense *Expense, participantIDs []string, inputs map[string]string) error {
	if err := s.members.RequireMember(ctx, expense.GroupID, callerID); err != nil {
		return err
	}

	members, err := s.members.GetMembers(ctx, expense.GroupID)
	if err != nil {
		return err
	}
	inGroup := make(map[string]bool, len(members))
	for _, m := range members {
		inGroup[m.UserID] = true
	}

	if !inGroup[expense.PaidByID] {
		return fmt.Errorf("%w: %s", ErrPayerNotMember, expense.PaidByID)
	}
	for _, id := range participantIDs {
		if !inGroup[id] {
			return fmt.Errorf("%w: %s", ErrParticipantNotMember, id)
		}
	}

	alloc, err := s.splitFactory.Allocate(expense.Amount, expense.SplitType, participantIDs, inputs)
	if err != nil {
		return err
	}
	expense.applyAllocation(alloc)
	return nil
}

// Get retrieves an expense the caller can see
func (s *Service) Get(ctx context.Context, callerID, id string) (*Expense, error) {
	expense, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense == nil {
		return nil, ErrExpenseNotFound
	}

	if err := s.members.RequireMember(ctx, expense.GroupID, callerID); err != nil {
		return nil, err
	}
	return expense, nil
}

// ListByGroup returns one page of a group's history plus totals over the whole filtered set
func (s *Service) ListByGroup(ctx context.Context, callerID string, f Filter) ([]*Expense, Totals, error) {
	if err := s.members.RequireMember(ctx, f.GroupID, callerID); err != nil {
		return nil, Totals{}, err
	}

	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	expenses, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, Totals{}, err
	}

	totals, err := s.repo.Totals(ctx, f)
	if err != nil {
		return nil, Totals{}, err
	}

	return expenses, totals, nil
}

// AllForGroup returns a group's complete history, oldest first
func (s *Service) AllForGroup(ctx context.Context, groupID string) ([]*Expense, error) {
	return s.repo.List(ctx, Filter{GroupID: groupID, Ascending: true})
}

// AllForUser returns every expense the user paid for or shares in, oldest first
func (s *Service) AllForUser(ctx context.Context, userID string) ([]*Expense, error) {
	return s.repo.ListByUserID(ctx, userID)
}

// Delete removes an expense. Any member of its group may delete it.
func (s *Service) Delete(ctx context.Context, callerID, id string) error {
	expense, err := s.Get(ctx, callerID, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Expense deleted", "expense_id", id, "group_id", expense.GroupID, "by", callerID)
	s.notify(ctx, expense, func(n Notifier) error { return n.ExpenseDeleted(ctx, callerID, expense) })
	return nil
}

// notify runs send against the notifier. A failed notification never undoes
// the change it reports.
func (s *Service) notify(ctx context.Context, expense *Expense, send func(Notifier) error) {
	if s.notifier == nil {
		return
	}
	if err := send(s.notifier); err != nil {
		s.logger.WarnContext(ctx, "Failed to send notifications", "expense_id", expense.ID, "error", err)
	}
}

func (s *Service) dateOrNow(d *time.Time) time.Time {
	if d == nil {
		return s.now().UTC()
	}
	return *d
}

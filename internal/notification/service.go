package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/fkhayef/splitledger/internal/expense"
	"github.com/fkhayef/splitledger/internal/group"
)

// Common errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotRecipient         = errors.New("not the recipient of this notification")
	ErrUnknownType          = errors.New("unknown notification type")
)

// MemberLister resolves display names for notification messages
type MemberLister interface {
	GetMembers(ctx context.Context, groupID string) ([]*group.Member, error)
}

// Service handles notification business logic
type Service struct {
	repo    *Repository
	members MemberLister
}

// NewService creates a new notification service
func NewService(repo *Repository, members MemberLister) *Service {
	return &Service{repo: repo, members: members}
}

// GetByID retrieves a notification by its ID
func (s *Service) GetByID(ctx context.Context, id int64) (*Notification, error) {
	notification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if notification == nil {
		return nil, ErrNotificationNotFound
	}
	return notification, nil
}

// List retrieves a page of a user's feed
func (s *Service) List(ctx context.Context, f Filter, page, perPage int) ([]*Notification, int, error) {
	for _, t := range f.Types {
		if !t.Valid() {
			return nil, 0, fmt.Errorf("%w: %q", ErrUnknownType, t)
		}
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.List(ctx, f, perPage, offset)
}

// MarkAsRead marks a notification as read
func (s *Service) MarkAsRead(ctx context.Context, id int64, userID string) error {
	notification, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if notification.RecipientID != userID {
		return ErrNotRecipient
	}

	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks all notifications as read for a user
func (s *Service) MarkAllAsRead(ctx context.Context, userID string) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// GetUnreadCount returns the count of unread notifications
func (s *Service) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}

// ExpenseSaved tells everyone on an expense, except whoever saved it, that it
// was added or changed.
func (s *Service) ExpenseSaved(ctx context.Context, actorID string, e *expense.Expense, created bool) error {
	names, err := s.names(ctx, e.GroupID)
	if err != nil {
		return err
	}

	typ := TypeExpenseUpdated
	verb := "updated"
	if created {
		typ, verb = TypeExpenseAdded, "added"
	}
	if e.IsSettlement() {
		typ = TypeSettlementUpdated
		if created {
			typ = TypeSettlementAdded
		}
	}

	return s.notify(ctx, actorID, e, typ, func(recipientID string) string {
		if e.IsSettlement() {
			return fmt.Sprintf("%s %s a payment of %s from %s to %s",
				nameOf(names, actorID), verb, e.Amount.StringFixed(2),
				nameOf(names, e.PaidByID), nameOf(names, firstParticipant(e)))
		}
		if share, ok := shareOf(e, recipientID); ok {
			return fmt.Sprintf("%s %s %q: your share is %s", nameOf(names, actorID), verb, e.Title, share)
		}
		return fmt.Sprintf("%s %s %q (%s), paid by you", nameOf(names, actorID), verb, e.Title, e.Amount.StringFixed(2))
	})
}

// ExpenseDeleted tells everyone on a removed expense, except whoever removed it
func (s *Service) ExpenseDeleted(ctx context.Context, actorID string, e *expense.Expense) error {
	names, err := s.names(ctx, e.GroupID)
	if err != nil {
		return err
	}

	return s.notify(ctx, actorID, e, TypeExpenseDeleted, func(string) string {
		return fmt.Sprintf("%s deleted %q (%s)", nameOf(names, actorID), e.Title, e.Amount.StringFixed(2))
	})
}

func (s *Service) notify(ctx context.Context, actorID string, e *expense.Expense, typ Type, message func(recipientID string) string) error {
	var notifications []*Notification
	for _, recipientID := range recipients(e, actorID) {
		notifications = append(notifications, &Notification{
			RecipientID: recipientID,
			Type:        typ,
			Message:     message(recipientID),
			GroupID:     &e.GroupID,
			ExpenseID:   &e.ID,
		})
	}
	return s.repo.CreateMany(ctx, notifications)
}

func (s *Service) names(ctx context.Context, groupID string) (map[string]string, error) {
	members, err := s.members.GetMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return group.DisplayNames(members), nil
}

// recipients is the payer followed by every split owner, without the actor or repeats
func recipients(e *expense.Expense, actorID string) []string {
	seen := map[string]bool{actorID: true}
	var out []string
	for _, id := range append([]string{e.PaidByID}, e.ParticipantIDs()...) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func shareOf(e *expense.Expense, userID string) (string, bool) {
	for _, s := range e.Splits {
		if s.UserID == userID {
			return s.Amount.StringFixed(2), true
		}
	}
	return "", false
}

func firstParticipant(e *expense.Expense) string {
	if len(e.Splits) == 0 {
		return ""
	}
	return e.Splits[0].UserID
}

func nameOf(names map[string]string, userID string) string {
	if name := names[userID]; name != "" {
		return name
	}
	return userID
}

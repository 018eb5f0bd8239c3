package friend

import (
	"context"
	"errors"
	"log/slog"
)

// Common errors
var (
	ErrCannotFriendSelf = errors.New("cannot add yourself as a friend")
	ErrUnknownUser      = errors.New("user does not exist")
)

// Service handles friend business logic
type Service struct {
	repo   *Repository
	logger *slog.Logger
}

// NewService creates a new friend service
func NewService(repo *Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Add makes userID and friendID friends. Adding an existing friend is not an
// error; created tells whether a new friendship was stored.
func (s *Service) Add(ctx context.Context, userID, friendID string) (friend *Friend, created bool, err error) {
	if userID == friendID {
		return nil, false, ErrCannotFriendSelf
	}

	friend, err = s.repo.GetUser(ctx, friendID)
	if err != nil {
		return nil, false, err
	}
	if friend == nil {
		return nil, false, ErrUnknownUser
	}

	exists, err := s.repo.Exists(ctx, userID, friendID)
	if err != nil {
		return nil, false, err
	}
	if exists {
		return friend, false, nil
	}

	if err := s.repo.Create(ctx, userID, friendID); err != nil {
		return nil, false, err
	}
	s.logger.InfoContext(ctx, "Friend added", "user_id", userID, "friend_id", friendID)
	return friend, true, nil
}

// Remove ends the friendship between userID and friendID, if there is one
func (s *Service) Remove(ctx context.Context, userID, friendID string) error {
	if err := s.repo.Delete(ctx, userID, friendID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Friend removed", "user_id", userID, "friend_id", friendID)
	return nil
}

// AreFriends reports whether the two users are friends
func (s *Service) AreFriends(ctx context.Context, userID, otherID string) (bool, error) {
	if userID == otherID {
		return false, nil
	}
	return s.repo.Exists(ctx, userID, otherID)
}

// List returns a page of userID's friends and the total count
func (s *Service) List(ctx context.Context, userID string, page, perPage int) ([]*Friend, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListByUserID(ctx, userID, perPage, offset)
}

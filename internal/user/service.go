package user

import (
	"context"
	"errors"
	"log/slog"
)

// Common errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserExists        = errors.New("user already onboarded")
	ErrEmailAlreadyInUse = errors.New("email already in use")
)

// Service handles user business logic
type Service struct {
	repo   *Repository
	logger *slog.Logger
}

// NewService creates a new user service with repository dependency injected
func NewService(repo *Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create onboards the caller under the id issued by the identity provider
func (s *Service) Create(ctx context.Context, id string, req *CreateUserRequest) (*User, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	byEmail, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if byEmail != nil {
		return nil, ErrEmailAlreadyInUse
	}

	user, err := s.repo.Create(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "User onboarded", "user_id", user.ID)
	return user, nil
}

// GetByID retrieves a user by their ID
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Update modifies an existing user
func (s *Service) Update(ctx context.Context, id string, req *UpdateUserRequest) (*User, error) {
	user, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

package group

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrGroupNotFound       = errors.New("group not found")
	ErrMemberNotFound      = errors.New("member not found")
	ErrMemberAlreadyExists = errors.New("user is already a member of this group")
	ErrUnknownUser         = errors.New("user does not exist")
	ErrNotMember           = errors.New("you are not a member of this group")
	ErrNotAuthorized       = errors.New("not authorized to perform this action")
)

// Service handles group business logic
type Service struct {
	repo   *Repository
	logger *slog.Logger
}

// NewService creates a new group service
func NewService(repo *Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create creates a new group and adds the creator as admin
func (s *Service) Create(ctx context.Context, creatorID string, req *CreateGroupRequest) (*Group, error) {
	group, err := s.repo.Create(ctx, uuid.NewString(), creatorID, req)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Group created", "group_id", group.ID, "creator_id", creatorID)
	return group, nil
}

// RequireMember fails unless the group exists and userID belongs to it
func (s *Service) RequireMember(ctx context.Context, groupID, userID string) error {
	_, _, err := s.requireMember(ctx, groupID, userID)
	return err
}

func (s *Service) requireMember(ctx context.Context, groupID, userID string) (*Group, *Member, error) {
	group, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	if group == nil {
		return nil, nil, ErrGroupNotFound
	}

	member, err := s.repo.GetMember(ctx, groupID, userID)
	if err != nil {
		return nil, nil, err
	}
	if member == nil {
		return nil, nil, ErrNotMember
	}
	return group, member, nil
}

// GetByIDWithMembers retrieves a group with all its members
func (s *Service) GetByIDWithMembers(ctx context.Context, callerID, id string) (*Group, []*Member, error) {
	group, _, err := s.requireMember(ctx, id, callerID)
	if err != nil {
		return nil, nil, err
	}

	members, err := s.repo.GetMembers(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return group, members, nil
}

// GetMembers returns the members of a group in join order
func (s *Service) GetMembers(ctx context.Context, groupID string) ([]*Member, error) {
	return s.repo.GetMembers(ctx, groupID)
}

// ListByUserID retrieves all groups for a user
func (s *Service) ListByUserID(ctx context.Context, userID string, page, perPage int) ([]*Group, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListByUserID(ctx, userID, perPage, offset)
}

// Update modifies an existing group
func (s *Service) Update(ctx context.Context, callerID, id string, req *UpdateGroupRequest) (*Group, error) {
	if err := s.RequireMember(ctx, id, callerID); err != nil {
		return nil, err
	}

	group, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	return group, nil
}

// Delete removes a group. Only admins may do this.
func (s *Service) Delete(ctx context.Context, callerID, id string) error {
	_, member, err := s.requireMember(ctx, id, callerID)
	if err != nil {
		return err
	}
	if member.Role != MemberRoleAdmin {
		return ErrNotAuthorized
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Group deleted", "group_id", id, "by", callerID)
	return nil
}

// AddMember adds a user to a group on behalf of an existing member
func (s *Service) AddMember(ctx context.Context, callerID, groupID string, req *AddMemberRequest) (*Member, error) {
	if err := s.RequireMember(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetMember(ctx, groupID, req.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrMemberAlreadyExists
	}

	member, err := s.repo.AddMember(ctx, groupID, req)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Member added", "group_id", groupID, "user_id", req.UserID)
	return member, nil
}

// RemoveMember removes a user from a group. Admins may remove anyone,
// members only themselves.
func (s *Service) RemoveMember(ctx context.Context, callerID, groupID, userID string) error {
	_, caller, err := s.requireMember(ctx, groupID, callerID)
	if err != nil {
		return err
	}
	if caller.Role != MemberRoleAdmin && callerID != userID {
		return ErrNotAuthorized
	}

	if err := s.repo.RemoveMember(ctx, groupID, userID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Member removed", "group_id", groupID, "user_id", userID)
	return nil
}

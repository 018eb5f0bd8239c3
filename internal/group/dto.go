package group

import "time"

// CreateGroupRequest represents the request to create a new group
type CreateGroupRequest struct {
	Name        string     `json:"name" validate:"required,min=3,max=100"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=500"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

// UpdateGroupRequest represents the request to update a group
type UpdateGroupRequest struct {
	Name        *string    `json:"name,omitempty" validate:"omitempty,min=3,max=100"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=500"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

// AddMemberRequest represents the request to add a member to a group
type AddMemberRequest struct {
	UserID string     `json:"user_id" validate:"required"`
	Role   MemberRole `json:"role" validate:"omitempty,oneof=ADMIN MEMBER"`
}

// GroupResponse represents the response for a group
type GroupResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description *string           `json:"description,omitempty"`
	StartDate   *string           `json:"start_date,omitempty"`
	EndDate     *string           `json:"end_date,omitempty"`
	CreatedAt   string            `json:"created_at"`
	Members     []*MemberResponse `json:"members,omitempty"`
}

// MemberResponse represents a member in a group response
type MemberResponse struct {
	UserID      string     `json:"user_id"`
	DisplayName string     `json:"display_name"`
	AvatarURL   *string    `json:"avatar_url,omitempty"`
	Role        MemberRole `json:"role"`
	JoinedAt    string     `json:"joined_at"`
}

// ToResponse converts a Group model to a GroupResponse DTO
func (g *Group) ToResponse() *GroupResponse {
	return &GroupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		StartDate:   formatDate(g.StartDate),
		EndDate:     formatDate(g.EndDate),
		CreatedAt:   g.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// ToResponse converts a Member model to a MemberResponse DTO
func (m *Member) ToResponse() *MemberResponse {
	return &MemberResponse{
		UserID:      m.UserID,
		DisplayName: m.DisplayName,
		AvatarURL:   m.AvatarURL,
		Role:        m.Role,
		JoinedAt:    m.JoinedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

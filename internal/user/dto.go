package user

// CreateUserRequest represents the request body for onboarding the caller
type CreateUserRequest struct {
	DisplayName string  `json:"display_name" validate:"required,min=2,max=100"`
	Email       string  `json:"email" validate:"required,email"`
	AvatarURL   *string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

// UpdateUserRequest represents the request body for updating a user
type UpdateUserRequest struct {
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,min=2,max=100"`
	AvatarURL   *string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

// UserResponse represents the response for a single user
type UserResponse struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Email       string  `json:"email"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// ToResponse converts a User model to a UserResponse DTO
func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		AvatarURL:   u.AvatarURL,
		CreatedAt:   u.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

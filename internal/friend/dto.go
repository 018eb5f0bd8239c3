package friend

// AddFriendRequest represents the request body for adding a friend
type AddFriendRequest struct {
	FriendID string `json:"friend_id" validate:"required"`
}

// FriendResponse represents one friend in API responses
type FriendResponse struct {
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Email       string  `json:"email"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	Since       string  `json:"since,omitempty"`
}

// StatusResponse tells whether two users are friends
type StatusResponse struct {
	UserID     string `json:"user_id"`
	AreFriends bool   `json:"are_friends"`
}

// ToResponse converts a Friend to a FriendResponse DTO
func (f *Friend) ToResponse() *FriendResponse {
	resp := &FriendResponse{
		UserID:      f.UserID,
		DisplayName: f.DisplayName,
		Email:       f.Email,
		AvatarURL:   f.AvatarURL,
	}
	if !f.Since.IsZero() {
		resp.Since = f.Since.Format("2006-01-02T15:04:05Z")
	}
	return resp
}

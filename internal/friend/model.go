package friend

import "time"

// Friend is the other side of a friendship, as seen by one of its users
type Friend struct {
	UserID      string
	DisplayName string
	Email       string
	AvatarURL   *string
	Since       time.Time
}

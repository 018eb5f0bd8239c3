package notification

// NotificationResponse represents one feed entry
type NotificationResponse struct {
	ID        int64   `json:"id"`
	Type      Type    `json:"type"`
	Message   string  `json:"message"`
	IsRead    bool    `json:"is_read"`
	GroupID   *string `json:"group_id,omitempty"`
	ExpenseID *string `json:"expense_id,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// UnreadCountResponse carries the number of unread notifications
type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

// ToResponse converts a Notification to its response DTO
func (n *Notification) ToResponse() *NotificationResponse {
	return &NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Message:   n.Message,
		IsRead:    n.IsRead,
		GroupID:   n.GroupID,
		ExpenseID: n.ExpenseID,
		CreatedAt: n.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Repository handles notification data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new notification repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateMany inserts notifications in one transaction, filling in ID and CreatedAt
func (r *Repository) CreateMany(ctx context.Context, notifications []*Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO notifications (recipient_id, type, message, group_id, expense_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	for _, n := range notifications {
		err := tx.QueryRowContext(ctx, query, n.RecipientID, n.Type, n.Message, n.GroupID, n.ExpenseID).
			Scan(&n.ID, &n.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit notifications: %w", err)
	}
	return nil
}

const notificationColumns = `id, recipient_id, type, message, is_read, group_id, expense_id, created_at`

func scanNotification(row interface{ Scan(...any) error }) (*Notification, error) {
	n := &Notification{}
	err := row.Scan(
		&n.ID,
		&n.RecipientID,
		&n.Type,
		&n.Message,
		&n.IsRead,
		&n.GroupID,
		&n.ExpenseID,
		&n.CreatedAt,
	)
	return n, err
}

// GetByID retrieves a notification by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`

	n, err := scanNotification(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	return n, nil
}

func (f Filter) where() (string, []any) {
	clauses := []string{"recipient_id = $1"}
	args := []any{f.RecipientID}

	if f.UnreadOnly {
		clauses = append(clauses, "is_read = false")
	}
	if len(f.Types) > 0 {
		types := make([]string, len(f.Types))
		for i, t := range f.Types {
			types[i] = string(t)
		}
		args = append(args, pq.Array(types))
		clauses = append(clauses, fmt.Sprintf("type = ANY($%d)", len(args)))
	}
	if f.GroupID != "" {
		args = append(args, f.GroupID)
		clauses = append(clauses, fmt.Sprintf("group_id = $%d", len(args)))
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

// List retrieves a page of the notifications matching f, newest first
func (r *Repository) List(ctx context.Context, f Filter, limit, offset int) ([]*Notification, int, error) {
	where, args := f.where()

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM notifications%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		notificationColumns, where, len(args)+1, len(args)+2)

	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	return notifications, total, rows.Err()
}

// MarkAsRead marks a notification as read
func (r *Repository) MarkAsRead(ctx context.Context, id int64) error {
	query := `UPDATE notifications SET is_read = true WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return nil
}

// MarkAllAsRead marks all notifications as read for a user
func (r *Repository) MarkAllAsRead(ctx context.Context, recipientID string) error {
	query := `UPDATE notifications SET is_read = true WHERE recipient_id = $1 AND is_read = false`
	if _, err := r.db.ExecContext(ctx, query, recipientID); err != nil {
		return fmt.Errorf("failed to mark all notifications as read: %w", err)
	}
	return nil
}

// GetUnreadCount returns the count of unread notifications for a user
func (r *Repository) GetUnreadCount(ctx context.Context, recipientID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = false`
	if err := r.db.QueryRowContext(ctx, query, recipientID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

package friend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repository handles friendship persistence. A friendship is one row,
// stored in the direction it was created; every lookup checks both.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new friend repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const pairCondition = `(f.user_id = $1 AND f.friend_id = $2) OR (f.user_id = $2 AND f.friend_id = $1)`

// GetUser loads the user that would become a friend, nil if there is none
func (r *Repository) GetUser(ctx context.Context, id string) (*Friend, error) {
	query := `SELECT id, display_name, email, avatar_url FROM users WHERE id = $1`

	friend := &Friend{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&friend.UserID, &friend.DisplayName, &friend.Email, &friend.AvatarURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return friend, nil
}

// Exists reports whether a and b are friends, in either direction
func (r *Repository) Exists(ctx context.Context, a, b string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM friends f WHERE ` + pairCondition + `)`
	if err := r.db.QueryRowContext(ctx, query, a, b).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return exists, nil
}

// Create stores a friendship from userID to friendID
func (r *Repository) Create(ctx context.Context, userID, friendID string) error {
	query := `INSERT INTO friends (user_id, friend_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, userID, friendID); err != nil {
		return fmt.Errorf("failed to add friend: %w", err)
	}
	return nil
}

// Delete removes the friendship between a and b in both directions
func (r *Repository) Delete(ctx context.Context, a, b string) error {
	query := `DELETE FROM friends f WHERE ` + pairCondition
	if _, err := r.db.ExecContext(ctx, query, a, b); err != nil {
		return fmt.Errorf("failed to remove friend: %w", err)
	}
	return nil
}

// ListByUserID pages through userID's friendships, newest first, and orders
// each page by display name
func (r *Repository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*Friend, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM friends WHERE user_id = $1 OR friend_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count friends: %w", err)
	}

	query := `
		SELECT id, display_name, email, avatar_url, since
		FROM (
			SELECT u.id, u.display_name, u.email, u.avatar_url, f.created_at AS since
			FROM friends f
			JOIN users u ON u.id = CASE WHEN f.user_id = $1 THEN f.friend_id ELSE f.user_id END
			WHERE f.user_id = $1 OR f.friend_id = $1
			ORDER BY f.created_at DESC
			LIMIT $2 OFFSET $3
		) page
		ORDER BY LOWER(display_name), id
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list friends: %w", err)
	}
	defer rows.Close()

	var friends []*Friend
	for rows.Next() {
		friend := &Friend{}
		if err := rows.Scan(&friend.UserID, &friend.DisplayName, &friend.Email, &friend.AvatarURL, &friend.Since); err != nil {
			return nil, 0, fmt.Errorf("failed to scan friend: %w", err)
		}
		friends = append(friends, friend)
	}

	return friends, total, rows.Err()
}

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repository handles user data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new user repository with database dependency injected
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, display_name, email, avatar_url, created_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.DisplayName,
		&user.Email,
		&user.AvatarURL,
		&user.CreatedAt,
	)
	return user, err
}

// Create inserts a new user into the database
func (r *Repository) Create(ctx context.Context, id string, req *CreateUserRequest) (*User, error) {
	query := `
		INSERT INTO users (id, display_name, email, avatar_url)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id, req.DisplayName, req.Email, req.AvatarURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetByID retrieves a user by their ID
func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetByEmail retrieves a user by their email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// Update modifies an existing user
func (r *Repository) Update(ctx context.Context, id string, req *UpdateUserRequest) (*User, error) {
	query := `
		UPDATE users
		SET display_name = COALESCE($2, display_name),
		    avatar_url = COALESCE($3, avatar_url)
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id, req.DisplayName, req.AvatarURL))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

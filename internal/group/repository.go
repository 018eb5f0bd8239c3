package group

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const (
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
)

// Repository handles group data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new group repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const groupColumns = `g.id, g.name, g.description, g.start_date, g.end_date, g.created_at`

func scanGroup(row interface{ Scan(...any) error }) (*Group, error) {
	group := &Group{}
	err := row.Scan(
		&group.ID,
		&group.Name,
		&group.Description,
		&group.StartDate,
		&group.EndDate,
		&group.CreatedAt,
	)
	return group, err
}

// Create inserts a new group and its creator as ADMIN in one transaction
func (r *Repository) Create(ctx context.Context, id, creatorID string, req *CreateGroupRequest) (*Group, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO groups AS g (id, name, description, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + groupColumns

	group, err := scanGroup(tx.QueryRowContext(ctx, query, id, req.Name, req.Description, req.StartDate, req.EndDate))
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, role) VALUES ($1, $2, $3)`,
		id, creatorID, MemberRoleAdmin,
	); err != nil {
		return nil, fmt.Errorf("failed to add group creator: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit group: %w", err)
	}

	return group, nil
}

// GetByID retrieves a group by its ID
func (r *Repository) GetByID(ctx context.Context, id string) (*Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups g WHERE g.id = $1`

	group, err := scanGroup(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	return group, nil
}

// ListByUserID retrieves all groups for a user
func (r *Repository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*Group, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM group_members WHERE user_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count groups: %w", err)
	}

	query := `
		SELECT ` + groupColumns + `
		FROM groups g
		JOIN group_members gm ON g.id = gm.group_id
		WHERE gm.user_id = $1
		ORDER BY g.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}

	return groups, total, rows.Err()
}

// Update modifies an existing group
func (r *Repository) Update(ctx context.Context, id string, req *UpdateGroupRequest) (*Group, error) {
	query := `
		UPDATE groups AS g
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    start_date = COALESCE($4, start_date),
		    end_date = COALESCE($5, end_date)
		WHERE g.id = $1
		RETURNING ` + groupColumns

	group, err := scanGroup(r.db.QueryRowContext(ctx, query, id, req.Name, req.Description, req.StartDate, req.EndDate))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update group: %w", err)
	}

	return group, nil
}

// Delete removes a group; members and expenses cascade
func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrGroupNotFound
	}

	return nil
}

// AddMember adds a user to a group
func (r *Repository) AddMember(ctx context.Context, groupID string, req *AddMemberRequest) (*Member, error) {
	role := req.Role
	if role == "" {
		role = MemberRoleMember
	}

	query := `
		INSERT INTO group_members (group_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING id, group_id, user_id, role, joined_at
	`

	member := &Member{}
	err := r.db.QueryRowContext(ctx, query, groupID, req.UserID, role).Scan(
		&member.ID,
		&member.GroupID,
		&member.UserID,
		&member.Role,
		&member.JoinedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case pqUniqueViolation:
				return nil, ErrMemberAlreadyExists
			case pqForeignKeyViolation:
				return nil, ErrUnknownUser
			}
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return member, nil
}

const memberColumns = `gm.id, gm.group_id, gm.user_id, gm.role, gm.joined_at, u.display_name, u.avatar_url`

func scanMember(row interface{ Scan(...any) error }) (*Member, error) {
	member := &Member{}
	err := row.Scan(
		&member.ID,
		&member.GroupID,
		&member.UserID,
		&member.Role,
		&member.JoinedAt,
		&member.DisplayName,
		&member.AvatarURL,
	)
	return member, err
}

// GetMembers retrieves all members of a group in join order
func (r *Repository) GetMembers(ctx context.Context, groupID string) ([]*Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM group_members gm
		JOIN users u ON gm.user_id = u.id
		WHERE gm.group_id = $1
		ORDER BY gm.joined_at, gm.id
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}

	return members, rows.Err()
}

// GetMember retrieves a specific member from a group
func (r *Repository) GetMember(ctx context.Context, groupID, userID string) (*Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM group_members gm
		JOIN users u ON gm.user_id = u.id
		WHERE gm.group_id = $1 AND gm.user_id = $2
	`

	member, err := scanMember(r.db.QueryRowContext(ctx, query, groupID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return member, nil
}

// RemoveMember removes a user from a group. Their expenses stay in the ledger.
func (r *Repository) RemoveMember(ctx context.Context, groupID, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrMemberNotFound
	}

	return nil
}

package expense

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Repository handles expense and split data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new expense repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const expenseColumns = `e.id, e.group_id, e.title, e.amount, e.paid_by_id, e.date, e.category,
	e.kind, e.split_type, e.split_metadata, e.created_at, e.updated_at`

func scanExpense(row interface{ Scan(...any) error }) (*Expense, error) {
	expense := &Expense{}
	err := row.Scan(
		&expense.ID,
		&expense.GroupID,
		&expense.Title,
		&expense.Amount,
		&expense.PaidByID,
		&expense.Date,
		&expense.Category,
		&expense.Kind,
		&expense.SplitType,
		&expense.SplitMetadata,
		&expense.CreatedAt,
		&expense.UpdatedAt,
	)
	return expense, err
}

// Create inserts an expense and its splits in one transaction
func (r *Repository) Create(ctx context.Context, expense *Expense) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO expenses (id, group_id, title, amount, paid_by_id, date, category, kind, split_type, split_metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err = tx.QueryRowContext(ctx, query,
		expense.ID,
		expense.GroupID,
		expense.Title,
		expense.Amount,
		expense.PaidByID,
		expense.Date,
		expense.Category,
		expense.Kind,
		expense.SplitType,
		expense.SplitMetadata,
	).Scan(&expense.CreatedAt, &expense.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}

	if err := insertSplits(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit expense: %w", err)
	}
	return nil
}

// Replace overwrites an expense and recreates all of its splits in one transaction
func (r *Repository) Replace(ctx context.Context, expense *Expense) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE expenses
		SET title = $2, amount = $3, paid_by_id = $4, date = $5, category = $6,
		    split_type = $7, split_metadata = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`

	err = tx.QueryRowContext(ctx, query,
		expense.ID,
		expense.Title,
		expense.Amount,
		expense.PaidByID,
		expense.Date,
		expense.Category,
		expense.SplitType,
		expense.SplitMetadata,
	).Scan(&expense.CreatedAt, &expense.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrExpenseNotFound
		}
		return fmt.Errorf("failed to update expense: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM splits WHERE expense_id = $1`, expense.ID); err != nil {
		return fmt.Errorf("failed to clear splits: %w", err)
	}

	if err := insertSplits(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit expense: %w", err)
	}
	return nil
}

func insertSplits(ctx context.Context, tx *sql.Tx, expense *Expense) error {
	query := `
		INSERT INTO splits (expense_id, user_id, position, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	for i, s := range expense.Splits {
		s.ExpenseID = expense.ID
		if err := tx.QueryRowContext(ctx, query, expense.ID, s.UserID, i, s.Amount).Scan(&s.ID); err != nil {
			return fmt.Errorf("failed to create split: %w", err)
		}
	}
	return nil
}

// GetByID retrieves an expense with its splits
func (r *Repository) GetByID(ctx context.Context, id string) (*Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses e WHERE e.id = $1`

	expense, err := scanExpense(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if err := r.loadSplits(ctx, []*Expense{expense}); err != nil {
		return nil, err
	}
	return expense, nil
}

func (f Filter) where() (string, []any) {
	conditions := []string{"e.group_id = $1"}
	args := []any{f.GroupID}

	if f.Category != "" {
		args = append(args, f.Category)
		conditions = append(conditions, fmt.Sprintf("e.category = $%d", len(args)))
	}
	if f.PaidByID != "" {
		args = append(args, f.PaidByID)
		conditions = append(conditions, fmt.Sprintf("e.paid_by_id = $%d", len(args)))
	}

	return strings.Join(conditions, " AND "), args
}

// List retrieves a group's expenses matching the filter, with splits, ordered by date
func (r *Repository) List(ctx context.Context, f Filter) ([]*Expense, error) {
	where, args := f.where()

	order := "DESC"
	if f.Ascending {
		order = "ASC"
	}
	query := fmt.Sprintf(`SELECT %s FROM expenses e WHERE %s ORDER BY e.date %s, e.created_at %s`,
		expenseColumns, where, order, order)

	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	return r.query(ctx, query, args...)
}

// Totals aggregates every expense matching the filter, ignoring pagination
func (r *Repository) Totals(ctx context.Context, f Filter) (Totals, error) {
	where, args := f.where()
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(e.amount) FILTER (WHERE e.kind = 'EXPENSE'), 0),
		       COALESCE(SUM(e.amount) FILTER (WHERE e.kind = 'SETTLEMENT'), 0)
		FROM expenses e
		WHERE ` + where

	var t Totals
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&t.Count, &t.Spend, &t.Settled); err != nil {
		return Totals{}, fmt.Errorf("failed to total expenses: %w", err)
	}
	return t, nil
}

// ListByUserID retrieves every expense a user paid for or owes a share of, oldest first
func (r *Repository) ListByUserID(ctx context.Context, userID string) ([]*Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses e
		WHERE e.paid_by_id = $1
		   OR EXISTS (SELECT 1 FROM splits s WHERE s.expense_id = e.id AND s.user_id = $1)
		ORDER BY e.date, e.created_at
	`
	return r.query(ctx, query, userID)
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]*Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadSplits(ctx, expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

// loadSplits fills in Splits for every expense with a single query
func (r *Repository) loadSplits(ctx context.Context, expenses []*Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	byID := make(map[string]*Expense, len(expenses))
	ids := make([]string, len(expenses))
	for i, e := range expenses {
		e.Splits = []*Split{}
		byID[e.ID] = e
		ids[i] = e.ID
	}

	query := `
		SELECT id, expense_id, user_id, amount
		FROM splits
		WHERE expense_id = ANY($1)
		ORDER BY expense_id, position
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		s := &Split{}
		if err := rows.Scan(&s.ID, &s.ExpenseID, &s.UserID, &s.Amount); err != nil {
			return fmt.Errorf("failed to scan split: %w", err)
		}
		if e, ok := byID[s.ExpenseID]; ok {
			e.Splits = append(e.Splits, s)
		}
	}

	return rows.Err()
}

// Delete removes an expense; its splits cascade
func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrExpenseNotFound
	}

	return nil
}

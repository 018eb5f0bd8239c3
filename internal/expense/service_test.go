package expense

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/splitledger/internal/expense/split"
	"github.com/fkhayef/splitledger/internal/group"
)

type fakeMembers []string

func (f fakeMembers) RequireMember(_ context.Context, _, userID string) error {
	for _, id := range f {
		if id == userID {
			return nil
		}
	}
	return group.ErrNotMember
}

func (f fakeMembers) GetMembers(_ context.Context, groupID string) ([]*group.Member, error) {
	members := make([]*group.Member, len(f))
	for i, id := range f {
		members[i] = &group.Member{GroupID: groupID, UserID: id, Role: group.MemberRoleMember}
	}
	return members, nil
}

var expenseCols = []string{
	"id", "group_id", "title", "amount", "paid_by_id", "date", "category",
	"kind", "split_type", "split_metadata", "created_at", "updated_at",
}
var splitCols = []string{"id", "expense_id", "user_id", "amount"}

func newTestService(t *testing.T, members fakeMembers) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewService(NewRepository(db), members, split.NewSplitStrategyFactory(), nil, slog.New(slog.DiscardHandler))
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc, mock
}

func expectInsert(mock sqlmock.Sqlmock, splits int) {
	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO expenses`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	for i := 0; i < splits; i++ {
		mock.ExpectQuery(`INSERT INTO splits`).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), i, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(i + 1)))
	}
	mock.ExpectCommit()
}

func TestService_Create(t *testing.T) {
	members := fakeMembers{"alice", "bob", "carol"}

	t.Run("equal split persisted in one transaction", func(t *testing.T) {
		svc, mock := newTestService(t, members)
		expectInsert(mock, 3)

		expense, err := svc.Create(context.Background(), "alice", &CreateExpenseRequest{
			GroupID:        "g1",
			Title:          "Dinner",
			Amount:         decimal.RequireFromString("100.00"),
			PaidByID:       "alice",
			Category:       "Food",
			SplitType:      split.SplitTypeEqual,
			ParticipantIDs: []string{"alice", "bob", "carol"},
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())

		_, err = uuid.Parse(expense.ID)
		assert.NoError(t, err)
		assert.Equal(t, KindExpense, expense.Kind)
		assert.Equal(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), expense.Date)
		require.Len(t, expense.Splits, 3)
		assert.Equal(t, "33.34", expense.Splits[0].Amount.StringFixed(2))
		assert.Equal(t, "33.33", expense.Splits[2].Amount.StringFixed(2))
		for _, s := range expense.Splits {
			assert.Equal(t, expense.ID, s.ExpenseID)
		}
		assert.Nil(t, expense.SplitMetadata)
	})

	t.Run("percent split keeps original inputs", func(t *testing.T) {
		svc, mock := newTestService(t, members)
		expectInsert(mock, 2)

		expense, err := svc.Create(context.Background(), "bob", &CreateExpenseRequest{
			GroupID:        "g1",
			Title:          "Taxi",
			Amount:         decimal.RequireFromString("10.00"),
			PaidByID:       "bob",
			Category:       "Transport",
			SplitType:      split.SplitTypePercent,
			ParticipantIDs: []string{"bob", "carol"},
			Inputs:         map[string]string{"bob": "33.333", "carol": "66.667"},
		})
		require.NoError(t, err)
		assert.Equal(t, "3.33", expense.Splits[0].Amount.StringFixed(2))
		assert.Equal(t, "6.67", expense.Splits[1].Amount.StringFixed(2))
		assert.Equal(t, "33.333", expense.SplitMetadata["bob"].Value.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	tests := []struct {
		name    string
		caller  string
		mutate  func(*CreateExpenseRequest)
		wantErr error
	}{
		{
			name:    "caller outside group",
			caller:  "mallory",
			wantErr: group.ErrNotMember,
		},
		{
			name:    "payer outside group",
			caller:  "alice",
			mutate:  func(r *CreateExpenseRequest) { r.PaidByID = "mallory" },
			wantErr: ErrPayerNotMember,
		},
		{
			name:    "participant outside group",
			caller:  "alice",
			mutate:  func(r *CreateExpenseRequest) { r.ParticipantIDs = []string{"alice", "mallory"} },
			wantErr: ErrParticipantNotMember,
		},
		{
			name:    "settlement category is reserved",
			caller:  "alice",
			mutate:  func(r *CreateExpenseRequest) { r.Category = SettlementCategory },
			wantErr: ErrReservedCategory,
		},
		{
			name:   "exact amounts that do not reconcile",
			caller: "alice",
			mutate: func(r *CreateExpenseRequest) {
				r.SplitType = split.SplitTypeExact
				r.Inputs = map[string]string{"alice": "40", "bob": "50"}
			},
			wantErr: split.ErrMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock := newTestService(t, members)
			req := &CreateExpenseRequest{
				GroupID:        "g1",
				Title:          "Groceries",
				Amount:         decimal.NewFromInt(100),
				PaidByID:       "alice",
				Category:       "Food",
				SplitType:      split.SplitTypeEqual,
				ParticipantIDs: []string{"alice", "bob"},
			}
			if tt.mutate != nil {
				tt.mutate(req)
			}

			_, err := svc.Create(context.Background(), tt.caller, req)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
			// nothing reaches the database
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func expectGet(mock sqlmock.Sqlmock, id string, kind Kind, splits ...[2]string) {
	now := time.Now()
	mock.ExpectQuery(`SELECT .* FROM expenses e WHERE e.id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(expenseCols).AddRow(
			id, "g1", "Dinner", "30.00", "alice", now, "Food",
			string(kind), "EQUAL", nil, now, now,
		))

	rows := sqlmock.NewRows(splitCols)
	for i, s := range splits {
		rows.AddRow(int64(i+1), id, s[0], s[1])
	}
	mock.ExpectQuery(`FROM splits\s+WHERE expense_id = ANY\(\$1\)`).WillReturnRows(rows)
}

func TestService_Update(t *testing.T) {
	members := fakeMembers{"alice", "bob", "carol"}

	t.Run("replaces fields and recreates splits", func(t *testing.T) {
		svc, mock := newTestService(t, members)
		expectGet(mock, "e1", KindExpense, [2]string{"alice", "15.00"}, [2]string{"bob", "15.00"})

		now := time.Now()
		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE expenses`).
			WithArgs("e1", "Dinner and drinks", sqlmock.AnyArg(), "bob", sqlmock.AnyArg(), "Food", split.SplitTypeShares, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectExec(`DELETE FROM splits WHERE expense_id = \$1`).
			WithArgs("e1").
			WillReturnResult(sqlmock.NewResult(0, 2))
		for i := 0; i < 3; i++ {
			mock.ExpectQuery(`INSERT INTO splits`).
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10 + i)))
		}
		mock.ExpectCommit()

		expense, err := svc.Update(context.Background(), "carol", "e1", &UpdateExpenseRequest{
			Title:          "Dinner and drinks",
			Amount:         decimal.RequireFromString("45.00"),
			PaidByID:       "bob",
			Category:       "Food",
			SplitType:      split.SplitTypeShares,
			ParticipantIDs: []string{"alice", "bob", "carol"},
			Inputs:         map[string]string{"alice": "1", "bob": "1", "carol": "1"},
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())

		assert.Equal(t, "e1", expense.ID)
		assert.Equal(t, "g1", expense.GroupID)
		assert.Equal(t, KindExpense, expense.Kind)
		assert.Equal(t, []string{"alice", "bob", "carol"}, expense.ParticipantIDs())
		assert.Equal(t, "15.00", expense.Splits[2].Amount.StringFixed(2))
		assert.Equal(t, split.InputKindShareCount, expense.SplitMetadata["carol"].Kind)
	})

	t.Run("settlements are edited elsewhere", func(t *testing.T) {
		svc, mock := newTestService(t, members)
		expectGet(mock, "s1", KindSettlement, [2]string{"bob", "30.00"})

		_, err := svc.Update(context.Background(), "alice", "s1", &UpdateExpenseRequest{
			Title:          "x",
			Amount:         decimal.NewFromInt(1),
			PaidByID:       "alice",
			Category:       "Food",
			SplitType:      split.SplitTypeEqual,
			ParticipantIDs: []string{"bob"},
		})
		assert.ErrorIs(t, err, ErrIsSettlement)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown expense", func(t *testing.T) {
		svc, mock := newTestService(t, members)
		mock.ExpectQuery(`SELECT .* FROM expenses e WHERE e.id = \$1`).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(expenseCols))

		_, err := svc.Update(context.Background(), "alice", "missing", &UpdateExpenseRequest{})
		assert.ErrorIs(t, err, ErrExpenseNotFound)
	})
}

func TestService_ListByGroup(t *testing.T) {
	svc, mock := newTestService(t, fakeMembers{"alice", "bob"})
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM expenses e WHERE e.group_id = \$1 AND e.category = \$2 ORDER BY e.date ASC, e.created_at ASC LIMIT \$3 OFFSET \$4`).
		WithArgs("g1", "Food", 20, 0).
		WillReturnRows(sqlmock.NewRows(expenseCols).
			AddRow("e1", "g1", "Lunch", "20.00", "alice", now, "Food", "EXPENSE", "EQUAL", nil, now, now))
	mock.ExpectQuery(`FROM splits`).
		WillReturnRows(sqlmock.NewRows(splitCols).
			AddRow(int64(1), "e1", "alice", "10.00").
			AddRow(int64(2), "e1", "bob", "10.00"))
	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WithArgs("g1", "Food").
		WillReturnRows(sqlmock.NewRows([]string{"count", "spend", "settled"}).AddRow(3, "120.00", "0"))

	expenses, totals, err := svc.ListByGroup(context.Background(), "bob", Filter{GroupID: "g1", Category: "Food", Ascending: true})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, expenses, 1)
	assert.Len(t, expenses[0].Splits, 2)
	assert.Equal(t, 3, totals.Count)
	assert.Equal(t, "120.00", totals.Spend.StringFixed(2))
	assert.Equal(t, "120.00", totals.Net().StringFixed(2))
}

func TestService_Delete(t *testing.T) {
	t.Run("member deletes", func(t *testing.T) {
		svc, mock := newTestService(t, fakeMembers{"alice", "bob"})
		expectGet(mock, "e1", KindExpense, [2]string{"alice", "30.00"})
		mock.ExpectExec(`DELETE FROM expenses WHERE id = \$1`).
			WithArgs("e1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, svc.Delete(context.Background(), "bob", "e1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("outsider cannot", func(t *testing.T) {
		svc, mock := newTestService(t, fakeMembers{"alice"})
		expectGet(mock, "e1", KindExpense, [2]string{"alice", "30.00"})

		assert.ErrorIs(t, svc.Delete(context.Background(), "mallory", "e1"), group.ErrNotMember)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTotals_Net(t *testing.T) {
	totals := Totals{Spend: decimal.RequireFromString("250.00"), Settled: decimal.RequireFromString("80.50")}
	assert.Equal(t, "169.50", totals.Net().StringFixed(2))
}

type recordingNotifier struct {
	saved   []string
	deleted []string
	err     error
}

func (n *recordingNotifier) ExpenseSaved(_ context.Context, actorID string, e *Expense, created bool) error {
	verb := "updated"
	if created {
		verb = "created"
	}
	n.saved = append(n.saved, actorID+" "+verb+" "+e.Title)
	return n.err
}

func (n *recordingNotifier) ExpenseDeleted(_ context.Context, actorID string, e *Expense) error {
	n.deleted = append(n.deleted, actorID+" deleted "+e.ID)
	return n.err
}

func TestService_Notifies(t *testing.T) {
	req := &CreateExpenseRequest{
		GroupID:        "g1",
		Title:          "Cabin",
		Amount:         decimal.NewFromInt(300),
		PaidByID:       "alice",
		Category:       "Lodging",
		SplitType:      split.SplitTypeEqual,
		ParticipantIDs: []string{"alice", "bob"},
	}

	t.Run("after create", func(t *testing.T) {
		svc, mock := newTestService(t, fakeMembers{"alice", "bob"})
		notifier := &recordingNotifier{}
		svc.notifier = notifier
		expectInsert(mock, 2)

		_, err := svc.Create(context.Background(), "alice", req)
		require.NoError(t, err)
		assert.Equal(t, []string{"alice created Cabin"}, notifier.saved)
	})

	t.Run("failure does not fail the write", func(t *testing.T) {
		svc, mock := newTestService(t, fakeMembers{"alice", "bob"})
		svc.notifier = &recordingNotifier{err: errors.New("smtp down")}
		expectInsert(mock, 2)

		_, err := svc.Create(context.Background(), "alice", req)
		assert.NoError(t, err)
	})

	t.Run("not sent when the write fails", func(t *testing.T) {
		svc, mock := newTestService(t, fakeMembers{"alice", "bob"})
		notifier := &recordingNotifier{}
		svc.notifier = notifier
		mock.ExpectBegin().WillReturnError(errors.New("db down"))

		_, err := svc.Create(context.Background(), "alice", req)
		assert.Error(t, err)
		assert.Empty(t, notifier.saved)
	})
}

package friend

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/splitledger/pkg/middleware"
)

var userCols = []string{"id", "display_name", "email", "avatar_url"}

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewService(NewRepository(db), slog.New(slog.DiscardHandler)), mock
}

func expectUser(mock sqlmock.Sqlmock, id string, found bool) {
	rows := sqlmock.NewRows(userCols)
	if found {
		rows.AddRow(id, strings.ToUpper(id[:1])+id[1:], id+"@example.com", nil)
	}
	mock.ExpectQuery(`SELECT id, display_name, email, avatar_url FROM users WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(rows)
}

func expectExists(mock sqlmock.Sqlmock, a, b string, exists bool) {
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM friends f WHERE`).
		WithArgs(a, b).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(exists))
}

func TestService_Add(t *testing.T) {
	t.Run("stores a new friendship", func(t *testing.T) {
		svc, mock := newTestService(t)
		expectUser(mock, "bob", true)
		expectExists(mock, "alice", "bob", false)
		mock.ExpectExec(`INSERT INTO friends \(user_id, friend_id\) VALUES \(\$1, \$2\) ON CONFLICT DO NOTHING`).
			WithArgs("alice", "bob").
			WillReturnResult(sqlmock.NewResult(0, 1))

		friend, created, err := svc.Add(context.Background(), "alice", "bob")
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "Bob", friend.DisplayName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("existing friendship in the other direction", func(t *testing.T) {
		svc, mock := newTestService(t)
		expectUser(mock, "alice", true)
		expectExists(mock, "bob", "alice", true)

		friend, created, err := svc.Add(context.Background(), "bob", "alice")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "alice", friend.UserID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("yourself", func(t *testing.T) {
		svc, mock := newTestService(t)

		_, _, err := svc.Add(context.Background(), "alice", "alice")
		assert.ErrorIs(t, err, ErrCannotFriendSelf)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, mock := newTestService(t)
		expectUser(mock, "ghost", false)

		_, _, err := svc.Add(context.Background(), "alice", "ghost")
		assert.ErrorIs(t, err, ErrUnknownUser)
	})
}

func TestService_Remove(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectExec(`DELETE FROM friends f WHERE \(f.user_id = \$1 AND f.friend_id = \$2\) OR \(f.user_id = \$2 AND f.friend_id = \$1\)`).
		WithArgs("alice", "bob").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, svc.Remove(context.Background(), "alice", "bob"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_AreFriends(t *testing.T) {
	svc, mock := newTestService(t)
	expectExists(mock, "alice", "bob", true)

	ok, err := svc.AreFriends(context.Background(), "alice", "bob")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.AreFriends(context.Background(), "alice", "alice")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_List(t *testing.T) {
	svc, mock := newTestService(t)
	now := time.Now()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM friends WHERE user_id = \$1 OR friend_id = \$1`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`FROM friends f\s+JOIN users u`).
		WithArgs("alice", 2, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "display_name", "email", "avatar_url", "since"}).
			AddRow("carol", "Carol", "carol@example.com", nil, now))

	friends, total, err := svc.List(context.Background(), "alice", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, friends, 1)
	assert.Equal(t, "carol", friends[0].UserID)
	assert.Equal(t, now, friends[0].Since)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Add(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setup      func(mock sqlmock.Sqlmock)
		wantStatus int
	}{
		{"new friend", `{"friend_id":"bob"}`, func(mock sqlmock.Sqlmock) {
			expectUser(mock, "bob", true)
			expectExists(mock, "alice", "bob", false)
			mock.ExpectExec(`INSERT INTO friends`).WillReturnResult(sqlmock.NewResult(0, 1))
		}, http.StatusCreated},
		{"already friends", `{"friend_id":"bob"}`, func(mock sqlmock.Sqlmock) {
			expectUser(mock, "bob", true)
			expectExists(mock, "alice", "bob", true)
		}, http.StatusOK},
		{"yourself", `{"friend_id":"alice"}`, func(sqlmock.Sqlmock) {}, http.StatusBadRequest},
		{"unknown user", `{"friend_id":"ghost"}`, func(mock sqlmock.Sqlmock) {
			expectUser(mock, "ghost", false)
		}, http.StatusNotFound},
		{"missing friend id", `{}`, func(sqlmock.Sqlmock) {}, http.StatusBadRequest},
		{"database down", `{"friend_id":"bob"}`, func(mock sqlmock.Sqlmock) {
			mock.ExpectQuery(`FROM users`).WillReturnError(errors.New("connection refused"))
		}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock := newTestService(t)
			tt.setup(mock)

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req = req.WithContext(middleware.WithUserID(req.Context(), "alice"))
			rec := httptest.NewRecorder()

			NewHandler(svc).Routes().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

package user

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "display_name", "email", "avatar_url", "created_at"}

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewService(NewRepository(db), slog.New(slog.DiscardHandler)), mock
}

func TestService_Create(t *testing.T) {
	req := &CreateUserRequest{DisplayName: "Alice", Email: "alice@example.com"}

	t.Run("onboards a new identity", func(t *testing.T) {
		svc, mock := newTestService(t)
		mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
			WithArgs("auth|alice").
			WillReturnRows(sqlmock.NewRows(userCols))
		mock.ExpectQuery(`SELECT .* FROM users WHERE email = \$1`).
			WithArgs("alice@example.com").
			WillReturnRows(sqlmock.NewRows(userCols))
		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("auth|alice", "Alice", "alice@example.com", nil).
			WillReturnRows(sqlmock.NewRows(userCols).AddRow("auth|alice", "Alice", "alice@example.com", nil, time.Now()))

		user, err := svc.Create(context.Background(), "auth|alice", req)
		require.NoError(t, err)
		assert.Equal(t, "auth|alice", user.ID)
		assert.Nil(t, user.AvatarURL)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already onboarded", func(t *testing.T) {
		svc, mock := newTestService(t)
		mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
			WithArgs("auth|alice").
			WillReturnRows(sqlmock.NewRows(userCols).AddRow("auth|alice", "Alice", "alice@example.com", nil, time.Now()))

		_, err := svc.Create(context.Background(), "auth|alice", req)
		assert.ErrorIs(t, err, ErrUserExists)
	})

	t.Run("email taken by another identity", func(t *testing.T) {
		svc, mock := newTestService(t)
		mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
			WithArgs("auth|alice").
			WillReturnRows(sqlmock.NewRows(userCols))
		mock.ExpectQuery(`SELECT .* FROM users WHERE email = \$1`).
			WithArgs("alice@example.com").
			WillReturnRows(sqlmock.NewRows(userCols).AddRow("auth|other", "Other", "alice@example.com", nil, time.Now()))

		_, err := svc.Create(context.Background(), "auth|alice", req)
		assert.ErrorIs(t, err, ErrEmailAlreadyInUse)
	})
}

func TestService_Update(t *testing.T) {
	svc, mock := newTestService(t)
	name := "Alicia"
	mock.ExpectQuery(`UPDATE users`).
		WithArgs("ghost", "Alicia", nil).
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := svc.Update(context.Background(), "ghost", &UpdateUserRequest{DisplayName: &name})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_GetByID(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := svc.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

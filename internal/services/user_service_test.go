package services

import (
	"context"
	"testing"
	"time"

	contextutils "readerapp/internal/utils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userRow(id int, role string) *sqlmock.Rows {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{"id", "username", "email", "role", "last_active", "created_at", "updated_at"}).
		AddRow(id, "alice", "alice@example.com", role, nil, now, now)
}

func TestGetUserByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewUserService(db, newTestLogger())

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = service.GetUserByID(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrRecordNotFound))
}

func TestGetUserByID_LoadsRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewUserService(db, newTestLogger())
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs(5).
		WillReturnRows(userRow(5, "moderator"))

	user, err := service.GetUserByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.True(t, user.Role.CanModerate())
}

func TestTouchLastActive_SwallowsErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewUserService(db, newTestLogger())

	mock.ExpectExec("UPDATE users SET last_active").
		WithArgs(5).
		WillReturnError(assert.AnError)

	service.TouchLastActive(context.Background(), 5)
}

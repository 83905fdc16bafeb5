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

func TestGetSessionByToken_UnknownTokenIsUnauthorized(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewSessionService(db, newTestLogger())

	mock.ExpectQuery("SELECT (.+) FROM user_sessions WHERE access_token").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = service.GetSessionByToken(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrUnauthorized))
}

func TestGetSessionByToken_ExpiredSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewSessionService(db, newTestLogger())
	past := time.Now().Add(-time.Hour)

	mock.ExpectQuery("SELECT (.+) FROM user_sessions WHERE access_token").
		WithArgs("stale-token").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "access_token", "expires_at", "created_at"}).
			AddRow(1, 5, "stale-token", past, past.Add(-24*time.Hour)))

	_, err = service.GetSessionByToken(context.Background(), "stale-token")
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrSessionExpired))
}

func TestGetSessionByToken_ValidSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewSessionService(db, newTestLogger())
	future := time.Now().Add(time.Hour)

	mock.ExpectQuery("SELECT (.+) FROM user_sessions WHERE access_token").
		WithArgs("good-token").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "access_token", "expires_at", "created_at"}).
			AddRow(1, 5, "good-token", future, time.Now()))

	session, err := service.GetSessionByToken(context.Background(), "good-token")
	require.NoError(t, err)
	assert.Equal(t, 5, session.UserID)
}

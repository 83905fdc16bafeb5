package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	contextutils "readerapp/internal/utils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReply_BumpsCommentCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM user_feedback").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery("INSERT INTO feedback_replies").
		WithArgs(7, 5, "working on it", false, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(11, now, now))
	mock.ExpectExec(`UPDATE user_feedback SET comment_count = comment_count \+ 1`).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	reply, err := service.CreateReply(context.Background(), 7, 5, "working on it", false, nil)
	require.NoError(t, err)
	assert.Equal(t, 11, reply.ID)
	assert.Equal(t, 7, reply.FeedbackID)
	assert.False(t, reply.IsInternal)
}

func TestCreateReply_FeedbackNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM user_feedback").
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err = service.CreateReply(context.Background(), 99, 5, "hello", false, nil)
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrRecordNotFound))
}

func TestListReplies_HidesInternalForRegularUsers(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cols := []string{"id", "feedback_id", "user_id", "username", "message", "is_internal", "attachments", "created_at", "updated_at"}

	mock.ExpectQuery(`AND r.is_internal = FALSE`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(11, 7, 5, "alice", "public note", false, nil, now, now))

	replies, err := service.ListReplies(context.Background(), 7, false)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "public note", replies[0].Message)
}

func TestUpdateReply_AuthorOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, feedback_id, user_id, message").
		WithArgs(11).
		WillReturnRows(sqlmock.NewRows([]string{"id", "feedback_id", "user_id", "message", "is_internal", "attachments", "created_at", "updated_at"}).
			AddRow(11, 7, 5, "old", false, nil, now, now))

	_, err = service.UpdateReply(context.Background(), 11, 999, "new message")
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrForbidden))
}

func TestDeleteReply_DecrementsCommentCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT feedback_id, user_id FROM feedback_replies").
		WithArgs(11).
		WillReturnRows(sqlmock.NewRows([]string{"feedback_id", "user_id"}).AddRow(7, 5))
	mock.ExpectExec("DELETE FROM feedback_replies").
		WithArgs(11).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE user_feedback SET comment_count = GREATEST\(comment_count - 1, 0\)`).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, service.DeleteReply(context.Background(), 11, 5, false))
}

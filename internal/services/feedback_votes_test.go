package services

import (
	"context"
	"database/sql"
	"testing"

	"readerapp/internal/config"
	"readerapp/internal/observability"
	contextutils "readerapp/internal/utils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *observability.Logger {
	return observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
}

func TestVoteFeedback_InvalidType(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())

	_, err = service.VoteFeedback(context.Background(), 1, 2, "sideways")
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidVoteType))
}

func TestVoteFeedback_FeedbackNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM user_feedback WHERE id").
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err = service.VoteFeedback(context.Background(), 99, 2, "upvote")
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrRecordNotFound))
}

func TestVoteFeedback_FirstUpvote(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM user_feedback WHERE id").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery("SELECT vote_type FROM feedback_votes").
		WithArgs(1, 2).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO feedback_votes").
		WithArgs(1, 2, "upvote").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE user_feedback SET upvotes = upvotes \+ 1`).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT upvotes, downvotes FROM user_feedback").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"upvotes", "downvotes"}).AddRow(1, 0))
	mock.ExpectCommit()

	result, err := service.VoteFeedback(context.Background(), 1, 2, "upvote")
	require.NoError(t, err)
	assert.Equal(t, "upvote", result.UserVote)
	assert.Equal(t, 1, result.Upvotes)
	assert.Equal(t, 0, result.Downvotes)
}

func TestVoteFeedback_SameVoteCancels(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM user_feedback WHERE id").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery("SELECT vote_type FROM feedback_votes").
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"vote_type"}).AddRow("upvote"))
	mock.ExpectExec("DELETE FROM feedback_votes").
		WithArgs(1, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE user_feedback SET upvotes = upvotes - 1`).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT upvotes, downvotes FROM user_feedback").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"upvotes", "downvotes"}).AddRow(0, 0))
	mock.ExpectCommit()

	result, err := service.VoteFeedback(context.Background(), 1, 2, "upvote")
	require.NoError(t, err)
	assert.Empty(t, result.UserVote)
	assert.Equal(t, 0, result.Upvotes)
}

func TestVoteFeedback_SwitchMovesBothCounters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM user_feedback WHERE id").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery("SELECT vote_type FROM feedback_votes").
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"vote_type"}).AddRow("upvote"))
	mock.ExpectExec("UPDATE feedback_votes SET vote_type").
		WithArgs("downvote", 1, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE user_feedback SET upvotes = upvotes - 1, downvotes = downvotes \+ 1`).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT upvotes, downvotes FROM user_feedback").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"upvotes", "downvotes"}).AddRow(0, 1))
	mock.ExpectCommit()

	result, err := service.VoteFeedback(context.Background(), 1, 2, "downvote")
	require.NoError(t, err)
	assert.Equal(t, "downvote", result.UserVote)
	assert.Equal(t, 0, result.Upvotes)
	assert.Equal(t, 1, result.Downvotes)
}

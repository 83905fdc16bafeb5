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

func TestBatchAction_ValidatesUpFront(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())

	t.Run("no ids", func(t *testing.T) {
		_, err := service.BatchAction(context.Background(), 1, BatchActionDelete, nil, "", "")
		require.Error(t, err)
		assert.True(t, contextutils.IsError(err, contextutils.ErrMissingRequired))
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := service.BatchAction(context.Background(), 1, "explode", []int{1}, "", "")
		require.Error(t, err)
		assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidInput))
	})

	t.Run("update_status without status", func(t *testing.T) {
		_, err := service.BatchAction(context.Background(), 1, BatchActionUpdateStatus, []int{1}, "", "")
		require.Error(t, err)
		assert.True(t, contextutils.IsError(err, contextutils.ErrMissingRequired))
	})

	t.Run("update_status with bad status", func(t *testing.T) {
		_, err := service.BatchAction(context.Background(), 1, BatchActionUpdateStatus, []int{1}, "vanished", "")
		require.Error(t, err)
		assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidStatus))
	})
}

func TestBatchAction_DeleteContinuesPastFailures(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())

	mock.ExpectExec("DELETE FROM user_feedback").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM user_feedback").
		WithArgs(2).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM user_feedback").
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := service.BatchAction(context.Background(), 1, BatchActionDelete, []int{1, 2, 3}, "", "")
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.FailCount)
	require.Len(t, result.Results, 3)
	assert.True(t, result.Results[0].Success)
	assert.False(t, result.Results[1].Success)
	assert.True(t, result.Results[2].Success)
}

func TestBatchAction_MarkResolvedUsesCompletedStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM user_feedback f JOIN users u").
		WithArgs(7).
		WillReturnRows(feedbackRow(7, "in_progress"))
	mock.ExpectQuery(`UPDATE user_feedback SET status = \$1`).
		WithArgs("completed", 7).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at", "completed_at"}).AddRow(now, now))
	mock.ExpectExec("INSERT INTO feedback_change_log").
		WithArgs(7, "status", "in_progress", "completed", 1, "batch resolve").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	result, err := service.BatchAction(context.Background(), 1, BatchActionMarkResolved, []int{7}, "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 0, result.FailCount)
}

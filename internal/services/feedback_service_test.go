package services

import (
	"context"
	"testing"
	"time"

	"readerapp/internal/models"
	contextutils "readerapp/internal/utils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var feedbackColumnNames = []string{
	"id", "user_id", "username", "title", "content", "type", "status", "priority",
	"upvotes", "downvotes", "view_count", "comment_count", "attachments", "metadata",
	"created_at", "updated_at", "assigned_at", "completed_at",
}

func feedbackRow(id int, status string) *sqlmock.Rows {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(feedbackColumnNames).AddRow(
		id, 5, "alice", "Dark mode please", "The reader is blinding at night", "feature", status, "medium",
		3, 1, 10, 2, nil, nil,
		now, now, nil, nil,
	)
}

func TestCreateFeedback_RequiresTitleAndContent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())

	_, err = service.CreateFeedback(context.Background(), 5, CreateFeedbackInput{Type: "bug"})
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrMissingRequired))
}

func TestCreateFeedback_RejectsUnknownType(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM feedback_categories`).
		WithArgs("rant").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, err = service.CreateFeedback(context.Background(), 5, CreateFeedbackInput{
		Title: "title", Content: "content", Type: "rant",
	})
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidInput))
}

func TestCreateFeedback_AcceptsActiveCustomCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM feedback_categories`).
		WithArgs("translation").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("INSERT INTO user_feedback").
		WithArgs(5, "title", "content", "translation", "pending", "medium", nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(42, now, now))

	item, err := service.CreateFeedback(context.Background(), 5, CreateFeedbackInput{
		Title: "title", Content: "content", Type: "translation",
	})
	require.NoError(t, err)
	assert.Equal(t, 42, item.ID)
	assert.Equal(t, models.StatusPending, item.Status)
	assert.Equal(t, models.PriorityMedium, item.Priority)
}

func TestGetFeedbackByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())

	mock.ExpectExec(`UPDATE user_feedback SET view_count = view_count \+ 1`).
		WithArgs(99).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err = service.GetFeedbackByID(context.Background(), 99, 5)
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrRecordNotFound))
}

func TestGetFeedbackByID_IncludesViewerVote(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())

	mock.ExpectExec(`UPDATE user_feedback SET view_count = view_count \+ 1`).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM user_feedback f JOIN users u").
		WithArgs(7).
		WillReturnRows(feedbackRow(7, "pending"))
	mock.ExpectQuery("SELECT vote_type FROM feedback_votes").
		WithArgs(7, 5).
		WillReturnRows(sqlmock.NewRows([]string{"vote_type"}).AddRow("upvote"))

	item, err := service.GetFeedbackByID(context.Background(), 7, 5)
	require.NoError(t, err)
	assert.Equal(t, "alice", item.Username)
	assert.Equal(t, "upvote", item.UserVote)
}

func TestUpdateFeedback_ForbiddenForNonOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())
	title := "hijacked"

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM user_feedback f JOIN users u").
		WithArgs(7).
		WillReturnRows(feedbackRow(7, "pending"))
	mock.ExpectRollback()

	_, err = service.UpdateFeedback(context.Background(), 7, 999, false, UpdateFeedbackInput{Title: &title})
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrForbidden))
}

func TestUpdateFeedback_NoOpWritesNothing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())
	status := "pending"

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM user_feedback f JOIN users u").
		WithArgs(7).
		WillReturnRows(feedbackRow(7, "pending"))
	mock.ExpectCommit()

	item, err := service.UpdateFeedback(context.Background(), 7, 1, true, UpdateFeedbackInput{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, item.Status)
}

func TestUpdateFeedback_CompletingStampsCompletedAt(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())
	status := "completed"
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM user_feedback f JOIN users u").
		WithArgs(7).
		WillReturnRows(feedbackRow(7, "in_progress"))
	mock.ExpectQuery(`UPDATE user_feedback SET status = \$1, updated_at = CURRENT_TIMESTAMP, completed_at = COALESCE`).
		WithArgs("completed", 7).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at", "completed_at"}).AddRow(now, now))
	mock.ExpectExec("INSERT INTO feedback_change_log").
		WithArgs(7, "status", "in_progress", "completed", 1, "shipped in v2").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	item, err := service.UpdateFeedback(context.Background(), 7, 1, true, UpdateFeedbackInput{
		Status: &status, Reason: "shipped in v2",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, item.Status)
	require.True(t, item.CompletedAt.Valid)
	assert.Equal(t, now, item.CompletedAt.Time)
}

func TestUpdateFeedback_OneChangeLogRowPerChangedField(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())
	title := "Night mode please"
	priority := "high"
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM user_feedback f JOIN users u").
		WithArgs(7).
		WillReturnRows(feedbackRow(7, "pending"))
	mock.ExpectQuery(`UPDATE user_feedback SET title = \$1, priority = \$2, updated_at = CURRENT_TIMESTAMP`).
		WithArgs("Night mode please", "high", 7).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at", "completed_at"}).AddRow(now, nil))
	mock.ExpectExec("INSERT INTO feedback_change_log").
		WithArgs(7, "title", "Dark mode please", "Night mode please", 5, "feedback updated").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO feedback_change_log").
		WithArgs(7, "priority", "medium", "high", 5, "feedback updated").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	item, err := service.UpdateFeedback(context.Background(), 7, 5, false, UpdateFeedbackInput{
		Title: &title, Priority: &priority,
	})
	require.NoError(t, err)
	assert.Equal(t, "Night mode please", item.Title)
	assert.Equal(t, models.PriorityHigh, item.Priority)
	assert.False(t, item.CompletedAt.Valid)
}

func TestDeleteFeedback_OwnerOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())

	mock.ExpectQuery("SELECT user_id FROM user_feedback").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(5))

	err = service.DeleteFeedback(context.Background(), 7, 999, false)
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrForbidden))
}

func TestDeleteFeedback_ModeratorSkipsOwnerCheck(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())

	mock.ExpectExec("DELETE FROM user_feedback").
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, service.DeleteFeedback(context.Background(), 7, 1, true))
}

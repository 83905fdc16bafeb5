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

func TestListCategories_MergesBuiltinsAndCustom(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cols := []string{"id", "name", "value", "description", "icon", "color", "is_active", "order_index", "created_at", "updated_at"}

	mock.ExpectQuery("FROM feedback_categories WHERE is_active = TRUE").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(3, "Translation", "translation", nil, nil, "#00aa00", true, 10, now, now))

	categories, err := service.ListCategories(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, categories, 6)
	assert.True(t, categories[0].IsBuiltin)
	assert.Equal(t, "bug", categories[0].Value)
	custom := categories[5]
	assert.False(t, custom.IsBuiltin)
	assert.Equal(t, "translation", custom.Value)
}

func TestCreateCategory_RejectsBuiltinValue(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())

	_, err = service.CreateCategory(context.Background(), CategoryInput{Name: "Bug 2", Value: "bug"})
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrConflict))
}

func TestCreateCategory_RejectsBadColor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())

	_, err = service.CreateCategory(context.Background(), CategoryInput{Name: "Translation", Value: "translation", Color: "green"})
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidFormat))
}

func TestDeleteCategory_DeactivatesWhenReferenced(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())

	mock.ExpectQuery("SELECT value FROM feedback_categories").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("translation"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM user_feedback WHERE type`).
		WithArgs("translation").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectExec("UPDATE feedback_categories SET is_active = FALSE").
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deactivated, err := service.DeleteCategory(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, deactivated)
}

func TestDeleteCategory_DeletesWhenUnreferenced(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())

	mock.ExpectQuery("SELECT value FROM feedback_categories").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("translation"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM user_feedback WHERE type`).
		WithArgs("translation").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("DELETE FROM feedback_categories").
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deactivated, err := service.DeleteCategory(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, deactivated)
}

package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"readerapp/internal/models"
	contextutils "readerapp/internal/utils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportFeedback_RejectsUnknownFormat(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())

	_, _, err = service.ExportFeedback(context.Background(), FeedbackFilters{}, "xml")
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidInput))
}

func TestExportFeedback_JSON(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())

	mock.ExpectQuery("SELECT (.+) FROM user_feedback f JOIN users u").
		WillReturnRows(feedbackRow(7, "pending"))

	payload, contentType, err := service.ExportFeedback(context.Background(), FeedbackFilters{}, "")
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)

	var items []models.FeedbackItem
	require.NoError(t, json.Unmarshal(payload, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Dark mode please", items[0].Title)
}

func TestExportFeedback_CSV(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewFeedbackService(db, newTestLogger())

	mock.ExpectQuery("SELECT (.+) FROM user_feedback f JOIN users u").
		WithArgs("bug").
		WillReturnRows(feedbackRow(7, "pending"))

	payload, contentType, err := service.ExportFeedback(context.Background(), FeedbackFilters{Type: "bug"}, ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,username,title,type,status,priority,upvotes,downvotes,comment_count,created_at,completed_at", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "7,alice,Dark mode please,feature,pending,medium,3,1,2,"))
}

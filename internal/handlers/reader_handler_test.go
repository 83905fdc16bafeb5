package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"readerapp/internal/models"
	"readerapp/internal/services"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readerTestRouter(t *testing.T, userID int) (*gin.Engine, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	logger := newTestLogger()
	handler := NewReaderHandler(
		services.NewReaderService(db, logger),
		services.NewAnnotationService(db, logger),
		services.NewDictionaryService(db, logger),
		logger,
	)

	router := gin.New()
	group := router.Group("/api/v1/reader", injectUser(userID, models.RoleUser))
	group.POST("/documents/:id/bookmarks", handler.CreateBookmark)
	group.GET("/documents/:id/search", handler.SearchDocument)
	group.GET("/dictionary/:word", handler.LookupWord)

	cleanup := func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}
	return router, mock, cleanup
}

func TestCreateBookmarkHandler_DuplicateIs409(t *testing.T) {
	router, mock, cleanup := readerTestRouter(t, 5)
	defer cleanup()

	mock.ExpectQuery("SELECT user_id, is_public FROM documents").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "is_public"}).AddRow(5, false))
	mock.ExpectQuery("SELECT 1 FROM reading_history").
		WithArgs(5, 3, 12).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(1))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/reader/documents/3/bookmarks", strings.NewReader(`{"page":12}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Contains(t, envelope.Message, "already bookmarked")
}

func TestCreateBookmarkHandler_MissingPageIs400(t *testing.T) {
	router, _, cleanup := readerTestRouter(t, 5)
	defer cleanup()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/reader/documents/3/bookmarks", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchDocumentHandler_MissingQueryIs400(t *testing.T) {
	router, _, cleanup := readerTestRouter(t, 5)
	defer cleanup()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/reader/documents/3/search", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLookupWordHandler_UnknownWordIs404(t *testing.T) {
	router, mock, cleanup := readerTestRouter(t, 5)
	defer cleanup()

	mock.ExpectQuery(`SELECT (.+) FROM words WHERE LOWER\(word\)`).
		WithArgs("zzyzx").
		WillReturnError(sql.ErrNoRows)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/reader/dictionary/zzyzx", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"readerapp/internal/models"
	"readerapp/internal/observability"
	"readerapp/internal/services"
	contextutils "readerapp/internal/utils"
)

// ReaderHandler serves the /api/v1/reader route family.
type ReaderHandler struct {
	readerService     *services.ReaderService
	annotationService *services.AnnotationService
	dictionaryService *services.DictionaryService
	logger            *observability.Logger
}

// NewReaderHandler creates a new ReaderHandler instance.
func NewReaderHandler(readerService *services.ReaderService, annotationService *services.AnnotationService, dictionaryService *services.DictionaryService, logger *observability.Logger) *ReaderHandler {
	return &ReaderHandler{
		readerService:     readerService,
		annotationService: annotationService,
		dictionaryService: dictionaryService,
		logger:            logger,
	}
}

// ListDocuments handles GET /api/v1/reader/documents.
func (h *ReaderHandler) ListDocuments(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_documents")
	defer span.End()

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	page, pageSize := ParsePagination(c)

	docs, total, err := h.readerService.ListDocuments(ctx, userID, page, pageSize)
	if err != nil {
		RespondError(c, err)
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}
	RespondOK(c, "document list", gin.H{
		"items":      docs,
		"pagination": NewPagination(page, pageSize, total),
	})
}

// GetDocument handles GET /api/v1/reader/documents/:id.
func (h *ReaderHandler) GetDocument(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_document")
	defer span.End()

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	doc, err := h.readerService.GetDocument(ctx, id, userID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "document detail", doc)
}

// GetPage handles GET /api/v1/reader/documents/:id/pages/:page.
func (h *ReaderHandler) GetPage(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_page")
	defer span.End()

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	page, ok := parseIDParam(c, "page")
	if !ok {
		return
	}

	result, err := h.readerService.GetPage(ctx, id, userID, page)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "page content", result)
}

// ProgressRequest is the explicit progress-update payload.
type ProgressRequest struct {
	Progress    *float64 `json:"progress"`
	Page        *int     `json:"page"`
	PagesRead   int      `json:"pages_read"`
	ReadingTime int      `json:"reading_time"`
}

// UpdateProgress handles PUT /api/v1/reader/documents/:id/progress.
func (h *ReaderHandler) UpdateProgress(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "update_progress")
	defer span.End()

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, contextutils.WrapError(contextutils.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.readerService.UpdateProgress(ctx, id, userID, services.ProgressInput{
		Progress:    req.Progress,
		Page:        req.Page,
		PagesRead:   req.PagesRead,
		ReadingTime: req.ReadingTime,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "progress updated", result)
}

// SearchDocument handles GET /api/v1/reader/documents/:id/search.
func (h *ReaderHandler) SearchDocument(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "search_document")
	defer span.End()

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	hits, err := h.readerService.SearchDocument(ctx, id, userID, c.Query("q"))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "search results", gin.H{
		"query":   c.Query("q"),
		"results": hits,
	})
}

// ListBookmarks handles GET /api/v1/reader/documents/:id/bookmarks.
func (h *ReaderHandler) ListBookmarks(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_bookmarks")
	defer span.End()

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	bookmarks, err := h.annotationService.ListBookmarks(ctx, id, userID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "bookmark list", bookmarks)
}

// BookmarkRequest is the bookmark-creation payload.
type BookmarkRequest struct {
	Page int `json:"page" binding:"required,gt=0"`
}

// CreateBookmark handles POST /api/v1/reader/documents/:id/bookmarks.
// Duplicate bookmarks on the same page are a 409.
func (h *ReaderHandler) CreateBookmark(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_bookmark")
	defer span.End()

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req BookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, contextutils.WrapError(contextutils.ErrInvalidInput, err.Error()))
		return
	}

	bookmark, err := h.annotationService.CreateBookmark(ctx, id, userID, req.Page)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "bookmark created", bookmark)
}

// DeleteBookmark handles DELETE /api/v1/reader/bookmarks/:id.
func (h *ReaderHandler) DeleteBookmark(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "delete_bookmark")
	defer span.End()

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.annotationService.DeleteBookmark(ctx, id, userID); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "bookmark deleted", nil)
}

// ListHighlights handles GET /api/v1/reader/documents/:id/highlights.
func (h *ReaderHandler) ListHighlights(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_highlights")
	defer span.End()

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	pageNumber, _ := strconv.Atoi(c.Query("page"))

	highlights, err := h.annotationService.ListHighlights(ctx, id, userID, pageNumber)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "highlight list", highlights)
}

// HighlightRequest is the highlight-creation payload.
type HighlightRequest struct {
	Page     int             `json:"page" binding:"required,gt=0"`
	Text     string          `json:"text" binding:"required"`
	Position models.Position `json:"position"`
	Color    string          `json:"color"`
	Note     string          `json:"note"`
}

// CreateHighlight handles POST /api/v1/reader/documents/:id/highlights.
func (h *ReaderHandler) CreateHighlight(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_highlight")
	defer span.End()

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req HighlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, contextutils.WrapError(contextutils.ErrInvalidInput, err.Error()))
		return
	}

	highlight, err := h.annotationService.CreateHighlight(ctx, id, userID, services.HighlightInput{
		PageNumber: req.Page,
		Text:       req.Text,
		Position:   req.Position,
		Color:      req.Color,
		Note:       req.Note,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "highlight created", highlight)
}

// UpdateHighlightRequest is the highlight-edit payload.
type UpdateHighlightRequest struct {
	Color string `json:"color"`
	Note  string `json:"note"`
}

// UpdateHighlight handles PUT /api/v1/reader/highlights/:id.
func (h *ReaderHandler) UpdateHighlight(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "update_highlight")
	defer span.End()

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateHighlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, contextutils.WrapError(contextutils.ErrInvalidInput, err.Error()))
		return
	}

	highlight, err := h.annotationService.UpdateHighlight(ctx, id, userID, req.Color, req.Note)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "highlight updated", highlight)
}

// DeleteHighlight handles DELETE /api/v1/reader/highlights/:id. Notes
// referencing the highlight are deleted with it.
func (h *ReaderHandler) DeleteHighlight(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "delete_highlight")
	defer span.End()

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.annotationService.DeleteHighlight(ctx, id, userID); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "highlight deleted", nil)
}

// ListNotes handles GET /api/v1/reader/documents/:id/notes.
func (h *ReaderHandler) ListNotes(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_notes")
	defer span.End()

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	pageNumber, _ := strconv.Atoi(c.Query("page"))

	notes, err := h.annotationService.ListNotes(ctx, id, userID, pageNumber)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "note list", notes)
}

// NoteRequest is the note-creation payload.
type NoteRequest struct {
	Page        int             `json:"page" binding:"required,gt=0"`
	Content     string          `json:"content" binding:"required"`
	Position    models.Position `json:"position"`
	HighlightID int             `json:"highlight_id"`
}

// CreateNote handles POST /api/v1/reader/documents/:id/notes.
func (h *ReaderHandler) CreateNote(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_note")
	defer span.End()

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, contextutils.WrapError(contextutils.ErrInvalidInput, err.Error()))
		return
	}

	note, err := h.annotationService.CreateNote(ctx, id, userID, services.NoteInput{
		PageNumber:  req.Page,
		Content:     req.Content,
		Position:    req.Position,
		HighlightID: req.HighlightID,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "note created", note)
}

// UpdateNoteRequest is the note-edit payload.
type UpdateNoteRequest struct {
	Content  string          `json:"content" binding:"required"`
	Position models.Position `json:"position"`
}

// UpdateNote handles PUT /api/v1/reader/notes/:id.
func (h *ReaderHandler) UpdateNote(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "update_note")
	defer span.End()

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, contextutils.WrapError(contextutils.ErrInvalidInput, err.Error()))
		return
	}

	note, err := h.annotationService.UpdateNote(ctx, id, userID, req.Content, req.Position)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "note updated", note)
}

// DeleteNote handles DELETE /api/v1/reader/notes/:id.
func (h *ReaderHandler) DeleteNote(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "delete_note")
	defer span.End()

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.annotationService.DeleteNote(ctx, id, userID); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "note deleted", nil)
}

// ListHistory handles GET /api/v1/reader/history.
func (h *ReaderHandler) ListHistory(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_history")
	defer span.End()

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	entries, err := h.readerService.ListHistory(ctx, userID, c.Query("bookmarks") == "true")
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "reading history", entries)
}

// GetDailyStats handles GET /api/v1/reader/stats/daily.
func (h *ReaderHandler) GetDailyStats(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_daily_stats")
	defer span.End()

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	stats, err := h.readerService.GetDailyStats(ctx, userID, days)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "daily reading stats", stats)
}

// LookupWord handles GET /api/v1/reader/dictionary/:word.
func (h *ReaderHandler) LookupWord(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "lookup_word")
	defer span.End()

	if _, ok := requireUser(c); !ok {
		return
	}

	entry, err := h.dictionaryService.LookupWord(ctx, c.Param("word"))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "dictionary entry", entry)
}

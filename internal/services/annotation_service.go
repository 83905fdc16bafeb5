package services

import (
	"context"
	"database/sql"

	"readerapp/internal/models"
	"readerapp/internal/observability"
	contextutils "readerapp/internal/utils"
)

// AnnotationService manages bookmarks, highlights and notes. All mutations
// are strictly owner-scoped.
type AnnotationService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewAnnotationService creates a new AnnotationService instance.
func NewAnnotationService(db *sql.DB, logger *observability.Logger) *AnnotationService {
	if db == nil {
		panic("NewAnnotationService: db is nil")
	}
	if logger == nil {
		panic("NewAnnotationService: logger is nil")
	}
	return &AnnotationService{db: db, logger: logger}
}

// checkDocumentAccess verifies the document exists and the user may read it.
func (s *AnnotationService) checkDocumentAccess(ctx context.Context, q rowQueryer, docID, userID int) error {
	var ownerID int
	var isPublic bool
	err := q.QueryRowContext(ctx, `SELECT user_id, is_public FROM documents WHERE id = $1`, docID).
		Scan(&ownerID, &isPublic)
	if err != nil {
		if err == sql.ErrNoRows {
			return contextutils.ErrRecordNotFound
		}
		return contextutils.WrapError(err, "failed to load document")
	}
	if !isPublic && ownerID != userID {
		return contextutils.ErrForbidden
	}
	return nil
}

// checkPageExists verifies the target page exists in the document.
func (s *AnnotationService) checkPageExists(ctx context.Context, q rowQueryer, docID, pageNumber int) error {
	var exists int
	err := q.QueryRowContext(ctx,
		`SELECT 1 FROM document_pages WHERE document_id = $1 AND page_number = $2`, docID, pageNumber).
		Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return contextutils.ErrPageNotFound
		}
		return contextutils.WrapError(err, "failed to check page")
	}
	return nil
}

type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// CreateBookmark saves a bookmark row. A second bookmark on the same
// (user, document, page) is a conflict, unlike the upsertable position row.
func (s *AnnotationService) CreateBookmark(ctx context.Context, docID, userID, pageNumber int) (result0 *models.ReadingHistoryEntry, err error) {
	ctx, span := observability.TraceAnnotationFunction(ctx, "create_bookmark",
		observability.AttributeDocumentID(docID), observability.AttributePageNumber(pageNumber))
	defer observability.FinishSpan(span, &err)

	if err = s.checkDocumentAccess(ctx, s.db, docID, userID); err != nil {
		return nil, err
	}

	var existing int
	err = s.db.QueryRowContext(ctx,
		`SELECT 1 FROM reading_history WHERE user_id = $1 AND document_id = $2 AND page_number = $3 AND is_bookmark = TRUE`,
		userID, docID, pageNumber).Scan(&existing)
	switch {
	case err == nil:
		return nil, contextutils.WrapErrorf(contextutils.ErrConflict, "page %d is already bookmarked", pageNumber)
	case err != sql.ErrNoRows:
		return nil, contextutils.WrapError(err, "failed to check bookmark")
	}

	entry := &models.ReadingHistoryEntry{
		UserID:     userID,
		DocumentID: docID,
		PageNumber: pageNumber,
		IsBookmark: true,
	}
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO reading_history (user_id, document_id, page_number, is_bookmark, end_time)
		 VALUES ($1, $2, $3, TRUE, CURRENT_TIMESTAMP)
		 RETURNING id, start_time, end_time, created_at`,
		userID, docID, pageNumber).
		Scan(&entry.ID, &entry.StartTime, &entry.EndTime, &entry.CreatedAt)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to insert bookmark")
	}
	return entry, nil
}

// ListBookmarks returns the user's bookmarks for a document.
func (s *AnnotationService) ListBookmarks(ctx context.Context, docID, userID int) (result0 []models.ReadingHistoryEntry, err error) {
	ctx, span := observability.TraceAnnotationFunction(ctx, "list_bookmarks", observability.AttributeDocumentID(docID))
	defer observability.FinishSpan(span, &err)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, document_id, page_number, is_bookmark, start_time, end_time, reading_time, created_at
		 FROM reading_history
		 WHERE user_id = $1 AND document_id = $2 AND is_bookmark = TRUE
		 ORDER BY page_number ASC`, userID, docID)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query bookmarks")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn(ctx, "failed to close rows", map[string]interface{}{"error": cerr.Error()})
		}
	}()

	bookmarks := []models.ReadingHistoryEntry{}
	for rows.Next() {
		var e models.ReadingHistoryEntry
		if err = rows.Scan(&e.ID, &e.UserID, &e.DocumentID, &e.PageNumber, &e.IsBookmark,
			&e.StartTime, &e.EndTime, &e.ReadingTime, &e.CreatedAt); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan bookmark")
		}
		bookmarks = append(bookmarks, e)
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate bookmarks")
	}
	return bookmarks, nil
}

// DeleteBookmark removes one of the user's bookmarks.
func (s *AnnotationService) DeleteBookmark(ctx context.Context, bookmarkID, userID int) (err error) {
	ctx, span := observability.TraceAnnotationFunction(ctx, "delete_bookmark")
	defer observability.FinishSpan(span, &err)

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM reading_history WHERE id = $1 AND user_id = $2 AND is_bookmark = TRUE`, bookmarkID, userID)
	if err != nil {
		return contextutils.WrapError(err, "failed to delete bookmark")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return contextutils.ErrRecordNotFound
	}
	return nil
}

// HighlightInput carries the writable highlight fields.
type HighlightInput struct {
	PageNumber int
	Text       string
	Position   models.Position
	Color      string
	Note       string
}

// CreateHighlight stores a highlight after verifying the target page exists.
func (s *AnnotationService) CreateHighlight(ctx context.Context, docID, userID int, in HighlightInput) (result0 *models.Highlight, err error) {
	ctx, span := observability.TraceAnnotationFunction(ctx, "create_highlight",
		observability.AttributeDocumentID(docID), observability.AttributePageNumber(in.PageNumber))
	defer observability.FinishSpan(span, &err)

	if in.Text == "" {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "text is required")
	}
	if in.Color != "" && !contextutils.IsValidHexColor(in.Color) {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidFormat, "invalid color: %s", in.Color)
	}
	if err = s.checkDocumentAccess(ctx, s.db, docID, userID); err != nil {
		return nil, err
	}
	if err = s.checkPageExists(ctx, s.db, docID, in.PageNumber); err != nil {
		return nil, err
	}

	color := in.Color
	if color == "" {
		color = "#ffeb3b"
	}
	h := &models.Highlight{
		DocumentID: docID,
		UserID:     userID,
		PageNumber: in.PageNumber,
		Text:       in.Text,
		Position:   in.Position,
		Color:      color,
		Note:       nullString(in.Note),
	}
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO document_highlights (document_id, user_id, page_number, text, position, color, note)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		docID, userID, in.PageNumber, in.Text, in.Position, color, h.Note).
		Scan(&h.ID, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to insert highlight")
	}
	return h, nil
}

// ListHighlights returns the user's highlights for a document, optionally
// narrowed to one page (pageNumber > 0).
func (s *AnnotationService) ListHighlights(ctx context.Context, docID, userID, pageNumber int) (result0 []models.Highlight, err error) {
	ctx, span := observability.TraceAnnotationFunction(ctx, "list_highlights", observability.AttributeDocumentID(docID))
	defer observability.FinishSpan(span, &err)

	query := `SELECT id, document_id, user_id, page_number, text, position, color, note, created_at, updated_at
		FROM document_highlights WHERE document_id = $1 AND user_id = $2`
	args := []interface{}{docID, userID}
	if pageNumber > 0 {
		query += ` AND page_number = $3`
		args = append(args, pageNumber)
	}
	query += ` ORDER BY page_number ASC, created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query highlights")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn(ctx, "failed to close rows", map[string]interface{}{"error": cerr.Error()})
		}
	}()

	highlights := []models.Highlight{}
	for rows.Next() {
		var h models.Highlight
		if err = rows.Scan(&h.ID, &h.DocumentID, &h.UserID, &h.PageNumber, &h.Text,
			&h.Position, &h.Color, &h.Note, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan highlight")
		}
		highlights = append(highlights, h)
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate highlights")
	}
	return highlights, nil
}

// UpdateHighlight edits the color and note of the user's highlight.
func (s *AnnotationService) UpdateHighlight(ctx context.Context, highlightID, userID int, color, note string) (result0 *models.Highlight, err error) {
	ctx, span := observability.TraceAnnotationFunction(ctx, "update_highlight")
	defer observability.FinishSpan(span, &err)

	if color != "" && !contextutils.IsValidHexColor(color) {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidFormat, "invalid color: %s", color)
	}

	var h models.Highlight
	err = s.db.QueryRowContext(ctx,
		`UPDATE document_highlights
		 SET color = COALESCE(NULLIF($1, ''), color), note = $2, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $3 AND user_id = $4
		 RETURNING id, document_id, user_id, page_number, text, position, color, note, created_at, updated_at`,
		color, nullString(note), highlightID, userID).
		Scan(&h.ID, &h.DocumentID, &h.UserID, &h.PageNumber, &h.Text,
			&h.Position, &h.Color, &h.Note, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, contextutils.ErrRecordNotFound
		}
		return nil, contextutils.WrapError(err, "failed to update highlight")
	}
	return &h, nil
}

// DeleteHighlight removes the user's highlight and, in the same transaction,
// the notes that reference it.
func (s *AnnotationService) DeleteHighlight(ctx context.Context, highlightID, userID int) (err error) {
	ctx, span := observability.TraceAnnotationFunction(ctx, "delete_highlight")
	defer observability.FinishSpan(span, &err)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return contextutils.WrapError(err, "failed to begin transaction")
	}
	defer rollbackOnError(ctx, s.logger, tx, &err)

	var ownerID int
	err = tx.QueryRowContext(ctx, `SELECT user_id FROM document_highlights WHERE id = $1`, highlightID).Scan(&ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return contextutils.ErrRecordNotFound
		}
		return contextutils.WrapError(err, "failed to load highlight")
	}
	if ownerID != userID {
		return contextutils.ErrForbidden
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM document_notes WHERE highlight_id = $1`, highlightID); err != nil {
		return contextutils.WrapError(err, "failed to delete linked notes")
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM document_highlights WHERE id = $1`, highlightID)
	if err != nil {
		return contextutils.WrapError(err, "failed to delete highlight")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return contextutils.ErrRecordNotFound
	}

	if err = tx.Commit(); err != nil {
		return contextutils.WrapError(err, "failed to commit transaction")
	}
	return nil
}

// NoteInput carries the writable note fields. HighlightID 0 means no link.
type NoteInput struct {
	PageNumber  int
	Content     string
	Position    models.Position
	HighlightID int
}

// CreateNote stores a note after verifying the target page exists. The
// highlight reference is weak; it only has to exist at creation time.
func (s *AnnotationService) CreateNote(ctx context.Context, docID, userID int, in NoteInput) (result0 *models.Note, err error) {
	ctx, span := observability.TraceAnnotationFunction(ctx, "create_note",
		observability.AttributeDocumentID(docID), observability.AttributePageNumber(in.PageNumber))
	defer observability.FinishSpan(span, &err)

	if in.Content == "" {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "content is required")
	}
	if err = s.checkDocumentAccess(ctx, s.db, docID, userID); err != nil {
		return nil, err
	}
	if err = s.checkPageExists(ctx, s.db, docID, in.PageNumber); err != nil {
		return nil, err
	}

	var highlightID sql.NullInt64
	if in.HighlightID > 0 {
		highlightID = sql.NullInt64{Int64: int64(in.HighlightID), Valid: true}
	}
	n := &models.Note{
		DocumentID:  docID,
		UserID:      userID,
		PageNumber:  in.PageNumber,
		Content:     in.Content,
		Position:    in.Position,
		HighlightID: highlightID,
	}
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO document_notes (document_id, user_id, page_number, content, position, highlight_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		docID, userID, in.PageNumber, in.Content, in.Position, highlightID).
		Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "highlight %d not found", in.HighlightID)
		}
		return nil, contextutils.WrapError(err, "failed to insert note")
	}
	return n, nil
}

// ListNotes returns the user's notes for a document, optionally narrowed to
// one page (pageNumber > 0).
func (s *AnnotationService) ListNotes(ctx context.Context, docID, userID, pageNumber int) (result0 []models.Note, err error) {
	ctx, span := observability.TraceAnnotationFunction(ctx, "list_notes", observability.AttributeDocumentID(docID))
	defer observability.FinishSpan(span, &err)

	query := `SELECT id, document_id, user_id, page_number, content, position, highlight_id, created_at, updated_at
		FROM document_notes WHERE document_id = $1 AND user_id = $2`
	args := []interface{}{docID, userID}
	if pageNumber > 0 {
		query += ` AND page_number = $3`
		args = append(args, pageNumber)
	}
	query += ` ORDER BY page_number ASC, created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query notes")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn(ctx, "failed to close rows", map[string]interface{}{"error": cerr.Error()})
		}
	}()

	notes := []models.Note{}
	for rows.Next() {
		var n models.Note
		if err = rows.Scan(&n.ID, &n.DocumentID, &n.UserID, &n.PageNumber, &n.Content,
			&n.Position, &n.HighlightID, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan note")
		}
		notes = append(notes, n)
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate notes")
	}
	return notes, nil
}

// UpdateNote edits the content and position of the user's note.
func (s *AnnotationService) UpdateNote(ctx context.Context, noteID, userID int, content string, position models.Position) (result0 *models.Note, err error) {
	ctx, span := observability.TraceAnnotationFunction(ctx, "update_note")
	defer observability.FinishSpan(span, &err)

	if content == "" {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "content is required")
	}

	var n models.Note
	err = s.db.QueryRowContext(ctx,
		`UPDATE document_notes SET content = $1, position = $2, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $3 AND user_id = $4
		 RETURNING id, document_id, user_id, page_number, content, position, highlight_id, created_at, updated_at`,
		content, position, noteID, userID).
		Scan(&n.ID, &n.DocumentID, &n.UserID, &n.PageNumber, &n.Content,
			&n.Position, &n.HighlightID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, contextutils.ErrRecordNotFound
		}
		return nil, contextutils.WrapError(err, "failed to update note")
	}
	return &n, nil
}

// DeleteNote removes the user's note.
func (s *AnnotationService) DeleteNote(ctx context.Context, noteID, userID int) (err error) {
	ctx, span := observability.TraceAnnotationFunction(ctx, "delete_note")
	defer observability.FinishSpan(span, &err)

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM document_notes WHERE id = $1 AND user_id = $2`, noteID, userID)
	if err != nil {
		return contextutils.WrapError(err, "failed to delete note")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return contextutils.ErrRecordNotFound
	}
	return nil
}

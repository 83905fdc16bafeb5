package services

import (
	"context"
	"database/sql"
	"strings"

	"readerapp/internal/config"
	"readerapp/internal/models"
	"readerapp/internal/observability"
	contextutils "readerapp/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// ReaderService serves documents, pages, reading history and progress.
type ReaderService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewReaderService creates a new ReaderService instance.
func NewReaderService(db *sql.DB, logger *observability.Logger) *ReaderService {
	if db == nil {
		panic("NewReaderService: db is nil")
	}
	if logger == nil {
		panic("NewReaderService: logger is nil")
	}
	return &ReaderService{db: db, logger: logger}
}

const documentColumns = `id, user_id, title, author, language, total_pages, is_public, reading_progress, last_read_at, created_at, updated_at`

func scanDocument(row rowScanner, d *models.Document) error {
	return row.Scan(&d.ID, &d.UserID, &d.Title, &d.Author, &d.Language, &d.TotalPages,
		&d.IsPublic, &d.ReadingProgress, &d.LastReadAt, &d.CreatedAt, &d.UpdatedAt)
}

// ListDocuments returns the user's own documents plus public ones.
func (s *ReaderService) ListDocuments(ctx context.Context, userID, page, pageSize int) (result0 []models.Document, result1 int, err error) {
	ctx, span := observability.TraceReaderFunction(ctx, "list_documents",
		observability.AttributeUserID(userID), observability.AttributePage(page))
	defer observability.FinishSpan(span, &err)

	var total int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE user_id = $1 OR is_public = TRUE`, userID).Scan(&total)
	if err != nil {
		return nil, 0, contextutils.WrapError(err, "failed to count documents")
	}

	offset := (page - 1) * pageSize
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE user_id = $1 OR is_public = TRUE
		 ORDER BY COALESCE(last_read_at, created_at) DESC LIMIT $2 OFFSET $3`,
		userID, pageSize, offset)
	if err != nil {
		return nil, 0, contextutils.WrapError(err, "failed to query documents")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn(ctx, "failed to close rows", map[string]interface{}{"error": cerr.Error()})
		}
	}()

	var docs []models.Document
	for rows.Next() {
		var d models.Document
		if err = scanDocument(rows, &d); err != nil {
			return nil, 0, contextutils.WrapError(err, "failed to scan document")
		}
		docs = append(docs, d)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, contextutils.WrapError(err, "failed to iterate documents")
	}
	return docs, total, nil
}

// GetDocument fetches one document and enforces the access rule (owner or
// public).
func (s *ReaderService) GetDocument(ctx context.Context, docID, userID int) (result0 *models.Document, err error) {
	ctx, span := observability.TraceReaderFunction(ctx, "get_document", observability.AttributeDocumentID(docID))
	defer observability.FinishSpan(span, &err)

	var d models.Document
	err = scanDocument(s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, docID), &d)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, contextutils.ErrRecordNotFound
		}
		return nil, contextutils.WrapError(err, "failed to scan document")
	}
	if !d.Accessible(userID) {
		return nil, contextutils.ErrForbidden
	}
	return &d, nil
}

// PageContext is the pagination envelope returned with each page.
type PageContext struct {
	PageNumber int  `json:"page_number"`
	TotalPages int  `json:"total_pages"`
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
}

// PageResult is the page-retrieval payload.
type PageResult struct {
	Page            models.DocumentPage `json:"page"`
	Pagination      PageContext         `json:"pagination"`
	ReadingProgress float64             `json:"reading_progress"`
}

// GetPage retrieves one page and performs the open bookkeeping in a single
// transaction: the user's open reading-history row for the document is
// updated in place (or created when absent), and a document that has never
// been opened (reading_progress exactly 0) gets the 0.1 opened placeholder.
func (s *ReaderService) GetPage(ctx context.Context, docID, userID, pageNumber int) (result0 *PageResult, err error) {
	ctx, span := observability.TraceReaderFunction(ctx, "get_page",
		observability.AttributeDocumentID(docID), observability.AttributePageNumber(pageNumber))
	defer observability.FinishSpan(span, &err)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to begin transaction")
	}
	defer rollbackOnError(ctx, s.logger, tx, &err)

	var d models.Document
	err = scanDocument(tx.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1 FOR UPDATE`, docID), &d)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, contextutils.ErrRecordNotFound
		}
		return nil, contextutils.WrapError(err, "failed to scan document")
	}
	if !d.Accessible(userID) {
		return nil, contextutils.ErrForbidden
	}

	var page models.DocumentPage
	err = tx.QueryRowContext(ctx,
		`SELECT id, document_id, page_number, content, html_content, word_count, character_count, has_images, created_at
		 FROM document_pages WHERE document_id = $1 AND page_number = $2`, docID, pageNumber).
		Scan(&page.ID, &page.DocumentID, &page.PageNumber, &page.Content, &page.HTMLContent,
			&page.WordCount, &page.CharacterCount, &page.HasImages, &page.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, contextutils.ErrPageNotFound
		}
		return nil, contextutils.WrapError(err, "failed to scan page")
	}

	// keep exactly one open position row per (user, document)
	res, err := tx.ExecContext(ctx,
		`UPDATE reading_history SET page_number = $1
		 WHERE user_id = $2 AND document_id = $3 AND end_time IS NULL AND is_bookmark = FALSE`,
		pageNumber, userID, docID)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to update reading position")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO reading_history (user_id, document_id, page_number, is_bookmark) VALUES ($1, $2, $3, FALSE)`,
			userID, docID, pageNumber); err != nil {
			return nil, contextutils.WrapError(err, "failed to insert reading position")
		}
	}

	// one-way ratchet: only from exactly zero, so "opened" is
	// distinguishable from "never opened"
	if d.ReadingProgress == 0 {
		if _, err = tx.ExecContext(ctx,
			`UPDATE documents SET reading_progress = $1 WHERE id = $2`,
			config.OpenedProgressPlaceholder, docID); err != nil {
			return nil, contextutils.WrapError(err, "failed to set opened placeholder")
		}
		d.ReadingProgress = config.OpenedProgressPlaceholder
	}

	if err = tx.Commit(); err != nil {
		return nil, contextutils.WrapError(err, "failed to commit transaction")
	}

	return &PageResult{
		Page: page,
		Pagination: PageContext{
			PageNumber: pageNumber,
			TotalPages: d.TotalPages,
			HasPrev:    pageNumber > 1,
			HasNext:    pageNumber < d.TotalPages,
		},
		ReadingProgress: d.ReadingProgress,
	}, nil
}

// ProgressInput carries an explicit progress update. Progress takes priority
// over Page when both are supplied.
type ProgressInput struct {
	Progress    *float64
	Page        *int
	PagesRead   int
	ReadingTime int
}

// ProgressResult is the progress-update payload.
type ProgressResult struct {
	DocumentID      int     `json:"document_id"`
	ReadingProgress float64 `json:"reading_progress"`
}

// UpdateProgress sets the document's reading progress (clamped to [0,100]),
// stamps last_read_at, closes the open history row and accumulates the
// per-user per-day aggregate, all in one transaction. Lower values than the
// current progress are allowed; only the opened placeholder is a ratchet.
func (s *ReaderService) UpdateProgress(ctx context.Context, docID, userID int, in ProgressInput) (result0 *ProgressResult, err error) {
	ctx, span := observability.TraceReaderFunction(ctx, "update_progress",
		observability.AttributeDocumentID(docID), observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	if in.Progress == nil && in.Page == nil {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "progress or page is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to begin transaction")
	}
	defer rollbackOnError(ctx, s.logger, tx, &err)

	var d models.Document
	err = scanDocument(tx.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1 FOR UPDATE`, docID), &d)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, contextutils.ErrRecordNotFound
		}
		return nil, contextutils.WrapError(err, "failed to scan document")
	}
	if !d.Accessible(userID) {
		return nil, contextutils.ErrForbidden
	}

	var progress float64
	switch {
	case in.Progress != nil:
		progress = *in.Progress
	case d.TotalPages > 0:
		progress = float64(*in.Page) / float64(d.TotalPages) * 100
	}
	progress = clampProgress(progress)

	if _, err = tx.ExecContext(ctx,
		`UPDATE documents SET reading_progress = $1, last_read_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		progress, docID); err != nil {
		return nil, contextutils.WrapError(err, "failed to update progress")
	}

	if in.Page != nil {
		_, err = tx.ExecContext(ctx,
			`UPDATE reading_history SET end_time = CURRENT_TIMESTAMP, reading_time = reading_time + $1, page_number = $2
			 WHERE user_id = $3 AND document_id = $4 AND end_time IS NULL AND is_bookmark = FALSE`,
			in.ReadingTime, *in.Page, userID, docID)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE reading_history SET end_time = CURRENT_TIMESTAMP, reading_time = reading_time + $1
			 WHERE user_id = $2 AND document_id = $3 AND end_time IS NULL AND is_bookmark = FALSE`,
			in.ReadingTime, userID, docID)
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to close reading session")
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO daily_learning_stats (user_id, stat_date, documents_read, pages_read, reading_time)
		 VALUES ($1, CURRENT_DATE, 1, $2, $3)
		 ON CONFLICT (user_id, stat_date)
		 DO UPDATE SET documents_read = daily_learning_stats.documents_read + 1,
			pages_read = daily_learning_stats.pages_read + EXCLUDED.pages_read,
			reading_time = daily_learning_stats.reading_time + EXCLUDED.reading_time,
			updated_at = CURRENT_TIMESTAMP`,
		userID, in.PagesRead, in.ReadingTime); err != nil {
		return nil, contextutils.WrapError(err, "failed to accumulate daily stats")
	}

	if err = tx.Commit(); err != nil {
		return nil, contextutils.WrapError(err, "failed to commit transaction")
	}
	return &ProgressResult{DocumentID: docID, ReadingProgress: progress}, nil
}

func clampProgress(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// SearchHit is one matching page of an in-document search.
type SearchHit struct {
	PageNumber  int    `json:"page_number"`
	Snippet     string `json:"snippet"`
	Occurrences int    `json:"occurrences"`
}

// SearchDocument finds pages containing the query text, with a snippet and
// an occurrence count per page.
func (s *ReaderService) SearchDocument(ctx context.Context, docID, userID int, query string) (result0 []SearchHit, err error) {
	ctx, span := observability.TraceReaderFunction(ctx, "search_document",
		observability.AttributeDocumentID(docID), observability.AttributeKeyword(query))
	defer observability.FinishSpan(span, &err)

	if query == "" {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "query is required")
	}
	if _, err = s.GetDocument(ctx, docID, userID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT page_number, content FROM document_pages
		 WHERE document_id = $1 AND content ILIKE $2 ORDER BY page_number`,
		docID, "%"+query+"%")
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to search pages")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn(ctx, "failed to close rows", map[string]interface{}{"error": cerr.Error()})
		}
	}()

	hits := []SearchHit{}
	for rows.Next() {
		var pageNumber int
		var content string
		if err = rows.Scan(&pageNumber, &content); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan search hit")
		}
		hits = append(hits, SearchHit{
			PageNumber:  pageNumber,
			Snippet:     snippet(content, query),
			Occurrences: strings.Count(strings.ToLower(content), strings.ToLower(query)),
		})
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate search hits")
	}
	return hits, nil
}

// snippet extracts a short window of text around the first occurrence.
func snippet(content, query string) string {
	const window = 60
	idx := strings.Index(strings.ToLower(content), strings.ToLower(query))
	if idx < 0 {
		if len(content) > 2*window {
			return content[:2*window]
		}
		return content
	}
	start := idx - window
	if start < 0 {
		start = 0
	}
	end := idx + len(query) + window
	if end > len(content) {
		end = len(content)
	}
	return content[start:end]
}

// ListHistory returns the user's reading-history rows, newest first. With
// bookmarksOnly only bookmark rows are returned.
func (s *ReaderService) ListHistory(ctx context.Context, userID int, bookmarksOnly bool) (result0 []models.ReadingHistoryEntry, err error) {
	ctx, span := observability.TraceReaderFunction(ctx, "list_history", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	query := `SELECT id, user_id, document_id, page_number, is_bookmark, start_time, end_time, reading_time, created_at
		FROM reading_history WHERE user_id = $1`
	if bookmarksOnly {
		query += ` AND is_bookmark = TRUE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query reading history")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn(ctx, "failed to close rows", map[string]interface{}{"error": cerr.Error()})
		}
	}()

	entries := []models.ReadingHistoryEntry{}
	for rows.Next() {
		var e models.ReadingHistoryEntry
		if err = rows.Scan(&e.ID, &e.UserID, &e.DocumentID, &e.PageNumber, &e.IsBookmark,
			&e.StartTime, &e.EndTime, &e.ReadingTime, &e.CreatedAt); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan history entry")
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate history")
	}
	return entries, nil
}

// GetDailyStats returns the user's per-day aggregates for the last `days`
// days, newest first.
func (s *ReaderService) GetDailyStats(ctx context.Context, userID, days int) (result0 []models.DailyLearningStats, err error) {
	ctx, span := observability.TraceReaderFunction(ctx, "get_daily_stats",
		observability.AttributeUserID(userID), attribute.Int("stats.days", days))
	defer observability.FinishSpan(span, &err)

	if days <= 0 {
		days = 30
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, stat_date, documents_read, pages_read, reading_time, created_at, updated_at
		 FROM daily_learning_stats
		 WHERE user_id = $1 AND stat_date >= CURRENT_DATE - $2::int
		 ORDER BY stat_date DESC`, userID, days)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query daily stats")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn(ctx, "failed to close rows", map[string]interface{}{"error": cerr.Error()})
		}
	}()

	stats := []models.DailyLearningStats{}
	for rows.Next() {
		var st models.DailyLearningStats
		if err = rows.Scan(&st.ID, &st.UserID, &st.StatDate, &st.DocumentsRead, &st.PagesRead,
			&st.ReadingTime, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan daily stats")
		}
		stats = append(stats, st)
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate daily stats")
	}
	return stats, nil
}

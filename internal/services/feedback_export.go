package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"readerapp/internal/models"
	"readerapp/internal/observability"
	contextutils "readerapp/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// Export formats.
const (
	ExportFormatJSON = "json"
	ExportFormatCSV  = "csv"
)

// ExportFeedback serializes every feedback item matching the filters as JSON
// or CSV. Returns the payload and its content type.
func (s *FeedbackService) ExportFeedback(ctx context.Context, filters FeedbackFilters, format string) (result0 []byte, result1 string, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "export_feedback", attribute.String("export.format", format))
	defer observability.FinishSpan(span, &err)

	if format == "" {
		format = ExportFormatJSON
	}
	if format != ExportFormatJSON && format != ExportFormatCSV {
		return nil, "", contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unsupported export format: %s", format)
	}

	where, args, _ := buildFeedbackWhere(filters, 1)
	query := fmt.Sprintf(`SELECT %s FROM user_feedback f JOIN users u ON u.id = f.user_id %s ORDER BY f.created_at DESC`, feedbackColumns, where)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, "", contextutils.WrapError(err, "failed to query feedback for export")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn(ctx, "failed to close rows", map[string]interface{}{"error": cerr.Error()})
		}
	}()

	var items []models.FeedbackItem
	for rows.Next() {
		var item models.FeedbackItem
		if err = scanFeedback(rows, &item); err != nil {
			return nil, "", contextutils.WrapError(err, "failed to scan feedback")
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, "", contextutils.WrapError(err, "failed to iterate feedback")
	}

	if format == ExportFormatCSV {
		payload, err := feedbackCSV(items)
		if err != nil {
			return nil, "", err
		}
		return payload, "text/csv", nil
	}

	payload, err := json.Marshal(items)
	if err != nil {
		return nil, "", contextutils.WrapError(err, "failed to marshal export")
	}
	return payload, "application/json", nil
}

func feedbackCSV(items []models.FeedbackItem) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"id", "username", "title", "type", "status", "priority", "upvotes", "downvotes", "comment_count", "created_at", "completed_at"}
	if err := w.Write(header); err != nil {
		return nil, contextutils.WrapError(err, "failed to write csv header")
	}
	for _, item := range items {
		completedAt := ""
		if item.CompletedAt.Valid {
			completedAt = item.CompletedAt.Time.Format("2006-01-02 15:04:05")
		}
		record := []string{
			strconv.Itoa(item.ID),
			item.Username,
			item.Title,
			string(item.Type),
			string(item.Status),
			string(item.Priority),
			strconv.Itoa(item.Upvotes),
			strconv.Itoa(item.Downvotes),
			strconv.Itoa(item.CommentCount),
			item.CreatedAt.Format("2006-01-02 15:04:05"),
			completedAt,
		}
		if err := w.Write(record); err != nil {
			return nil, contextutils.WrapError(err, "failed to write csv record")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, contextutils.WrapError(err, "failed to flush csv")
	}
	return buf.Bytes(), nil
}

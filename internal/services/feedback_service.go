package services

import (
	"context"
	"database/sql"
	"fmt"

	"readerapp/internal/models"
	"readerapp/internal/observability"
	contextutils "readerapp/internal/utils"
)

const feedbackColumns = `f.id, f.user_id, u.username, f.title, f.content, f.type, f.status, f.priority,
	f.upvotes, f.downvotes, f.view_count, f.comment_count, f.attachments, f.metadata,
	f.created_at, f.updated_at, f.assigned_at, f.completed_at`

// FeedbackService manages feedback items, votes, replies, change logs,
// batch actions and the category registry.
type FeedbackService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewFeedbackService creates a new FeedbackService instance.
func NewFeedbackService(db *sql.DB, logger *observability.Logger) *FeedbackService {
	if db == nil {
		panic("NewFeedbackService: db is nil")
	}
	if logger == nil {
		panic("NewFeedbackService: logger is nil")
	}
	return &FeedbackService{db: db, logger: logger}
}

// CreateFeedbackInput carries the fields accepted on submission.
type CreateFeedbackInput struct {
	Title       string
	Content     string
	Type        string
	Priority    string
	Attachments models.AttachmentList
	Metadata    models.Metadata
}

// CreateFeedback validates and inserts a new feedback item. Status always
// starts as pending; priority defaults to medium.
func (s *FeedbackService) CreateFeedback(ctx context.Context, userID int, in CreateFeedbackInput) (result0 *models.FeedbackItem, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "create_feedback", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	if in.Title == "" || in.Content == "" {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "title and content are required")
	}
	if err := s.validateType(ctx, in.Type); err != nil {
		return nil, err
	}
	priority := models.FeedbackPriority(in.Priority)
	if in.Priority == "" {
		priority = models.PriorityMedium
	} else if !priority.Valid() {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "invalid priority: %s", in.Priority)
	}

	query := `INSERT INTO user_feedback (user_id, title, content, type, status, priority, attachments, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`
	item := &models.FeedbackItem{
		UserID:      userID,
		Title:       in.Title,
		Content:     in.Content,
		Type:        models.FeedbackType(in.Type),
		Status:      models.StatusPending,
		Priority:    priority,
		Attachments: in.Attachments,
		Metadata:    in.Metadata,
	}
	err = s.db.QueryRowContext(ctx, query,
		userID, in.Title, in.Content, in.Type, models.StatusPending, priority, in.Attachments, in.Metadata).
		Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to insert feedback")
	}
	return item, nil
}

// validateType accepts built-in feedback types plus active custom categories.
func (s *FeedbackService) validateType(ctx context.Context, feedbackType string) error {
	if feedbackType == "" {
		return contextutils.WrapError(contextutils.ErrMissingRequired, "type is required")
	}
	if models.FeedbackType(feedbackType).Valid() {
		return nil
	}
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM feedback_categories WHERE value = $1 AND is_active = TRUE`, feedbackType).
		Scan(&count)
	if err != nil {
		return contextutils.WrapError(err, "failed to check category")
	}
	if count == 0 {
		return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "invalid type: %s", feedbackType)
	}
	return nil
}

// ListFeedback returns a page of feedback matching the filters plus the
// total match count.
func (s *FeedbackService) ListFeedback(ctx context.Context, filters FeedbackFilters, page, pageSize int) (result0 []models.FeedbackItem, result1 int, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "list_feedback",
		observability.AttributePage(page), observability.AttributePageSize(pageSize))
	defer observability.FinishSpan(span, &err)

	where, args, idx := buildFeedbackWhere(filters, 1)

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM user_feedback f %s", where)
	var total int
	if err = s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, contextutils.WrapError(err, "failed to count feedback")
	}

	offset := (page - 1) * pageSize
	args = append(args, pageSize, offset)
	query := fmt.Sprintf(`SELECT %s FROM user_feedback f JOIN users u ON u.id = f.user_id %s
		ORDER BY f.created_at DESC LIMIT $%d OFFSET $%d`, feedbackColumns, where, idx, idx+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, contextutils.WrapError(err, "failed to query feedback")
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
			return nil, 0, contextutils.WrapError(err, "failed to scan feedback")
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, contextutils.WrapError(err, "failed to iterate feedback")
	}
	return items, total, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFeedback(row rowScanner, item *models.FeedbackItem) error {
	return row.Scan(
		&item.ID, &item.UserID, &item.Username, &item.Title, &item.Content,
		&item.Type, &item.Status, &item.Priority,
		&item.Upvotes, &item.Downvotes, &item.ViewCount, &item.CommentCount,
		&item.Attachments, &item.Metadata,
		&item.CreatedAt, &item.UpdatedAt, &item.AssignedAt, &item.CompletedAt,
	)
}

// GetFeedbackByID fetches one feedback item, increments its view count and
// attaches the viewer's current vote (empty when none).
func (s *FeedbackService) GetFeedbackByID(ctx context.Context, id, viewerID int) (result0 *models.FeedbackItem, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "get_feedback_by_id", observability.AttributeFeedbackID(id))
	defer observability.FinishSpan(span, &err)

	res, err := s.db.ExecContext(ctx, `UPDATE user_feedback SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to increment view count")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, contextutils.ErrRecordNotFound
	}

	query := fmt.Sprintf(`SELECT %s FROM user_feedback f JOIN users u ON u.id = f.user_id WHERE f.id = $1`, feedbackColumns)
	var item models.FeedbackItem
	if err = scanFeedback(s.db.QueryRowContext(ctx, query, id), &item); err != nil {
		if err == sql.ErrNoRows {
			return nil, contextutils.ErrRecordNotFound
		}
		return nil, contextutils.WrapError(err, "failed to scan feedback")
	}

	var voteType string
	err = s.db.QueryRowContext(ctx,
		`SELECT vote_type FROM feedback_votes WHERE feedback_id = $1 AND user_id = $2`, id, viewerID).
		Scan(&voteType)
	switch {
	case err == sql.ErrNoRows:
		// no vote from the viewer
	case err != nil:
		return nil, contextutils.WrapError(err, "failed to fetch viewer vote")
	default:
		item.UserVote = voteType
	}
	return &item, nil
}

// UpdateFeedbackInput carries the updatable fields; nil means unchanged.
type UpdateFeedbackInput struct {
	Title    *string
	Content  *string
	Type     *string
	Status   *string
	Priority *string
	Reason   string
}

// trackedChange is one audited field transition.
type trackedChange struct {
	field    string
	oldValue string
	newValue string
}

// UpdateFeedback applies the supplied field changes in one transaction,
// writing one change-log row per tracked field whose value actually changed.
// Only the owner or a moderator may update. A fully no-op update returns the
// current item without writing anything.
func (s *FeedbackService) UpdateFeedback(ctx context.Context, id, actorID int, isModerator bool, in UpdateFeedbackInput) (result0 *models.FeedbackItem, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "update_feedback",
		observability.AttributeFeedbackID(id), observability.AttributeUserID(actorID))
	defer observability.FinishSpan(span, &err)

	if in.Status != nil && !models.FeedbackStatus(*in.Status).Valid() {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidStatus, "invalid status: %s", *in.Status)
	}
	if in.Priority != nil && !models.FeedbackPriority(*in.Priority).Valid() {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "invalid priority: %s", *in.Priority)
	}
	if in.Type != nil {
		if err := s.validateType(ctx, *in.Type); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to begin transaction")
	}
	defer rollbackOnError(ctx, s.logger, tx, &err)

	var current models.FeedbackItem
	query := fmt.Sprintf(`SELECT %s FROM user_feedback f JOIN users u ON u.id = f.user_id WHERE f.id = $1 FOR UPDATE OF f`, feedbackColumns)
	if err = scanFeedback(tx.QueryRowContext(ctx, query, id), &current); err != nil {
		if err == sql.ErrNoRows {
			return nil, contextutils.ErrRecordNotFound
		}
		return nil, contextutils.WrapError(err, "failed to load feedback")
	}
	if !isModerator && current.UserID != actorID {
		return nil, contextutils.ErrForbidden
	}

	changes := collectChanges(&current, in)
	if len(changes) == 0 {
		// nothing changed, succeed without touching the row
		if err = tx.Commit(); err != nil {
			return nil, contextutils.WrapError(err, "failed to commit transaction")
		}
		return &current, nil
	}

	reason := in.Reason
	if reason == "" {
		reason = "feedback updated"
	}
	if err = s.applyChanges(ctx, tx, &current, changes, actorID, reason); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, contextutils.WrapError(err, "failed to commit transaction")
	}
	return &current, nil
}

// collectChanges diffs the requested field values against the current row,
// walking models.TrackedFields so the audited set lives in one place.
func collectChanges(current *models.FeedbackItem, in UpdateFeedbackInput) []trackedChange {
	requested := map[string]*string{
		"status":   in.Status,
		"title":    in.Title,
		"content":  in.Content,
		"type":     in.Type,
		"priority": in.Priority,
	}
	currentValue := func(field string) string {
		switch field {
		case "status":
			return string(current.Status)
		case "title":
			return current.Title
		case "content":
			return current.Content
		case "type":
			return string(current.Type)
		default:
			return string(current.Priority)
		}
	}

	var changes []trackedChange
	for _, field := range models.TrackedFields {
		newVal := requested[field]
		if newVal == nil {
			continue
		}
		if oldVal := currentValue(field); oldVal != *newVal {
			changes = append(changes, trackedChange{field: field, oldValue: oldVal, newValue: *newVal})
		}
	}
	return changes
}

// applyChanges writes the field updates and their change-log rows inside tx
// and mutates current to the post-update state. Moving into completed stamps
// completed_at; leaving completed never clears it.
func (s *FeedbackService) applyChanges(ctx context.Context, tx *sql.Tx, current *models.FeedbackItem, changes []trackedChange, actorID int, reason string) error {
	setClauses := ""
	args := []interface{}{}
	idx := 1
	completing := false
	for _, ch := range changes {
		setClauses += fmt.Sprintf("%s = $%d, ", ch.field, idx)
		args = append(args, ch.newValue)
		idx++
		if ch.field == "status" && ch.newValue == string(models.StatusCompleted) {
			completing = true
		}
	}
	setClauses += "updated_at = CURRENT_TIMESTAMP"
	if completing {
		setClauses += ", completed_at = COALESCE(completed_at, CURRENT_TIMESTAMP)"
	}
	args = append(args, current.ID)
	query := fmt.Sprintf(`UPDATE user_feedback SET %s WHERE id = $%d RETURNING updated_at, completed_at`, setClauses, idx)
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&current.UpdatedAt, &current.CompletedAt); err != nil {
		return contextutils.WrapError(err, "failed to update feedback")
	}

	for _, ch := range changes {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO feedback_change_log (feedback_id, field, old_value, new_value, changed_by, reason) VALUES ($1, $2, $3, $4, $5, $6)`,
			current.ID, ch.field, ch.oldValue, ch.newValue, actorID, reason)
		if err != nil {
			return contextutils.WrapError(err, "failed to write change log")
		}
		switch ch.field {
		case "status":
			current.Status = models.FeedbackStatus(ch.newValue)
		case "title":
			current.Title = ch.newValue
		case "content":
			current.Content = ch.newValue
		case "type":
			current.Type = models.FeedbackType(ch.newValue)
		case "priority":
			current.Priority = models.FeedbackPriority(ch.newValue)
		}
	}
	return nil
}

// UpdateStatus is the direct status-transition path. Moderator-only at the
// handler level; the reason defaults to a status-change note.
func (s *FeedbackService) UpdateStatus(ctx context.Context, id, actorID int, status, reason string) (result0 *models.FeedbackItem, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "update_status",
		observability.AttributeFeedbackID(id), observability.AttributeStatusFilter(status))
	defer observability.FinishSpan(span, &err)

	if reason == "" {
		reason = "status changed"
	}
	return s.UpdateFeedback(ctx, id, actorID, true, UpdateFeedbackInput{Status: &status, Reason: reason})
}

// DeleteFeedback removes a feedback item. Owner or moderator only.
func (s *FeedbackService) DeleteFeedback(ctx context.Context, id, actorID int, isModerator bool) (err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "delete_feedback", observability.AttributeFeedbackID(id))
	defer observability.FinishSpan(span, &err)

	if !isModerator {
		var ownerID int
		err = s.db.QueryRowContext(ctx, `SELECT user_id FROM user_feedback WHERE id = $1`, id).Scan(&ownerID)
		if err != nil {
			if err == sql.ErrNoRows {
				return contextutils.ErrRecordNotFound
			}
			return contextutils.WrapError(err, "failed to load feedback owner")
		}
		if ownerID != actorID {
			return contextutils.ErrForbidden
		}
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM user_feedback WHERE id = $1`, id)
	if err != nil {
		return contextutils.WrapError(err, "failed to delete feedback")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return contextutils.ErrRecordNotFound
	}
	return nil
}

// rollbackOnError rolls the transaction back when err is non-nil on return.
func rollbackOnError(ctx context.Context, logger *observability.Logger, tx *sql.Tx, errp *error) {
	if *errp == nil {
		return
	}
	if rerr := tx.Rollback(); rerr != nil && rerr != sql.ErrTxDone {
		logger.Warn(ctx, "failed to roll back transaction", map[string]interface{}{"error": rerr.Error()})
	}
}

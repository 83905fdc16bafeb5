package services

import (
	"context"
	"database/sql"

	"readerapp/internal/models"
	"readerapp/internal/observability"
	contextutils "readerapp/internal/utils"
)

// CreateReply inserts a reply and bumps the feedback comment_count in the
// same transaction.
func (s *FeedbackService) CreateReply(ctx context.Context, feedbackID, userID int, message string, isInternal bool, attachments models.AttachmentList) (result0 *models.Reply, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "create_reply",
		observability.AttributeFeedbackID(feedbackID), observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	if message == "" {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "message is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to begin transaction")
	}
	defer rollbackOnError(ctx, s.logger, tx, &err)

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT id FROM user_feedback WHERE id = $1`, feedbackID).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, contextutils.ErrRecordNotFound
		}
		return nil, contextutils.WrapError(err, "failed to load feedback")
	}

	reply := &models.Reply{
		FeedbackID:  feedbackID,
		UserID:      userID,
		Message:     message,
		IsInternal:  isInternal,
		Attachments: attachments,
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO feedback_replies (feedback_id, user_id, message, is_internal, attachments)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		feedbackID, userID, message, isInternal, attachments).
		Scan(&reply.ID, &reply.CreatedAt, &reply.UpdatedAt)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to insert reply")
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE user_feedback SET comment_count = comment_count + 1 WHERE id = $1`, feedbackID); err != nil {
		return nil, contextutils.WrapError(err, "failed to update comment count")
	}

	if err = tx.Commit(); err != nil {
		return nil, contextutils.WrapError(err, "failed to commit transaction")
	}
	return reply, nil
}

// ListReplies returns the reply thread for a feedback item, oldest first.
// Internal replies are filtered out unless includeInternal is set.
func (s *FeedbackService) ListReplies(ctx context.Context, feedbackID int, includeInternal bool) (result0 []models.Reply, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "list_replies", observability.AttributeFeedbackID(feedbackID))
	defer observability.FinishSpan(span, &err)

	query := `SELECT r.id, r.feedback_id, r.user_id, u.username, r.message, r.is_internal, r.attachments, r.created_at, r.updated_at
		FROM feedback_replies r JOIN users u ON u.id = r.user_id
		WHERE r.feedback_id = $1`
	if !includeInternal {
		query += ` AND r.is_internal = FALSE`
	}
	query += ` ORDER BY r.created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, feedbackID)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query replies")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn(ctx, "failed to close rows", map[string]interface{}{"error": cerr.Error()})
		}
	}()

	var replies []models.Reply
	for rows.Next() {
		var r models.Reply
		if err = rows.Scan(&r.ID, &r.FeedbackID, &r.UserID, &r.Username, &r.Message, &r.IsInternal, &r.Attachments, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan reply")
		}
		replies = append(replies, r)
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate replies")
	}
	return replies, nil
}

// UpdateReply edits a reply's message. Only the author may edit.
func (s *FeedbackService) UpdateReply(ctx context.Context, replyID, actorID int, message string) (result0 *models.Reply, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "update_reply", observability.AttributeUserID(actorID))
	defer observability.FinishSpan(span, &err)

	if message == "" {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "message is required")
	}

	var r models.Reply
	err = s.db.QueryRowContext(ctx,
		`SELECT id, feedback_id, user_id, message, is_internal, attachments, created_at, updated_at
		 FROM feedback_replies WHERE id = $1`, replyID).
		Scan(&r.ID, &r.FeedbackID, &r.UserID, &r.Message, &r.IsInternal, &r.Attachments, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, contextutils.ErrRecordNotFound
		}
		return nil, contextutils.WrapError(err, "failed to load reply")
	}
	if r.UserID != actorID {
		return nil, contextutils.ErrForbidden
	}

	err = s.db.QueryRowContext(ctx,
		`UPDATE feedback_replies SET message = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 RETURNING updated_at`,
		message, replyID).Scan(&r.UpdatedAt)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to update reply")
	}
	r.Message = message
	return &r, nil
}

// DeleteReply removes a reply (author or moderator) and decrements the
// feedback comment_count in the same transaction.
func (s *FeedbackService) DeleteReply(ctx context.Context, replyID, actorID int, isModerator bool) (err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "delete_reply", observability.AttributeUserID(actorID))
	defer observability.FinishSpan(span, &err)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return contextutils.WrapError(err, "failed to begin transaction")
	}
	defer rollbackOnError(ctx, s.logger, tx, &err)

	var feedbackID, authorID int
	err = tx.QueryRowContext(ctx,
		`SELECT feedback_id, user_id FROM feedback_replies WHERE id = $1`, replyID).
		Scan(&feedbackID, &authorID)
	if err != nil {
		if err == sql.ErrNoRows {
			return contextutils.ErrRecordNotFound
		}
		return contextutils.WrapError(err, "failed to load reply")
	}
	if !isModerator && authorID != actorID {
		return contextutils.ErrForbidden
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM feedback_replies WHERE id = $1`, replyID)
	if err != nil {
		return contextutils.WrapError(err, "failed to delete reply")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// deleted concurrently, the zero-rows outcome is authoritative
		return contextutils.ErrRecordNotFound
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE user_feedback SET comment_count = GREATEST(comment_count - 1, 0) WHERE id = $1`, feedbackID); err != nil {
		return contextutils.WrapError(err, "failed to update comment count")
	}

	if err = tx.Commit(); err != nil {
		return contextutils.WrapError(err, "failed to commit transaction")
	}
	return nil
}

package services

import (
	"context"

	"readerapp/internal/models"
	"readerapp/internal/observability"
	contextutils "readerapp/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// Batch actions accepted by BatchAction.
const (
	BatchActionUpdateStatus = "update_status"
	BatchActionDelete       = "delete"
	BatchActionMarkResolved = "mark_resolved"
)

// BatchItemResult is the outcome for one item of a batch operation.
type BatchItemResult struct {
	ID      int    `json:"id"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// BatchResult summarizes a batch operation. The HTTP layer always returns
// 200 for batch calls; failures live in the per-item results.
type BatchResult struct {
	SuccessCount int               `json:"success_count"`
	FailCount    int               `json:"fail_count"`
	Results      []BatchItemResult `json:"results"`
}

// BatchAction applies one action to a list of feedback ids. One item's
// failure never aborts the rest.
func (s *FeedbackService) BatchAction(ctx context.Context, actorID int, action string, ids []int, status, reason string) (result0 *BatchResult, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "batch_action",
		observability.AttributeUserID(actorID), attribute.String("batch.action", action), attribute.Int("batch.size", len(ids)))
	defer observability.FinishSpan(span, &err)

	if len(ids) == 0 {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "ids are required")
	}

	switch action {
	case BatchActionUpdateStatus:
		if status == "" {
			return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "status is required for update_status")
		}
		if !models.FeedbackStatus(status).Valid() {
			return nil, contextutils.WrapErrorf(contextutils.ErrInvalidStatus, "invalid status: %s", status)
		}
	case BatchActionDelete, BatchActionMarkResolved:
	default:
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown batch action: %s", action)
	}

	result := &BatchResult{Results: make([]BatchItemResult, 0, len(ids))}
	for _, id := range ids {
		itemErr := s.applyBatchItem(ctx, actorID, action, id, status, reason)
		item := BatchItemResult{ID: id, Success: itemErr == nil, Message: "ok"}
		if itemErr != nil {
			item.Message = itemErr.Error()
			result.FailCount++
			s.logger.Warn(ctx, "batch item failed", map[string]interface{}{
				"feedback_id": id, "action": action, "error": itemErr.Error(),
			})
		} else {
			result.SuccessCount++
		}
		result.Results = append(result.Results, item)
	}
	return result, nil
}

func (s *FeedbackService) applyBatchItem(ctx context.Context, actorID int, action string, id int, status, reason string) error {
	switch action {
	case BatchActionUpdateStatus:
		if reason == "" {
			reason = "batch status update"
		}
		_, err := s.UpdateFeedback(ctx, id, actorID, true, UpdateFeedbackInput{Status: &status, Reason: reason})
		return err
	case BatchActionDelete:
		return s.DeleteFeedback(ctx, id, actorID, true)
	case BatchActionMarkResolved:
		resolved := string(models.StatusCompleted)
		if reason == "" {
			reason = "batch resolve"
		}
		_, err := s.UpdateFeedback(ctx, id, actorID, true, UpdateFeedbackInput{Status: &resolved, Reason: reason})
		return err
	}
	return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown batch action: %s", action)
}

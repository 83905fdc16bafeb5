package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"readerapp/internal/models"
	"readerapp/internal/observability"
	"readerapp/internal/services"
	contextutils "readerapp/internal/utils"
)

// FeedbackHandler serves the /api/v1/feedback route family.
type FeedbackHandler struct {
	feedbackService *services.FeedbackService
	statsService    *services.StatsService
	logger          *observability.Logger
}

// NewFeedbackHandler creates a new FeedbackHandler instance.
func NewFeedbackHandler(feedbackService *services.FeedbackService, statsService *services.StatsService, logger *observability.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackService: feedbackService,
		statsService:    statsService,
		logger:          logger,
	}
}

func parseIDParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		RespondError(c, contextutils.WrapErrorf(contextutils.ErrInvalidFormat, "invalid %s", name))
		return 0, false
	}
	return id, true
}

// CreateFeedbackRequest is the submission payload.
type CreateFeedbackRequest struct {
	Title       string                `json:"title" binding:"required"`
	Content     string                `json:"content" binding:"required"`
	Type        string                `json:"type" binding:"required"`
	Priority    string                `json:"priority"`
	Attachments models.AttachmentList `json:"attachments"`
	Metadata    models.Metadata       `json:"metadata"`
}

// CreateFeedback handles POST /api/v1/feedback.
func (h *FeedbackHandler) CreateFeedback(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_feedback")
	defer span.End()

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req CreateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, contextutils.WrapError(contextutils.ErrInvalidInput, err.Error()))
		return
	}

	item, err := h.feedbackService.CreateFeedback(ctx, userID, services.CreateFeedbackInput{
		Title:       req.Title,
		Content:     req.Content,
		Type:        req.Type,
		Priority:    req.Priority,
		Attachments: req.Attachments,
		Metadata:    req.Metadata,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "feedback created", item)
}

// ListFeedback handles GET /api/v1/feedback.
func (h *FeedbackHandler) ListFeedback(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_feedback")
	defer span.End()

	if _, ok := requireUser(c); !ok {
		return
	}
	page, pageSize := ParsePagination(c)
	filters := ParseFeedbackFilters(c)

	items, total, err := h.feedbackService.ListFeedback(ctx, filters, page, pageSize)
	if err != nil {
		RespondError(c, err)
		return
	}
	if items == nil {
		items = []models.FeedbackItem{}
	}
	RespondOK(c, "feedback list", gin.H{
		"items":      items,
		"pagination": NewPagination(page, pageSize, total),
		"filters":    filters,
	})
}

// SearchFeedback handles GET /api/v1/feedback/search. Same shape as the
// list, but the keyword is mandatory.
func (h *FeedbackHandler) SearchFeedback(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "search_feedback")
	defer span.End()

	if _, ok := requireUser(c); !ok {
		return
	}
	filters := ParseFeedbackFilters(c)
	if filters.Keyword == "" {
		RespondError(c, contextutils.WrapError(contextutils.ErrMissingRequired, "keyword is required"))
		return
	}
	page, pageSize := ParsePagination(c)

	items, total, err := h.feedbackService.ListFeedback(ctx, filters, page, pageSize)
	if err != nil {
		RespondError(c, err)
		return
	}
	if items == nil {
		items = []models.FeedbackItem{}
	}
	RespondOK(c, "search results", gin.H{
		"items":      items,
		"pagination": NewPagination(page, pageSize, total),
		"filters":    filters,
	})
}

// GetStatistics handles GET /api/v1/feedback/statistics.
func (h *FeedbackHandler) GetStatistics(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "feedback_statistics")
	defer span.End()

	if _, ok := requireUser(c); !ok {
		return
	}
	filters := ParseFeedbackFilters(c)
	stats, err := h.statsService.GetStatistics(ctx, filters, c.DefaultQuery("groupBy", "day"))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "feedback statistics", gin.H{
		"statistics": stats,
		"filters":    filters,
	})
}

// ExportFeedback handles GET /api/v1/feedback/export. Moderator only; the
// payload is the raw file, not the envelope.
func (h *FeedbackHandler) ExportFeedback(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "export_feedback")
	defer span.End()

	if _, ok := requireModerator(c); !ok {
		return
	}
	filters := ParseFeedbackFilters(c)
	payload, contentType, err := h.feedbackService.ExportFeedback(ctx, filters, c.DefaultQuery("format", services.ExportFormatJSON))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=feedback-export."+c.DefaultQuery("format", services.ExportFormatJSON))
	c.Data(http.StatusOK, contentType, payload)
}

// GetFeedback handles GET /api/v1/feedback/:id.
func (h *FeedbackHandler) GetFeedback(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_feedback")
	defer span.End()

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	item, err := h.feedbackService.GetFeedbackByID(ctx, id, userID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "feedback detail", item)
}

// UpdateFeedbackRequest carries the updatable fields; absent fields stay
// unchanged.
type UpdateFeedbackRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Type     *string `json:"type"`
	Status   *string `json:"status"`
	Priority *string `json:"priority"`
	Reason   string  `json:"reason"`
}

// UpdateFeedback handles PUT /api/v1/feedback/:id.
func (h *FeedbackHandler) UpdateFeedback(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "update_feedback")
	defer span.End()

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, contextutils.WrapError(contextutils.ErrInvalidInput, err.Error()))
		return
	}

	item, err := h.feedbackService.UpdateFeedback(ctx, id, userID, CurrentRole(c).CanModerate(), services.UpdateFeedbackInput{
		Title:    req.Title,
		Content:  req.Content,
		Type:     req.Type,
		Status:   req.Status,
		Priority: req.Priority,
		Reason:   req.Reason,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "feedback updated", item)
}

// DeleteFeedback handles DELETE /api/v1/feedback/:id.
func (h *FeedbackHandler) DeleteFeedback(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "delete_feedback")
	defer span.End()

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.feedbackService.DeleteFeedback(ctx, id, userID, CurrentRole(c).CanModerate()); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "feedback deleted", nil)
}

// UpdateStatusRequest is the direct status-transition payload.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// UpdateStatus handles PUT /api/v1/feedback/:id/status. Moderator only.
func (h *FeedbackHandler) UpdateStatus(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "update_feedback_status")
	defer span.End()

	userID, ok := requireModerator(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, contextutils.WrapError(contextutils.ErrInvalidInput, err.Error()))
		return
	}

	item, err := h.feedbackService.UpdateStatus(ctx, id, userID, req.Status, req.Reason)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "status updated", item)
}

// VoteRequest is the vote-toggle payload.
type VoteRequest struct {
	VoteType string `json:"vote_type" binding:"required"`
}

// VoteFeedback handles POST /api/v1/feedback/:id/vote.
func (h *FeedbackHandler) VoteFeedback(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "vote_feedback")
	defer span.End()

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, contextutils.WrapError(contextutils.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.feedbackService.VoteFeedback(ctx, id, userID, req.VoteType)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "vote recorded", result)
}

// CreateReplyRequest is the reply payload.
type CreateReplyRequest struct {
	Message     string                `json:"message" binding:"required"`
	IsInternal  bool                  `json:"is_internal"`
	Attachments models.AttachmentList `json:"attachments"`
}

// CreateReply handles POST /api/v1/feedback/:id/replies. Internal replies
// may only be posted by moderators.
func (h *FeedbackHandler) CreateReply(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_reply")
	defer span.End()

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req CreateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, contextutils.WrapError(contextutils.ErrInvalidInput, err.Error()))
		return
	}
	if req.IsInternal && !CurrentRole(c).CanModerate() {
		RespondError(c, contextutils.WrapError(contextutils.ErrForbidden, "internal replies require moderator role"))
		return
	}

	reply, err := h.feedbackService.CreateReply(ctx, id, userID, req.Message, req.IsInternal, req.Attachments)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "reply created", reply)
}

// ListReplies handles GET /api/v1/feedback/:id/replies. Internal replies
// are visible to moderators only.
func (h *FeedbackHandler) ListReplies(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_replies")
	defer span.End()

	if _, ok := requireUser(c); !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	replies, err := h.feedbackService.ListReplies(ctx, id, CurrentRole(c).CanModerate())
	if err != nil {
		RespondError(c, err)
		return
	}
	if replies == nil {
		replies = []models.Reply{}
	}
	RespondOK(c, "reply thread", replies)
}

// UpdateReplyRequest is the reply-edit payload.
type UpdateReplyRequest struct {
	Message string `json:"message" binding:"required"`
}

// UpdateReply handles PUT /api/v1/feedback/replies/:id.
func (h *FeedbackHandler) UpdateReply(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "update_reply")
	defer span.End()

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, contextutils.WrapError(contextutils.ErrInvalidInput, err.Error()))
		return
	}

	reply, err := h.feedbackService.UpdateReply(ctx, id, userID, req.Message)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "reply updated", reply)
}

// DeleteReply handles DELETE /api/v1/feedback/replies/:id.
func (h *FeedbackHandler) DeleteReply(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "delete_reply")
	defer span.End()

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.feedbackService.DeleteReply(ctx, id, userID, CurrentRole(c).CanModerate()); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "reply deleted", nil)
}

// BatchRequest is the batch-action payload.
type BatchRequest struct {
	Action string `json:"action" binding:"required"`
	IDs    []int  `json:"ids" binding:"required"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// BatchAction handles POST /api/v1/feedback/batch. Moderator only. The
// response is always 200; per-item outcomes live in the payload.
func (h *FeedbackHandler) BatchAction(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "batch_action")
	defer span.End()

	userID, ok := requireModerator(c)
	if !ok {
		return
	}
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, contextutils.WrapError(contextutils.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.feedbackService.BatchAction(ctx, userID, req.Action, req.IDs, req.Status, req.Reason)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "batch completed", result)
}

// ListCategories handles GET /api/v1/feedback/categories.
func (h *FeedbackHandler) ListCategories(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_categories")
	defer span.End()

	if _, ok := requireUser(c); !ok {
		return
	}
	includeInactive := c.Query("includeInactive") == "true" && CurrentRole(c).CanModerate()
	categories, err := h.feedbackService.ListCategories(ctx, includeInactive)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "category registry", categories)
}

// CategoryRequest is the category create/update payload.
type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Value       string `json:"value"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	OrderIndex  int    `json:"order_index"`
}

// CreateCategory handles POST /api/v1/feedback/categories. Moderator only.
func (h *FeedbackHandler) CreateCategory(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_category")
	defer span.End()

	if _, ok := requireModerator(c); !ok {
		return
	}
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, contextutils.WrapError(contextutils.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.feedbackService.CreateCategory(ctx, services.CategoryInput{
		Name:        req.Name,
		Value:       req.Value,
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
		OrderIndex:  req.OrderIndex,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "category created", category)
}

// UpdateCategory handles PUT /api/v1/feedback/categories/:id. Moderator only.
func (h *FeedbackHandler) UpdateCategory(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "update_category")
	defer span.End()

	if _, ok := requireModerator(c); !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, contextutils.WrapError(contextutils.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.feedbackService.UpdateCategory(ctx, id, services.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
		OrderIndex:  req.OrderIndex,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, "category updated", category)
}

// DeleteCategory handles DELETE /api/v1/feedback/categories/:id. Moderator
// only; referenced categories are deactivated instead of removed.
func (h *FeedbackHandler) DeleteCategory(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "delete_category")
	defer span.End()

	if _, ok := requireModerator(c); !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	deactivated, err := h.feedbackService.DeleteCategory(ctx, id)
	if err != nil {
		RespondError(c, err)
		return
	}
	message := "category deleted"
	if deactivated {
		message = "category deactivated (referenced by existing feedback)"
	}
	RespondOK(c, message, gin.H{"deactivated": deactivated})
}

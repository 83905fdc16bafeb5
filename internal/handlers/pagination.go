package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"readerapp/internal/config"
	"readerapp/internal/services"
)

// Pagination is the parsed and echoed pagination sub-object.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ParsePagination reads page/pageSize query parameters, applying the
// defaults and the page-size cap.
func ParsePagination(c *gin.Context) (page, pageSize int) {
	page = config.DefaultPage
	pageSize = config.DefaultPageSize

	if raw := c.Query("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			page = v
		}
	}
	if raw := c.Query("pageSize"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			pageSize = v
		}
	}
	if pageSize > config.MaxPageSize {
		pageSize = config.MaxPageSize
	}
	return page, pageSize
}

// NewPagination builds the echoed pagination object from a total count.
func NewPagination(page, pageSize, total int) Pagination {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return Pagination{Page: page, PageSize: pageSize, Total: total, TotalPages: totalPages}
}

// ParseFeedbackFilters reads the filter query parameters echoed back on
// list/search/statistics responses.
func ParseFeedbackFilters(c *gin.Context) services.FeedbackFilters {
	return services.FeedbackFilters{
		Type:      c.Query("type"),
		Status:    c.Query("status"),
		Priority:  c.Query("priority"),
		TimeRange: c.Query("timeRange"),
		Keyword:   c.Query("keyword"),
	}
}

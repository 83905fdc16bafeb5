package services

import (
	"fmt"
	"strings"
	"time"
)

// FeedbackFilters are the query-parameter filters accepted by the feedback
// list, search, statistics and export operations.
type FeedbackFilters struct {
	Type      string `json:"type"`
	Status    string `json:"status"`
	Priority  string `json:"priority"`
	TimeRange string `json:"timeRange"`
	Keyword   string `json:"keyword"`
}

// timeRangeCutoff translates a symbolic time range into a created_at cutoff.
// Empty and "all" mean no cutoff.
func timeRangeCutoff(timeRange string, now time.Time) (time.Time, bool) {
	switch timeRange {
	case "", "all":
		return time.Time{}, false
	case "today":
		return now.Truncate(24 * time.Hour), true
	case "week", "7d":
		return now.AddDate(0, 0, -7), true
	case "month", "30d":
		return now.AddDate(0, 0, -30), true
	case "quarter", "90d":
		return now.AddDate(0, 0, -90), true
	case "year":
		return now.AddDate(-1, 0, 0), true
	default:
		return time.Time{}, false
	}
}

// buildFeedbackWhere turns the filters into a WHERE clause over user_feedback
// (aliased f). Placeholders start at startIdx; the next free index is
// returned alongside the clause and its arguments.
func buildFeedbackWhere(f FeedbackFilters, startIdx int) (where string, args []interface{}, nextIdx int) {
	var conditions []string
	idx := startIdx

	if f.Type != "" {
		conditions = append(conditions, fmt.Sprintf("f.type = $%d", idx))
		args = append(args, f.Type)
		idx++
	}
	if f.Status != "" {
		conditions = append(conditions, fmt.Sprintf("f.status = $%d", idx))
		args = append(args, f.Status)
		idx++
	}
	if f.Priority != "" {
		conditions = append(conditions, fmt.Sprintf("f.priority = $%d", idx))
		args = append(args, f.Priority)
		idx++
	}
	if cutoff, ok := timeRangeCutoff(f.TimeRange, time.Now()); ok {
		conditions = append(conditions, fmt.Sprintf("f.created_at >= $%d", idx))
		args = append(args, cutoff)
		idx++
	}
	if f.Keyword != "" {
		conditions = append(conditions, fmt.Sprintf("(f.title ILIKE $%d OR f.content ILIKE $%d)", idx, idx+1))
		pattern := "%" + f.Keyword + "%"
		args = append(args, pattern, pattern)
		idx += 2
	}

	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	return where, args, idx
}

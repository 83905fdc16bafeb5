package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeRangeCutoff(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		timeRange string
		want      time.Time
		wantOK    bool
	}{
		{"empty means no cutoff", "", time.Time{}, false},
		{"all means no cutoff", "all", time.Time{}, false},
		{"unknown means no cutoff", "fortnight", time.Time{}, false},
		{"today truncates to midnight", "today", now.Truncate(24 * time.Hour), true},
		{"week", "week", now.AddDate(0, 0, -7), true},
		{"7d alias", "7d", now.AddDate(0, 0, -7), true},
		{"month", "month", now.AddDate(0, 0, -30), true},
		{"quarter", "quarter", now.AddDate(0, 0, -90), true},
		{"year", "year", now.AddDate(-1, 0, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := timeRangeCutoff(tt.timeRange, now)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildFeedbackWhere(t *testing.T) {
	t.Run("no filters yields empty clause", func(t *testing.T) {
		where, args, idx := buildFeedbackWhere(FeedbackFilters{}, 1)
		assert.Empty(t, where)
		assert.Empty(t, args)
		assert.Equal(t, 1, idx)
	})

	t.Run("keyword searches title and content", func(t *testing.T) {
		where, args, idx := buildFeedbackWhere(FeedbackFilters{Keyword: "dark mode"}, 1)
		assert.Equal(t, "WHERE (f.title ILIKE $1 OR f.content ILIKE $2)", where)
		assert.Equal(t, []interface{}{"%dark mode%", "%dark mode%"}, args)
		assert.Equal(t, 3, idx)
	})

	t.Run("placeholders continue from startIdx", func(t *testing.T) {
		where, args, idx := buildFeedbackWhere(FeedbackFilters{Type: "bug", Status: "pending"}, 3)
		assert.Equal(t, "WHERE f.type = $3 AND f.status = $4", where)
		assert.Equal(t, []interface{}{"bug", "pending"}, args)
		assert.Equal(t, 5, idx)
	})
}

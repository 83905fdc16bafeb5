package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroFilledBuckets(t *testing.T) {
	t.Run("day buckets cover the whole window", func(t *testing.T) {
		start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
		end := time.Date(2025, 6, 4, 23, 0, 0, 0, time.UTC)
		buckets := zeroFilledBuckets(start, end, "day", map[string]int{"2025-06-02": 3})

		require.Len(t, buckets, 4)
		assert.Equal(t, TimeBucket{Period: "2025-06-01", Count: 0}, buckets[0])
		assert.Equal(t, TimeBucket{Period: "2025-06-02", Count: 3}, buckets[1])
		assert.Equal(t, TimeBucket{Period: "2025-06-04", Count: 0}, buckets[3])
	})

	t.Run("month buckets span calendar months", func(t *testing.T) {
		start := time.Date(2024, 11, 20, 0, 0, 0, 0, time.UTC)
		end := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
		buckets := zeroFilledBuckets(start, end, "month", map[string]int{"2025-01": 7})

		require.Len(t, buckets, 4)
		assert.Equal(t, "2024-11", buckets[0].Period)
		assert.Equal(t, 7, buckets[2].Count)
		assert.Equal(t, "2025-02", buckets[3].Period)
	})
}

func TestGrowthFromTimeline(t *testing.T) {
	tests := []struct {
		name     string
		timeline []TimeBucket
		want     GrowthTrend
	}{
		{
			name: "empty timeline is stable",
			want: GrowthTrend{Direction: "stable"},
		},
		{
			name:     "growth from zero is a flat 100 percent",
			timeline: []TimeBucket{{Count: 0}, {Count: 4}},
			want:     GrowthTrend{Current: 4, Previous: 0, ChangePct: 100, Direction: "up"},
		},
		{
			name:     "decline",
			timeline: []TimeBucket{{Count: 10}, {Count: 5}},
			want:     GrowthTrend{Current: 5, Previous: 10, ChangePct: -50, Direction: "down"},
		},
		{
			name:     "flat",
			timeline: []TimeBucket{{Count: 5}, {Count: 5}},
			want:     GrowthTrend{Current: 5, Previous: 5, Direction: "stable"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, growthFromTimeline(tt.timeline))
		})
	}
}

func TestGetStatistics_ZeroFillsAndDerives(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	service := NewStatsService(db, newTestLogger())

	mock.ExpectQuery(`SELECT f.type, COUNT\(\*\) FROM user_feedback f GROUP BY f.type`).
		WillReturnRows(sqlmock.NewRows([]string{"type", "count"}).
			AddRow("bug", 6).
			AddRow("translation", 2))
	mock.ExpectQuery(`SELECT f.status, COUNT\(\*\) FROM user_feedback f GROUP BY f.status`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 5).
			AddRow("completed", 3))
	mock.ExpectQuery(`SELECT f.priority, COUNT\(\*\) FROM user_feedback f GROUP BY f.priority`).
		WillReturnRows(sqlmock.NewRows([]string{"priority", "count"}).
			AddRow("medium", 8))
	mock.ExpectQuery("SELECT to_char").
		WillReturnRows(sqlmock.NewRows([]string{"period", "count"}))
	mock.ExpectQuery("SELECT f.user_id, u.username").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "username", "feedback_count", "upvotes_received"}).
			AddRow(5, "alice", 6, 14).
			AddRow(9, "bob", 2, 3))
	mock.ExpectQuery("SELECT COALESCE\\(AVG\\(EXTRACT").
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(5.5))
	mock.ExpectQuery("SELECT COALESCE\\(AVG\\(\\s*CASE").
		WillReturnRows(sqlmock.NewRows([]string{"score"}).AddRow(3.75))

	stats, err := service.GetStatistics(context.Background(), FeedbackFilters{}, "day")
	require.NoError(t, err)

	assert.Equal(t, 8, stats.Total)
	assert.Equal(t, 6, stats.ByType["bug"])
	assert.Equal(t, 0, stats.ByType["feature"], "enumerated types are zero-filled")
	assert.Equal(t, 2, stats.ByType["translation"], "custom categories get their own key")
	assert.Equal(t, 0, stats.ByStatus["rejected"])
	assert.InDelta(t, 0.375, stats.ResolutionRate, 1e-9)
	assert.InDelta(t, 5.5, stats.AvgResponseHours, 1e-9)
	assert.InDelta(t, 3.75, stats.SatisfactionScore, 1e-9)
	assert.Len(t, stats.Timeline, 30, "default day window covers the last 30 days")
	require.Len(t, stats.TopContributors, 2)
	assert.Equal(t, "alice", stats.TopContributors[0].Username)
}

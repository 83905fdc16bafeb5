package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"readerapp/internal/models"
	"readerapp/internal/observability"
	contextutils "readerapp/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// StatsService computes feedback statistics over a filtered subset.
type StatsService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewStatsService creates a new StatsService instance.
func NewStatsService(db *sql.DB, logger *observability.Logger) *StatsService {
	if db == nil {
		panic("NewStatsService: db is nil")
	}
	if logger == nil {
		panic("NewStatsService: logger is nil")
	}
	return &StatsService{db: db, logger: logger}
}

// TimeBucket is one zero-filled calendar bucket of the timeline.
type TimeBucket struct {
	Period string `json:"period"`
	Count  int    `json:"count"`
}

// Contributor is one entry of the top-contributor ranking.
type Contributor struct {
	UserID          int    `json:"user_id"`
	Username        string `json:"username"`
	FeedbackCount   int    `json:"feedback_count"`
	UpvotesReceived int    `json:"upvotes_received"`
}

// GrowthTrend compares the latest timeline bucket with the previous one.
type GrowthTrend struct {
	Current   int     `json:"current"`
	Previous  int     `json:"previous"`
	ChangePct float64 `json:"change_pct"`
	Direction string  `json:"direction"`
}

// FeedbackStatistics is the full statistics payload. The by-* maps always
// contain every enumerated key, zero-filled.
type FeedbackStatistics struct {
	Total             int            `json:"total"`
	ByType            map[string]int `json:"by_type"`
	ByStatus          map[string]int `json:"by_status"`
	ByPriority        map[string]int `json:"by_priority"`
	Timeline          []TimeBucket   `json:"timeline"`
	TopContributors   []Contributor  `json:"top_contributors"`
	ResolutionRate    float64        `json:"resolution_rate"`
	AvgResponseHours  float64        `json:"avg_response_hours"`
	SatisfactionScore float64        `json:"satisfaction_score"`
	GrowthTrend       GrowthTrend    `json:"growth_trend"`
}

// GetStatistics aggregates statistics for the filtered feedback subset.
// groupBy is "day" or "month" and controls the timeline granularity.
func (s *StatsService) GetStatistics(ctx context.Context, filters FeedbackFilters, groupBy string) (result0 *FeedbackStatistics, err error) {
	ctx, span := observability.TraceStatsFunction(ctx, "get_statistics", attribute.String("stats.group_by", groupBy))
	defer observability.FinishSpan(span, &err)

	if groupBy != "month" {
		groupBy = "day"
	}

	stats := &FeedbackStatistics{
		ByType:     zeroFilledTypes(),
		ByStatus:   zeroFilledStatuses(),
		ByPriority: zeroFilledPriorities(),
	}

	if err = s.fillGroupCounts(ctx, filters, "type", stats.ByType); err != nil {
		return nil, err
	}
	if err = s.fillGroupCounts(ctx, filters, "status", stats.ByStatus); err != nil {
		return nil, err
	}
	if err = s.fillGroupCounts(ctx, filters, "priority", stats.ByPriority); err != nil {
		return nil, err
	}
	for _, n := range stats.ByStatus {
		stats.Total += n
	}

	if stats.Timeline, err = s.timeline(ctx, filters, groupBy); err != nil {
		return nil, err
	}
	if stats.TopContributors, err = s.topContributors(ctx, filters); err != nil {
		return nil, err
	}
	if stats.AvgResponseHours, err = s.avgResponseHours(ctx, filters); err != nil {
		return nil, err
	}
	if stats.SatisfactionScore, err = s.satisfactionScore(ctx, filters); err != nil {
		return nil, err
	}

	closed := 0
	for _, status := range models.FeedbackStatuses {
		if status.Closed() {
			closed += stats.ByStatus[string(status)]
		}
	}
	if stats.Total > 0 {
		stats.ResolutionRate = float64(closed) / float64(stats.Total)
	}

	stats.GrowthTrend = growthFromTimeline(stats.Timeline)
	return stats, nil
}

func zeroFilledTypes() map[string]int {
	m := make(map[string]int, len(models.FeedbackTypes))
	for _, t := range models.FeedbackTypes {
		m[string(t)] = 0
	}
	return m
}

func zeroFilledStatuses() map[string]int {
	m := make(map[string]int, len(models.FeedbackStatuses))
	for _, st := range models.FeedbackStatuses {
		m[string(st)] = 0
	}
	return m
}

func zeroFilledPriorities() map[string]int {
	m := make(map[string]int, len(models.FeedbackPriorities))
	for _, p := range models.FeedbackPriorities {
		m[string(p)] = 0
	}
	return m
}

// fillGroupCounts adds GROUP BY counts for one column into the zero-filled
// map. Values outside the enumerated set (custom category types) are added
// as their own keys.
func (s *StatsService) fillGroupCounts(ctx context.Context, filters FeedbackFilters, column string, into map[string]int) error {
	where, args, _ := buildFeedbackWhere(filters, 1)
	query := fmt.Sprintf(`SELECT f.%s, COUNT(*) FROM user_feedback f %s GROUP BY f.%s`, column, where, column)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to group feedback by %s", column)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn(ctx, "failed to close rows", map[string]interface{}{"error": cerr.Error()})
		}
	}()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return contextutils.WrapError(err, "failed to scan group count")
		}
		into[key] = count
	}
	return contextutils.WrapError(rows.Err(), "failed to iterate group counts")
}

// timeline returns zero-filled calendar buckets across the filter window.
// Without an explicit time range the window defaults to the last 30 days
// (day grouping) or 12 months (month grouping).
func (s *StatsService) timeline(ctx context.Context, filters FeedbackFilters, groupBy string) ([]TimeBucket, error) {
	now := time.Now()
	start, ok := timeRangeCutoff(filters.TimeRange, now)
	if !ok {
		if groupBy == "month" {
			start = now.AddDate(0, -11, 0)
		} else {
			start = now.AddDate(0, 0, -29)
		}
	}

	format := "YYYY-MM-DD"
	if groupBy == "month" {
		format = "YYYY-MM"
	}

	where, args, idx := buildFeedbackWhere(filters, 1)
	query := fmt.Sprintf(`SELECT to_char(f.created_at, '%s') AS period, COUNT(*) FROM user_feedback f %s GROUP BY period ORDER BY period`, format, where)
	_ = idx

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query timeline")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn(ctx, "failed to close rows", map[string]interface{}{"error": cerr.Error()})
		}
	}()

	counts := map[string]int{}
	for rows.Next() {
		var period string
		var count int
		if err := rows.Scan(&period, &count); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan timeline bucket")
		}
		counts[period] = count
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate timeline")
	}

	return zeroFilledBuckets(start, now, groupBy, counts), nil
}

// zeroFilledBuckets emits one bucket for every calendar day or month between
// start and end inclusive, even when no data exists for it.
func zeroFilledBuckets(start, end time.Time, groupBy string, counts map[string]int) []TimeBucket {
	var buckets []TimeBucket
	if groupBy == "month" {
		cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
		last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
		for !cur.After(last) {
			key := cur.Format("2006-01")
			buckets = append(buckets, TimeBucket{Period: key, Count: counts[key]})
			cur = cur.AddDate(0, 1, 0)
		}
		return buckets
	}
	cur := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	for !cur.After(last) {
		key := cur.Format("2006-01-02")
		buckets = append(buckets, TimeBucket{Period: key, Count: counts[key]})
		cur = cur.AddDate(0, 0, 1)
	}
	return buckets
}

// topContributors ranks users by feedback count, then by upvotes received,
// limited to 10.
func (s *StatsService) topContributors(ctx context.Context, filters FeedbackFilters) ([]Contributor, error) {
	where, args, _ := buildFeedbackWhere(filters, 1)
	query := fmt.Sprintf(`SELECT f.user_id, u.username, COUNT(*) AS feedback_count, COALESCE(SUM(f.upvotes), 0) AS upvotes_received
		FROM user_feedback f JOIN users u ON u.id = f.user_id %s
		GROUP BY f.user_id, u.username
		ORDER BY feedback_count DESC, upvotes_received DESC
		LIMIT 10`, where)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query top contributors")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn(ctx, "failed to close rows", map[string]interface{}{"error": cerr.Error()})
		}
	}()

	contributors := []Contributor{}
	for rows.Next() {
		var c Contributor
		if err := rows.Scan(&c.UserID, &c.Username, &c.FeedbackCount, &c.UpvotesReceived); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan contributor")
		}
		contributors = append(contributors, c)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate contributors")
	}
	return contributors, nil
}

// avgResponseHours is the mean hours between feedback creation and its first
// reply, over items that have replies. Zero when none do.
func (s *StatsService) avgResponseHours(ctx context.Context, filters FeedbackFilters) (float64, error) {
	where, args, _ := buildFeedbackWhere(filters, 1)
	query := fmt.Sprintf(`SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (r.first_reply_at - f.created_at)) / 3600), 0)
		FROM user_feedback f
		JOIN (SELECT feedback_id, MIN(created_at) AS first_reply_at FROM feedback_replies GROUP BY feedback_id) r
		ON r.feedback_id = f.id %s`, where)

	var hours float64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&hours); err != nil {
		return 0, contextutils.WrapError(err, "failed to compute average response time")
	}
	return hours, nil
}

// satisfactionScore averages a per-item score on a 0-5 scale: the upvote
// ratio times 5, with a flat 3.0 baseline for items without votes. An empty
// subset also yields the baseline.
func (s *StatsService) satisfactionScore(ctx context.Context, filters FeedbackFilters) (float64, error) {
	where, args, _ := buildFeedbackWhere(filters, 1)
	query := fmt.Sprintf(`SELECT COALESCE(AVG(
			CASE WHEN f.upvotes + f.downvotes = 0 THEN 3.0
			ELSE f.upvotes::float / (f.upvotes + f.downvotes) * 5 END), 3.0)
		FROM user_feedback f %s`, where)

	var score float64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&score); err != nil {
		return 0, contextutils.WrapError(err, "failed to compute satisfaction score")
	}
	return score, nil
}

// growthFromTimeline compares the last bucket against the one before it.
func growthFromTimeline(timeline []TimeBucket) GrowthTrend {
	trend := GrowthTrend{Direction: "stable"}
	if len(timeline) == 0 {
		return trend
	}
	trend.Current = timeline[len(timeline)-1].Count
	if len(timeline) > 1 {
		trend.Previous = timeline[len(timeline)-2].Count
	}
	switch {
	case trend.Previous == 0 && trend.Current > 0:
		trend.ChangePct = 100
	case trend.Previous > 0:
		trend.ChangePct = float64(trend.Current-trend.Previous) / float64(trend.Previous) * 100
	}
	switch {
	case trend.Current > trend.Previous:
		trend.Direction = "up"
	case trend.Current < trend.Previous:
		trend.Direction = "down"
	}
	return trend
}

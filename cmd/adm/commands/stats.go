package commands

import (
	"encoding/json"
	"fmt"

	"readerapp/internal/observability"
	"readerapp/internal/services"
	contextutils "readerapp/internal/utils"

	"github.com/spf13/cobra"
)

// StatsCommand returns the statistics snapshot command.
func StatsCommand(statsService *services.StatsService, logger *observability.Logger) *cobra.Command {
	var (
		timeRange string
		groupBy   string
		feedType  string
		status    string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print a feedback statistics snapshot as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			filters := services.FeedbackFilters{
				Type:      feedType,
				Status:    status,
				TimeRange: timeRange,
			}

			stats, err := statsService.GetStatistics(ctx, filters, groupBy)
			if err != nil {
				return contextutils.WrapError(err, "statistics failed")
			}

			payload, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return contextutils.WrapError(err, "failed to marshal statistics")
			}
			fmt.Println(string(payload))
			return nil
		},
	}

	cmd.Flags().StringVar(&timeRange, "time-range", "month", "time range (today, week, month, quarter, year, all)")
	cmd.Flags().StringVar(&groupBy, "group-by", "day", "timeline granularity: day or month")
	cmd.Flags().StringVar(&feedType, "type", "", "filter by type")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	return cmd
}

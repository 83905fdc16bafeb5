// Package commands contains the subcommands of the admin CLI.
package commands

import (
	"fmt"
	"os"

	"readerapp/internal/observability"
	"readerapp/internal/services"
	contextutils "readerapp/internal/utils"

	"github.com/spf13/cobra"
)

// ExportCommand returns the feedback export command.
func ExportCommand(feedbackService *services.FeedbackService, logger *observability.Logger) *cobra.Command {
	var (
		format    string
		status    string
		feedType  string
		priority  string
		timeRange string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export feedback as JSON or CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			filters := services.FeedbackFilters{
				Type:      feedType,
				Status:    status,
				Priority:  priority,
				TimeRange: timeRange,
			}

			payload, _, err := feedbackService.ExportFeedback(ctx, filters, format)
			if err != nil {
				return contextutils.WrapError(err, "export failed")
			}

			if output == "" || output == "-" {
				fmt.Println(string(payload))
				return nil
			}
			if err := os.WriteFile(output, payload, 0o600); err != nil {
				return contextutils.WrapError(err, "failed to write output file")
			}
			logger.Info(ctx, "export written", map[string]interface{}{"file": output, "bytes": len(payload)})
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", services.ExportFormatJSON, "export format: json or csv")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&feedType, "type", "", "filter by type")
	cmd.Flags().StringVar(&priority, "priority", "", "filter by priority")
	cmd.Flags().StringVar(&timeRange, "time-range", "", "filter by time range (today, week, month, quarter, year)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

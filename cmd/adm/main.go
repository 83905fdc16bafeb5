// Package main provides the admin CLI for the reader backend.
package main

import (
	"context"
	"fmt"
	"os"

	"readerapp/cmd/adm/commands"
	"readerapp/internal/config"
	"readerapp/internal/database"
	"readerapp/internal/observability"
	"readerapp/internal/services"
	"readerapp/internal/version"

	"github.com/spf13/cobra"
)

func main() {
	ctx := context.Background()

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// The CLI stays quiet and offline: errors only, no telemetry export
	cfg.Server.LogLevel = "error"
	cfg.OpenTelemetry.EnableTracing = false
	cfg.OpenTelemetry.EnableMetrics = false
	cfg.OpenTelemetry.EnableLogging = false

	logger := observability.NewLogger(&cfg.OpenTelemetry)

	dbManager := database.NewManager(logger)
	db, err := dbManager.InitDBWithoutMigrations(config.DatabaseConfig{URL: cfg.Database.URL})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Warn(ctx, "failed to close database", map[string]interface{}{"error": cerr.Error()})
		}
	}()

	feedbackService := services.NewFeedbackService(db, logger)
	statsService := services.NewStatsService(db, logger)

	rootCmd := &cobra.Command{
		Use:     "adm",
		Short:   "Admin CLI for the reader backend",
		Version: version.String(),
	}
	rootCmd.AddCommand(commands.ExportCommand(feedbackService, logger))
	rootCmd.AddCommand(commands.StatsCommand(statsService, logger))
	rootCmd.AddCommand(commands.SessionCommand(db, logger))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

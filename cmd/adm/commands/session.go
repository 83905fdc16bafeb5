package commands

import (
	"database/sql"
	"fmt"
	"time"

	"readerapp/internal/observability"
	contextutils "readerapp/internal/utils"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// SessionCommand returns the session management command. Sessions are
// normally issued by the external gateway; this exists for local testing
// and operational recovery.
func SessionCommand(db *sql.DB, logger *observability.Logger) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Session management commands",
	}
	sessionCmd.AddCommand(createSessionCmd(db, logger))
	sessionCmd.AddCommand(purgeSessionsCmd(db, logger))
	return sessionCmd
}

func createSessionCmd(db *sql.DB, logger *observability.Logger) *cobra.Command {
	var (
		userID int
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a bearer session for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if userID <= 0 {
				return contextutils.WrapError(contextutils.ErrMissingRequired, "--user-id is required")
			}

			token := uuid.NewString()
			expiresAt := time.Now().Add(ttl)
			_, err := db.ExecContext(ctx,
				`INSERT INTO user_sessions (user_id, access_token, expires_at) VALUES ($1, $2, $3)`,
				userID, token, expiresAt)
			if err != nil {
				return contextutils.WrapError(err, "failed to insert session")
			}

			logger.Info(ctx, "session created", map[string]interface{}{"user_id": userID, "expires_at": expiresAt})
			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().IntVar(&userID, "user-id", 0, "user id to issue the session for")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "session lifetime")
	return cmd
}

func purgeSessionsCmd(db *sql.DB, logger *observability.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete expired sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			res, err := db.ExecContext(ctx, `DELETE FROM user_sessions WHERE expires_at < CURRENT_TIMESTAMP`)
			if err != nil {
				return contextutils.WrapError(err, "failed to purge sessions")
			}
			n, _ := res.RowsAffected()
			logger.Info(ctx, "expired sessions purged", map[string]interface{}{"deleted": n})
			fmt.Printf("deleted %d expired sessions\n", n)
			return nil
		},
	}
}

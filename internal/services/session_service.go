// Package services contains the application services. Each service holds a
// *sql.DB and a structured logger and exposes context-aware methods that map
// one-to-one onto the HTTP operations.
package services

import (
	"context"
	"database/sql"
	"time"

	"readerapp/internal/models"
	"readerapp/internal/observability"
	contextutils "readerapp/internal/utils"
)

// SessionService resolves bearer tokens against the user_sessions table.
// Sessions are issued by an external gateway; this service only reads them.
type SessionService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewSessionService creates a new SessionService instance.
func NewSessionService(db *sql.DB, logger *observability.Logger) *SessionService {
	if db == nil {
		panic("NewSessionService: db is nil")
	}
	if logger == nil {
		panic("NewSessionService: logger is nil")
	}
	return &SessionService{db: db, logger: logger}
}

// GetSessionByToken looks up a session by its access token. Unknown tokens
// return ErrUnauthorized; expired sessions return ErrSessionExpired.
func (s *SessionService) GetSessionByToken(ctx context.Context, token string) (result0 *models.Session, err error) {
	ctx, span := observability.TraceAuthFunction(ctx, "get_session_by_token")
	defer observability.FinishSpan(span, &err)

	query := `SELECT id, user_id, access_token, expires_at, created_at FROM user_sessions WHERE access_token = $1`
	var session models.Session
	err = s.db.QueryRowContext(ctx, query, token).
		Scan(&session.ID, &session.UserID, &session.AccessToken, &session.ExpiresAt, &session.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, contextutils.ErrUnauthorized
		}
		return nil, contextutils.WrapError(err, "failed to look up session")
	}
	if session.Expired(time.Now()) {
		return nil, contextutils.ErrSessionExpired
	}
	return &session, nil
}

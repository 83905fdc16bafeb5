package services

import (
	"context"
	"database/sql"

	"readerapp/internal/models"
	"readerapp/internal/observability"
	contextutils "readerapp/internal/utils"
)

// UserService loads user records and answers role capability questions.
type UserService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewUserService creates a new UserService instance.
func NewUserService(db *sql.DB, logger *observability.Logger) *UserService {
	if db == nil {
		panic("NewUserService: db is nil")
	}
	if logger == nil {
		panic("NewUserService: logger is nil")
	}
	return &UserService{db: db, logger: logger}
}

// GetUserByID fetches a single user.
func (s *UserService) GetUserByID(ctx context.Context, id int) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_user_by_id")
	defer observability.FinishSpan(span, &err)

	query := `SELECT id, username, email, role, last_active, created_at, updated_at FROM users WHERE id = $1`
	var u models.User
	err = s.db.QueryRowContext(ctx, query, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.LastActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, contextutils.ErrRecordNotFound
		}
		return nil, contextutils.WrapError(err, "failed to scan user")
	}
	return &u, nil
}

// TouchLastActive updates the user's last_active timestamp. Failures are
// logged, not surfaced; activity tracking never fails a request.
func (s *UserService) TouchLastActive(ctx context.Context, userID int) {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET last_active = CURRENT_TIMESTAMP WHERE id = $1`, userID)
	if err != nil {
		s.logger.Warn(ctx, "failed to update last_active", map[string]interface{}{"user_id": userID, "error": err.Error()})
	}
}

// Package middleware provides the authentication middlewares: trusted-header
// auth for the feedback routes and bearer-session auth for the reader routes.
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"readerapp/internal/config"
	"readerapp/internal/observability"
	"readerapp/internal/services"
	contextutils "readerapp/internal/utils"
)

// Gin context keys populated by the auth middlewares.
const (
	ContextUserIDKey   = "user_id"
	ContextUserRoleKey = "user_role"
)

// abortUnauthorized writes the standard response envelope with a 401 (or 500
// for unexpected failures) and stops the chain.
func abortUnauthorized(c *gin.Context, err error) {
	status := http.StatusUnauthorized
	if contextutils.GetErrorCode(err) == contextutils.ErrorCodeInternalError ||
		contextutils.GetErrorCode(err) == contextutils.ErrorCodeDatabaseQuery {
		status = http.StatusInternalServerError
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": err.Error(),
		"data":    nil,
	})
}

// RequireUserHeader trusts the X-User-Id header (an external gateway is
// assumed to have validated it), loads the user and stores id and role in
// the gin context.
func RequireUserHeader(userService *services.UserService, logger *observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(config.UserIDHeader)
		if raw == "" {
			abortUnauthorized(c, contextutils.WrapError(contextutils.ErrUnauthorized, "missing user header"))
			return
		}
		userID, err := strconv.Atoi(raw)
		if err != nil || userID <= 0 {
			abortUnauthorized(c, contextutils.WrapError(contextutils.ErrUnauthorized, "malformed user header"))
			return
		}

		user, err := userService.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			if contextutils.IsError(err, contextutils.ErrRecordNotFound) {
				err = contextutils.WrapError(contextutils.ErrUnauthorized, "unknown user")
			} else {
				logger.Error(c.Request.Context(), "failed to resolve user header", err)
			}
			abortUnauthorized(c, err)
			return
		}

		c.Set(ContextUserIDKey, user.ID)
		c.Set(ContextUserRoleKey, user.Role)
		c.Request = c.Request.WithContext(contextutils.WithUserID(c.Request.Context(), user.ID))
		c.Next()
	}
}

// RequireBearerSession resolves an Authorization: Bearer token against the
// session store and stores the session's user in the gin context. Expired
// sessions get a session-expired 401, everything else a plain 401.
func RequireBearerSession(sessionService *services.SessionService, userService *services.UserService, logger *observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, contextutils.WrapError(contextutils.ErrUnauthorized, "missing authorization header"))
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			abortUnauthorized(c, contextutils.WrapError(contextutils.ErrUnauthorized, "malformed authorization header"))
			return
		}

		session, err := sessionService.GetSessionByToken(c.Request.Context(), token)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}

		c.Set(ContextUserIDKey, session.UserID)
		c.Request = c.Request.WithContext(contextutils.WithUserID(c.Request.Context(), session.UserID))
		userService.TouchLastActive(c.Request.Context(), session.UserID)
		c.Next()
	}
}

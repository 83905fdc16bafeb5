package handlers

import (
	"github.com/gin-gonic/gin"

	"readerapp/internal/models"
	contextutils "readerapp/internal/utils"
)

// Context keys shared with the auth middlewares.
const (
	ContextUserIDKey   = "user_id"
	ContextUserRoleKey = "user_role"
)

// CurrentUserID returns the authenticated user id stored by the auth
// middleware.
func CurrentUserID(c *gin.Context) (int, bool) {
	raw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := raw.(int)
	return id, ok && id > 0
}

// CurrentRole returns the authenticated user's role, defaulting to the plain
// user role when the middleware did not store one.
func CurrentRole(c *gin.Context) models.Role {
	raw, exists := c.Get(ContextUserRoleKey)
	if !exists {
		return models.RoleUser
	}
	role, ok := raw.(models.Role)
	if !ok {
		return models.RoleUser
	}
	return role
}

// requireUser extracts the user id or writes a 401 envelope. Handlers behind
// the auth middlewares should never hit the failure path.
func requireUser(c *gin.Context) (int, bool) {
	userID, ok := CurrentUserID(c)
	if !ok {
		RespondError(c, contextutils.ErrUnauthorized)
	}
	return userID, ok
}

// requireModerator enforces the moderation capability predicate.
func requireModerator(c *gin.Context) (int, bool) {
	userID, ok := requireUser(c)
	if !ok {
		return 0, false
	}
	if !CurrentRole(c).CanModerate() {
		RespondError(c, contextutils.WrapError(contextutils.ErrForbidden, "moderator role required"))
		return 0, false
	}
	return userID, true
}

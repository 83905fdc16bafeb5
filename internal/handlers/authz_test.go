package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"readerapp/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCurrentUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("missing", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		_, ok := CurrentUserID(c)
		assert.False(t, ok)
	})

	t.Run("set by middleware", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(ContextUserIDKey, 5)
		id, ok := CurrentUserID(c)
		assert.True(t, ok)
		assert.Equal(t, 5, id)
	})
}

func TestCurrentRole_DefaultsToUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, models.RoleUser, CurrentRole(c))

	c.Set(ContextUserRoleKey, models.RoleAdmin)
	assert.Equal(t, models.RoleAdmin, CurrentRole(c))
}

func TestRequireModerator(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("plain user gets 403", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set(ContextUserIDKey, 5)
		c.Set(ContextUserRoleKey, models.RoleUser)

		_, ok := requireModerator(c)
		assert.False(t, ok)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("moderator passes", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set(ContextUserIDKey, 5)
		c.Set(ContextUserRoleKey, models.RoleModerator)

		id, ok := requireModerator(c)
		assert.True(t, ok)
		assert.Equal(t, 5, id)
	})

	t.Run("unauthenticated gets 401", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		_, ok := requireModerator(c)
		assert.False(t, ok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

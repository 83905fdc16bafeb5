package models

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleCanModerate(t *testing.T) {
	assert.False(t, RoleUser.CanModerate())
	assert.True(t, RoleModerator.CanModerate())
	assert.True(t, RoleAdmin.CanModerate())
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.False(t, Role("superuser").Valid())
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s := Session{ExpiresAt: now.Add(time.Hour)}
	assert.False(t, s.Expired(now))

	s.ExpiresAt = now.Add(-time.Second)
	assert.True(t, s.Expired(now))

	s.ExpiresAt = now
	assert.True(t, s.Expired(now), "expiry boundary counts as expired")
}

func TestUserMarshalJSON_NullEmail(t *testing.T) {
	u := User{ID: 1, Username: "alice", Role: RoleUser}

	payload, err := json.Marshal(u)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Nil(t, decoded["email"])
	assert.Nil(t, decoded["last_active"])

	u.Email = sql.NullString{String: "alice@example.com", Valid: true}
	payload, err = json.Marshal(u)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "alice@example.com", decoded["email"])
}

// Package models defines the data structures shared between services and handlers.
package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Role is the closed set of user roles.
type Role string

const (
	// RoleUser is a regular end user
	RoleUser Role = "user"
	// RoleModerator may manage feedback and categories
	RoleModerator Role = "moderator"
	// RoleAdmin has every capability
	RoleAdmin Role = "admin"
)

// CanModerate reports whether the role may perform moderation actions
// (status changes, batch operations, category management, export).
func (r Role) CanModerate() bool {
	return r == RoleModerator || r == RoleAdmin
}

// Valid reports whether the role is one of the enumerated values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// User represents an application user.
type User struct {
	ID         int            `json:"id" db:"id"`
	Username   string         `json:"username" db:"username"`
	Email      sql.NullString `json:"email" db:"email"`
	Role       Role           `json:"role" db:"role"`
	LastActive sql.NullTime   `json:"last_active" db:"last_active"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at" db:"updated_at"`
}

// MarshalJSON customizes JSON marshaling for User to handle null columns properly
func (u User) MarshalJSON() (result0 []byte, err error) {
	return json.Marshal(&struct {
		ID         int        `json:"id"`
		Username   string     `json:"username"`
		Email      *string    `json:"email"`
		Role       Role       `json:"role"`
		LastActive *time.Time `json:"last_active"`
		CreatedAt  time.Time  `json:"created_at"`
		UpdatedAt  time.Time  `json:"updated_at"`
	}{
		ID:         u.ID,
		Username:   u.Username,
		Email:      nullStringPtr(u.Email),
		Role:       u.Role,
		LastActive: nullTimePtr(u.LastActive),
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	})
}

// Session represents a row in user_sessions. Sessions are issued externally;
// this service only reads them to resolve bearer tokens.
type Session struct {
	ID          int       `json:"id" db:"id"`
	UserID      int       `json:"user_id" db:"user_id"`
	AccessToken string    `json:"-" db:"access_token"`
	ExpiresAt   time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Expired reports whether the session has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

func nullStringPtr(ns sql.NullString) *string {
	if ns.Valid {
		return &ns.String
	}
	return nil
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}

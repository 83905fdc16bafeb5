package config

import "time"

// Timeout constants
const (
	// HTTP timeouts
	DefaultHTTPTimeout = 60 * time.Second
	ShutdownTimeout    = 30 * time.Second

	// Database timeouts
	DatabaseConnMaxLifetime = 5 * time.Minute

	// DictionaryRequestTimeout bounds calls to the external dictionary API
	DictionaryRequestTimeout = 10 * time.Second
)

// Pagination constants
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Reading progress constants
const (
	// OpenedProgressPlaceholder marks a document as opened when stored
	// progress is exactly zero. One-way ratchet from 0 only.
	OpenedProgressPlaceholder = 0.1
)

// Security configuration constants
const (
	// Content Security Policy
	DefaultCSP = "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self' 'unsafe-inline'; img-src 'self' data:; media-src 'self' blob: data:;"
)

// Auth header names
const (
	// UserIDHeader is the trusted gateway-validated user header for feedback endpoints
	UserIDHeader = "X-User-Id"
)

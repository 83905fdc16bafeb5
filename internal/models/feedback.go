package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// FeedbackType is the closed set of feedback item types.
type FeedbackType string

const (
	FeedbackTypeBug         FeedbackType = "bug"
	FeedbackTypeFeature     FeedbackType = "feature"
	FeedbackTypeImprovement FeedbackType = "improvement"
	FeedbackTypeQuestion    FeedbackType = "question"
	FeedbackTypeOther       FeedbackType = "other"
)

// FeedbackTypes lists every type in canonical order.
var FeedbackTypes = []FeedbackType{
	FeedbackTypeBug,
	FeedbackTypeFeature,
	FeedbackTypeImprovement,
	FeedbackTypeQuestion,
	FeedbackTypeOther,
}

// Valid reports whether the type is one of the enumerated values.
func (t FeedbackType) Valid() bool {
	for _, v := range FeedbackTypes {
		if t == v {
			return true
		}
	}
	return false
}

// FeedbackStatus is the closed set of feedback lifecycle statuses.
type FeedbackStatus string

const (
	StatusPending    FeedbackStatus = "pending"
	StatusReviewing  FeedbackStatus = "reviewing"
	StatusInProgress FeedbackStatus = "in_progress"
	StatusCompleted  FeedbackStatus = "completed"
	StatusRejected   FeedbackStatus = "rejected"
	StatusDuplicate  FeedbackStatus = "duplicate"
)

// FeedbackStatuses lists every status in canonical order.
var FeedbackStatuses = []FeedbackStatus{
	StatusPending,
	StatusReviewing,
	StatusInProgress,
	StatusCompleted,
	StatusRejected,
	StatusDuplicate,
}

// Valid reports whether the status is one of the enumerated values.
func (s FeedbackStatus) Valid() bool {
	for _, v := range FeedbackStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Closed reports whether the status counts as resolved for statistics
// (completed, rejected or duplicate).
func (s FeedbackStatus) Closed() bool {
	return s == StatusCompleted || s == StatusRejected || s == StatusDuplicate
}

// FeedbackPriority is the closed set of priorities.
type FeedbackPriority string

const (
	PriorityLow      FeedbackPriority = "low"
	PriorityMedium   FeedbackPriority = "medium"
	PriorityHigh     FeedbackPriority = "high"
	PriorityCritical FeedbackPriority = "critical"
)

// FeedbackPriorities lists every priority in canonical order.
var FeedbackPriorities = []FeedbackPriority{
	PriorityLow,
	PriorityMedium,
	PriorityHigh,
	PriorityCritical,
}

// Valid reports whether the priority is one of the enumerated values.
func (p FeedbackPriority) Valid() bool {
	for _, v := range FeedbackPriorities {
		if p == v {
			return true
		}
	}
	return false
}

// VoteType is upvote or downvote.
type VoteType string

const (
	VoteUpvote   VoteType = "upvote"
	VoteDownvote VoteType = "downvote"
)

// Valid reports whether the vote type is one of the enumerated values.
func (v VoteType) Valid() bool {
	return v == VoteUpvote || v == VoteDownvote
}

// Attachment is a single file reference stored on feedback items and replies.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
	Type string `json:"type,omitempty"`
}

// AttachmentList stores an ordered list of attachments as a JSON text column.
type AttachmentList []Attachment

// Value implements driver.Valuer. An empty list is stored as NULL.
func (a AttachmentList) Value() (driver.Value, error) {
	if len(a) == 0 {
		return nil, nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner.
func (a *AttachmentList) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("cannot scan %T into AttachmentList", src)
	}
}

// Metadata stores an open key-value map as a JSON text column.
type Metadata map[string]interface{}

// Value implements driver.Valuer. An empty map is stored as NULL.
func (m Metadata) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *Metadata) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("cannot scan %T into Metadata", src)
	}
}

// FeedbackItem represents a row in user_feedback.
type FeedbackItem struct {
	ID           int              `json:"id" db:"id"`
	UserID       int              `json:"user_id" db:"user_id"`
	Username     string           `json:"username" db:"username"`
	Title        string           `json:"title" db:"title"`
	Content      string           `json:"content" db:"content"`
	Type         FeedbackType     `json:"type" db:"type"`
	Status       FeedbackStatus   `json:"status" db:"status"`
	Priority     FeedbackPriority `json:"priority" db:"priority"`
	Upvotes      int              `json:"upvotes" db:"upvotes"`
	Downvotes    int              `json:"downvotes" db:"downvotes"`
	ViewCount    int              `json:"view_count" db:"view_count"`
	CommentCount int              `json:"comment_count" db:"comment_count"`
	Attachments  AttachmentList   `json:"attachments" db:"attachments"`
	Metadata     Metadata         `json:"metadata" db:"metadata"`
	UserVote     string           `json:"user_vote,omitempty" db:"-"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
	AssignedAt   sql.NullTime     `json:"assigned_at" db:"assigned_at"`
	CompletedAt  sql.NullTime     `json:"completed_at" db:"completed_at"`
}

// MarshalJSON customizes JSON marshaling for FeedbackItem to handle null columns properly
func (f FeedbackItem) MarshalJSON() (result0 []byte, err error) {
	type alias FeedbackItem
	return json.Marshal(&struct {
		alias
		Attachments AttachmentList `json:"attachments"`
		AssignedAt  *time.Time     `json:"assigned_at"`
		CompletedAt *time.Time     `json:"completed_at"`
	}{
		alias:       alias(f),
		Attachments: nonNilAttachments(f.Attachments),
		AssignedAt:  nullTimePtr(f.AssignedAt),
		CompletedAt: nullTimePtr(f.CompletedAt),
	})
}

func nonNilAttachments(a AttachmentList) AttachmentList {
	if a == nil {
		return AttachmentList{}
	}
	return a
}

// Vote represents a row in feedback_votes. At most one per (feedback, user).
type Vote struct {
	ID         int       `json:"id" db:"id"`
	FeedbackID int       `json:"feedback_id" db:"feedback_id"`
	UserID     int       `json:"user_id" db:"user_id"`
	VoteType   VoteType  `json:"vote_type" db:"vote_type"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Reply represents a row in feedback_replies.
type Reply struct {
	ID          int            `json:"id" db:"id"`
	FeedbackID  int            `json:"feedback_id" db:"feedback_id"`
	UserID      int            `json:"user_id" db:"user_id"`
	Username    string         `json:"username" db:"username"`
	Message     string         `json:"message" db:"message"`
	IsInternal  bool           `json:"is_internal" db:"is_internal"`
	Attachments AttachmentList `json:"attachments" db:"attachments"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// Edited reports whether the reply was modified after creation.
func (r *Reply) Edited() bool {
	return !r.UpdatedAt.Equal(r.CreatedAt)
}

// MarshalJSON adds the derived edited flag.
func (r Reply) MarshalJSON() (result0 []byte, err error) {
	type alias Reply
	return json.Marshal(&struct {
		alias
		Attachments AttachmentList `json:"attachments"`
		Edited      bool           `json:"edited"`
	}{
		alias:       alias(r),
		Attachments: nonNilAttachments(r.Attachments),
		Edited:      r.Edited(),
	})
}

// ChangeLogEntry represents a row in feedback_change_log. Append-only.
type ChangeLogEntry struct {
	ID         int            `json:"id" db:"id"`
	FeedbackID int            `json:"feedback_id" db:"feedback_id"`
	Field      string         `json:"field" db:"field"`
	OldValue   string         `json:"old_value" db:"old_value"`
	NewValue   string         `json:"new_value" db:"new_value"`
	ChangedBy  int            `json:"changed_by" db:"changed_by"`
	Reason     sql.NullString `json:"reason" db:"reason"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}

// MarshalJSON customizes JSON marshaling for ChangeLogEntry to handle null columns properly
func (e ChangeLogEntry) MarshalJSON() (result0 []byte, err error) {
	type alias ChangeLogEntry
	return json.Marshal(&struct {
		alias
		Reason *string `json:"reason"`
	}{
		alias:  alias(e),
		Reason: nullStringPtr(e.Reason),
	})
}

// Category represents a row in feedback_categories. Built-in types are merged
// with stored categories at read time.
type Category struct {
	ID          int            `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	Value       string         `json:"value" db:"value"`
	Description sql.NullString `json:"description" db:"description"`
	Icon        sql.NullString `json:"icon" db:"icon"`
	Color       sql.NullString `json:"color" db:"color"`
	IsActive    bool           `json:"is_active" db:"is_active"`
	OrderIndex  int            `json:"order_index" db:"order_index"`
	IsBuiltin   bool           `json:"is_builtin" db:"-"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// MarshalJSON customizes JSON marshaling for Category to handle null columns properly
func (c Category) MarshalJSON() (result0 []byte, err error) {
	type alias Category
	return json.Marshal(&struct {
		alias
		Description *string `json:"description"`
		Icon        *string `json:"icon"`
		Color       *string `json:"color"`
	}{
		alias:       alias(c),
		Description: nullStringPtr(c.Description),
		Icon:        nullStringPtr(c.Icon),
		Color:       nullStringPtr(c.Color),
	})
}

// TrackedFields are the feedback fields whose changes are audited in the
// change log.
var TrackedFields = []string{"status", "title", "content", "type", "priority"}

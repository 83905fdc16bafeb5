package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Position is the region descriptor stored on highlights and notes.
type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Value implements driver.Valuer.
func (p Position) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner.
func (p *Position) Scan(src interface{}) error {
	if src == nil {
		*p = Position{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("cannot scan %T into Position", src)
	}
}

// Document represents a row in documents.
type Document struct {
	ID              int            `json:"id" db:"id"`
	UserID          int            `json:"user_id" db:"user_id"`
	Title           string         `json:"title" db:"title"`
	Author          sql.NullString `json:"author" db:"author"`
	Language        sql.NullString `json:"language" db:"language"`
	TotalPages      int            `json:"total_pages" db:"total_pages"`
	IsPublic        bool           `json:"is_public" db:"is_public"`
	ReadingProgress float64        `json:"reading_progress" db:"reading_progress"`
	LastReadAt      sql.NullTime   `json:"last_read_at" db:"last_read_at"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}

// Accessible reports whether the given user may read the document.
func (d *Document) Accessible(userID int) bool {
	return d.IsPublic || d.UserID == userID
}

// MarshalJSON customizes JSON marshaling for Document to handle null columns properly
func (d Document) MarshalJSON() (result0 []byte, err error) {
	type alias Document
	return json.Marshal(&struct {
		alias
		Author     *string    `json:"author"`
		Language   *string    `json:"language"`
		LastReadAt *time.Time `json:"last_read_at"`
	}{
		alias:      alias(d),
		Author:     nullStringPtr(d.Author),
		Language:   nullStringPtr(d.Language),
		LastReadAt: nullTimePtr(d.LastReadAt),
	})
}

// DocumentPage represents a row in document_pages, unique per
// (document_id, page_number).
type DocumentPage struct {
	ID             int            `json:"id" db:"id"`
	DocumentID     int            `json:"document_id" db:"document_id"`
	PageNumber     int            `json:"page_number" db:"page_number"`
	Content        string         `json:"content" db:"content"`
	HTMLContent    sql.NullString `json:"html_content" db:"html_content"`
	WordCount      int            `json:"word_count" db:"word_count"`
	CharacterCount int            `json:"character_count" db:"character_count"`
	HasImages      bool           `json:"has_images" db:"has_images"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
}

// MarshalJSON customizes JSON marshaling for DocumentPage to handle null columns properly
func (p DocumentPage) MarshalJSON() (result0 []byte, err error) {
	type alias DocumentPage
	return json.Marshal(&struct {
		alias
		HTMLContent *string `json:"html_content"`
	}{
		alias:       alias(p),
		HTMLContent: nullStringPtr(p.HTMLContent),
	})
}

// Highlight represents a row in document_highlights.
type Highlight struct {
	ID         int            `json:"id" db:"id"`
	DocumentID int            `json:"document_id" db:"document_id"`
	UserID     int            `json:"user_id" db:"user_id"`
	PageNumber int            `json:"page_number" db:"page_number"`
	Text       string         `json:"text" db:"text"`
	Position   Position       `json:"position" db:"position"`
	Color      string         `json:"color" db:"color"`
	Note       sql.NullString `json:"note" db:"note"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at" db:"updated_at"`
}

// MarshalJSON customizes JSON marshaling for Highlight to handle null columns properly
func (h Highlight) MarshalJSON() (result0 []byte, err error) {
	type alias Highlight
	return json.Marshal(&struct {
		alias
		Note *string `json:"note"`
	}{
		alias: alias(h),
		Note:  nullStringPtr(h.Note),
	})
}

// Note represents a row in document_notes. HighlightID is a weak reference;
// the highlight lifecycle is independent except for cascade on highlight delete.
type Note struct {
	ID          int           `json:"id" db:"id"`
	DocumentID  int           `json:"document_id" db:"document_id"`
	UserID      int           `json:"user_id" db:"user_id"`
	PageNumber  int           `json:"page_number" db:"page_number"`
	Content     string        `json:"content" db:"content"`
	Position    Position      `json:"position" db:"position"`
	HighlightID sql.NullInt64 `json:"highlight_id" db:"highlight_id"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// MarshalJSON customizes JSON marshaling for Note to handle null columns properly
func (n Note) MarshalJSON() (result0 []byte, err error) {
	type alias Note
	var highlightID *int64
	if n.HighlightID.Valid {
		highlightID = &n.HighlightID.Int64
	}
	return json.Marshal(&struct {
		alias
		HighlightID *int64 `json:"highlight_id"`
	}{
		alias:       alias(n),
		HighlightID: highlightID,
	})
}

// ReadingHistoryEntry represents a row in reading_history. A row with
// end_time NULL and is_bookmark false is the live "current position" tracker;
// a row with is_bookmark true is a saved bookmark.
type ReadingHistoryEntry struct {
	ID          int          `json:"id" db:"id"`
	UserID      int          `json:"user_id" db:"user_id"`
	DocumentID  int          `json:"document_id" db:"document_id"`
	PageNumber  int          `json:"page_number" db:"page_number"`
	IsBookmark  bool         `json:"is_bookmark" db:"is_bookmark"`
	StartTime   time.Time    `json:"start_time" db:"start_time"`
	EndTime     sql.NullTime `json:"end_time" db:"end_time"`
	ReadingTime int          `json:"reading_time" db:"reading_time"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}

// MarshalJSON customizes JSON marshaling for ReadingHistoryEntry to handle null columns properly
func (e ReadingHistoryEntry) MarshalJSON() (result0 []byte, err error) {
	type alias ReadingHistoryEntry
	return json.Marshal(&struct {
		alias
		EndTime *time.Time `json:"end_time"`
	}{
		alias:   alias(e),
		EndTime: nullTimePtr(e.EndTime),
	})
}

// DailyLearningStats represents a row in daily_learning_stats, unique per
// (user_id, stat_date). Writes accumulate into the existing row for the day.
type DailyLearningStats struct {
	ID            int       `json:"id" db:"id"`
	UserID        int       `json:"user_id" db:"user_id"`
	StatDate      time.Time `json:"stat_date" db:"stat_date"`
	DocumentsRead int       `json:"documents_read" db:"documents_read"`
	PagesRead     int       `json:"pages_read" db:"pages_read"`
	ReadingTime   int       `json:"reading_time" db:"reading_time"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

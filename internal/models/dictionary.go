package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Word represents a row in words. Lookup is case-insensitive; the stored
// form is lowercase.
type Word struct {
	ID            int            `json:"id" db:"id"`
	Word          string         `json:"word" db:"word"`
	Phonetic      sql.NullString `json:"phonetic" db:"phonetic"`
	Language      string         `json:"language" db:"language"`
	FrequencyRank sql.NullInt64  `json:"frequency_rank" db:"frequency_rank"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
}

// MarshalJSON customizes JSON marshaling for Word to handle null columns properly
func (w Word) MarshalJSON() (result0 []byte, err error) {
	type alias Word
	var rank *int64
	if w.FrequencyRank.Valid {
		rank = &w.FrequencyRank.Int64
	}
	return json.Marshal(&struct {
		alias
		Phonetic      *string `json:"phonetic"`
		FrequencyRank *int64  `json:"frequency_rank"`
	}{
		alias:         alias(w),
		Phonetic:      nullStringPtr(w.Phonetic),
		FrequencyRank: rank,
	})
}

// WordDefinition represents a row in word_definitions, ordered by order_index.
type WordDefinition struct {
	ID           int            `json:"id" db:"id"`
	WordID       int            `json:"word_id" db:"word_id"`
	PartOfSpeech sql.NullString `json:"part_of_speech" db:"part_of_speech"`
	Definition   string         `json:"definition" db:"definition"`
	OrderIndex   int            `json:"order_index" db:"order_index"`
}

// MarshalJSON customizes JSON marshaling for WordDefinition to handle null columns properly
func (d WordDefinition) MarshalJSON() (result0 []byte, err error) {
	type alias WordDefinition
	return json.Marshal(&struct {
		alias
		PartOfSpeech *string `json:"part_of_speech"`
	}{
		alias:        alias(d),
		PartOfSpeech: nullStringPtr(d.PartOfSpeech),
	})
}

// WordExample represents a row in word_examples.
type WordExample struct {
	ID          int            `json:"id" db:"id"`
	WordID      int            `json:"word_id" db:"word_id"`
	Example     string         `json:"example" db:"example"`
	Translation sql.NullString `json:"translation" db:"translation"`
}

// MarshalJSON customizes JSON marshaling for WordExample to handle null columns properly
func (e WordExample) MarshalJSON() (result0 []byte, err error) {
	type alias WordExample
	return json.Marshal(&struct {
		alias
		Translation *string `json:"translation"`
	}{
		alias:       alias(e),
		Translation: nullStringPtr(e.Translation),
	})
}

// WordRelation represents a row in word_relations. RelationType is
// synonym or antonym.
type WordRelation struct {
	ID           int    `json:"id" db:"id"`
	WordID       int    `json:"word_id" db:"word_id"`
	RelatedWord  string `json:"related_word" db:"related_word"`
	RelationType string `json:"relation_type" db:"relation_type"`
}

// WordEntry is the assembled dictionary response for one word.
type WordEntry struct {
	Word        Word             `json:"word"`
	Definitions []WordDefinition `json:"definitions"`
	Examples    []WordExample    `json:"examples"`
	Synonyms    []string         `json:"synonyms"`
	Antonyms    []string         `json:"antonyms"`
}

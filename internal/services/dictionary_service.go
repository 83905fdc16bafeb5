package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"readerapp/internal/models"
	"readerapp/internal/observability"
	contextutils "readerapp/internal/utils"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DictionaryService looks words up and assembles their dictionary entries.
type DictionaryService struct {
	db          *sql.DB
	logger      *observability.Logger
	externalURL string
	httpClient  *http.Client
}

// NewDictionaryService creates a new DictionaryService instance.
func NewDictionaryService(db *sql.DB, logger *observability.Logger) *DictionaryService {
	if db == nil {
		panic("NewDictionaryService: db is nil")
	}
	if logger == nil {
		panic("NewDictionaryService: logger is nil")
	}
	return &DictionaryService{db: db, logger: logger}
}

// WithExternalAPI enables the external dictionary fallback for words that are
// not in the local tables. Requests go out through an instrumented client.
func (s *DictionaryService) WithExternalAPI(baseURL string, timeout time.Duration) *DictionaryService {
	s.externalURL = baseURL
	s.httpClient = &http.Client{
		Timeout: timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
		),
	}
	return s
}

// LookupWord assembles the full dictionary entry for a word. Lookup is
// case-insensitive.
func (s *DictionaryService) LookupWord(ctx context.Context, word string) (result0 *models.WordEntry, err error) {
	ctx, span := observability.TraceDictionaryFunction(ctx, "lookup_word", attribute.String("dictionary.word", word))
	defer observability.FinishSpan(span, &err)

	normalized := contextutils.NormalizeWord(word)
	if normalized == "" {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "word is required")
	}

	var w models.Word
	err = s.db.QueryRowContext(ctx,
		`SELECT id, word, phonetic, language, frequency_rank, created_at FROM words WHERE LOWER(word) = $1`, normalized).
		Scan(&w.ID, &w.Word, &w.Phonetic, &w.Language, &w.FrequencyRank, &w.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			if s.externalURL != "" {
				return s.lookupExternal(ctx, normalized)
			}
			return nil, contextutils.WrapErrorf(contextutils.ErrWordNotFound, "word not found: %s", normalized)
		}
		return nil, contextutils.WrapError(err, "failed to look up word")
	}

	entry := &models.WordEntry{
		Word:        w,
		Definitions: []models.WordDefinition{},
		Examples:    []models.WordExample{},
		Synonyms:    []string{},
		Antonyms:    []string{},
	}

	if entry.Definitions, err = s.definitions(ctx, w.ID); err != nil {
		return nil, err
	}
	if entry.Examples, err = s.examples(ctx, w.ID); err != nil {
		return nil, err
	}
	if entry.Synonyms, entry.Antonyms, err = s.relations(ctx, w.ID); err != nil {
		return nil, err
	}
	return entry, nil
}

// externalDictionaryEntry mirrors the response shape of dictionaryapi.dev.
type externalDictionaryEntry struct {
	Word     string `json:"word"`
	Phonetic string `json:"phonetic"`
	Meanings []struct {
		PartOfSpeech string `json:"partOfSpeech"`
		Definitions  []struct {
			Definition string `json:"definition"`
			Example    string `json:"example"`
		} `json:"definitions"`
		Synonyms []string `json:"synonyms"`
		Antonyms []string `json:"antonyms"`
	} `json:"meanings"`
}

// lookupExternal queries the configured dictionary API for a word missing from
// the local tables. The assembled entry is not persisted; failures surface as
// word-not-found so callers see one error shape.
func (s *DictionaryService) lookupExternal(ctx context.Context, word string) (result0 *models.WordEntry, err error) {
	ctx, span := observability.TraceDictionaryFunction(ctx, "lookup_word_external", attribute.String("dictionary.word", word))
	defer observability.FinishSpan(span, &err)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/%s", s.externalURL, url.PathEscape(word)), nil)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to build dictionary request")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn(ctx, "external dictionary lookup failed", map[string]interface{}{"error": err.Error()})
		return nil, contextutils.WrapErrorf(contextutils.ErrWordNotFound, "word not found: %s", word)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			s.logger.Warn(ctx, "failed to close response body", map[string]interface{}{"error": cerr.Error()})
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, contextutils.WrapErrorf(contextutils.ErrWordNotFound, "word not found: %s", word)
	}

	var external []externalDictionaryEntry
	if err := json.NewDecoder(resp.Body).Decode(&external); err != nil || len(external) == 0 {
		s.logger.Warn(ctx, "unexpected external dictionary response", map[string]interface{}{"word": word})
		return nil, contextutils.WrapErrorf(contextutils.ErrWordNotFound, "word not found: %s", word)
	}

	entry := &models.WordEntry{
		Word:        models.Word{Word: word, CreatedAt: time.Now()},
		Definitions: []models.WordDefinition{},
		Examples:    []models.WordExample{},
		Synonyms:    []string{},
		Antonyms:    []string{},
	}
	if external[0].Phonetic != "" {
		entry.Word.Phonetic = sql.NullString{String: external[0].Phonetic, Valid: true}
	}
	for _, meaning := range external[0].Meanings {
		for _, def := range meaning.Definitions {
			entry.Definitions = append(entry.Definitions, models.WordDefinition{
				PartOfSpeech: sql.NullString{String: meaning.PartOfSpeech, Valid: meaning.PartOfSpeech != ""},
				Definition:   def.Definition,
				OrderIndex:   len(entry.Definitions),
			})
			if def.Example != "" {
				entry.Examples = append(entry.Examples, models.WordExample{Example: def.Example})
			}
		}
		entry.Synonyms = append(entry.Synonyms, meaning.Synonyms...)
		entry.Antonyms = append(entry.Antonyms, meaning.Antonyms...)
	}
	return entry, nil
}

func (s *DictionaryService) definitions(ctx context.Context, wordID int) ([]models.WordDefinition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, word_id, part_of_speech, definition, order_index
		 FROM word_definitions WHERE word_id = $1 ORDER BY order_index ASC`, wordID)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query definitions")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn(ctx, "failed to close rows", map[string]interface{}{"error": cerr.Error()})
		}
	}()

	definitions := []models.WordDefinition{}
	for rows.Next() {
		var d models.WordDefinition
		if err := rows.Scan(&d.ID, &d.WordID, &d.PartOfSpeech, &d.Definition, &d.OrderIndex); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan definition")
		}
		definitions = append(definitions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate definitions")
	}
	return definitions, nil
}

func (s *DictionaryService) examples(ctx context.Context, wordID int) ([]models.WordExample, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, word_id, example, translation FROM word_examples WHERE word_id = $1 ORDER BY id ASC`, wordID)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query examples")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn(ctx, "failed to close rows", map[string]interface{}{"error": cerr.Error()})
		}
	}()

	examples := []models.WordExample{}
	for rows.Next() {
		var e models.WordExample
		if err := rows.Scan(&e.ID, &e.WordID, &e.Example, &e.Translation); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan example")
		}
		examples = append(examples, e)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate examples")
	}
	return examples, nil
}

func (s *DictionaryService) relations(ctx context.Context, wordID int) (synonyms, antonyms []string, err error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT related_word, relation_type FROM word_relations WHERE word_id = $1 ORDER BY id ASC`, wordID)
	if err != nil {
		return nil, nil, contextutils.WrapError(err, "failed to query relations")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn(ctx, "failed to close rows", map[string]interface{}{"error": cerr.Error()})
		}
	}()

	synonyms, antonyms = []string{}, []string{}
	for rows.Next() {
		var related, relationType string
		if err := rows.Scan(&related, &relationType); err != nil {
			return nil, nil, contextutils.WrapError(err, "failed to scan relation")
		}
		if relationType == "antonym" {
			antonyms = append(antonyms, related)
		} else {
			synonyms = append(synonyms, related)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, contextutils.WrapError(err, "failed to iterate relations")
	}
	return synonyms, antonyms, nil
}

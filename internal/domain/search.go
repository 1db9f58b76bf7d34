package domain

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	// EmbeddingDimensions is the fixed vector size of the search index.
	EmbeddingDimensions = 768
	// TitleWordCount is how many leading words of the text make up a derived title.
	TitleWordCount = 10
)

// SearchIndexEntry is one row of the derived search index.
type SearchIndexEntry struct {
	ContentType ContentType
	ContentID   string
	Title       string
	Content     string
	Embedding   []float32
	Metadata    json.RawMessage
	CreatedAt   time.Time
}

// Key identifies the source record an entry was derived from.
func (e *SearchIndexEntry) Key() string {
	return ResultKey(e.ContentType, e.ContentID)
}

// ResultKey builds the deduplication key for a (content type, content id) pair.
func ResultKey(contentType ContentType, contentID string) string {
	return string(contentType) + ":" + contentID
}

// DeriveTitle returns the first TitleWordCount words of text.
func DeriveTitle(text string) string {
	words := strings.Fields(text)
	if len(words) > TitleWordCount {
		words = words[:TitleWordCount]
	}
	return strings.Join(words, " ")
}

// SearchLogEntry records one execution of the query engine.
type SearchLogEntry struct {
	ID             string
	UserID         string
	Query          string
	ResultsCount   int
	ContentTypes   []ContentType
	LatencyMs      int
	NoResults      bool
	Degraded       bool
	DegradedReason string
	CreatedAt      time.Time
}

// SuggestionStatus tracks editorial handling of a content gap.
type SuggestionStatus string

const (
	SuggestionStatusPending   SuggestionStatus = "pending"
	SuggestionStatusPlanned   SuggestionStatus = "planned"
	SuggestionStatusResolved  SuggestionStatus = "resolved"
	SuggestionStatusDismissed SuggestionStatus = "dismissed"
)

// IsValid reports whether s is a known suggestion status.
func (s SuggestionStatus) IsValid() bool {
	switch s {
	case SuggestionStatusPending, SuggestionStatusPlanned, SuggestionStatusResolved, SuggestionStatusDismissed:
		return true
	}
	return false
}

// IsOpen reports whether editors still need to act on the gap.
func (s SuggestionStatus) IsOpen() bool {
	return s == SuggestionStatusPending || s == SuggestionStatusPlanned
}

// ContentSuggestion aggregates zero-result searches for a normalized term.
type ContentSuggestion struct {
	ID             string
	Term           string
	SearchCount    int
	PriorityScore  int
	Status         SuggestionStatus
	LastSearchedAt time.Time
	CreatedAt      time.Time
}

// NormalizeTerm is the case-insensitive key content suggestions are matched on.
func NormalizeTerm(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

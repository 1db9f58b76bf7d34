// Package pagination implements keyset cursors over (created_at, id) ordered listings.
package pagination

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

var ErrInvalidCursor = errors.New("invalid cursor format")

// Cursor marks the last row of the previous page.
type Cursor struct {
	LastID    string
	Timestamp time.Time
}

// Page is one slice of a listing plus the cursor for the next one.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// Encode renders the cursor as an opaque URL-safe token.
func (c *Cursor) Encode() string {
	if c == nil || c.LastID == "" {
		return ""
	}
	raw := c.LastID + "|" + c.Timestamp.UTC().Format(time.RFC3339Nano)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Decode parses a token produced by Encode. An empty token yields a nil cursor.
func Decode(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	id, ts, ok := strings.Cut(string(decoded), "|")
	if !ok || id == "" {
		return nil, ErrInvalidCursor
	}

	timestamp, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	return &Cursor{LastID: id, Timestamp: timestamp}, nil
}

// NormalizeLimit clamps limit to [1, MaxLimit], defaulting to DefaultLimit.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NewPage builds a page from rows fetched with limit+1, so the extra row
// signals that more results exist.
func NewPage[T any](rows []T, limit int, key func(T) (string, time.Time)) *Page[T] {
	page := &Page[T]{Items: rows}
	if len(rows) > limit {
		page.Items = rows[:limit]
		page.HasMore = true
		id, ts := key(page.Items[limit-1])
		page.NextCursor = (&Cursor{LastID: id, Timestamp: ts}).Encode()
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page
}

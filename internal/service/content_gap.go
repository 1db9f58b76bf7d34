package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cloo-solutions/intranet-search/internal/domain"
	"github.com/cloo-solutions/intranet-search/internal/storage"
	"github.com/cloo-solutions/intranet-search/internal/telemetry"
)

const (
	DefaultGapListLimit = 50
	MaxGapListLimit     = 500

	gapReportPrefix      = "reports/content-gaps/"
	gapReportContentType = "text/csv"
)

// ContentGapRepository reads and curates content-gap suggestions.
type ContentGapRepository interface {
	List(ctx context.Context, status domain.SuggestionStatus, limit int) ([]*domain.ContentSuggestion, error)
	ListOpen(ctx context.Context, limit int) ([]*domain.ContentSuggestion, error)
	UpdateStatus(ctx context.Context, id string, status domain.SuggestionStatus) (*domain.ContentSuggestion, error)
}

// ReportStorage stores generated reports in object storage.
type ReportStorage interface {
	PutObject(ctx context.Context, key, contentType string, body []byte) error
	HeadObject(ctx context.Context, key string) (*storage.ObjectMetadata, error)
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
}

// GapExport locates an exported report.
type GapExport struct {
	Key   string `json:"key"`
	URL   string `json:"url"`
	Count int    `json:"count"`
}

// ContentGapService lets editors review terms that return no results.
type ContentGapService struct {
	repo    ContentGapRepository
	storage ReportStorage
	now     func() time.Time
}

// NewContentGapService creates a ContentGapService. storage may be nil.
func NewContentGapService(repo ContentGapRepository, storage ReportStorage) *ContentGapService {
	return &ContentGapService{repo: repo, storage: storage, now: utcNow}
}

// List returns suggestions ordered by priority. An empty status lists all.
func (s *ContentGapService) List(ctx context.Context, status string, limit int) ([]*domain.ContentSuggestion, error) {
	st := domain.SuggestionStatus(status)
	if st != "" && !st.IsValid() {
		return nil, domain.ErrInvalidSuggestionState
	}
	if limit <= 0 {
		limit = DefaultGapListLimit
	}
	if limit > MaxGapListLimit {
		limit = MaxGapListLimit
	}
	return s.repo.List(ctx, st, limit)
}

// UpdateStatus moves a suggestion through the editorial workflow.
func (s *ContentGapService) UpdateStatus(ctx context.Context, id, status string) (*domain.ContentSuggestion, error) {
	if id == "" {
		return nil, domain.NewValidationError("suggestion ID is required")
	}
	st := domain.SuggestionStatus(status)
	if !st.IsValid() {
		return nil, domain.ErrInvalidSuggestionState
	}
	return s.repo.UpdateStatus(ctx, id, st)
}

// Export writes the open gaps as CSV to object storage and returns a
// presigned download URL.
func (s *ContentGapService) Export(ctx context.Context) (*GapExport, error) {
	if s.storage == nil {
		return nil, domain.ErrStorageNotConfigured
	}

	ctx, span := telemetry.StartSpan(ctx, "content_gaps.export", telemetry.SpanAttributes{Operation: "export"})
	defer span.End()

	gaps, err := s.repo.ListOpen(ctx, MaxGapListLimit)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	body, err := renderGapsCSV(gaps)
	if err != nil {
		return nil, fmt.Errorf("failed to render content gaps: %w", err)
	}

	key := gapReportPrefix + s.now().Format("20060102T150405Z") + ".csv"
	if err := s.storage.PutObject(ctx, key, gapReportContentType, body); err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("failed to upload content gap report: %w", err)
	}

	stored, err := s.storage.HeadObject(ctx, key)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("failed to verify content gap report: %w", err)
	}
	if stored.ContentLength != int64(len(body)) {
		return nil, fmt.Errorf("content gap report size mismatch: uploaded %d bytes, stored %d", len(body), stored.ContentLength)
	}

	url, err := s.storage.GenerateDownloadURL(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to presign content gap report: %w", err)
	}

	return &GapExport{Key: key, URL: url, Count: len(gaps)}, nil
}

func renderGapsCSV(gaps []*domain.ContentSuggestion) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"term", "search_count", "priority_score", "status", "last_searched_at"}); err != nil {
		return nil, err
	}
	for _, g := range gaps {
		record := []string{
			spreadsheetSafe(g.Term),
			strconv.Itoa(g.SearchCount),
			strconv.Itoa(g.PriorityScore),
			string(g.Status),
			g.LastSearchedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// spreadsheetSafe prefixes cells that spreadsheet applications would
// evaluate as formulas. Terms are raw user queries.
func spreadsheetSafe(value string) string {
	if value != "" && strings.ContainsRune("=+-@\t\r", rune(value[0])) {
		return "'" + value
	}
	return value
}

package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloo-solutions/intranet-search/internal/domain"
	"github.com/cloo-solutions/intranet-search/internal/logging"
	"github.com/cloo-solutions/intranet-search/internal/metrics"
	"github.com/cloo-solutions/intranet-search/internal/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50

	// MinQueryLength is the minimum trimmed query length in characters.
	MinQueryLength = 2
	// MinGapTermLength is the minimum query length recorded as a content gap.
	MinGapTermLength = 3

	SimilarityThreshold = 0.6
	DefaultVectorScore  = 0.8
	TextScore           = 0.6

	// DegradedVectorSearch is reported when only lexical results were served.
	DegradedVectorSearch = "vector_search_unavailable"
)

// ResultSource tells which retrieval path produced a result.
type ResultSource string

const (
	SourceVector ResultSource = "vector"
	SourceText   ResultSource = "text"
)

// SearchFilters restricts retrieval to a set of content types. An empty set
// means every type.
type SearchFilters struct {
	ContentTypes []domain.ContentType
}

// SearchHit is a row returned by one of the index retrieval primitives.
// Similarity is nil when the store returned no numeric score.
type SearchHit struct {
	ContentType domain.ContentType
	ContentID   string
	Title       string
	Content     string
	Metadata    json.RawMessage
	Similarity  *float64
}

// SearchIndexReader exposes the two retrieval primitives of the index.
type SearchIndexReader interface {
	SearchSemantic(ctx context.Context, embedding []float32, filters SearchFilters, threshold float64, limit int) ([]*SearchHit, error)
	SearchLexical(ctx context.Context, query string, filters SearchFilters, limit int) ([]*SearchHit, error)
}

// SearchLogRepository persists one analytics row per query.
type SearchLogRepository interface {
	CreateSearchLog(ctx context.Context, entry *domain.SearchLogEntry) error
}

// ContentGapRecorder upserts the content-gap record for a zero-result term.
type ContentGapRecorder interface {
	RecordMiss(ctx context.Context, term string, at time.Time) error
}

// SearchInput represents input for search operation
type SearchInput struct {
	Query        string
	ContentTypes []string
	Limit        int
	UserID       string
}

// SearchResult is one ranked item of the response.
type SearchResult struct {
	ContentType    domain.ContentType `json:"content_type"`
	ContentID      string             `json:"content_id"`
	Title          string             `json:"title"`
	Content        string             `json:"content"`
	Metadata       json.RawMessage    `json:"metadata"`
	Source         ResultSource       `json:"source"`
	RelevanceScore float64            `json:"relevance_score"`
}

// SearchOutput represents output from search operation
type SearchOutput struct {
	Results        []*SearchResult `json:"results"`
	Suggestions    []string        `json:"suggestions"`
	Count          int             `json:"count"`
	LatencyMs      int64           `json:"latency_ms"`
	Degraded       bool            `json:"degraded"`
	DegradedReason string          `json:"degraded_reason,omitempty"`
}

// SearchService answers hybrid semantic and lexical queries.
type SearchService struct {
	index      SearchIndexReader
	embedding  EmbeddingClient
	completion CompletionClient
	logs       SearchLogRepository
	gaps       ContentGapRecorder
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// SearchServiceDeps groups the collaborators of SearchService. Completion
// may be nil, in which case zero-result suggestions are templated.
type SearchServiceDeps struct {
	Index      SearchIndexReader
	Embedding  EmbeddingClient
	Completion CompletionClient
	Logs       SearchLogRepository
	Gaps       ContentGapRecorder
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

// NewSearchService creates a new SearchService instance
func NewSearchService(deps SearchServiceDeps) *SearchService {
	return &SearchService{
		index:      deps.Index,
		embedding:  deps.Embedding,
		completion: deps.Completion,
		logs:       deps.Logs,
		gaps:       deps.Gaps,
		metrics:    deps.Metrics,
		logger:     logging.OrNop(deps.Logger),
		now:        utcNow,
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		return MaxSearchLimit
	}
	return limit
}

// Search runs the query engine: embed, retrieve, merge, log, suggest.
func (s *SearchService) Search(ctx context.Context, input SearchInput) (*SearchOutput, error) {
	start := s.now()

	query := strings.TrimSpace(input.Query)
	if utf8.RuneCountInString(query) < MinQueryLength {
		s.metrics.ObserveSearch(metrics.OutcomeInvalid, s.now().Sub(start), false)
		return nil, domain.ErrQueryTooShort
	}
	contentTypes, err := domain.ParseContentTypes(input.ContentTypes)
	if err != nil {
		s.metrics.ObserveSearch(metrics.OutcomeInvalid, s.now().Sub(start), false)
		return nil, err
	}
	if s.embedding == nil {
		return nil, domain.ErrEmbeddingNotConfigured
	}

	ctx, span := telemetry.StartSpan(ctx, "search.query", telemetry.SpanAttributes{
		UserID:    input.UserID,
		Operation: "search",
	})
	defer span.End()

	limit := normalizeLimit(input.Limit)
	filters := SearchFilters{ContentTypes: contentTypes}
	logger := logging.For(ctx, s.logger)

	embedding, err := s.embedding.GenerateEmbedding(ctx, query)
	if err != nil {
		s.metrics.ObserveSearch(metrics.OutcomeError, s.now().Sub(start), false)
		span.SetError(err)
		return nil, domain.NewUpstreamError("failed to generate query embedding", err)
	}

	var vectorHits, textHits []*SearchHit
	var vectorErr error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := s.index.SearchSemantic(gctx, embedding, filters, SimilarityThreshold, limit*2)
		if err != nil {
			vectorErr = err
			return nil
		}
		vectorHits = hits
		return nil
	})
	g.Go(func() error {
		hits, err := s.index.SearchLexical(gctx, query, filters, limit)
		if err != nil {
			return domain.NewUpstreamError("lexical search failed", err)
		}
		textHits = hits
		return nil
	})
	if err := g.Wait(); err != nil {
		s.metrics.ObserveSearch(metrics.OutcomeError, s.now().Sub(start), false)
		span.SetError(err)
		return nil, err
	}

	out := &SearchOutput{}
	if vectorErr != nil {
		logger.Warn("vector search failed, serving lexical results only", zap.Error(vectorErr))
		telemetry.CaptureError(ctx, vectorErr)
		out.Degraded = true
		out.DegradedReason = DegradedVectorSearch
	}

	out.Results = mergeHits(vectorHits, textHits, limit)
	out.Count = len(out.Results)
	out.LatencyMs = s.now().Sub(start).Milliseconds()

	s.recordSearch(ctx, logger, &domain.SearchLogEntry{
		UserID:         input.UserID,
		Query:          query,
		ResultsCount:   out.Count,
		ContentTypes:   contentTypes,
		LatencyMs:      int(out.LatencyMs),
		NoResults:      out.Count == 0,
		Degraded:       out.Degraded,
		DegradedReason: out.DegradedReason,
		CreatedAt:      s.now(),
	})

	if out.Count == 0 && utf8.RuneCountInString(query) >= MinGapTermLength {
		s.recordGap(ctx, logger, query)
	}

	out.Suggestions = s.suggest(ctx, logger, query, out.Results)

	outcome := metrics.OutcomeOK
	if out.Degraded {
		outcome = metrics.OutcomeDegraded
	}
	s.metrics.ObserveSearch(outcome, s.now().Sub(start), out.Count == 0)

	return out, nil
}

func (s *SearchService) recordSearch(ctx context.Context, logger *zap.Logger, entry *domain.SearchLogEntry) {
	if s.logs == nil {
		return
	}
	if err := s.logs.CreateSearchLog(ctx, entry); err != nil {
		logger.Warn("failed to record search log", zap.Error(err))
		telemetry.CaptureError(ctx, err)
	}
}

func (s *SearchService) recordGap(ctx context.Context, logger *zap.Logger, query string) {
	if s.gaps == nil {
		return
	}
	if err := s.gaps.RecordMiss(ctx, domain.NormalizeTerm(query), s.now()); err != nil {
		logger.Warn("failed to record content gap", zap.Error(err))
		telemetry.CaptureError(ctx, err)
	}
}

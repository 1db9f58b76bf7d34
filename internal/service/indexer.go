package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cloo-solutions/intranet-search/internal/domain"
	"github.com/cloo-solutions/intranet-search/internal/logging"
	"github.com/cloo-solutions/intranet-search/internal/metrics"
	"github.com/cloo-solutions/intranet-search/internal/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultIndexBatchSize bounds the number of concurrent embedding requests.
const DefaultIndexBatchSize = 10

// SourceRepository reads the publicly visible rows of a content table.
type SourceRepository interface {
	ListVisible(ctx context.Context, contentType domain.ContentType) ([]domain.Indexable, error)
}

// IndexRunRepository persists the audit trail of rebuilds.
type IndexRunRepository interface {
	Create(ctx context.Context, run *domain.IndexRun) error
	Update(ctx context.Context, run *domain.IndexRun) error
	Latest(ctx context.Context) (*domain.IndexRun, error)
}

// RebuildLock serializes rebuilds across processes. TryAcquire never blocks;
// acquired is false when another rebuild holds the lock.
type RebuildLock interface {
	TryAcquire(ctx context.Context) (release func(), acquired bool, err error)
}

// IndexServiceConfig controls index builder behavior.
type IndexServiceConfig struct {
	BatchSize int
}

// RebuildResult summarizes a completed rebuild.
type RebuildResult struct {
	RunID    string
	Total    int
	Indexed  int
	Failed   int
	Duration time.Duration
}

// IndexService rebuilds the search index from the content tables.
type IndexService struct {
	sources   SourceRepository
	runs      IndexRunRepository
	tx        TxRunner
	lock      RebuildLock
	embedding EmbeddingClient
	metrics   *metrics.Metrics
	logger    *zap.Logger
	uuidGen   UUIDGenerator
	batchSize int
	now       func() time.Time
}

// IndexServiceDeps groups the collaborators of IndexService.
type IndexServiceDeps struct {
	Sources   SourceRepository
	Runs      IndexRunRepository
	Tx        TxRunner
	Lock      RebuildLock
	Embedding EmbeddingClient
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	UUIDGen   UUIDGenerator
}

// NewIndexService creates a new IndexService instance
func NewIndexService(deps IndexServiceDeps, cfg IndexServiceConfig) *IndexService {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultIndexBatchSize
	}
	uuidGen := deps.UUIDGen
	if uuidGen == nil {
		uuidGen = &DefaultUUIDGenerator{}
	}
	return &IndexService{
		sources:   deps.Sources,
		runs:      deps.Runs,
		tx:        deps.Tx,
		lock:      deps.Lock,
		embedding: deps.Embedding,
		metrics:   deps.Metrics,
		logger:    logging.OrNop(deps.Logger),
		uuidGen:   uuidGen,
		batchSize: batchSize,
		now:       utcNow,
	}
}

type indexCandidate struct {
	entry domain.SearchIndexEntry
	ok    bool
}

// Rebuild replaces the search index with a fresh projection of every
// visible content row. Items whose embedding fails are skipped and counted.
func (s *IndexService) Rebuild(ctx context.Context, trigger domain.IndexRunTrigger) (*RebuildResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "index.rebuild", telemetry.SpanAttributes{
		Trigger:   string(trigger),
		Operation: "rebuild",
	})
	defer span.End()

	if s.embedding == nil {
		return nil, domain.ErrEmbeddingNotConfigured
	}

	release, acquired, err := s.lock.TryAcquire(ctx)
	if err != nil {
		span.SetError(err)
		return nil, domain.NewUpstreamError("failed to acquire rebuild lock", err)
	}
	if !acquired {
		return nil, domain.ErrRebuildInProgress
	}
	defer release()

	start := s.now()
	run := domain.NewIndexRun(s.uuidGen.NewString(), trigger, start)
	if err := s.runs.Create(ctx, run); err != nil {
		span.SetError(err)
		return nil, domain.NewUpstreamError("failed to record index run", err)
	}

	logger := logging.For(ctx, s.logger).With(zap.String("run_id", run.ID), zap.String("trigger", string(trigger)))
	logger.Info("index rebuild started")

	result, err := s.rebuild(ctx, logger)
	finished := s.now()
	if err != nil {
		run.Fail(err, finished)
		s.finishRun(ctx, logger, run)
		span.SetError(err)
		logger.Error("index rebuild failed", zap.Error(err))
		return nil, err
	}

	run.Complete(result.Total, result.Indexed, result.Failed, finished)
	s.finishRun(ctx, logger, run)

	result.RunID = run.ID
	result.Duration = finished.Sub(start)
	s.metrics.ObserveRebuild(result.Indexed, result.Failed, result.Duration)

	logger.Info("index rebuild completed",
		zap.Int("total", result.Total),
		zap.Int("indexed", result.Indexed),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// LatestRun returns the most recent rebuild attempt.
func (s *IndexService) LatestRun(ctx context.Context) (*domain.IndexRun, error) {
	return s.runs.Latest(ctx)
}

func (s *IndexService) rebuild(ctx context.Context, logger *zap.Logger) (*RebuildResult, error) {
	candidates, err := s.collect(ctx)
	if err != nil {
		return nil, domain.NewUpstreamError("failed to fetch content", err)
	}

	if err := s.embedAll(ctx, logger, candidates); err != nil {
		return nil, err
	}

	entries := make([]domain.SearchIndexEntry, 0, len(candidates))
	for _, c := range candidates {
		if c.ok {
			entries = append(entries, c.entry)
		}
	}

	result := &RebuildResult{
		Total:   len(candidates),
		Indexed: len(entries),
		Failed:  len(candidates) - len(entries),
	}

	err = s.tx.WithTx(ctx, func(repos TxRepositories) error {
		if _, err := repos.SearchIndex().DeleteAll(ctx); err != nil {
			return fmt.Errorf("failed to clear search index: %w", err)
		}
		if err := repos.SearchIndex().InsertBatch(ctx, entries); err != nil {
			return fmt.Errorf("failed to insert search index entries: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, domain.NewUpstreamError("failed to replace search index", err)
	}

	return result, nil
}

// collect fetches every source table concurrently. Output order follows
// domain.AllContentTypes.
func (s *IndexService) collect(ctx context.Context) ([]*indexCandidate, error) {
	types := domain.AllContentTypes()
	perType := make([][]domain.Indexable, len(types))

	g, gctx := errgroup.WithContext(ctx)
	for i, contentType := range types {
		g.Go(func() error {
			items, err := s.sources.ListVisible(gctx, contentType)
			if err != nil {
				return fmt.Errorf("failed to fetch %s rows: %w", contentType, err)
			}
			perType[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var candidates []*indexCandidate
	for _, items := range perType {
		for _, item := range items {
			text := item.IndexText()
			if text == "" {
				continue
			}
			metadata, err := json.Marshal(item.IndexMetadata())
			if err != nil {
				return nil, fmt.Errorf("failed to encode %s metadata: %w", item.ContentType(), err)
			}
			candidates = append(candidates, &indexCandidate{
				entry: domain.SearchIndexEntry{
					ContentType: item.ContentType(),
					ContentID:   item.ContentID(),
					Title:       domain.DeriveTitle(text),
					Content:     text,
					Metadata:    metadata,
				},
			})
		}
	}
	return candidates, nil
}

// embedAll processes batches sequentially and embeds the members of a batch
// concurrently.
func (s *IndexService) embedAll(ctx context.Context, logger *zap.Logger, candidates []*indexCandidate) error {
	for start := 0; start < len(candidates); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + s.batchSize
		if end > len(candidates) {
			end = len(candidates)
		}

		var wg sync.WaitGroup
		for _, c := range candidates[start:end] {
			wg.Add(1)
			go func() {
				defer wg.Done()
				embedding, err := s.embedding.GenerateEmbedding(ctx, c.entry.Content)
				if err != nil {
					logger.Warn("failed to embed content",
						zap.String("content_type", string(c.entry.ContentType)),
						zap.String("content_id", c.entry.ContentID),
						zap.Error(err))
					return
				}
				c.entry.Embedding = embedding
				c.entry.CreatedAt = s.now()
				c.ok = true
			}()
		}
		wg.Wait()
	}
	return nil
}

func (s *IndexService) finishRun(ctx context.Context, logger *zap.Logger, run *domain.IndexRun) {
	if err := s.runs.Update(context.WithoutCancel(ctx), run); err != nil {
		logger.Warn("failed to update index run", zap.Error(err))
		telemetry.CaptureError(ctx, err)
	}
}

package jobs

import (
	"context"
	"errors"

	"github.com/cloo-solutions/intranet-search/internal/domain"
	"github.com/cloo-solutions/intranet-search/internal/logging"
	"github.com/cloo-solutions/intranet-search/internal/service"
	"go.uber.org/zap"
)

// IndexRebuilder rebuilds the search index.
type IndexRebuilder interface {
	Rebuild(ctx context.Context, trigger domain.IndexRunTrigger) (*service.RebuildResult, error)
}

// ReindexProcessor runs a scheduled index rebuild on every tick.
type ReindexProcessor struct {
	rebuilder IndexRebuilder
	logger    *zap.Logger
}

// NewReindexProcessor creates a new ReindexProcessor
func NewReindexProcessor(rebuilder IndexRebuilder, logger *zap.Logger) *ReindexProcessor {
	return &ReindexProcessor{
		rebuilder: rebuilder,
		logger:    logging.OrNop(logger).Named("reindex"),
	}
}

// ProcessJobs triggers a rebuild. A rebuild already running elsewhere is not an error.
func (p *ReindexProcessor) ProcessJobs(ctx context.Context) error {
	result, err := p.rebuilder.Rebuild(ctx, domain.IndexRunTriggerSchedule)
	if err != nil {
		if errors.Is(err, domain.ErrRebuildInProgress) {
			p.logger.Info("skipping scheduled rebuild: already in progress")
			return nil
		}
		return err
	}

	p.logger.Debug("scheduled rebuild finished",
		zap.Int("indexed", result.Indexed),
		zap.Int("failed", result.Failed))
	return nil
}

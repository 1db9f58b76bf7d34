package admin

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/intranet-search/internal/config"
	"github.com/cloo-solutions/intranet-search/internal/database"
	"github.com/cloo-solutions/intranet-search/internal/logging"
	"github.com/cloo-solutions/intranet-search/internal/metrics"
	"github.com/cloo-solutions/intranet-search/internal/openai"
	"github.com/cloo-solutions/intranet-search/internal/repository"
	"github.com/cloo-solutions/intranet-search/internal/service"
	"github.com/cloo-solutions/intranet-search/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// runtime holds the process-wide dependencies shared by the daemon commands.
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
	pool   *pgxpool.Pool

	shutdownTelemetry func()
}

func loggingConfig(cfg *config.Config) logging.Config {
	return logging.Config{
		Format: cfg.LogFormat,
		Debug:  cfg.Debug,
		Fields: map[string]string{
			"service":     "intranet-search",
			"environment": cfg.Environment,
		},
	}
}

func openAIConfig(cfg *config.Config) openai.Config {
	return openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		BaseURL:             cfg.OpenAIBaseURL,
		EmbeddingModel:      goopenai.EmbeddingModel(cfg.EmbeddingModel),
		EmbeddingDimensions: cfg.EmbeddingDimensions,
		ChatModel:           cfg.ChatModel,
		RequestsPerSecond:   cfg.OpenAIRateLimit,
	}
}

// newRuntime loads config and opens the logger, Sentry and the database pool.
func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(loggingConfig(cfg))
	if err != nil {
		return nil, err
	}

	shutdownTelemetry, err := telemetry.Init(telemetry.Config{
		DSN:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		TracesSampleRate: cfg.TracesSampleRate(),
		Debug:            cfg.Debug,
	})
	if err != nil {
		logger.Warn("telemetry init failed, continuing without tracing", zap.Error(err))
		shutdownTelemetry = func() {}
	}

	pool, err := database.NewPool(ctx, database.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
	})
	if err != nil {
		shutdownTelemetry()
		return nil, err
	}
	logger.Debug("connected to database")

	return &runtime{
		cfg:               cfg,
		logger:            logger,
		pool:              pool,
		shutdownTelemetry: shutdownTelemetry,
	}, nil
}

func (rt *runtime) Close() {
	rt.pool.Close()
	rt.shutdownTelemetry()
	_ = logging.Sync(rt.logger)
}

// openAIClient returns nil when no API key is configured.
func (rt *runtime) openAIClient() *openai.Client {
	if !rt.cfg.HasOpenAI() {
		rt.logger.Warn("INTRANET_OPENAI_API_KEY not set: index rebuilds and search requests will be rejected until it is configured")
		return nil
	}
	return openai.NewClientWithConfig(openAIConfig(rt.cfg))
}

func (rt *runtime) indexService(embedding service.EmbeddingClient) *service.IndexService {
	return service.NewIndexService(service.IndexServiceDeps{
		Sources:   repository.NewSourceRepository(rt.pool),
		Runs:      repository.NewIndexRunRepository(rt.pool),
		Tx:        repository.NewTxRunner(rt.pool),
		Lock:      repository.NewAdvisoryLock(rt.pool, repository.RebuildLockKey),
		Embedding: embedding,
		Metrics:   metrics.New(),
		Logger:    rt.logger.Named("indexer"),
	}, service.IndexServiceConfig{BatchSize: rt.cfg.IndexBatchSize})
}

func (rt *runtime) authService() *service.AuthService {
	return service.NewAuthService(repository.NewUserTokenRepository(rt.pool), nil)
}

package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloo-solutions/intranet-search/internal/api/handlers"
	"github.com/cloo-solutions/intranet-search/internal/database"
	"github.com/cloo-solutions/intranet-search/internal/jobs"
	"github.com/cloo-solutions/intranet-search/internal/metrics"
	"github.com/cloo-solutions/intranet-search/internal/repository"
	"github.com/cloo-solutions/intranet-search/internal/server"
	"github.com/cloo-solutions/intranet-search/internal/service"
	"github.com/cloo-solutions/intranet-search/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the intranet search API server, plus the scheduled rebuild worker when INTRANET_REINDEX_INTERVAL is set",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "", "Port to listen on (overrides INTRANET_PORT)")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().String("migrations", database.DefaultMigrationsURL, "Migration source URL")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()
	logger := rt.logger

	if port, _ := cmd.Flags().GetString("port"); port != "" {
		rt.cfg.Port = port
	}

	if noMigrate, _ := cmd.Flags().GetBool("no-migrate"); !noMigrate {
		source, _ := cmd.Flags().GetString("migrations")
		result, err := database.Migrate(rt.cfg.DatabaseURL, source)
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("migrations applied", zap.Uint("version", result.Version), zap.Bool("changed", result.Applied))
	}

	var (
		embedding  service.EmbeddingClient
		completion service.CompletionClient
	)
	if client := rt.openAIClient(); client != nil {
		embedding = client
		completion = client
	}

	var reports service.ReportStorage
	if rt.cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        rt.cfg.S3Endpoint,
			Region:          rt.cfg.S3Region,
			AccessKeyID:     rt.cfg.S3AccessKey,
			SecretAccessKey: rt.cfg.S3SecretKey,
			Bucket:          rt.cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		logger.Info("report bucket ready", zap.String("bucket", s3Client.Bucket()))
		reports = s3Client
	}

	suggestions := repository.NewContentSuggestionRepository(rt.pool)
	authSvc := rt.authService()
	indexSvc := rt.indexService(embedding)
	searchSvc := service.NewSearchService(service.SearchServiceDeps{
		Index:      repository.NewSearchIndexRepository(rt.pool),
		Embedding:  embedding,
		Completion: completion,
		Logs:       repository.NewSearchLogRepository(rt.pool),
		Gaps:       suggestions,
		Metrics:    metrics.New(),
		Logger:     logger.Named("search"),
	})
	gapSvc := service.NewContentGapService(suggestions, reports)

	router := server.NewRouter(server.RouterConfig{
		Resolver:          authSvc,
		Logger:            logger,
		SearchHandler:     handlers.NewSearchHandler(searchSvc),
		IndexHandler:      handlers.NewIndexHandler(indexSvc),
		ContentGapHandler: handlers.NewContentGapHandler(gapSvc),
		MetricsHandler:    promhttp.Handler(),
	})

	var worker *jobs.Worker
	if rt.cfg.ReindexInterval > 0 {
		if embedding == nil {
			logger.Warn("scheduled rebuild disabled: embedding provider not configured")
		} else {
			worker = jobs.NewWorker(jobs.NewReindexProcessor(indexSvc, logger), rt.cfg.ReindexInterval, logger)
			go worker.Start(ctx)
		}
	}

	srv := &http.Server{
		Addr:              ":" + rt.cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("port", rt.cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	if worker != nil {
		worker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}

//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cloo-solutions/intranet-search/internal/api/handlers"
	"github.com/cloo-solutions/intranet-search/internal/metrics"
	"github.com/cloo-solutions/intranet-search/internal/repository"
	"github.com/cloo-solutions/intranet-search/internal/server"
	"github.com/cloo-solutions/intranet-search/internal/service"
	"github.com/cloo-solutions/intranet-search/internal/storage"
	"github.com/cloo-solutions/intranet-search/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap/zaptest"
)

const embeddingDimensions = 768

// keywordEmbedder maps texts to one-hot vectors by keyword so similarities
// are predictable: matching topics score 1, anything else 0. Texts without a
// topic land on a slot derived from their length.
type keywordEmbedder struct {
	calls atomic.Int64
}

var topics = []string{"férias", "caixa", "segurança"}

func (e *keywordEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	e.calls.Add(1)
	lower := strings.ToLower(text)
	for i, topic := range topics {
		if strings.Contains(lower, topic) {
			return testutil.UnitVector(embeddingDimensions, i+1), nil
		}
	}
	return testutil.UnitVector(embeddingDimensions, 100+len(text)%500), nil
}

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T          *testing.T
	Ctx        context.Context
	PostgresC  *testutil.PostgresContainer
	RustFSC    *testutil.RustFSContainer
	Pool       *pgxpool.Pool
	Server     *httptest.Server
	S3Client   *storage.S3Client
	Embedder   *keywordEmbedder
	AuthToken  string
	HTTPClient *http.Client
}

// SetupE2EEnv starts Postgres and RustFS and serves the full router.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, testutil.MigrationsDir(2))

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "intranet-reports",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	env := &E2ETestEnv{
		T:          t,
		Ctx:        ctx,
		PostgresC:  pgC,
		RustFSC:    s3C,
		Pool:       pool,
		S3Client:   s3Client,
		Embedder:   &keywordEmbedder{},
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
	env.Server = httptest.NewServer(env.router())

	issued, err := env.authService().IssueToken(ctx, "editor-1", "e2e")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	env.AuthToken = issued.Token

	return env
}

func (e *E2ETestEnv) authService() *service.AuthService {
	return service.NewAuthService(repository.NewUserTokenRepository(e.Pool), nil)
}

func (e *E2ETestEnv) router() http.Handler {
	logger := zaptest.NewLogger(e.T)
	registry := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(registry)
	suggestions := repository.NewContentSuggestionRepository(e.Pool)

	indexSvc := service.NewIndexService(service.IndexServiceDeps{
		Sources:   repository.NewSourceRepository(e.Pool),
		Runs:      repository.NewIndexRunRepository(e.Pool),
		Tx:        repository.NewTxRunner(e.Pool),
		Lock:      repository.NewAdvisoryLock(e.Pool, repository.RebuildLockKey),
		Embedding: e.Embedder,
		Metrics:   m,
		Logger:    logger,
	}, service.IndexServiceConfig{BatchSize: 4})

	searchSvc := service.NewSearchService(service.SearchServiceDeps{
		Index:     repository.NewSearchIndexRepository(e.Pool),
		Embedding: e.Embedder,
		Logs:      repository.NewSearchLogRepository(e.Pool),
		Gaps:      suggestions,
		Metrics:   m,
		Logger:    logger,
	})

	return server.NewRouter(server.RouterConfig{
		Resolver:          e.authService(),
		Logger:            logger,
		SearchHandler:     handlers.NewSearchHandler(searchSvc),
		IndexHandler:      handlers.NewIndexHandler(indexSvc),
		ContentGapHandler: handlers.NewContentGapHandler(service.NewContentGapService(suggestions, e.S3Client)),
		MetricsHandler:    promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.Server != nil {
		e.Server.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		_ = e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		_ = e.PostgresC.Terminate(e.Ctx)
	}
}

// Seed inserts a small intranet: published and draft rows for several types.
func (e *E2ETestEnv) Seed() {
	_, err := e.Pool.Exec(e.Ctx, `
		INSERT INTO announcements (title, summary, content, status, target_roles) VALUES
			('Férias coletivas de dezembro', 'Calendário de férias', 'As férias coletivas começam em 20 de dezembro.', 'published', '{gerente}'),
			('Rascunho sobre férias', '', 'Não publicado', 'draft', '{}');
		INSERT INTO manuals (title, description, content, category, version, is_active) VALUES
			('Manual de abertura do caixa', 'Procedimento', 'Conferir o fundo de caixa antes de abrir a loja.', 'operacao', '2.1', true);
		INSERT INTO trainings (title, description, content, status, category, duration_minutes) VALUES
			('Segurança no trabalho', 'Curso obrigatório', 'Uso de equipamentos de proteção.', 'published', 'seguranca', 30);
		INSERT INTO feed_posts (content, is_pinned) VALUES
			('Lembrete: inventário anual na próxima semana', true),
			('Post comum', false);
	`)
	if err != nil {
		e.T.Fatalf("failed to seed content: %v", err)
	}
}

// Response is a decoded HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
}

// Decode unmarshals the body, unwrapping the {"data": ...} envelope when present.
func (r *Response) Decode(v any) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(r.Body, &envelope); err == nil && len(envelope.Data) > 0 {
		return json.Unmarshal(envelope.Data, v)
	}
	return json.Unmarshal(r.Body, v)
}

// Error returns the {"error": ...} message of the body.
func (r *Response) Error() string {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(r.Body, &payload)
	return payload.Error
}

func (e *E2ETestEnv) Do(method, path string, body any, authToken string) *Response {
	e.T.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			e.T.Fatalf("failed to marshal body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(e.Ctx, method, e.Server.URL+path, reqBody)
	if err != nil {
		e.T.Fatalf("failed to build request: %v", err)
	}
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		e.T.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		e.T.Fatalf("failed to read response: %v", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: data}
}

// DownloadFile downloads a file from the presigned URL
func (e *E2ETestEnv) DownloadFile(downloadURL string) ([]byte, error) {
	resp, err := e.HTTPClient.Get(downloadURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloo-solutions/intranet-search/internal/api/handlers"
	"github.com/cloo-solutions/intranet-search/internal/domain"
	"github.com/cloo-solutions/intranet-search/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) ResolveUser(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) Search(ctx context.Context, input service.SearchInput) (*service.SearchOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SearchOutput), args.Error(1)
}

type MockIndexService struct {
	mock.Mock
}

func (m *MockIndexService) Rebuild(ctx context.Context, trigger domain.IndexRunTrigger) (*service.RebuildResult, error) {
	args := m.Called(ctx, trigger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RebuildResult), args.Error(1)
}

func (m *MockIndexService) LatestRun(ctx context.Context) (*domain.IndexRun, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IndexRun), args.Error(1)
}

type MockContentGapService struct {
	mock.Mock
}

func (m *MockContentGapService) List(ctx context.Context, status string, limit int) ([]*domain.ContentSuggestion, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ContentSuggestion), args.Error(1)
}

func (m *MockContentGapService) UpdateStatus(ctx context.Context, id, status string) (*domain.ContentSuggestion, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContentSuggestion), args.Error(1)
}

func (m *MockContentGapService) Export(ctx context.Context) (*service.GapExport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.GapExport), args.Error(1)
}

type testRouter struct {
	handler  http.Handler
	resolver *MockResolver
	search   *MockSearchService
	index    *MockIndexService
	gaps     *MockContentGapService
}

func newTestRouter() *testRouter {
	tr := &testRouter{
		resolver: new(MockResolver),
		search:   new(MockSearchService),
		index:    new(MockIndexService),
		gaps:     new(MockContentGapService),
	}
	tr.handler = NewRouter(RouterConfig{
		Logger:            zap.NewNop(),
		Resolver:          tr.resolver,
		SearchHandler:     handlers.NewSearchHandler(tr.search),
		IndexHandler:      handlers.NewIndexHandler(tr.index),
		ContentGapHandler: handlers.NewContentGapHandler(tr.gaps),
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("# metrics\n"))
		}),
	})
	return tr
}

func (tr *testRouter) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	tr.handler.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	tr := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://intranet.example.com")
	w := tr.serve(req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"status":"ok"}}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_Metrics(t *testing.T) {
	tr := newTestRouter()

	w := tr.serve(httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "# metrics")
}

func TestRouter_Preflight(t *testing.T) {
	tr := newTestRouter()

	req := httptest.NewRequest(http.MethodOptions, "/search/index", nil)
	req.Header.Set("Origin", "https://intranet.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization, content-type")
	w := tr.serve(req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Equal(t, "authorization, content-type", strings.ToLower(w.Header().Get("Access-Control-Allow-Headers")))
}

func TestRouter_Search_Anonymous(t *testing.T) {
	tr := newTestRouter()
	tr.search.On("Search", mock.Anything, service.SearchInput{Query: "ferias"}).
		Return(&service.SearchOutput{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader([]byte(`{"query":"ferias"}`)))
	w := tr.serve(req)

	assert.Equal(t, http.StatusOK, w.Code)
	tr.search.AssertExpectations(t)
	tr.resolver.AssertNotCalled(t, "ResolveUser", mock.Anything, mock.Anything)
}

func TestRouter_Search_ResolvesUser(t *testing.T) {
	tr := newTestRouter()
	tr.resolver.On("ResolveUser", mock.Anything, "itk_abc").Return("user-7", nil)
	tr.search.On("Search", mock.Anything, service.SearchInput{Query: "ferias", UserID: "user-7"}).
		Return(&service.SearchOutput{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader([]byte(`{"query":"ferias"}`)))
	req.Header.Set("Authorization", "Bearer itk_abc")
	w := tr.serve(req)

	assert.Equal(t, http.StatusOK, w.Code)
	tr.search.AssertExpectations(t)
}

func TestRouter_Search_InvalidTokenStaysAnonymous(t *testing.T) {
	tr := newTestRouter()
	tr.resolver.On("ResolveUser", mock.Anything, "itk_bad").Return("", domain.ErrInvalidToken)
	tr.search.On("Search", mock.Anything, service.SearchInput{Query: "ferias"}).
		Return(&service.SearchOutput{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader([]byte(`{"query":"ferias"}`)))
	req.Header.Set("Authorization", "Bearer itk_bad")
	w := tr.serve(req)

	assert.Equal(t, http.StatusOK, w.Code)
	tr.search.AssertExpectations(t)
}

func TestRouter_ProtectedRoutesRequireAuth(t *testing.T) {
	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/search/index"},
		{http.MethodGet, "/search/index/status"},
		{http.MethodGet, "/content-gaps"},
		{http.MethodPatch, "/content-gaps/gap-1"},
		{http.MethodPost, "/content-gaps/export"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			tr := newTestRouter()

			w := tr.serve(httptest.NewRequest(rt.method, rt.path, nil))

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "missing authorization header", resp["error"])
		})
	}
}

func TestRouter_Rebuild(t *testing.T) {
	tr := newTestRouter()
	tr.resolver.On("ResolveUser", mock.Anything, "itk_admin").Return("admin", nil)
	tr.index.On("Rebuild", mock.Anything, domain.IndexRunTriggerAPI).
		Return(&service.RebuildResult{Total: 3, Indexed: 3}, nil)

	req := httptest.NewRequest(http.MethodPost, "/search/index", nil)
	req.Header.Set("Authorization", "Bearer itk_admin")
	w := tr.serve(req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"indexed":3,"failed":0,"total":3}`, w.Body.String())
}

func TestRouter_UpdateContentGap_PassesURLParam(t *testing.T) {
	tr := newTestRouter()
	tr.resolver.On("ResolveUser", mock.Anything, "itk_admin").Return("admin", nil)
	tr.gaps.On("UpdateStatus", mock.Anything, "gap-42", "resolved").
		Return(nil, domain.ErrSuggestionNotFound)

	req := httptest.NewRequest(http.MethodPatch, "/content-gaps/gap-42", bytes.NewReader([]byte(`{"status":"resolved"}`)))
	req.Header.Set("Authorization", "Bearer itk_admin")
	w := tr.serve(req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	tr.gaps.AssertExpectations(t)
}

func TestRouter_RejectsOversizedBody(t *testing.T) {
	tr := newTestRouter()

	body := bytes.Repeat([]byte("a"), 2*1024*1024)
	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader(append([]byte(`{"query":"`), body...)))
	w := tr.serve(req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	tr.search.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

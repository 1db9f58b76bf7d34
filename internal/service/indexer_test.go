package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cloo-solutions/intranet-search/internal/domain"
	"github.com/cloo-solutions/intranet-search/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSourceRepository struct {
	mock.Mock
}

func (m *MockSourceRepository) ListVisible(ctx context.Context, contentType domain.ContentType) ([]domain.Indexable, error) {
	args := m.Called(ctx, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Indexable), args.Error(1)
}

// stubSources returns items for the given types and nothing for the rest.
func stubSources(m *MockSourceRepository, items map[domain.ContentType][]domain.Indexable) {
	for _, ct := range domain.AllContentTypes() {
		found, ok := items[ct]
		if !ok {
			found = []domain.Indexable{}
		}
		m.On("ListVisible", mock.Anything, ct).Return(found, nil)
	}
}

type fakeRunRepository struct {
	mu      sync.Mutex
	created []*domain.IndexRun
	updated []domain.IndexRun
}

func (f *fakeRunRepository) Create(ctx context.Context, run *domain.IndexRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, run)
	return nil
}

func (f *fakeRunRepository) Update(ctx context.Context, run *domain.IndexRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, *run)
	return nil
}

func (f *fakeRunRepository) Latest(ctx context.Context) (*domain.IndexRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.updated) == 0 {
		return nil, domain.ErrIndexRunNotFound
	}
	last := f.updated[len(f.updated)-1]
	return &last, nil
}

type fakeLock struct {
	held     bool
	released int
}

func (l *fakeLock) TryAcquire(ctx context.Context) (func(), bool, error) {
	if l.held {
		return nil, false, nil
	}
	l.held = true
	return func() {
		l.held = false
		l.released++
	}, true, nil
}

// fakeEmbedder returns a deterministic vector per text and fails for texts
// listed in failFor. It tracks the peak number of concurrent calls.
type fakeEmbedder struct {
	failFor  map[string]bool
	calls    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)

	if f.failFor[text] {
		return nil, errors.New("rate limited")
	}
	v := make([]float32, domain.EmbeddingDimensions)
	v[len(text)%domain.EmbeddingDimensions] = 1
	return v, nil
}

type indexFixture struct {
	sources  *MockSourceRepository
	runs     *fakeRunRepository
	index    *memoryIndex
	tx       *testTxRunner
	lock     *fakeLock
	embedder *fakeEmbedder
}

func newIndexFixture() *indexFixture {
	idx := &memoryIndex{}
	return &indexFixture{
		sources:  new(MockSourceRepository),
		runs:     &fakeRunRepository{},
		index:    idx,
		tx:       &testTxRunner{index: idx},
		lock:     &fakeLock{},
		embedder: &fakeEmbedder{failFor: map[string]bool{}},
	}
}

func (f *indexFixture) service(batchSize int, m *metrics.Metrics) *IndexService {
	return NewIndexService(IndexServiceDeps{
		Sources:   f.sources,
		Runs:      f.runs,
		Tx:        f.tx,
		Lock:      f.lock,
		Embedding: f.embedder,
		Metrics:   m,
		UUIDGen:   NewMockUUIDGenerator("run-1"),
	}, IndexServiceConfig{BatchSize: batchSize})
}

func manuals(n int) []domain.Indexable {
	out := make([]domain.Indexable, n)
	for i := range out {
		out[i] = &domain.Manual{
			ID:      string(rune('a' + i)),
			Title:   "Manual",
			Content: "procedimento número " + string(rune('a'+i)),
		}
	}
	return out
}

func TestIndexService_Rebuild_Success(t *testing.T) {
	f := newIndexFixture()
	stubSources(f.sources, map[domain.ContentType][]domain.Indexable{
		domain.ContentTypeAnnouncement: {
			&domain.Announcement{ID: "a-1", Title: "Férias coletivas", Summary: "Dezembro", TargetRoles: []string{"gerente"}},
		},
		domain.ContentTypeTraining: {
			&domain.Training{ID: "t-1", Title: "Atendimento", Category: "vendas"},
		},
		domain.ContentTypeFeedPost: {
			&domain.FeedPost{ID: "p-1", Content: "   "},
		},
	})

	result, err := f.service(10, nil).Rebuild(context.Background(), domain.IndexRunTriggerAPI)

	require.NoError(t, err)
	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, 2, result.Total, "empty text is skipped and not counted")
	assert.Equal(t, 2, result.Indexed)
	assert.Equal(t, 0, result.Failed)

	entries := f.index.snapshot()
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ContentTypeAnnouncement, entries[0].ContentType)
	assert.Equal(t, "Férias coletivas Dezembro", entries[0].Content)
	assert.Equal(t, "Férias coletivas Dezembro", entries[0].Title)
	assert.JSONEq(t, `{"target_roles":["gerente"]}`, string(entries[0].Metadata))
	assert.Len(t, entries[0].Embedding, domain.EmbeddingDimensions)

	require.Len(t, f.runs.updated, 1)
	assert.Equal(t, domain.IndexRunStatusCompleted, f.runs.updated[0].Status)
	assert.Equal(t, 1, f.lock.released)
	f.sources.AssertExpectations(t)
}

func TestIndexService_Rebuild_CountsFailures(t *testing.T) {
	f := newIndexFixture()
	items := manuals(4)
	f.embedder.failFor[items[1].IndexText()] = true
	stubSources(f.sources, map[domain.ContentType][]domain.Indexable{domain.ContentTypeManual: items})

	result, err := f.service(10, nil).Rebuild(context.Background(), domain.IndexRunTriggerCLI)

	require.NoError(t, err)
	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 3, result.Indexed)
	assert.Equal(t, 1, result.Failed)
	assert.Len(t, f.index.snapshot(), 3)
}

func TestIndexService_Rebuild_BoundsConcurrencyByBatch(t *testing.T) {
	f := newIndexFixture()
	stubSources(f.sources, map[domain.ContentType][]domain.Indexable{domain.ContentTypeManual: manuals(7)})

	result, err := f.service(3, nil).Rebuild(context.Background(), domain.IndexRunTriggerAPI)

	require.NoError(t, err)
	assert.Equal(t, 7, result.Indexed)
	assert.Equal(t, int32(7), f.embedder.calls.Load())
	assert.LessOrEqual(t, f.embedder.peak.Load(), int32(3))
}

func TestIndexService_Rebuild_InProgress(t *testing.T) {
	f := newIndexFixture()
	f.lock.held = true

	_, err := f.service(10, nil).Rebuild(context.Background(), domain.IndexRunTriggerAPI)

	assert.ErrorIs(t, err, domain.ErrRebuildInProgress)
	f.sources.AssertNotCalled(t, "ListVisible", mock.Anything, mock.Anything)
	assert.Empty(t, f.runs.created)
}

func TestIndexService_Rebuild_EmbeddingNotConfigured(t *testing.T) {
	f := newIndexFixture()
	svc := NewIndexService(IndexServiceDeps{
		Sources: f.sources,
		Runs:    f.runs,
		Tx:      f.tx,
		Lock:    f.lock,
	}, IndexServiceConfig{})

	_, err := svc.Rebuild(context.Background(), domain.IndexRunTriggerAPI)

	assert.ErrorIs(t, err, domain.ErrEmbeddingNotConfigured)
	assert.False(t, f.lock.held)
}

func TestIndexService_Rebuild_AllEmbeddingsFailStillCompletes(t *testing.T) {
	f := newIndexFixture()
	f.index.entries = []domain.SearchIndexEntry{{ContentType: domain.ContentTypeManual, ContentID: "old"}}
	items := manuals(1)
	f.embedder.failFor[items[0].IndexText()] = true
	stubSources(f.sources, map[domain.ContentType][]domain.Indexable{domain.ContentTypeManual: items})

	result, err := f.service(10, nil).Rebuild(context.Background(), domain.IndexRunTriggerAPI)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 0, result.Indexed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, f.tx.called)
	assert.Empty(t, f.index.snapshot())
	require.Len(t, f.runs.updated, 1)
	assert.Equal(t, domain.IndexRunStatusCompleted, f.runs.updated[0].Status)
	assert.Equal(t, 1, f.runs.updated[0].Failed)
	assert.Equal(t, 1, f.lock.released)
}

func TestIndexService_Rebuild_InsertFailureKeepsIndex(t *testing.T) {
	f := newIndexFixture()
	f.index.entries = []domain.SearchIndexEntry{{ContentType: domain.ContentTypeManual, ContentID: "old"}}
	f.index.failOn = "insert"
	stubSources(f.sources, map[domain.ContentType][]domain.Indexable{domain.ContentTypeManual: manuals(2)})

	_, err := f.service(10, nil).Rebuild(context.Background(), domain.IndexRunTriggerAPI)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeUpstream, domainErr.Code)
	entries := f.index.snapshot()
	require.Len(t, entries, 1)
	assert.Equal(t, "old", entries[0].ContentID)
}

func TestIndexService_Rebuild_FetchErrorAborts(t *testing.T) {
	f := newIndexFixture()
	f.sources.On("ListVisible", mock.Anything, domain.ContentTypeIdea).Return(nil, errors.New("relation does not exist"))
	f.sources.On("ListVisible", mock.Anything, mock.Anything).Return([]domain.Indexable{}, nil)

	_, err := f.service(10, nil).Rebuild(context.Background(), domain.IndexRunTriggerAPI)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "idea")
	assert.Equal(t, 0, f.tx.called)
	assert.Equal(t, int32(0), f.embedder.calls.Load())
}

func TestIndexService_Rebuild_Idempotent(t *testing.T) {
	f := newIndexFixture()
	stubSources(f.sources, map[domain.ContentType][]domain.Indexable{domain.ContentTypeManual: manuals(3)})
	svc := f.service(2, nil)

	_, err := svc.Rebuild(context.Background(), domain.IndexRunTriggerAPI)
	require.NoError(t, err)
	first := f.index.snapshot()

	_, err = svc.Rebuild(context.Background(), domain.IndexRunTriggerAPI)
	require.NoError(t, err)
	second := f.index.snapshot()

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Key(), second[i].Key())
		assert.Equal(t, first[i].Content, second[i].Content)
	}
}

func TestIndexService_Rebuild_RecordsMetrics(t *testing.T) {
	f := newIndexFixture()
	items := manuals(3)
	f.embedder.failFor[items[0].IndexText()] = true
	stubSources(f.sources, map[domain.ContentType][]domain.Indexable{domain.ContentTypeManual: items})
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	_, err := f.service(10, m).Rebuild(context.Background(), domain.IndexRunTriggerAPI)

	require.NoError(t, err)
	assert.Equal(t, float64(2), promtestutil.ToFloat64(m.IndexItemsTotal.WithLabelValues(metrics.ItemIndexed)))
	assert.Equal(t, float64(1), promtestutil.ToFloat64(m.IndexItemsTotal.WithLabelValues(metrics.ItemFailed)))
}

func TestIndexService_LatestRun(t *testing.T) {
	f := newIndexFixture()
	svc := f.service(10, nil)

	_, err := svc.LatestRun(context.Background())
	assert.ErrorIs(t, err, domain.ErrIndexRunNotFound)

	stubSources(f.sources, nil)
	_, err = svc.Rebuild(context.Background(), domain.IndexRunTriggerSchedule)
	require.NoError(t, err)

	run, err := svc.LatestRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.IndexRunTriggerSchedule, run.Trigger)
	assert.Equal(t, domain.IndexRunStatusCompleted, run.Status)
}

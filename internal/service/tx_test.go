package service

import (
	"context"
	"sync"

	"github.com/cloo-solutions/intranet-search/internal/domain"
)

// memoryIndex is an in-memory SearchIndexWriter that applies a transaction's
// writes only when the transaction function succeeds.
type memoryIndex struct {
	mu      sync.Mutex
	entries []domain.SearchIndexEntry
	failOn  string
}

type memoryIndexTx struct {
	parent  *memoryIndex
	deleted bool
	pending []domain.SearchIndexEntry
}

func (t *memoryIndexTx) DeleteAll(ctx context.Context) (int64, error) {
	t.deleted = true
	t.pending = nil
	return int64(len(t.parent.entries)), nil
}

func (t *memoryIndexTx) InsertBatch(ctx context.Context, entries []domain.SearchIndexEntry) error {
	if t.parent.failOn == "insert" {
		return assertErr("insert failed")
	}
	t.pending = append(t.pending, entries...)
	return nil
}

func (m *memoryIndex) snapshot() []domain.SearchIndexEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.SearchIndexEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

type testTxRepos struct {
	index SearchIndexWriter
}

func (t *testTxRepos) SearchIndex() SearchIndexWriter {
	return t.index
}

type testTxRunner struct {
	index  *memoryIndex
	called int
}

func (t *testTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	t.called++
	tx := &memoryIndexTx{parent: t.index}
	if err := fn(&testTxRepos{index: tx}); err != nil {
		return err
	}
	t.index.mu.Lock()
	defer t.index.mu.Unlock()
	if tx.deleted {
		t.index.entries = nil
	}
	t.index.entries = append(t.index.entries, tx.pending...)
	return nil
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

type MockUUIDGenerator struct {
	mu        sync.Mutex
	callCount int
	uuids     []string
}

func NewMockUUIDGenerator(uuids ...string) *MockUUIDGenerator {
	return &MockUUIDGenerator{uuids: uuids}
}

func (m *MockUUIDGenerator) NewString() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.callCount < len(m.uuids) {
		uuid := m.uuids[m.callCount]
		m.callCount++
		return uuid
	}
	return "default-uuid"
}

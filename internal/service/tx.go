package service

import (
	"context"

	"github.com/cloo-solutions/intranet-search/internal/domain"
)

// SearchIndexWriter mutates the search index. It is only handed out inside
// a transaction.
type SearchIndexWriter interface {
	DeleteAll(ctx context.Context) (int64, error)
	InsertBatch(ctx context.Context, entries []domain.SearchIndexEntry) error
}

// TxRepositories provides transaction-bound repositories.
type TxRepositories interface {
	SearchIndex() SearchIndexWriter
}

// TxRunner executes a function within a transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}

package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cloo-solutions/intranet-search/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SearchLogRepository stores one analytics row per executed query.
type SearchLogRepository struct {
	pool *pgxpool.Pool
}

func NewSearchLogRepository(pool *pgxpool.Pool) *SearchLogRepository {
	return &SearchLogRepository{pool: pool}
}

func (r *SearchLogRepository) CreateSearchLog(ctx context.Context, entry *domain.SearchLogEntry) error {
	filters := map[string]any{}
	if len(entry.ContentTypes) > 0 {
		filters["content_types"] = entry.ContentTypes
	}
	filtersJSON, _ := json.Marshal(filters)

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO search_logs (user_id, query, results_count, filters, latency_ms, no_results, degraded, degraded_reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id::text`,
		nullableString(entry.UserID),
		entry.Query,
		entry.ResultsCount,
		filtersJSON,
		entry.LatencyMs,
		entry.NoResults,
		entry.Degraded,
		entry.DegradedReason,
		createdAt,
	).Scan(&entry.ID)
	return err
}

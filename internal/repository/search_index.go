package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sqrl "github.com/Masterminds/squirrel"
	"github.com/cloo-solutions/intranet-search/internal/domain"
	"github.com/cloo-solutions/intranet-search/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

const tsConfig = "portuguese"

// SearchIndexRepository reads and writes the derived search_index table.
type SearchIndexRepository struct {
	db dbtx
}

func NewSearchIndexRepository(pool *pgxpool.Pool) *SearchIndexRepository {
	return &SearchIndexRepository{db: pool}
}

func NewSearchIndexRepositoryWithTx(tx pgx.Tx) *SearchIndexRepository {
	return &SearchIndexRepository{db: tx}
}

func contentTypeFilter(filters service.SearchFilters) sqrl.Sqlizer {
	if len(filters.ContentTypes) == 0 {
		return nil
	}
	types := make([]string, len(filters.ContentTypes))
	for i, t := range filters.ContentTypes {
		types[i] = string(t)
	}
	return sqrl.Eq{"content_type": types}
}

// SearchSemantic returns entries whose cosine similarity to embedding is at
// least threshold, nearest first.
func (r *SearchIndexRepository) SearchSemantic(ctx context.Context, embedding []float32, filters service.SearchFilters, threshold float64, limit int) ([]*service.SearchHit, error) {
	vec := pgvector.NewVector(embedding)

	builder := psql.Select("content_type", "content_id", "title", "content", "metadata").
		Column(sqrl.Expr("1 - (embedding <=> ?) AS similarity", vec)).
		From("search_index").
		Where(sqrl.Expr("1 - (embedding <=> ?) >= ?", vec, threshold))
	if f := contentTypeFilter(filters); f != nil {
		builder = builder.Where(f)
	}
	builder = builder.OrderByClause("embedding <=> ?", vec)
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	return r.queryHits(ctx, builder, true)
}

// SearchLexical runs a Portuguese full-text query, best ts_rank first.
func (r *SearchIndexRepository) SearchLexical(ctx context.Context, query string, filters service.SearchFilters, limit int) ([]*service.SearchHit, error) {
	tsQuery := "websearch_to_tsquery('" + tsConfig + "', ?)"

	builder := psql.Select("content_type", "content_id", "title", "content", "metadata").
		From("search_index").
		Where(sqrl.Expr("content_tsv @@ "+tsQuery, query))
	if f := contentTypeFilter(filters); f != nil {
		builder = builder.Where(f)
	}
	builder = builder.OrderByClause("ts_rank(content_tsv, "+tsQuery+") DESC", query)
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	return r.queryHits(ctx, builder, false)
}

func (r *SearchIndexRepository) queryHits(ctx context.Context, builder sqrl.SelectBuilder, withSimilarity bool) ([]*service.SearchHit, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build search query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []*service.SearchHit
	for rows.Next() {
		var h service.SearchHit
		var contentType string
		var metadata []byte
		dest := []any{&contentType, &h.ContentID, &h.Title, &h.Content, &metadata}
		if withSimilarity {
			dest = append(dest, &h.Similarity)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		h.ContentType = domain.ContentType(contentType)
		h.Metadata = json.RawMessage(metadata)
		hits = append(hits, &h)
	}
	return hits, rows.Err()
}

// DeleteAll empties the index and reports how many entries were removed.
func (r *SearchIndexRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM search_index`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// InsertBatch writes entries in a single round trip.
func (r *SearchIndexRepository) InsertBatch(ctx context.Context, entries []domain.SearchIndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		createdAt := e.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		metadata := e.Metadata
		if len(metadata) == 0 {
			metadata = json.RawMessage(`{}`)
		}
		batch.Queue(
			`INSERT INTO search_index (content_type, content_id, title, content, embedding, metadata, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			string(e.ContentType),
			e.ContentID,
			e.Title,
			e.Content,
			pgvector.NewVector(e.Embedding),
			[]byte(metadata),
			createdAt,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	for i := range entries {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("failed to insert %s: %w", entries[i].Key(), err)
		}
	}
	return results.Close()
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sqrl "github.com/Masterminds/squirrel"
	"github.com/cloo-solutions/intranet-search/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var suggestionColumns = []string{
	"id::text", "term", "search_count", "priority_score", "status", "last_searched_at", "created_at",
}

// ContentSuggestionRepository aggregates zero-result search terms.
type ContentSuggestionRepository struct {
	pool *pgxpool.Pool
}

func NewContentSuggestionRepository(pool *pgxpool.Pool) *ContentSuggestionRepository {
	return &ContentSuggestionRepository{pool: pool}
}

// RecordMiss upserts the suggestion for term, matching case-insensitively.
func (r *ContentSuggestionRepository) RecordMiss(ctx context.Context, term string, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO content_suggestions (term, search_count, priority_score, status, last_searched_at, created_at)
		 VALUES ($1, 1, 1, 'pending', $2, $2)
		 ON CONFLICT ((lower(term))) DO UPDATE
		 SET search_count = content_suggestions.search_count + 1,
		     priority_score = content_suggestions.priority_score + 1,
		     last_searched_at = $2`,
		term, at,
	)
	return err
}

func (r *ContentSuggestionRepository) List(ctx context.Context, status domain.SuggestionStatus, limit int) ([]*domain.ContentSuggestion, error) {
	var where sqrl.Sqlizer
	if status != "" {
		where = sqrl.Eq{"status": string(status)}
	}
	return r.list(ctx, where, limit)
}

// ListOpen returns suggestions editors still have to act on.
func (r *ContentSuggestionRepository) ListOpen(ctx context.Context, limit int) ([]*domain.ContentSuggestion, error) {
	return r.list(ctx, sqrl.Eq{"status": []string{
		string(domain.SuggestionStatusPending),
		string(domain.SuggestionStatusPlanned),
	}}, limit)
}

func (r *ContentSuggestionRepository) list(ctx context.Context, where sqrl.Sqlizer, limit int) ([]*domain.ContentSuggestion, error) {
	builder := psql.Select(suggestionColumns...).From("content_suggestions")
	if where != nil {
		builder = builder.Where(where)
	}
	builder = builder.OrderBy("priority_score DESC", "last_searched_at DESC", "id")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build content suggestion query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ContentSuggestion
	for rows.Next() {
		s, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ContentSuggestionRepository) UpdateStatus(ctx context.Context, id string, status domain.SuggestionStatus) (*domain.ContentSuggestion, error) {
	query, args, err := psql.Update("content_suggestions").
		Set("status", string(status)).
		Where(sqrl.Expr("id::text = ?", id)).
		Suffix("RETURNING " + strings.Join(suggestionColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build content suggestion update: %w", err)
	}

	s, err := scanSuggestion(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSuggestionNotFound
		}
		return nil, err
	}
	return s, nil
}

func scanSuggestion(row pgx.Row) (*domain.ContentSuggestion, error) {
	var s domain.ContentSuggestion
	var status string
	if err := row.Scan(&s.ID, &s.Term, &s.SearchCount, &s.PriorityScore, &status, &s.LastSearchedAt, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Status = domain.SuggestionStatus(status)
	return &s, nil
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cloo-solutions/intranet-search/internal/domain"
	"github.com/cloo-solutions/intranet-search/internal/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserTokenRepository struct {
	pool *pgxpool.Pool
}

func NewUserTokenRepository(pool *pgxpool.Pool) *UserTokenRepository {
	return &UserTokenRepository{pool: pool}
}

func (r *UserTokenRepository) Create(ctx context.Context, token *domain.UserToken) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_tokens (id, user_id, name, key_hash, created_at, revoked_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		token.ID, token.UserID, token.Name, token.KeyHash, token.CreatedAt, token.RevokedAt,
	)
	return err
}

func (r *UserTokenRepository) GetByHash(ctx context.Context, hash string) (*domain.UserToken, error) {
	var token domain.UserToken
	err := r.pool.QueryRow(ctx,
		`SELECT id::text, user_id, name, key_hash, created_at, revoked_at
		 FROM user_tokens WHERE key_hash = $1`,
		hash,
	).Scan(&token.ID, &token.UserID, &token.Name, &token.KeyHash, &token.CreatedAt, &token.RevokedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, err
	}
	return &token, nil
}

// ListByUserPage lists tokens newest first using keyset pagination.
func (r *UserTokenRepository) ListByUserPage(ctx context.Context, userID string, cursor *pagination.Cursor, limit int) (*pagination.Page[*domain.UserToken], error) {
	limit = pagination.NormalizeLimit(limit)

	var (
		rows pgx.Rows
		err  error
	)
	if cursor != nil {
		rows, err = r.pool.Query(ctx,
			`SELECT id::text, user_id, name, key_hash, created_at, revoked_at
			 FROM user_tokens
			 WHERE user_id = $1 AND (created_at, id::text) < ($2, $3)
			 ORDER BY created_at DESC, id::text DESC
			 LIMIT $4`,
			userID, cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.pool.Query(ctx,
			`SELECT id::text, user_id, name, key_hash, created_at, revoked_at
			 FROM user_tokens
			 WHERE user_id = $1
			 ORDER BY created_at DESC, id::text DESC
			 LIMIT $2`,
			userID, limit+1,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []*domain.UserToken
	for rows.Next() {
		var token domain.UserToken
		if err := rows.Scan(&token.ID, &token.UserID, &token.Name, &token.KeyHash, &token.CreatedAt, &token.RevokedAt); err != nil {
			return nil, err
		}
		tokens = append(tokens, &token)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return pagination.NewPage(tokens, limit, func(t *domain.UserToken) (string, time.Time) {
		return t.ID, t.CreatedAt
	}), nil
}

func (r *UserTokenRepository) Revoke(ctx context.Context, id string) error {
	now := time.Now().UTC()
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE user_tokens SET revoked_at = $1 WHERE id::text = $2 AND revoked_at IS NULL`,
		now, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrTokenNotFound
	}
	return nil
}

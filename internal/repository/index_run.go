package repository

import (
	"context"
	"errors"

	"github.com/cloo-solutions/intranet-search/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type IndexRunRepository struct {
	pool *pgxpool.Pool
}

func NewIndexRunRepository(pool *pgxpool.Pool) *IndexRunRepository {
	return &IndexRunRepository{pool: pool}
}

func (r *IndexRunRepository) Create(ctx context.Context, run *domain.IndexRun) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO index_runs (id, status, trigger, total, indexed, failed, error, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.ID, string(run.Status), string(run.Trigger), run.Total, run.Indexed, run.Failed,
		run.Error, run.StartedAt, run.FinishedAt,
	)
	return err
}

func (r *IndexRunRepository) Update(ctx context.Context, run *domain.IndexRun) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE index_runs
		 SET status = $1, total = $2, indexed = $3, failed = $4, error = $5, finished_at = $6
		 WHERE id = $7`,
		string(run.Status), run.Total, run.Indexed, run.Failed, run.Error, run.FinishedAt, run.ID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrIndexRunNotFound
	}
	return nil
}

func (r *IndexRunRepository) Latest(ctx context.Context) (*domain.IndexRun, error) {
	var run domain.IndexRun
	var status, trigger string
	err := r.pool.QueryRow(ctx,
		`SELECT id::text, status, trigger, total, indexed, failed, error, started_at, finished_at
		 FROM index_runs ORDER BY started_at DESC LIMIT 1`,
	).Scan(&run.ID, &status, &trigger, &run.Total, &run.Indexed, &run.Failed, &run.Error, &run.StartedAt, &run.FinishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIndexRunNotFound
		}
		return nil, err
	}
	run.Status = domain.IndexRunStatus(status)
	run.Trigger = domain.IndexRunTrigger(trigger)
	return &run, nil
}

//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/cloo-solutions/intranet-search/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

func setupPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	pc := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { _ = pc.Terminate(context.Background()) })

	pool := testutil.NewTestPool(ctx, t, pc, testutil.MigrationsDir(2))
	t.Cleanup(pool.Close)
	return pool
}

package pg_test

import (
	"context"
	"os"
	"testing"
	"time"

	"avquotes-service/internal/infrastructure/pg"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// withPostgres connects to DATABASE_URL when set, otherwise starts a
// container when TESTCONTAINERS=1, otherwise skips.
func withPostgres(t *testing.T) *pg.DB {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		if os.Getenv("TESTCONTAINERS") == "" {
			t.Skip("set DATABASE_URL or TESTCONTAINERS=1 to run PG tests")
		}
		container, err := postgres.RunContainer(ctx,
			postgres.WithDatabase("avquotes"),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
		)
		require.NoError(t, err)
		t.Cleanup(func() { _ = container.Terminate(context.Background()) })

		dsn, err = container.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err)
	}

	db, err := pg.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, pg.RunMigrations(ctx, db))

	_, err = db.Pool.Exec(ctx, `TRUNCATE quotes, snapshot_status, refresh_jobs`)
	require.NoError(t, err)
	return db
}

//go:build integration

package migrate

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("storefront"),
		postgres.WithUsername("storefront"),
		postgres.WithPassword("storefront"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container failed: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres container failed: %v", err)
		}
	})
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string failed: %v", err)
	}
	return dsn
}

func tableExists(ctx context.Context, t *testing.T, dsn, table string) bool {
	t.Helper()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("open pool failed: %v", err)
	}
	defer pool.Close()
	var exists bool
	if err := pool.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", "public."+table).Scan(&exists); err != nil {
		t.Fatalf("query table %s failed: %v", table, err)
	}
	return exists
}

func TestMigrateUpDownRoundTrip(t *testing.T) {
	ctx := context.Background()
	dsn := startPostgres(ctx, t)

	info, err := Version(ctx, dsn)
	if err != nil {
		t.Fatalf("version before up failed: %v", err)
	}
	if info.Applied {
		t.Fatalf("expected no applied version, got %+v", info)
	}

	if err := Up(ctx, dsn); err != nil {
		t.Fatalf("up failed: %v", err)
	}
	// 重复执行不报错
	if err := Up(ctx, dsn); err != nil {
		t.Fatalf("second up failed: %v", err)
	}
	for _, table := range []string{"documents", "credentials", "password_reset_tokens"} {
		if !tableExists(ctx, t, dsn, table) {
			t.Fatalf("expected table %s after up", table)
		}
	}

	info, err = Version(ctx, dsn)
	if err != nil {
		t.Fatalf("version after up failed: %v", err)
	}
	if !info.Applied || info.Version != 1 || info.Dirty {
		t.Fatalf("unexpected version after up: %+v", info)
	}

	if err := Down(ctx, dsn, 0); err != nil {
		t.Fatalf("down failed: %v", err)
	}
	if tableExists(ctx, t, dsn, "documents") {
		t.Fatalf("expected documents dropped after down")
	}
}

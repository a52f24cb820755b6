package db

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is the shared Postgres connection pool. Nil when DATABASE_URL is not
// configured; callers that archive or read history must check before use.
var Pool *pgxpool.Pool

var (
	newPoolFunc = pgxpool.New
	pingFunc    = func(ctx context.Context, pool *pgxpool.Pool) error {
		return pool.Ping(ctx)
	}
)

// InitPostgres connects to Postgres using the given connection string. An
// empty string skips the database entirely; a configured but unreachable one
// is fatal.
func InitPostgres(ctx context.Context, databaseURL string) {
	if databaseURL == "" {
		log.Println("Warning: DATABASE_URL not set, briefing history disabled")
		return
	}

	pool, err := newPoolFunc(ctx, databaseURL)
	if err != nil {
		log.Fatalf("failed to create Postgres pool: %v", err)
	}
	if err := pingFunc(ctx, pool); err != nil {
		log.Fatalf("failed to connect to Postgres: %v", err)
	}

	Pool = pool
	log.Println("Connected to Postgres")
}

package repository

import (
	"context"
	"encoding/json"

	"whats-up/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

const createBriefingsTable = `
CREATE TABLE IF NOT EXISTS briefings (
    id           BIGSERIAL   PRIMARY KEY,
    sentiment    TEXT        NOT NULL,
    payload      JSONB       NOT NULL,
    generated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_briefings_generated_at
    ON briefings (generated_at DESC);
`

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// BriefingRepository archives every generated briefing. The archive is
// best-effort history for the recent-briefings endpoint; the serving path
// never reads from it.
type BriefingRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewBriefingRepository(pool PgxPool, tracer trace.Tracer) *BriefingRepository {
	return &BriefingRepository{pool: pool, tracer: tracer}
}

func (r *BriefingRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "briefing-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createBriefingsTable)
	return err
}

func (r *BriefingRepository) SaveBriefing(ctx context.Context, b domain.Briefing) error {
	_, span := r.tracer.Start(ctx, "briefing-repo.save-briefing")
	defer span.End()

	payload, err := json.Marshal(b)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO briefings (sentiment, payload, generated_at) VALUES ($1, $2, $3)`,
		string(b.Sentiment), payload, b.GeneratedAt,
	)
	return err
}

func (r *BriefingRepository) ListRecent(ctx context.Context, limit int) ([]domain.Briefing, error) {
	_, span := r.tracer.Start(ctx, "briefing-repo.list-recent")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT payload
		 FROM briefings
		 ORDER BY generated_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var briefings []domain.Briefing
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var b domain.Briefing
		if err := json.Unmarshal(payload, &b); err != nil {
			return nil, err
		}
		briefings = append(briefings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return briefings, nil
}

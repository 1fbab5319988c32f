// Package postgres implements the persistence ports over PostgreSQL.
package postgres

import (
	"context"

	"cyclewise/internal/config"
	"cyclewise/internal/errors"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect opens and verifies a PostgreSQL connection from config.
func Connect(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if cfg.URL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	db, err := sqlx.Connect(cfg.Driver, cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}
	return db, nil
}

// schema holds the engine's tables. Identity uniqueness on patterns is
// enforced in the database so concurrent detection runs cannot duplicate
// a finding.
const schema = `
CREATE TABLE IF NOT EXISTS observations (
	id UUID PRIMARY KEY,
	user_id TEXT NOT NULL,
	observed_at TIMESTAMPTZ NOT NULL,
	mood DOUBLE PRECISION,
	energy DOUBLE PRECISION,
	symptom_tags JSONB NOT NULL DEFAULT '[]',
	free_text TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_observations_user_time
	ON observations (user_id, observed_at);

CREATE TABLE IF NOT EXISTS cyclical_patterns (
	id UUID PRIMARY KEY,
	user_id TEXT NOT NULL,
	pattern_type TEXT NOT NULL,
	category_key TEXT NOT NULL,
	metric TEXT NOT NULL,
	observed_value DOUBLE PRECISION NOT NULL,
	baseline_value DOUBLE PRECISION NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	supporting_count INTEGER NOT NULL,
	first_seen TIMESTAMPTZ NOT NULL,
	last_seen TIMESTAMPTZ NOT NULL,
	finding_text TEXT NOT NULL DEFAULT '',
	UNIQUE (user_id, pattern_type, category_key, metric)
);

CREATE TABLE IF NOT EXISTS hypotheses (
	id UUID PRIMARY KEY,
	user_id TEXT NOT NULL,
	claim TEXT NOT NULL,
	evidence JSONB NOT NULL DEFAULT '[]',
	confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	is_stale BOOLEAN NOT NULL DEFAULT FALSE,
	confidence_history JSONB NOT NULL DEFAULT '[]',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_hypotheses_user
	ON hypotheses (user_id);
`

// EnsureSchema creates the engine's tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to ensure schema")
	}
	return nil
}

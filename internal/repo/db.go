package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Trinity/internal/config"
)

// NewPool создаёт пул соединений с PostgreSQL и проверяет доступность БД.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("new pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}

// Schema — DDL таблиц сервиса. Применяется через EnsureSchema при старте API.
const Schema = `
CREATE TABLE IF NOT EXISTS processes (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	is_active  BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS process_versions (
	process_id UUID NOT NULL REFERENCES processes(id) ON DELETE CASCADE,
	version    INT NOT NULL,
	definition TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (process_id, version)
);

CREATE TABLE IF NOT EXISTS process_layouts (
	process_id   UUID NOT NULL,
	version      INT NOT NULL,
	step_count   INT NOT NULL,
	level_count  INT NOT NULL,
	max_parallel INT NOT NULL,
	parse_error  TEXT NOT NULL DEFAULT '',
	unresolved   TEXT[] NOT NULL DEFAULT '{}',
	computed_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (process_id, version),
	FOREIGN KEY (process_id, version) REFERENCES process_versions(process_id, version) ON DELETE CASCADE
);
`

// EnsureSchema создаёт таблицы, если их ещё нет.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

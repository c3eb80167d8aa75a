package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var postgresMigrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS punch_users (
		user_id TEXT PRIMARY KEY,
		created_seq BIGSERIAL,
		created_at TIMESTAMPTZ NOT NULL,
		total_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
		current_started_at TIMESTAMPTZ,
		current_pause_started_at TIMESTAMPTZ,
		current_pauses JSONB NOT NULL DEFAULT '[]'::jsonb
	)`,
	`CREATE INDEX IF NOT EXISTS idx_punch_users_created_seq ON punch_users (created_seq)`,
	`CREATE TABLE IF NOT EXISTS punch_sessions (
		user_id TEXT NOT NULL REFERENCES punch_users(user_id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		id TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ NOT NULL,
		duration_hours DOUBLE PRECISION NOT NULL,
		pauses JSONB NOT NULL DEFAULT '[]'::jsonb,
		PRIMARY KEY (user_id, seq)
	)`,
}

var sqliteMigrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS punch_users (
		user_id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		total_hours REAL NOT NULL DEFAULT 0,
		current_started_at INTEGER,
		current_pause_started_at INTEGER,
		current_pauses TEXT NOT NULL DEFAULT '[]'
	)`,
	`CREATE TABLE IF NOT EXISTS punch_sessions (
		user_id TEXT NOT NULL REFERENCES punch_users(user_id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		id TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		ended_at INTEGER NOT NULL,
		duration_hours REAL NOT NULL,
		pauses TEXT NOT NULL DEFAULT '[]',
		PRIMARY KEY (user_id, seq)
	)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range postgresMigrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func RunSQLiteMigration(ctx context.Context, db *sql.DB) error {
	for _, s := range sqliteMigrationStatements {
		if _, err := db.ExecContext(ctx, strings.TrimSpace(s)); err != nil {
			return err
		}
	}
	return nil
}

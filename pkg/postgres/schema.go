package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema holds the statements applied by EnsureSchema, in order. Every
// statement is idempotent.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         UUID PRIMARY KEY,
		email      TEXT NOT NULL UNIQUE,
		password   TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS users_created_at_idx ON users (created_at DESC)`,
	`DO $$ BEGIN
		ALTER TABLE users ADD CONSTRAINT users_status_check CHECK (status IN ('pending', 'active', 'banned'));
	EXCEPTION WHEN duplicate_object THEN NULL;
	END $$`,
}

func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	for i, stmt := range Schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

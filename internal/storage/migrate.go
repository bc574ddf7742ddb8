package storage

import (
	"context"
	"fmt"
)

// Schema statements are applied in order and are idempotent. Foreign keys
// cascade so deleting an account (or a video) removes the rows that hang off
// it instead of stranding them.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	pseudo TEXT,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS videos (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	name TEXT NOT NULL,
	source TEXT NOT NULL,
	duration INTEGER NOT NULL DEFAULT 0,
	views INTEGER NOT NULL DEFAULT 0,
	enabled BOOLEAN NOT NULL DEFAULT TRUE,
	user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	format_1080 TEXT,
	format_720 TEXT,
	format_480 TEXT,
	format_360 TEXT,
	format_240 TEXT,
	format_144 TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS comments (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	body TEXT NOT NULL,
	user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	video_id BIGINT NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS videos_user_id_idx ON videos (user_id)`,
	`CREATE INDEX IF NOT EXISTS comments_video_id_idx ON comments (video_id)`,
}

// Migrate applies the schema. It is safe to call on every startup.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

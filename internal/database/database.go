package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mlukic/agora/internal/config"
)

func Connect(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return pool, nil
}

// Migrate creates the schema. Cascading deletes (server -> channel -> message
// -> attachment) are enforced here with foreign keys, not in application code.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username VARCHAR(30) NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			avatar TEXT,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS servers (
			id UUID PRIMARY KEY,
			name VARCHAR(50) NOT NULL UNIQUE,
			description VARCHAR(1000),
			owner_id UUID NOT NULL REFERENCES users(id),
			icon TEXT,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS server_members (
			server_id UUID NOT NULL REFERENCES servers(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			role VARCHAR(16) NOT NULL,
			joined_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (server_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS channels (
			id UUID PRIMARY KEY,
			server_id UUID NOT NULL REFERENCES servers(id) ON DELETE CASCADE,
			name VARCHAR(50) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE (server_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id UUID PRIMARY KEY,
			channel_id UUID NOT NULL REFERENCES channels(id) ON DELETE CASCADE,
			sender_id UUID NOT NULL REFERENCES users(id),
			text VARCHAR(2000) NOT NULL,
			sent_at TIMESTAMPTZ NOT NULL,
			is_edited BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS attachments (
			id UUID PRIMARY KEY,
			message_id UUID REFERENCES messages(id) ON DELETE CASCADE,
			display_name TEXT NOT NULL,
			stored_name TEXT NOT NULL,
			preview_name TEXT,
			size BIGINT NOT NULL,
			kind VARCHAR(16) NOT NULL,
			width INT,
			height INT,
			uploaded_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_channel_sent ON messages (channel_id, sent_at)`,
		`CREATE INDEX IF NOT EXISTS idx_attachments_stored ON attachments (stored_name)`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrating schema: %w", err)
		}
	}
	return nil
}

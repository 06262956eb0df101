package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
)

// schemaStatements bootstraps the storage schema on startup. Statements are
// idempotent so restarts and rolling deploys are safe.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS guild_settings (
		guild_id       TEXT PRIMARY KEY,
		payout_address TEXT NOT NULL,
		ticker_to      TEXT NOT NULL,
		network_to     TEXT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS payment_profiles (
		id            TEXT PRIMARY KEY,
		guild_id      TEXT NOT NULL,
		name          TEXT NOT NULL,
		role_id       TEXT NOT NULL DEFAULT '',
		duration_days INT  NOT NULL DEFAULT 0,
		parameters    JSONB NOT NULL DEFAULT '{}'::jsonb,
		donation      BOOLEAN NOT NULL DEFAULT FALSE,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS payment_profiles_guild_name_key
		ON payment_profiles (guild_id, LOWER(name));`,

	`CREATE TABLE IF NOT EXISTS payment_sessions (
		id              TEXT PRIMARY KEY,
		guild_id        TEXT NOT NULL,
		user_id         TEXT NOT NULL,
		profile_id      TEXT NOT NULL REFERENCES payment_profiles(id) ON DELETE CASCADE,
		gateway_id      TEXT NOT NULL UNIQUE,
		status          TEXT NOT NULL,
		status_url      TEXT NOT NULL,
		checkout_url    TEXT NOT NULL,
		webhook_url     TEXT NOT NULL DEFAULT '',
		expires_at      TIMESTAMPTZ NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL,
		last_checked_at TIMESTAMPTZ,
		last_status     TEXT NOT NULL DEFAULT '',
		last_payload    JSONB
	);`,
	`CREATE INDEX IF NOT EXISTS payment_sessions_expires_at_idx
		ON payment_sessions (expires_at);`,

	`CREATE TABLE IF NOT EXISTS subscriptions (
		id               TEXT PRIMARY KEY,
		guild_id         TEXT NOT NULL,
		user_id          TEXT NOT NULL,
		profile_id       TEXT NOT NULL REFERENCES payment_profiles(id) ON DELETE CASCADE,
		role_id          TEXT NOT NULL DEFAULT '',
		expires_at       TIMESTAMPTZ NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL,
		last_notified_at TIMESTAMPTZ,
		webhook_url      TEXT NOT NULL DEFAULT '',
		UNIQUE (guild_id, user_id, profile_id)
	);`,
	`CREATE INDEX IF NOT EXISTS subscriptions_expires_at_idx
		ON subscriptions (expires_at);`,
}

// EnsureSchema creates any missing tables and indexes.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver
)

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return db, nil
}

// Bootstrap applies the schema. Statements are idempotent so startup can run
// them unconditionally against a fresh or existing database.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS owners (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		continuity_triggered BOOLEAN NOT NULL DEFAULT FALSE,
		triggered_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS nominees (
		id UUID PRIMARY KEY,
		owner_id UUID NOT NULL REFERENCES owners(id),
		email TEXT NOT NULL,
		display_name TEXT NOT NULL,
		relationship TEXT NOT NULL,
		reference_code TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL,
		proof_document_ref TEXT,
		proof_document_name TEXT,
		verified_at TIMESTAMPTZ,
		rejected_at TIMESTAMPTZ,
		rejection_reason TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (owner_id, email)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_nominees_owner_status ON nominees (owner_id, status)`,
	`CREATE TABLE IF NOT EXISTS audit_events (
		id UUID PRIMARY KEY,
		nominee_id UUID NOT NULL,
		owner_id UUID NOT NULL,
		action TEXT NOT NULL,
		detail TEXT,
		subject_ref TEXT,
		source_ip TEXT NOT NULL,
		user_agent TEXT NOT NULL,
		device_class TEXT NOT NULL,
		status TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_nominee_ts ON audit_events (nominee_id, timestamp DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_owner_ts ON audit_events (owner_id, timestamp DESC)`,
	`CREATE TABLE IF NOT EXISTS assets (
		id UUID PRIMARY KEY,
		owner_id UUID NOT NULL REFERENCES owners(id),
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		release_condition TEXT NOT NULL,
		map_file_ref TEXT NOT NULL,
		encryption_key_hash TEXT NOT NULL,
		fragment_count INT NOT NULL,
		released_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_assets_owner_status ON assets (owner_id, status)`,
	`CREATE TABLE IF NOT EXISTS legacy_notes (
		id UUID PRIMARY KEY,
		owner_id UUID NOT NULL REFERENCES owners(id),
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		visibility TEXT NOT NULL,
		category TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notes_owner_visibility ON legacy_notes (owner_id, visibility)`,
}

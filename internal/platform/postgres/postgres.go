// Package postgres opens the database/sql connection pool used by the record
// and note stores, and owns the schema bootstrap.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// schema is the full DDL. Statements are idempotent so EnsureSchema can run
// on every startup.
//
// The partial unique index on archive_records closes the check-then-create
// race for the at-most-one-active-record invariant: two concurrent creates
// for the same asset reference cannot both commit while a non-terminal
// record exists.
const schema = `
CREATE TABLE IF NOT EXISTS archive_records (
    id UUID PRIMARY KEY,
    asset_ref TEXT NOT NULL,
    asset_type TEXT NOT NULL,
    status TEXT NOT NULL,
    file_name TEXT NOT NULL DEFAULT '',
    mime_type TEXT NOT NULL DEFAULT '',
    file_size_bytes BIGINT NOT NULL DEFAULT 0,
    is_private BOOLEAN NOT NULL DEFAULT FALSE,
    reason TEXT NOT NULL,
    reason_other TEXT NOT NULL DEFAULT '',
    public_description TEXT NOT NULL DEFAULT '',
    internal_notes TEXT NOT NULL DEFAULT '',
    file_checksum TEXT,
    classification_date TIMESTAMPTZ,
    late_archive BOOLEAN NOT NULL DEFAULT FALSE,
    prior_void_exists BOOLEAN NOT NULL DEFAULT FALSE,
    usage_detected BOOLEAN NOT NULL DEFAULT FALSE,
    file_missing BOOLEAN NOT NULL DEFAULT FALSE,
    integrity_mismatch BOOLEAN NOT NULL DEFAULT FALSE,
    modified_after_archive BOOLEAN NOT NULL DEFAULT FALSE,
    archived_while_in_use BOOLEAN NOT NULL DEFAULT FALSE,
    usage_count_at_archive INTEGER NOT NULL DEFAULT 0,
    archived_by TEXT NOT NULL DEFAULT '',
    deleted_date TIMESTAMPTZ,
    deleted_by TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS archive_records_active_asset
    ON archive_records (asset_ref)
    WHERE status IN ('queued', 'archived_public', 'archived_admin');

CREATE INDEX IF NOT EXISTS archive_records_status_idx
    ON archive_records (status);

CREATE INDEX IF NOT EXISTS archive_records_asset_ref_idx
    ON archive_records (asset_ref);

CREATE TABLE IF NOT EXISTS archive_notes (
    id UUID PRIMARY KEY,
    record_id UUID NOT NULL REFERENCES archive_records (id) ON DELETE CASCADE,
    author TEXT NOT NULL,
    note TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS archive_notes_record_idx
    ON archive_notes (record_id, created_at);

CREATE TABLE IF NOT EXISTS checksum_work (
    record_id UUID PRIMARY KEY,
    enqueued_at TIMESTAMPTZ NOT NULL,
    visible_at TIMESTAMPTZ NOT NULL,
    attempts INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS checksum_work_visible_idx
    ON checksum_work (visible_at);
`

// EnsureSchema applies the schema. Safe to run repeatedly.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

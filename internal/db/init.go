// Package db opens the Postgres database that backs the gallery API and
// creates its document tables.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Schema stores catalog records as JSONB documents keyed by their natural key.
const Schema = `
CREATE TABLE IF NOT EXISTS credentials (
    username TEXT PRIMARY KEY,
    password_hash TEXT NOT NULL,
    created TIMESTAMPTZ NOT NULL,
    password_last_updated TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS art_pieces (
    title TEXT PRIMARY KEY,
    doc JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS art_pieces_doc_idx ON art_pieces USING GIN (doc jsonb_path_ops);

CREATE TABLE IF NOT EXISTS psalms (
    number BIGINT PRIMARY KEY,
    doc JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS psalms_metadata (
    id BIGSERIAL PRIMARY KEY,
    doc JSONB NOT NULL
);
`

// InitPostgres opens dsn, checks the connection and applies Schema.
func InitPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate applies Schema. It is safe to run against an initialized database.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

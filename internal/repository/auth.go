// Package repository provides Postgres persistence for credentials and the
// art and psalm catalogs. Catalog records are stored as JSONB documents
// keyed by their natural key.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/cabellfineart/gallery-api/internal/models"
)

// uniqueViolation is the Postgres error code for a duplicate key.
const uniqueViolation = "23505"

// PostgresAuthRepository implements credential storage using a PostgreSQL database.
type PostgresAuthRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAuthRepository creates a new PostgresAuthRepository with the given database connection.
// db must be a valid *sql.DB connected to a PostgreSQL instance.
func NewPostgresAuthRepository(db *sql.DB) *PostgresAuthRepository {
	return &PostgresAuthRepository{DB: db}
}

// UserExists checks whether a credential with the specified username exists.
func (s *PostgresAuthRepository) UserExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM credentials WHERE username = $1)`,
		username,
	).Scan(&exists)
	return exists, err
}

// GetCredential loads the credential for username. A missing user yields a
// KeyError wrapping models.ErrNotFound.
func (s *PostgresAuthRepository) GetCredential(ctx context.Context, username string) (*models.Credential, error) {
	var c models.Credential
	err := s.DB.QueryRowContext(
		ctx,
		`SELECT username, password_hash, created, password_last_updated FROM credentials WHERE username = $1`,
		username,
	).Scan(&c.Username, &c.PasswordHash, &c.Created, &c.PasswordLastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.KeyError{Kind: "user", Key: username, Err: models.ErrNotFound}
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return &c, nil
}

// CreateCredential inserts c. A duplicate username yields a KeyError
// wrapping models.ErrConflict.
func (s *PostgresAuthRepository) CreateCredential(ctx context.Context, c models.Credential) error {
	_, err := s.DB.ExecContext(
		ctx,
		`INSERT INTO credentials (username, password_hash, created, password_last_updated) VALUES ($1, $2, $3, $4)`,
		c.Username, c.PasswordHash, c.Created, c.PasswordLastUpdated,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return &models.KeyError{Kind: "user", Key: c.Username, Err: models.ErrConflict}
	}
	if err != nil {
		return fmt.Errorf("create credential: %w", err)
	}
	return nil
}

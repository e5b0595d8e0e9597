package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/cabellfineart/gallery-api/internal/models"
)

const pieceKind = "piece"

// PostgresArtRepository stores art pieces in the art_pieces table.
type PostgresArtRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresArtRepository creates a new PostgresArtRepository using the provided *sql.DB.
func NewPostgresArtRepository(db *sql.DB) *PostgresArtRepository {
	return &PostgresArtRepository{DB: db}
}

// List returns every piece whose document contains the filter's collection
// and, when set, series, ordered by key.
func (s *PostgresArtRepository) List(ctx context.Context, filter models.ArtFilter) ([]models.ArtPiece, error) {
	match := map[string]string{"collection": filter.Collection}
	if filter.Series != nil {
		match["series"] = *filter.Series
	}
	containment, err := json.Marshal(match)
	if err != nil {
		return nil, fmt.Errorf("encode filter: %w", err)
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT doc FROM art_pieces WHERE doc @> $1::jsonb ORDER BY (doc->>'key')::bigint, title
	`, string(containment))
	if err != nil {
		return nil, fmt.Errorf("list pieces: %w", err)
	}
	defer rows.Close()

	var pieces []models.ArtPiece
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var p models.ArtPiece
		if err := json.Unmarshal(doc, &p); err != nil {
			return nil, fmt.Errorf("decode piece: %w", err)
		}
		pieces = append(pieces, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pieces: %w", err)
	}
	return pieces, nil
}

// Get returns the piece with the given title.
func (s *PostgresArtRepository) Get(ctx context.Context, title string) (*models.ArtPiece, error) {
	var doc []byte
	err := s.DB.QueryRowContext(ctx, `SELECT doc FROM art_pieces WHERE title = $1`, title).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.KeyError{Kind: pieceKind, Key: title, Err: models.ErrNotFound}
	}
	if err != nil {
		return nil, fmt.Errorf("get piece: %w", err)
	}
	var p models.ArtPiece
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("decode piece: %w", err)
	}
	return &p, nil
}

// Create inserts p unless a piece with the same title exists.
func (s *PostgresArtRepository) Create(ctx context.Context, p models.ArtPiece) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode piece: %w", err)
	}
	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO art_pieces (title, doc) VALUES ($1, $2::jsonb) ON CONFLICT (title) DO NOTHING
	`, p.Title, string(doc))
	if err != nil {
		return fmt.Errorf("create piece: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create piece: %w", err)
	}
	if n == 0 {
		return &models.KeyError{Kind: pieceKind, Key: p.Title, Err: models.ErrConflict}
	}
	return nil
}

// Replace overwrites the stored documents of pieces within one transaction.
// If any title is missing nothing is changed.
func (s *PostgresArtRepository) Replace(ctx context.Context, pieces ...models.ArtPiece) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, p := range pieces {
		doc, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode piece: %w", err)
		}
		res, err := tx.ExecContext(ctx, `UPDATE art_pieces SET doc = $2::jsonb WHERE title = $1`, p.Title, string(doc))
		if err != nil {
			return fmt.Errorf("replace piece: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("replace piece: %w", err)
		}
		if n == 0 {
			return &models.KeyError{Kind: pieceKind, Key: p.Title, Err: models.ErrNotFound}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Delete removes the piece with the given title. Deleting a missing piece is not an error.
func (s *PostgresArtRepository) Delete(ctx context.Context, title string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM art_pieces WHERE title = $1`, title); err != nil {
		return fmt.Errorf("delete piece: %w", err)
	}
	return nil
}

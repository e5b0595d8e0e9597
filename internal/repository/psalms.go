package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/cabellfineart/gallery-api/internal/models"
)

const psalmKind = "psalm"

// PostgresPsalmsRepository stores psalms and their display metadata.
type PostgresPsalmsRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresPsalmsRepository creates a new PostgresPsalmsRepository using the provided *sql.DB.
func NewPostgresPsalmsRepository(db *sql.DB) *PostgresPsalmsRepository {
	return &PostgresPsalmsRepository{DB: db}
}

// List returns all psalms ordered by number.
func (s *PostgresPsalmsRepository) List(ctx context.Context) ([]models.Psalm, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT doc FROM psalms ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("list psalms: %w", err)
	}
	defer rows.Close()

	psalms := []models.Psalm{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var p models.Psalm
		if err := json.Unmarshal(doc, &p); err != nil {
			return nil, fmt.Errorf("decode psalm: %w", err)
		}
		psalms = append(psalms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list psalms: %w", err)
	}
	return psalms, nil
}

// Get returns the psalm with the given number.
func (s *PostgresPsalmsRepository) Get(ctx context.Context, number int64) (*models.Psalm, error) {
	var doc []byte
	err := s.DB.QueryRowContext(ctx, `SELECT doc FROM psalms WHERE number = $1`, number).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.KeyError{Kind: psalmKind, Key: strconv.FormatInt(number, 10), Err: models.ErrNotFound}
	}
	if err != nil {
		return nil, fmt.Errorf("get psalm: %w", err)
	}
	var p models.Psalm
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("decode psalm: %w", err)
	}
	return &p, nil
}

// Create inserts p unless a psalm with the same number exists.
func (s *PostgresPsalmsRepository) Create(ctx context.Context, p models.Psalm) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode psalm: %w", err)
	}
	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO psalms (number, doc) VALUES ($1, $2::jsonb) ON CONFLICT (number) DO NOTHING
	`, p.Number, string(doc))
	if err != nil {
		return fmt.Errorf("create psalm: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create psalm: %w", err)
	}
	if n == 0 {
		return &models.KeyError{Kind: psalmKind, Key: strconv.FormatInt(p.Number, 10), Err: models.ErrConflict}
	}
	return nil
}

// Replace overwrites the stored documents of psalms within one transaction.
// If any number is missing nothing is changed.
func (s *PostgresPsalmsRepository) Replace(ctx context.Context, psalms ...models.Psalm) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, p := range psalms {
		doc, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode psalm: %w", err)
		}
		res, err := tx.ExecContext(ctx, `UPDATE psalms SET doc = $2::jsonb WHERE number = $1`, p.Number, string(doc))
		if err != nil {
			return fmt.Errorf("replace psalm: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("replace psalm: %w", err)
		}
		if n == 0 {
			return &models.KeyError{Kind: psalmKind, Key: strconv.FormatInt(p.Number, 10), Err: models.ErrNotFound}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Delete removes the psalm with the given number. Deleting a missing psalm is not an error.
func (s *PostgresPsalmsRepository) Delete(ctx context.Context, number int64) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM psalms WHERE number = $1`, number); err != nil {
		return fmt.Errorf("delete psalm: %w", err)
	}
	return nil
}

// ListMetadata returns the psalms display metadata documents in insertion order.
func (s *PostgresPsalmsRepository) ListMetadata(ctx context.Context) ([]json.RawMessage, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT doc FROM psalms_metadata ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list psalms metadata: %w", err)
	}
	defer rows.Close()

	docs := []json.RawMessage{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		docs = append(docs, json.RawMessage(doc))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list psalms metadata: %w", err)
	}
	return docs, nil
}

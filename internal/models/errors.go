package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no record matches a natural key or filter.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a record with the same natural key already exists.
	ErrConflict = errors.New("already exists")
)

// KeyError ties a repository failure to the record it concerns.
type KeyError struct {
	// Kind is the record type, e.g. "piece" or "psalm".
	Kind string
	// Key is the natural key rendered as text.
	Key string
	Err error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Key, e.Err)
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

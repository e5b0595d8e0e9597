// Package models defines the catalog and credential records stored by the gallery API.
package models

import (
	"math"
	"time"
)

const (
	// SeriesNone is the sentinel stored when a piece does not belong to a series.
	SeriesNone = "None"
	// PsalmsCollection is the collection whose pieces must name a series.
	PsalmsCollection = "Psalms"
)

// ArtPiece is a single artwork as stored in the art_pieces collection.
type ArtPiece struct {
	// Key is the display order within a series.
	Key int64 `json:"key"`
	// Title is the natural key of the piece.
	Title  string `json:"title"`
	Medium string `json:"medium"`
	Size   string `json:"size"`
	// Price is stored in cents.
	Price      int64  `json:"price"`
	Collection string `json:"collection"`
	Series     string `json:"series"`
	// Path is the base filename for the piece's images.
	Path string `json:"path"`
}

// PieceView is the public rendering of an ArtPiece.
type PieceView struct {
	Key    int64   `json:"key"`
	Title  string  `json:"title"`
	Medium string  `json:"medium"`
	Size   string  `json:"size"`
	Price  float64 `json:"price"`
	Path   string  `json:"path"`
}

// View strips the grouping fields and renders the price in major units.
func (p ArtPiece) View() PieceView {
	return PieceView{
		Key:    p.Key,
		Title:  p.Title,
		Medium: p.Medium,
		Size:   p.Size,
		Price:  CentsToMajor(p.Price),
		Path:   p.Path,
	}
}

// ArtFilter selects pieces by exact match on collection and, optionally, series.
type ArtFilter struct {
	Collection string
	Series     *string
}

// Paragraph is one paragraph of a psalm statement.
type Paragraph struct {
	Key  int64  `json:"key"`
	Text string `json:"text"`
}

// Statement is the artist statement attached to a psalm.
type Statement struct {
	Title string      `json:"title"`
	Text  []Paragraph `json:"text"`
}

// Psalm is a devotional image record keyed by its number.
type Psalm struct {
	Number             int64      `json:"number"`
	DemoThumbnailColor string     `json:"demoThumbnailColor"`
	Statement          *Statement `json:"statement,omitempty"`
	DemoPath           string     `json:"demoPath"`
	ThumbnailPath      string     `json:"thumbnailPath"`
}

// Credential is an administrator login.
type Credential struct {
	Username            string
	PasswordHash        string
	Created             time.Time
	PasswordLastUpdated time.Time
}

// MajorToCents converts a major-unit amount to cents, rounding half to even.
func MajorToCents(v float64) int64 {
	return int64(math.RoundToEven(v * 100))
}

// CentsToMajor converts cents back to a major-unit amount.
func CentsToMajor(c int64) float64 {
	return float64(c) / 100
}

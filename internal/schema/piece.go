package schema

import (
	"math"
	"strconv"
	"strings"

	"github.com/cabellfineart/gallery-api/internal/models"
)

var pieceFields = []string{"key", "title", "medium", "size", "price", "collection", "series"}

const (
	msgKeyNegative    = "Key must be nonnegative"
	msgPriceRange     = "Price is out of range"
	msgSeriesRequired = "Series required for pieces in Psalms collection"
	msgTitleUnsafe    = "Title must contain at least one letter or digit"
)

// Piece validates a single art piece and returns it with the price in cents
// and the image path derived from the title.
func Piece(raw any) (*models.ArtPiece, error) {
	p, errs := piece(raw)
	if len(errs) > 0 {
		return nil, errs
	}
	return p, nil
}

// Pieces validates either a single piece or a list of pieces. Errors for a
// list are keyed by element index.
func Pieces(raw any) ([]models.ArtPiece, error) {
	items, ok := raw.([]any)
	if !ok {
		p, err := Piece(raw)
		if err != nil {
			return nil, err
		}
		return []models.ArtPiece{*p}, nil
	}

	out := make([]models.ArtPiece, 0, len(items))
	errs := Errors{}
	for i, item := range items {
		p, sub := piece(item)
		if len(sub) > 0 {
			errs.Nest(strconv.Itoa(i), sub)
			continue
		}
		out = append(out, *p)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

func piece(raw any) (*models.ArtPiece, Errors) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, invalidInput()
	}

	errs := Errors{}
	rejectUnknown(obj, pieceFields, errs)

	key, ok := intField(obj, "key", true, errs)
	if ok && key < 0 {
		errs.Add("key", msgKeyNegative)
	}
	title, _ := stringField(obj, "title", true, errs)
	medium, _ := stringField(obj, "medium", true, errs)
	size, _ := stringField(obj, "size", true, errs)
	price, ok := floatField(obj, "price", true, errs)
	if ok && !inInt64(math.RoundToEven(price*100)) {
		errs.Add("price", msgPriceRange)
	}
	collection, _ := stringField(obj, "collection", true, errs)
	series := models.SeriesNone
	if s, ok := stringField(obj, "series", false, errs); ok {
		series = s
	}
	if len(errs) > 0 {
		return nil, errs
	}

	if collection == models.PsalmsCollection && series == models.SeriesNone {
		return nil, Errors{SchemaKey: []string{msgSeriesRequired}}
	}

	path := SecureFilename(strings.ToLower(title))
	if path == "" {
		return nil, Errors{"title": []string{msgTitleUnsafe}}
	}

	return &models.ArtPiece{
		Key:        key,
		Title:      title,
		Medium:     medium,
		Size:       size,
		Price:      models.MajorToCents(price),
		Collection: collection,
		Series:     series,
		Path:       path,
	}, nil
}

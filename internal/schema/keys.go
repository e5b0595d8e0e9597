package schema

import "github.com/cabellfineart/gallery-api/internal/models"

// Title validates a {"title": ...} body naming a piece.
func Title(raw any) (string, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return "", invalidInput()
	}
	errs := Errors{}
	rejectUnknown(obj, []string{"title"}, errs)
	title, _ := stringField(obj, "title", true, errs)
	if len(errs) > 0 {
		return "", errs
	}
	return title, nil
}

// Number validates a {"number": ...} body naming a psalm.
func Number(raw any) (int64, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return 0, invalidInput()
	}
	errs := Errors{}
	rejectUnknown(obj, []string{"number"}, errs)
	number, _ := intField(obj, "number", true, errs)
	if len(errs) > 0 {
		return 0, errs
	}
	return number, nil
}

// Filter reads the art listing filter. Keys other than collection and series
// are ignored, as are null values; a missing collection yields an empty
// Collection.
func Filter(raw any) (models.ArtFilter, error) {
	var f models.ArtFilter
	if raw == nil {
		return f, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return f, invalidInput()
	}
	errs := Errors{}
	if obj["collection"] != nil {
		f.Collection, _ = stringField(obj, "collection", false, errs)
	}
	if obj["series"] != nil {
		if s, ok := stringField(obj, "series", false, errs); ok {
			f.Series = &s
		}
	}
	if len(errs) > 0 {
		return models.ArtFilter{}, errs
	}
	return f, nil
}

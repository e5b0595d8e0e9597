package schema

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/cabellfineart/gallery-api/internal/models"
)

// HexColorPattern matches #RGB and #RRGGBB colors.
var HexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}){1,2}$`)

var (
	psalmFields     = []string{"number", "demoThumbnailColor", "statement"}
	statementFields = []string{"title", "text"}
	paragraphFields = []string{"key", "text"}
)

const (
	msgNumberNotPositive = "Number must be positive"
	msgBadColor          = "Demo thumbnail color is not a valid hex color code"
)

// Psalm validates a single psalm and derives its image paths from its number.
func Psalm(raw any) (*models.Psalm, error) {
	p, errs := psalm(raw)
	if len(errs) > 0 {
		return nil, errs
	}
	return p, nil
}

// Psalms validates either a single psalm or a list of psalms.
func Psalms(raw any) ([]models.Psalm, error) {
	items, ok := raw.([]any)
	if !ok {
		p, err := Psalm(raw)
		if err != nil {
			return nil, err
		}
		return []models.Psalm{*p}, nil
	}

	out := make([]models.Psalm, 0, len(items))
	errs := Errors{}
	for i, item := range items {
		p, sub := psalm(item)
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

func psalm(raw any) (*models.Psalm, Errors) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, invalidInput()
	}

	errs := Errors{}
	rejectUnknown(obj, psalmFields, errs)

	number, ok := intField(obj, "number", true, errs)
	if ok && number <= 0 {
		errs.Add("number", msgNumberNotPositive)
	}
	color, ok := stringField(obj, "demoThumbnailColor", true, errs)
	if ok && !HexColorPattern.MatchString(color) {
		errs.Add("demoThumbnailColor", msgBadColor)
	}

	var st *models.Statement
	if v, ok := lookup(obj, "statement", false, errs); ok {
		var sub Errors
		st, sub = statement(v)
		errs.Nest("statement", sub)
	}
	if len(errs) > 0 {
		return nil, errs
	}

	return &models.Psalm{
		Number:             number,
		DemoThumbnailColor: color,
		Statement:          st,
		DemoPath:           SecureFilename(fmt.Sprintf("%d-demo", number)),
		ThumbnailPath:      SecureFilename(fmt.Sprintf("%d-thumbnail", number)),
	}, nil
}

func statement(raw any) (*models.Statement, Errors) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, invalidInput()
	}

	errs := Errors{}
	rejectUnknown(obj, statementFields, errs)

	title, _ := stringField(obj, "title", true, errs)

	var paragraphs []models.Paragraph
	if v, ok := lookup(obj, "text", false, errs); ok {
		items, isList := v.([]any)
		if !isList {
			errs.Add("text", msgList)
		} else {
			itemErrs := Errors{}
			paragraphs = make([]models.Paragraph, 0, len(items))
			for i, item := range items {
				p, sub := paragraph(item)
				if len(sub) > 0 {
					itemErrs.Nest(strconv.Itoa(i), sub)
					continue
				}
				paragraphs = append(paragraphs, p)
			}
			errs.Nest("text", itemErrs)
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return &models.Statement{Title: title, Text: paragraphs}, nil
}

func paragraph(raw any) (models.Paragraph, Errors) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return models.Paragraph{}, invalidInput()
	}

	errs := Errors{}
	rejectUnknown(obj, paragraphFields, errs)

	key, ok := intField(obj, "key", true, errs)
	if ok && key < 0 {
		errs.Add("key", msgKeyNegative)
	}
	text, _ := stringField(obj, "text", true, errs)
	if len(errs) > 0 {
		return models.Paragraph{}, errs
	}
	return models.Paragraph{Key: key, Text: text}, nil
}

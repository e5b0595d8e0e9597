// Package schema validates and normalizes the JSON payloads accepted by the
// gallery API. Validators work on untyped input (the result of decoding a
// request body into `any`) and either return a normalized record or an
// Errors value describing every problem found.
//
// Checks run in two passes. The field pass reports missing, unknown, null and
// mistyped fields together with per-field range checks. The schema pass
// (cross-field rules) runs only when the field pass is clean. Derived fields
// are computed last.
package schema

import (
	"sort"
	"strings"
)

// SchemaKey holds errors that concern the record as a whole.
const SchemaKey = "_schema"

const (
	msgRequired    = "Missing data for required field."
	msgUnknown     = "Unknown field."
	msgNull        = "Field may not be null."
	msgInvalidType = "Invalid input type."
	msgString      = "Not a valid string."
	msgInteger     = "Not a valid integer."
	msgNumber      = "Not a valid number."
	msgSpecial     = "Special numeric values (nan or infinity) are not permitted."
	msgList        = "Not a valid list."
)

// Errors maps a field name to its messages ([]string) or, for nested objects
// and sequences, to another Errors keyed by field name or element index.
type Errors map[string]any

// Error lists the offending top-level fields.
func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for k := range e {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// Add appends msg to the messages of field.
func (e Errors) Add(field, msg string) {
	msgs, _ := e[field].([]string)
	e[field] = append(msgs, msg)
}

// Nest attaches sub under field when it is not empty.
func (e Errors) Nest(field string, sub Errors) {
	if len(sub) > 0 {
		e[field] = sub
	}
}

// Messages returns the messages recorded directly under field.
func (e Errors) Messages(field string) []string {
	msgs, _ := e[field].([]string)
	return msgs
}

// Sub returns the nested errors recorded under field, if any.
func (e Errors) Sub(field string) Errors {
	sub, _ := e[field].(Errors)
	return sub
}

func invalidInput() Errors {
	return Errors{SchemaKey: []string{msgInvalidType}}
}

package schema

import (
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// rejectUnknown records an error for every key of obj not listed in allowed.
func rejectUnknown(obj map[string]any, allowed []string, errs Errors) {
	for k := range obj {
		known := false
		for _, a := range allowed {
			if k == a {
				known = true
				break
			}
		}
		if !known {
			errs.Add(k, msgUnknown)
		}
	}
}

// lookup reports whether name is present and non-null, recording the
// required and null errors.
func lookup(obj map[string]any, name string, required bool, errs Errors) (any, bool) {
	v, present := obj[name]
	if !present {
		if required {
			errs.Add(name, msgRequired)
		}
		return nil, false
	}
	if v == nil {
		errs.Add(name, msgNull)
		return nil, false
	}
	return v, true
}

func stringField(obj map[string]any, name string, required bool, errs Errors) (string, bool) {
	v, ok := lookup(obj, name, required, errs)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		errs.Add(name, msgString)
		return "", false
	}
	return s, true
}

func intField(obj map[string]any, name string, required bool, errs Errors) (int64, bool) {
	v, ok := lookup(obj, name, required, errs)
	if !ok {
		return 0, false
	}
	n, ok := toInt(v)
	if !ok {
		errs.Add(name, msgInteger)
		return 0, false
	}
	return n, true
}

func floatField(obj map[string]any, name string, required bool, errs Errors) (float64, bool) {
	v, ok := lookup(obj, name, required, errs)
	if !ok {
		return 0, false
	}
	f, ok := toFloat(v)
	if !ok {
		errs.Add(name, msgNumber)
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		errs.Add(name, msgSpecial)
		return 0, false
	}
	return f, true
}

// toInt accepts JSON numbers and numeric strings with an integral value.
func toInt(v any) (int64, bool) {
	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = strings.TrimSpace(t)
	case float64:
		if t != math.Trunc(t) || !inInt64(t) {
			return 0, false
		}
		return int64(t), true
	case int:
		return int64(t), true
	case int64:
		return t, true
	default:
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || !inInt64(f) {
		return 0, false
	}
	return int64(f), true
}

// inInt64 reports whether f converts to int64 without wrapping.
// float64(math.MaxInt64) rounds up to 2^63, which is already out of range.
func inInt64(f float64) bool {
	return f >= math.MinInt64 && f < math.MaxInt64
}

// toFloat accepts JSON numbers and numeric strings.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}

package schema

import (
	"fmt"
	"strings"
)

// Raw is one decoded JSON object from a notes or question-bank payload.
// The supported source formats disagree on field names, so every read
// goes through a first-non-empty key probe.
type Raw map[string]any

// str returns the first non-empty string value among keys. Scalar
// numbers and bools are stringified the way the source data uses them
// (answer keys like 1 or difficulty codes like 3 arrive as numbers).
func (r Raw) str(keys ...string) string {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		s := scalarString(v)
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// has reports whether any of the keys is present, regardless of value.
func (r Raw) has(keys ...string) bool {
	for _, k := range keys {
		if _, ok := r[k]; ok {
			return true
		}
	}
	return false
}

// slice returns the first value among keys that is a JSON array.
func (r Raw) slice(keys ...string) ([]any, bool) {
	for _, k := range keys {
		if arr, ok := r[k].([]any); ok {
			return arr, true
		}
	}
	return nil, false
}

// object returns the first value among keys that is a JSON object.
func (r Raw) object(keys ...string) (Raw, bool) {
	for _, k := range keys {
		if m, ok := r[k].(map[string]any); ok {
			return Raw(m), true
		}
	}
	return nil, false
}

// flag reports whether any of the keys holds a truthy marker.
func (r Raw) flag(keys ...string) bool {
	for _, k := range keys {
		if b, ok := r[k].(bool); ok && b {
			return true
		}
	}
	return false
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case bool:
		return fmt.Sprintf("%v", t)
	default:
		return ""
	}
}

// asRaw coerces one array element to a Raw object when possible.
func asRaw(v any) (Raw, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return Raw(m), true
}

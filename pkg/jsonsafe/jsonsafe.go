// Package jsonsafe deeply normalizes arbitrary values for JSON encoding:
// NaN and ±Inf become nil, timestamps become ISO-8601 strings, and maps
// and slices are walked recursively. encoding/json rejects non-finite
// floats outright, so every response built from dataset cells or
// statistics passes through Sanitize first.
package jsonsafe

import (
	"fmt"
	"math"
	"reflect"
	"time"
)

// Sanitize returns a JSON-safe copy of v. Scalars pass through unchanged
// except for non-finite floats (nil) and time.Time (RFC 3339 string).
// Maps and slices are normalized depth-first; map keys are converted to
// strings via their native formatting.
func Sanitize(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		return val
	case float32:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return f
	case time.Time:
		return val.Format(time.RFC3339)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Sanitize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Sanitize(item)
		}
		return out
	}

	// Other map and slice shapes (map[string]float64 and friends) are
	// handled reflectively.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key, ok := iter.Key().Interface().(string)
			if !ok {
				key = fmt.Sprint(iter.Key().Interface())
			}
			out[key] = Sanitize(iter.Value().Interface())
		}
		return out
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = Sanitize(rv.Index(i).Interface())
		}
		return out
	}

	return v
}

// Records sanitizes a slice of row records in place-order, returning a
// JSON-safe copy.
func Records(records []map[string]any) []map[string]any {
	out := make([]map[string]any, len(records))
	for i, rec := range records {
		clean := make(map[string]any, len(rec))
		for k, v := range rec {
			clean[k] = Sanitize(v)
		}
		out[i] = clean
	}
	return out
}

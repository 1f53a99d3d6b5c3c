// Package normalize extracts canonical token records from the heterogeneous
// payload shapes the upstream wrapper returns. Every downstream component
// consumes one shape; the envelope juggling lives here and nowhere else.
package normalize

import (
	"strconv"
	"strings"
)

// Container keys tried in priority order, per upstream source.
var (
	TrendingKeys   = []string{"tokens", "rank"}
	PairKeys       = []string{"pairs", "tokens"}
	CompletionKeys = []string{"tokens", "rank"}
	BuyerKeys      = []string{"top_buyers"}
)

// ErrorMessage reports whether a raw payload is an upstream error marker
// ({"error": "..."}) and returns the message when it is.
func ErrorMessage(raw any) (string, bool) {
	m, ok := raw.(map[string]any)
	if !ok {
		return "", false
	}
	v, ok := m["error"]
	if !ok || v == nil {
		return "", false
	}
	return AsString(v), true
}

// ExtractList locates the record list inside a raw upstream payload. It
// tries the given container keys in order inside a map envelope, accepts a
// bare list, and treats error markers or anything unrecognized as an
// explicit empty list. Elements that are not objects are dropped.
func ExtractList(raw any, keys ...string) []map[string]any {
	switch v := raw.(type) {
	case map[string]any:
		if _, isErr := ErrorMessage(v); isErr {
			return nil
		}
		for _, key := range keys {
			if list, ok := v[key].([]any); ok {
				return toObjects(list)
			}
		}
		return nil
	case []any:
		return toObjects(v)
	default:
		return nil
	}
}

// ExtractObject unwraps a nested object envelope: if the payload carries one
// of the given keys pointing at an object, that object wins; otherwise the
// payload itself is returned when it is an object. Error markers yield nil.
func ExtractObject(raw any, keys ...string) map[string]any {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	if _, isErr := ErrorMessage(m); isErr {
		return nil
	}
	for _, key := range keys {
		if inner, ok := m[key].(map[string]any); ok {
			return inner
		}
	}
	return m
}

func toObjects(list []any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

// CoerceFloat converts a loosely typed upstream value to a float64. Absent
// values (nil, empty string) coerce to 0 and are considered valid; a
// non-empty string that fails to parse, or a structured value, is invalid.
func CoerceFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AsFloat is the fail-soft variant of CoerceFloat: anything unusable is 0.
func AsFloat(v any) float64 {
	f, _ := CoerceFloat(v)
	return f
}

// AsInt fail-soft converts to int.
func AsInt(v any) int {
	return int(AsFloat(v))
}

// AsString returns the value as a string, or "" for anything non-textual.
func AsString(v any) string {
	s, _ := v.(string)
	return s
}

// AsBool applies upstream truthiness: true booleans, non-zero numbers and
// the strings "true"/"1" all count.
func AsBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true" || b == "1"
	default:
		return AsFloat(v) != 0
	}
}

// OptFloat returns a pointer to the numeric value under key, or nil when the
// field is absent, null, or unusable. Callers use it where a genuine zero
// must stay distinguishable from a missing field.
func OptFloat(m map[string]any, key string) *float64 {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	f, valid := CoerceFloat(v)
	if !valid {
		return nil
	}
	return &f
}

// OptBool returns a pointer to the truthiness of the value under key, or nil
// when the field is absent or null.
func OptBool(m map[string]any, key string) *bool {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	b := AsBool(v)
	return &b
}

package resource

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Row is a single record as read from or written to the row store.
// Keys are column names; relation payloads are stored under the relation name.
type Row map[string]any

// Int64 returns the integer value under key.
func (r Row) Int64(key string) (int64, bool) {
	v, ok := r[key]
	if !ok {
		return 0, false
	}
	return ToInt64(v)
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ToInt64 converts the numeric shapes produced by database/sql and encoding/json
// into an int64. Floats must be integral; strings must be plain base-10 integers.
func ToInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	}
	return 0, false
}

// ToBool interprets SQLite-style integers and JSON booleans.
func ToBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "1" || strings.EqualFold(b, "true")
	}
	if i, ok := ToInt64(v); ok {
		return i != 0
	}
	return false
}

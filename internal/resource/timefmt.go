package resource

import (
	"fmt"
	"strings"
	"time"
)

// Layouts accepted for time-typed input, tried in order. Layouts without a zone
// are interpreted in the caller's location.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime parses a loosely formatted time value. loc may be nil for UTC.
func ParseTime(v any, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if parsed, err := time.ParseInLocation(layout, s, loc); err == nil {
				return parsed, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognised time %q", s)
	}
	return time.Time{}, fmt.Errorf("unsupported time value %v (%T)", v, v)
}

// CanonicalTime renders t the way the row store persists timestamps:
// RFC3339 in UTC, which keeps lexical and chronological order identical.
func CanonicalTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// NormalizeTime parses v in loc and returns its canonical form.
func NormalizeTime(v any, loc *time.Location) (string, error) {
	t, err := ParseTime(v, loc)
	if err != nil {
		return "", err
	}
	return CanonicalTime(t), nil
}

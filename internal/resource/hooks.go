package resource

import (
	"bytes"
	"context"
	"time"

	"github.com/sadopc/worklog/internal/apperr"
	"github.com/yuin/goldmark"
)

// Hook transforms a payload before it is persisted or a row before it is returned.
type Hook func(ctx context.Context, row Row) (Row, error)

var markdown = goldmark.New()

// RenderMarkdown stores the HTML rendering of the markdown in field under field+"_html".
func RenderMarkdown(field string) Hook {
	return func(_ context.Context, row Row) (Row, error) {
		src, ok := row[field].(string)
		if !ok || src == "" {
			return row, nil
		}
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(src), &buf); err != nil {
			return nil, err
		}
		out := row.Clone()
		out[field+"_html"] = buf.String()
		return out, nil
	}
}

// IntervalBounds rejects payloads whose end_at is before start_at or more than
// maxLength after it. Missing bounds are left to the required rules.
func IntervalBounds(maxLength time.Duration) Hook {
	return func(_ context.Context, row Row) (Row, error) {
		if row["start_at"] == nil || row["end_at"] == nil {
			return row, nil
		}
		start, err := ParseTime(row["start_at"], nil)
		if err != nil {
			return nil, apperr.Invalid("invalid interval: %v", err)
		}
		end, err := ParseTime(row["end_at"], nil)
		if err != nil {
			return nil, apperr.Invalid("invalid interval: %v", err)
		}
		if end.Before(start) || end.Sub(start) > maxLength {
			return nil, apperr.Invalid("invalid interval")
		}
		return row, nil
	}
}

// Set returns a hook that forces key to value, e.g. marking manual intervals.
func Set(key string, value any) Hook {
	return func(_ context.Context, row Row) (Row, error) {
		out := row.Clone()
		out[key] = value
		return out, nil
	}
}

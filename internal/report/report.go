package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sadopc/worklog/internal/apperr"
)

// DateLayout is the key format of per-day buckets.
const DateLayout = "2006-01-02"

// Filter selects the raw rows a report is built from.
type Filter struct {
	UserIDs    []int64
	ProjectIDs []int64
	// Start is inclusive, End exclusive.
	Start time.Time
	End   time.Time
	// Visible limits rows to what the requesting actor may list. Nil means
	// every row is visible.
	Visible *Visibility
}

// Visibility is the row scope of a report: intervals on one of Projects, or
// owned by Owner when Owner is non-zero. An empty Visibility matches nothing.
type Visibility struct {
	Projects []int64
	Owner    int64
}

// Params controls how rows are bucketed.
type Params struct {
	Start    time.Time
	End      time.Time
	Location *time.Location
}

func (p Params) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// Validate rejects empty or inverted ranges.
func (p Params) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return apperr.Invalid("start_at and end_at are required")
	}
	if !p.End.After(p.Start) {
		return apperr.Invalid("end_at must be after start_at")
	}
	return nil
}

func (p Params) inRange(t time.Time) bool {
	if !p.Start.IsZero() && t.Before(p.Start) {
		return false
	}
	if !p.End.IsZero() && !t.Before(p.End) {
		return false
	}
	return true
}

// Source supplies raw report rows. The row store implements it.
type Source interface {
	ProjectRows(ctx context.Context, f Filter) ([]ProjectRow, error)
	TimeUseRows(ctx context.Context, f Filter) ([]TimeUseRow, error)
	Intervals(ctx context.Context, f Filter) ([]Interval, error)
}

// Engine fetches rows from a Source and aggregates them.
type Engine struct {
	Source Source
}

func (e Engine) Project(ctx context.Context, f Filter, loc *time.Location) ([]ProjectBucket, error) {
	p := Params{Start: f.Start, End: f.End, Location: loc}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	rows, err := e.Source.ProjectRows(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("project report rows: %w", err)
	}
	return ProjectReport(rows, p)
}

func (e Engine) TimeUse(ctx context.Context, f Filter, loc *time.Location) ([]UserBucket, error) {
	p := Params{Start: f.Start, End: f.End, Location: loc}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	rows, err := e.Source.TimeUseRows(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("time use rows: %w", err)
	}
	return TimeUseReport(rows, p)
}

func (e Engine) Dashboard(ctx context.Context, f Filter, loc *time.Location, o Order) ([]DashboardRow, error) {
	p := Params{Start: f.Start, End: f.End, Location: loc}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	intervals, err := e.Source.Intervals(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("dashboard intervals: %w", err)
	}
	return Dashboard(intervals, p, o), nil
}

func (e Engine) Total(ctx context.Context, f Filter) (TotalResult, error) {
	if err := (Params{Start: f.Start, End: f.End}).Validate(); err != nil {
		return TotalResult{}, err
	}
	intervals, err := e.Source.Intervals(ctx, f)
	if err != nil {
		return TotalResult{}, fmt.Errorf("total intervals: %w", err)
	}
	return Total(intervals), nil
}

// intervalJSON is one element of a row's intervals array.
type intervalJSON struct {
	ID      *int64 `json:"id"`
	StartAt string `json:"start_at"`
	EndAt   string `json:"end_at"`
}

type parsedInterval struct {
	start time.Time
	// seconds may be negative when end precedes start.
	seconds int64
}

func decodeIntervals(raw string) ([]parsedInterval, error) {
	if raw == "" {
		return nil, nil
	}
	var items []intervalJSON
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, apperr.MalformedRow("intervals", err)
	}
	out := make([]parsedInterval, 0, len(items))
	for _, it := range items {
		if it.ID == nil {
			continue
		}
		start, err := time.Parse(time.RFC3339, it.StartAt)
		if err != nil {
			return nil, apperr.MalformedRow("intervals", err)
		}
		end, err := time.Parse(time.RFC3339, it.EndAt)
		if err != nil {
			return nil, apperr.MalformedRow("intervals", err)
		}
		out = append(out, parsedInterval{start: start, seconds: Seconds(start, end)})
	}
	return out, nil
}

// Seconds is the whole-second length of [start, end]. It is negative when end
// precedes start.
func Seconds(start, end time.Time) int64 {
	return int64(end.Sub(start) / time.Second)
}

package item

import (
	"context"
	"time"

	"github.com/sadopc/worklog/internal/query"
	"github.com/sadopc/worklog/internal/resource"
)

// RowStore executes query plans and writes rows.
type RowStore interface {
	Execute(ctx context.Context, plan query.Plan) ([]resource.Row, error)
	Count(ctx context.Context, plan query.Plan) (int64, error)
	// Persist inserts row when it carries no primary key and updates it otherwise.
	// It returns the row as stored.
	Persist(ctx context.Context, res *resource.Resource, row resource.Row) (resource.Row, error)
	// Delete soft-deletes when the resource supports it.
	Delete(ctx context.Context, res *resource.Resource, id int64) error
	// WithinTx runs fn in a transaction carried by the context it receives.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Validator checks a payload against a resource's rule strings.
type Validator interface {
	Validate(ctx context.Context, rules map[string]string, payload resource.Row, partial bool) error
}

// Option adjusts a single service call.
type Option func(*options)

type options struct {
	before   []resource.Hook
	after    []resource.Hook
	location *time.Location
}

// WithBefore runs hooks, in order, on the payload of create and edit calls
// after validation and before anything is written.
func WithBefore(hooks ...resource.Hook) Option {
	return func(o *options) { o.before = append(o.before, hooks...) }
}

// WithAfter runs hooks, in order, on every row a call returns.
func WithAfter(hooks ...resource.Hook) Option {
	return func(o *options) { o.after = append(o.after, hooks...) }
}

// WithLocation sets the timezone used for time values that carry none.
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.location = loc }
}

func (s *Service) options(opts []Option) options {
	o := options{location: s.Location}
	for _, opt := range opts {
		opt(&o)
	}
	if o.location == nil {
		o.location = time.UTC
	}
	return o
}

func runHooks(ctx context.Context, hooks []resource.Hook, row resource.Row) (resource.Row, error) {
	var err error
	for _, h := range hooks {
		row, err = h(ctx, row)
		if err != nil {
			return nil, err
		}
	}
	return row, nil
}

func runHooksAll(ctx context.Context, hooks []resource.Hook, rows []resource.Row) ([]resource.Row, error) {
	if len(hooks) == 0 {
		return rows, nil
	}
	out := make([]resource.Row, len(rows))
	for i, r := range rows {
		h, err := runHooks(ctx, hooks, r)
		if err != nil {
			return nil, err
		}
		out[i] = h
	}
	return out, nil
}

// ListParams are the query-string style inputs of a list or count call.
type ListParams struct {
	Filters     query.FilterSpec
	With        []string
	WithDeleted bool
	Paginate    bool
	Page        int
	PerPage     int
	OrderBy     string
	OrderDir    string
}

// Page is one page of a paginated list.
type Page struct {
	Items       []resource.Row `json:"data"`
	Total       int64          `json:"total"`
	CurrentPage int            `json:"current_page"`
	PerPage     int            `json:"per_page"`
	LastPage    int            `json:"last_page"`
}

// ListResult holds either the full row set or a page of it.
type ListResult struct {
	Rows []resource.Row
	Page *Page
}

// Edit is one entry of a bulk edit.
type Edit struct {
	ID      any
	Payload resource.Row
}

// BulkResult partitions the requested ids of a bulk call.
type BulkResult struct {
	Done     []int64 `json:"done"`
	NotFound []int64 `json:"not_found"`
}

// Partial reports whether some ids were not found, which maps to a 207 response.
func (r BulkResult) Partial() bool { return len(r.NotFound) > 0 }

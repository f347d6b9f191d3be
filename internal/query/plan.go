package query

import "github.com/sadopc/worklog/internal/resource"

type Order struct {
	Column string
	Desc   bool
}

// Plan is everything the row store needs to run one query.
type Plan struct {
	Resource *resource.Resource
	// Where is nil when every row matches.
	Where   Predicate
	With    []string
	OrderBy []Order
	// Limit of 0 means unbounded.
	Limit  int
	Offset int
}

// Unbounded returns a copy of the plan without paging, ordering or eager loads,
// suitable for counting.
func (p Plan) Unbounded() Plan {
	p.Limit = 0
	p.Offset = 0
	p.OrderBy = nil
	p.With = nil
	return p
}

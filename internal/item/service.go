package item

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/worklog/internal/apperr"
	"github.com/sadopc/worklog/internal/query"
	"github.com/sadopc/worklog/internal/resource"
	"github.com/sadopc/worklog/internal/scope"
)

// DefaultPerPage is the page size used when a paginated list names none.
const DefaultPerPage = 15

// Service runs the generic list/show/create/edit/destroy operations for any
// resource in the schema.
type Service struct {
	Store     RowStore
	Schema    *resource.Schema
	Validator Validator
	// PerPage overrides DefaultPerPage when positive.
	PerPage int
	// Location is the default timezone for zone-less time input.
	Location *time.Location
}

func NewService(store RowStore, schema *resource.Schema, v Validator) *Service {
	return &Service{Store: store, Schema: schema, Validator: v}
}

// ParseID accepts positive integers in any of the shapes a request can carry them.
func ParseID(raw any) (int64, error) {
	id, ok := resource.ToInt64(raw)
	if !ok || id <= 0 {
		return 0, apperr.InvalidID(raw)
	}
	return id, nil
}

func (s *Service) compiler(o options) query.Compiler {
	return query.Compiler{Schema: s.Schema, Location: o.location}
}

// where assembles filters, scope and the soft-delete guard into one predicate.
func (s *Service) where(c query.Compiler, res *resource.Resource, d scope.Decision, filters query.FilterSpec, withDeleted bool) (query.Predicate, error) {
	f, err := c.Compile(filters, res)
	if err != nil {
		return nil, err
	}
	sc, err := d.Predicate(c, res)
	if err != nil {
		return nil, err
	}
	var del query.Predicate
	if res.SoftDelete != "" && !withDeleted {
		del = query.IsNull{Column: res.SoftDelete}
	}
	return query.AllOf(f, sc, del), nil
}

func (s *Service) relations(res *resource.Resource, with []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, name := range append(append([]string(nil), res.With...), with...) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		if _, ok := res.Relations[name]; !ok {
			return nil, apperr.InvalidFilter("%s has no relation %q", res.Name, name)
		}
		seen[name] = true
		out = append(out, name)
	}
	return out, nil
}

func (s *Service) order(res *resource.Resource, by, dir string) ([]query.Order, error) {
	if by == "" {
		return []query.Order{{Column: res.PrimaryKey}}, nil
	}
	if !res.HasColumn(by) {
		return nil, apperr.InvalidFilter("cannot order %s by %q", res.Name, by)
	}
	desc := false
	switch strings.ToLower(dir) {
	case "", "asc":
	case "desc":
		desc = true
	default:
		return nil, apperr.InvalidFilter("order direction %q", dir)
	}
	return []query.Order{{Column: by, Desc: desc}, {Column: res.PrimaryKey}}, nil
}

// List returns the rows of res visible to actor that match p.Filters.
func (s *Service) List(ctx context.Context, actor scope.Actor, res *resource.Resource, p ListParams, opts ...Option) (ListResult, error) {
	o := s.options(opts)
	d := scope.Resolve(actor, scope.Target{Resource: res, Method: resource.MethodList})

	where, err := s.where(s.compiler(o), res, d, p.Filters, p.WithDeleted)
	if err != nil {
		return ListResult{}, err
	}
	with, err := s.relations(res, p.With)
	if err != nil {
		return ListResult{}, err
	}
	orderBy, err := s.order(res, p.OrderBy, p.OrderDir)
	if err != nil {
		return ListResult{}, err
	}
	plan := query.Plan{Resource: res, Where: where, With: with, OrderBy: orderBy}

	if !p.Paginate {
		rows, err := s.Store.Execute(ctx, plan)
		if err != nil {
			return ListResult{}, fmt.Errorf("list %s: %w", res.Name, err)
		}
		rows, err = runHooksAll(ctx, o.after, rows)
		if err != nil {
			return ListResult{}, err
		}
		return ListResult{Rows: rows}, nil
	}

	page, perPage := p.Page, p.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = s.PerPage
		if perPage < 1 {
			perPage = DefaultPerPage
		}
	}

	total, err := s.Store.Count(ctx, plan.Unbounded())
	if err != nil {
		return ListResult{}, fmt.Errorf("count %s: %w", res.Name, err)
	}
	plan.Limit = perPage
	plan.Offset = (page - 1) * perPage

	rows, err := s.Store.Execute(ctx, plan)
	if err != nil {
		return ListResult{}, fmt.Errorf("list %s: %w", res.Name, err)
	}
	rows, err = runHooksAll(ctx, o.after, rows)
	if err != nil {
		return ListResult{}, err
	}

	lastPage := int((total + int64(perPage) - 1) / int64(perPage))
	if lastPage < 1 {
		lastPage = 1
	}
	if rows == nil {
		rows = []resource.Row{}
	}
	return ListResult{Page: &Page{
		Items:       rows,
		Total:       total,
		CurrentPage: page,
		PerPage:     perPage,
		LastPage:    lastPage,
	}}, nil
}

// Count returns the number of rows List would return unpaginated.
func (s *Service) Count(ctx context.Context, actor scope.Actor, res *resource.Resource, p ListParams, opts ...Option) (int64, error) {
	o := s.options(opts)
	d := scope.Resolve(actor, scope.Target{Resource: res, Method: resource.MethodCount})
	where, err := s.where(s.compiler(o), res, d, p.Filters, p.WithDeleted)
	if err != nil {
		return 0, err
	}
	n, err := s.Store.Count(ctx, query.Plan{Resource: res, Where: where})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", res.Name, err)
	}
	return n, nil
}

// Show returns a single visible row.
func (s *Service) Show(ctx context.Context, actor scope.Actor, res *resource.Resource, rawID any, with []string, opts ...Option) (resource.Row, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}
	o := s.options(opts)
	rels, err := s.relations(res, with)
	if err != nil {
		return nil, err
	}
	d := scope.Resolve(actor, scope.Target{Resource: res, Method: resource.MethodShow})
	row, err := s.findScoped(ctx, s.compiler(o), res, d, id, rels)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperr.NotFound(res.Name, id)
	}
	return runHooks(ctx, o.after, row)
}

// Create validates payload and stores it as a new row of res.
func (s *Service) Create(ctx context.Context, actor scope.Actor, res *resource.Resource, payload resource.Row, opts ...Option) (resource.Row, error) {
	o := s.options(opts)
	if err := s.validate(ctx, res, payload, false); err != nil {
		return nil, err
	}
	row, err := s.fill(res, payload, o.location)
	if err != nil {
		return nil, err
	}
	row, err = runHooks(ctx, o.before, row)
	if err != nil {
		return nil, err
	}
	delete(row, res.PrimaryKey)

	d := scope.Resolve(actor, scope.Target{Resource: res, Method: resource.MethodCreate})
	c := s.compiler(o)
	var created resource.Row
	err = s.Store.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.checkDuplicate(ctx, res, row, nil); err != nil {
			return err
		}
		var err error
		created, err = s.Store.Persist(ctx, res, row)
		if err != nil || d.Kind == scope.FullAccess {
			return err
		}
		// The new row must fall inside the actor's scope, otherwise the insert is rolled back.
		id, _ := created.Int64(res.PrimaryKey)
		visible, err := s.findScoped(ctx, c, res, d, id, nil)
		if err != nil {
			return err
		}
		if visible == nil {
			return apperr.ForbiddenAction(fmt.Sprintf("cannot create %s outside your scope", res.Name))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", res.Name, err)
	}
	return runHooks(ctx, o.after, created)
}

// Edit applies payload to a visible row. A row that exists but lies outside the
// actor's scope is Forbidden; a row that does not exist is NotFound.
func (s *Service) Edit(ctx context.Context, actor scope.Actor, res *resource.Resource, rawID any, payload resource.Row, opts ...Option) (resource.Row, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}
	o := s.options(opts)
	if err := s.validate(ctx, res, payload, true); err != nil {
		return nil, err
	}
	fields, err := s.fill(res, payload, o.location)
	if err != nil {
		return nil, err
	}

	d := scope.Resolve(actor, scope.Target{Resource: res, Method: resource.MethodEdit})
	c := s.compiler(o)
	var updated resource.Row
	err = s.Store.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.visible(ctx, c, res, d, id)
		if err != nil {
			return err
		}
		updated, err = s.update(ctx, res, current, fields, o)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("edit %s %d: %w", res.Name, id, err)
	}
	return runHooks(ctx, o.after, updated)
}

// Destroy removes a visible row together with its dependent rows.
func (s *Service) Destroy(ctx context.Context, actor scope.Actor, res *resource.Resource, rawID any, opts ...Option) error {
	id, err := ParseID(rawID)
	if err != nil {
		return err
	}
	o := s.options(opts)
	d := scope.Resolve(actor, scope.Target{Resource: res, Method: resource.MethodDestroy})
	c := s.compiler(o)
	err = s.Store.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.visible(ctx, c, res, d, id); err != nil {
			return err
		}
		return s.remove(ctx, res, id)
	})
	if err != nil {
		return fmt.Errorf("destroy %s %d: %w", res.Name, id, err)
	}
	return nil
}

// BulkEdit applies each payload to its row. Ids outside the actor's scope are
// reported as not found alongside ids that do not exist.
func (s *Service) BulkEdit(ctx context.Context, actor scope.Actor, res *resource.Resource, edits []Edit, opts ...Option) (BulkResult, error) {
	o := s.options(opts)

	ids := make([]int64, 0, len(edits))
	payloads := make(map[int64]resource.Row, len(edits))
	for _, e := range edits {
		id, err := ParseID(e.ID)
		if err != nil {
			return BulkResult{}, err
		}
		if _, dup := payloads[id]; dup {
			continue
		}
		if err := s.validate(ctx, res, e.Payload, true); err != nil {
			return BulkResult{}, err
		}
		fields, err := s.fill(res, e.Payload, o.location)
		if err != nil {
			return BulkResult{}, err
		}
		ids = append(ids, id)
		payloads[id] = fields
	}

	d := scope.Resolve(actor, scope.Target{Resource: res, Method: resource.MethodBulkEdit})
	c := s.compiler(o)
	result := BulkResult{Done: []int64{}, NotFound: []int64{}}
	err := s.Store.WithinTx(ctx, func(ctx context.Context) error {
		found, err := s.findManyScoped(ctx, c, res, d, ids)
		if err != nil {
			return err
		}
		for _, id := range ids {
			current, ok := found[id]
			if !ok {
				result.NotFound = append(result.NotFound, id)
				continue
			}
			if _, err := s.update(ctx, res, current, payloads[id], o); err != nil {
				return err
			}
			result.Done = append(result.Done, id)
		}
		return nil
	})
	if err != nil {
		return BulkResult{}, fmt.Errorf("bulk edit %s: %w", res.Name, err)
	}
	return result, nil
}

// BulkDestroy removes every visible row among rawIDs.
func (s *Service) BulkDestroy(ctx context.Context, actor scope.Actor, res *resource.Resource, rawIDs []any, opts ...Option) (BulkResult, error) {
	o := s.options(opts)

	ids := make([]int64, 0, len(rawIDs))
	seen := make(map[int64]bool, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := ParseID(raw)
		if err != nil {
			return BulkResult{}, err
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	d := scope.Resolve(actor, scope.Target{Resource: res, Method: resource.MethodBulkDestroy})
	c := s.compiler(o)
	result := BulkResult{Done: []int64{}, NotFound: []int64{}}
	err := s.Store.WithinTx(ctx, func(ctx context.Context) error {
		found, err := s.findManyScoped(ctx, c, res, d, ids)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if _, ok := found[id]; !ok {
				result.NotFound = append(result.NotFound, id)
				continue
			}
			if err := s.remove(ctx, res, id); err != nil {
				return err
			}
			result.Done = append(result.Done, id)
		}
		return nil
	})
	if err != nil {
		return BulkResult{}, fmt.Errorf("bulk destroy %s: %w", res.Name, err)
	}
	return result, nil
}

func (s *Service) validate(ctx context.Context, res *resource.Resource, payload resource.Row, partial bool) error {
	if s.Validator == nil || len(res.Rules) == 0 {
		return nil
	}
	return s.Validator.Validate(ctx, res.Rules, payload, partial)
}

// fill keeps the fillable keys of payload, coerced to their column types.
func (s *Service) fill(res *resource.Resource, payload resource.Row, loc *time.Location) (resource.Row, error) {
	out := make(resource.Row, len(payload))
	bad := make(map[string][]string)
	for k, v := range payload {
		if !res.IsFillable(k) {
			continue
		}
		if v == nil {
			out[k] = nil
			continue
		}
		switch res.Columns[k] {
		case resource.Time:
			t, err := resource.NormalizeTime(v, loc)
			if err != nil {
				bad[k] = append(bad[k], fmt.Sprintf("The %s is not a valid date.", k))
				continue
			}
			out[k] = t
		case resource.Int:
			n, ok := resource.ToInt64(v)
			if !ok {
				bad[k] = append(bad[k], fmt.Sprintf("The %s must be an integer.", k))
				continue
			}
			out[k] = n
		case resource.Bool:
			out[k] = resource.ToBool(v)
		default:
			out[k] = v
		}
	}
	if len(bad) > 0 {
		return nil, apperr.Validation(bad)
	}
	return out, nil
}

// checkDuplicate fails when another live row shares row's UniqueBy values.
// A non-nil self is the primary key of the row being edited and is skipped.
func (s *Service) checkDuplicate(ctx context.Context, res *resource.Resource, row resource.Row, self any) error {
	if len(res.UniqueBy) == 0 {
		return nil
	}
	var preds []query.Predicate
	for _, col := range res.UniqueBy {
		v, ok := row[col]
		if !ok || v == nil {
			return nil
		}
		preds = append(preds, query.Equals{Column: col, Value: v})
	}
	if self != nil {
		preds = append(preds, query.Equals{Column: res.PrimaryKey, Value: self, Negate: true})
	}
	if res.SoftDelete != "" {
		preds = append(preds, query.IsNull{Column: res.SoftDelete})
	}
	n, err := s.Store.Count(ctx, query.Plan{Resource: res, Where: query.AllOf(preds...)})
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.Duplicate(res.Name)
	}
	return nil
}

func (s *Service) update(ctx context.Context, res *resource.Resource, current, fields resource.Row, o options) (resource.Row, error) {
	merged := current.Clone()
	for k, v := range fields {
		merged[k] = v
	}
	merged, err := runHooks(ctx, o.before, merged)
	if err != nil {
		return nil, err
	}
	merged[res.PrimaryKey] = current[res.PrimaryKey]
	if err := s.checkDuplicate(ctx, res, merged, merged[res.PrimaryKey]); err != nil {
		return nil, err
	}
	return s.Store.Persist(ctx, res, merged)
}

// visible returns the row when the decision lets the actor see it and
// otherwise tells Forbidden from NotFound with an unscoped lookup.
func (s *Service) visible(ctx context.Context, c query.Compiler, res *resource.Resource, d scope.Decision, id int64) (resource.Row, error) {
	row, err := s.findScoped(ctx, c, res, d, id, nil)
	if err != nil {
		return nil, err
	}
	if row != nil {
		return row, nil
	}
	exists, err := s.findScoped(ctx, c, res, scope.Decision{Kind: scope.FullAccess}, id, nil)
	if err != nil {
		return nil, err
	}
	if exists != nil {
		return nil, apperr.Forbidden(res.Name, id)
	}
	return nil, apperr.NotFound(res.Name, id)
}

func (s *Service) findScoped(ctx context.Context, c query.Compiler, res *resource.Resource, d scope.Decision, id int64, with []string) (resource.Row, error) {
	where, err := s.where(c, res, d, nil, false)
	if err != nil {
		return nil, err
	}
	rows, err := s.Store.Execute(ctx, query.Plan{
		Resource: res,
		Where:    query.AllOf(query.Equals{Column: res.PrimaryKey, Value: id}, where),
		With:     with,
		Limit:    1,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (s *Service) findManyScoped(ctx context.Context, c query.Compiler, res *resource.Resource, d scope.Decision, ids []int64) (map[int64]resource.Row, error) {
	found := make(map[int64]resource.Row, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	where, err := s.where(c, res, d, nil, false)
	if err != nil {
		return nil, err
	}
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	rows, err := s.Store.Execute(ctx, query.Plan{
		Resource: res,
		Where:    query.AllOf(query.In{Column: res.PrimaryKey, Values: values}, where),
	})
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if id, ok := r.Int64(res.PrimaryKey); ok {
			found[id] = r
		}
	}
	return found, nil
}

// remove deletes id and, first, every row that depends on it.
func (s *Service) remove(ctx context.Context, res *resource.Resource, id int64) error {
	for _, child := range res.Cascade {
		cres, ok := s.Schema.Get(child.Resource)
		if !ok {
			return fmt.Errorf("cascade from %s: unknown resource %q", res.Name, child.Resource)
		}
		where := query.AllOf(query.Equals{Column: child.ForeignKey, Value: id})
		if cres.SoftDelete != "" {
			where = query.AllOf(where, query.IsNull{Column: cres.SoftDelete})
		}
		rows, err := s.Store.Execute(ctx, query.Plan{Resource: cres, Where: where})
		if err != nil {
			return fmt.Errorf("cascade %s -> %s: %w", res.Name, cres.Name, err)
		}
		for _, r := range rows {
			cid, ok := r.Int64(cres.PrimaryKey)
			if !ok {
				continue
			}
			if err := s.remove(ctx, cres, cid); err != nil {
				return err
			}
		}
	}
	return s.Store.Delete(ctx, res, id)
}

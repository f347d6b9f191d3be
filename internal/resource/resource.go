package resource

import (
	"fmt"
	"sort"
)

type ColumnType int

const (
	Int ColumnType = iota
	Text
	Time
	Bool
)

// Controller method names used as keys of Resource.Methods.
const (
	MethodList         = "index"
	MethodCount        = "count"
	MethodShow         = "show"
	MethodCreate       = "create"
	MethodManualCreate = "manualCreate"
	MethodEdit         = "edit"
	MethodBulkEdit     = "bulkEdit"
	MethodDestroy      = "destroy"
	MethodBulkDestroy  = "bulkDestroy"
)

// Relation links a resource to another one.
// The related row matches when target.ForeignKey = base.LocalKey, which covers
// both belongs-to (task_id -> id) and has-many (id -> task_id) shapes.
type Relation struct {
	Target     string
	LocalKey   string
	ForeignKey string
	Many       bool
}

// Child is a dependent resource removed together with its parent.
type Child struct {
	Resource   string
	ForeignKey string
}

// Resource is the static description of a table the item service can query.
type Resource struct {
	Name       string
	Table      string
	PrimaryKey string
	// SoftDelete is the deleted-at column, empty when rows are removed physically.
	SoftDelete string
	Timestamps bool
	Columns    map[string]ColumnType
	Fillable   []string
	Relations  map[string]Relation
	// With lists relations loaded on every query.
	With []string
	// Rules maps payload keys to validator rule strings.
	Rules map[string]string
	// UniqueBy columns identify duplicates on create.
	UniqueBy []string
	// OwnerPath is the (possibly dotted) path to the owning user id.
	OwnerPath string
	// ProjectPath is the (possibly dotted) path to the owning project id.
	ProjectPath string
	// Methods maps controller methods to "object.action" permission rules.
	Methods map[string]string
	Cascade []Child
}

func (r *Resource) HasColumn(name string) bool {
	_, ok := r.Columns[name]
	return ok
}

func (r *Resource) ColumnNames() []string {
	names := make([]string, 0, len(r.Columns))
	for c := range r.Columns {
		names = append(names, c)
	}
	sort.Strings(names)
	return names
}

func (r *Resource) IsFillable(name string) bool {
	for _, f := range r.Fillable {
		if f == name {
			return true
		}
	}
	return false
}

// Schema is the registry of known resources.
type Schema struct {
	resources map[string]*Resource
}

func NewSchema(resources ...*Resource) *Schema {
	s := &Schema{resources: make(map[string]*Resource, len(resources))}
	for _, r := range resources {
		s.resources[r.Name] = r
	}
	return s
}

func (s *Schema) Get(name string) (*Resource, bool) {
	r, ok := s.resources[name]
	return r, ok
}

func (s *Schema) MustGet(name string) *Resource {
	r, ok := s.resources[name]
	if !ok {
		panic(fmt.Sprintf("resource %q not registered", name))
	}
	return r
}

// Related resolves a relation of res to its target descriptor.
func (s *Schema) Related(res *Resource, relation string) (Relation, *Resource, error) {
	rel, ok := res.Relations[relation]
	if !ok {
		return Relation{}, nil, fmt.Errorf("%s has no relation %q", res.Name, relation)
	}
	target, ok := s.resources[rel.Target]
	if !ok {
		return Relation{}, nil, fmt.Errorf("relation %s.%s targets unknown resource %q", res.Name, relation, rel.Target)
	}
	return rel, target, nil
}

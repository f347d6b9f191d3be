package query

// Predicate is a node of a compiled filter tree. The set of node types is
// closed; the row store interprets them with a type switch.
type Predicate interface {
	isPredicate()
}

// Equals matches Column = Value, or Column != Value when Negate is set.
type Equals struct {
	Column string
	Value  any
	Negate bool
}

// In matches Column IN (Values), or NOT IN when Negate is set.
type In struct {
	Column string
	Values []any
	Negate bool
}

type Like struct {
	Column  string
	Pattern string
}

// Compare is an ordering comparison; Op is one of <, <=, >, >=.
type Compare struct {
	Column string
	Op     Operator
	Value  any
}

// Between is inclusive on both ends.
type Between struct {
	Column string
	Low    any
	High   any
}

// RelationExists matches when at least one related row satisfies Where.
type RelationExists struct {
	Relation string
	Where    Predicate
}

type IsNull struct {
	Column string
}

type And struct {
	Preds []Predicate
}

type Or struct {
	Preds []Predicate
}

// None matches no rows.
type None struct{}

func (Equals) isPredicate()         {}
func (In) isPredicate()             {}
func (Like) isPredicate()           {}
func (Compare) isPredicate()        {}
func (Between) isPredicate()        {}
func (RelationExists) isPredicate() {}
func (IsNull) isPredicate()         {}
func (And) isPredicate()            {}
func (Or) isPredicate()             {}
func (None) isPredicate()           {}

// AllOf joins predicates with AND, dropping nils and flattening nested Ands.
// It returns nil when nothing is left.
func AllOf(preds ...Predicate) Predicate {
	var out []Predicate
	for _, p := range preds {
		switch v := p.(type) {
		case nil:
		case And:
			out = append(out, v.Preds...)
		default:
			out = append(out, p)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return And{Preds: out}
}

// AnyOf joins predicates with OR, dropping nils. An empty OR matches nothing.
func AnyOf(preds ...Predicate) Predicate {
	var out []Predicate
	for _, p := range preds {
		if p != nil {
			out = append(out, p)
		}
	}
	switch len(out) {
	case 0:
		return None{}
	case 1:
		return out[0]
	}
	return Or{Preds: out}
}

package query

import (
	"sort"
	"strings"

	"github.com/sadopc/worklog/internal/apperr"
)

type Operator string

const (
	OpEq      Operator = "="
	OpNe      Operator = "!="
	OpIn      Operator = "in"
	OpNotIn   Operator = "not_in"
	OpLike    Operator = "like"
	OpLt      Operator = "<"
	OpLe      Operator = "<="
	OpGt      Operator = ">"
	OpGe      Operator = ">="
	OpBetween Operator = "between"
)

var operatorAliases = map[string]Operator{
	"=":       OpEq,
	"==":      OpEq,
	"!=":      OpNe,
	"<>":      OpNe,
	"in":      OpIn,
	"not_in":  OpNotIn,
	"not in":  OpNotIn,
	"like":    OpLike,
	"<":       OpLt,
	"<=":      OpLe,
	">":       OpGt,
	">=":      OpGe,
	"between": OpBetween,
}

// ParseOperator accepts the canonical operator spellings plus a few aliases.
func ParseOperator(s string) (Operator, bool) {
	op, ok := operatorAliases[strings.ToLower(strings.TrimSpace(s))]
	return op, ok
}

// Expr is one filter condition on a field.
type Expr struct {
	Op      Operator
	Operand any
}

// FilterSpec maps a field name, possibly a dotted relation path, to its condition.
type FilterSpec map[string]Expr

// Fields returns the filter keys in sorted order so compiled trees are deterministic.
func (f FilterSpec) Fields() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseFilterSpec converts the loose request form into a FilterSpec.
// A scalar value means equality; a two-element array is [operator, operand].
func ParseFilterSpec(raw map[string]any) (FilterSpec, error) {
	spec := make(FilterSpec, len(raw))
	for field, v := range raw {
		expr, err := parseExpr(field, v)
		if err != nil {
			return nil, err
		}
		spec[field] = expr
	}
	return spec, nil
}

func parseExpr(field string, v any) (Expr, error) {
	list, ok := v.([]any)
	if !ok {
		if _, isMap := v.(map[string]any); isMap {
			return Expr{}, apperr.InvalidFilter("filter %q: object operands are not supported", field)
		}
		return Expr{Op: OpEq, Operand: v}, nil
	}
	if len(list) != 2 {
		return Expr{}, apperr.InvalidFilter("filter %q: expected [operator, operand]", field)
	}
	name, ok := list[0].(string)
	if !ok {
		return Expr{}, apperr.InvalidFilter("filter %q: operator must be a string", field)
	}
	op, ok := ParseOperator(name)
	if !ok {
		return Expr{}, apperr.InvalidFilter("filter %q: unknown operator %q", field, name)
	}
	return Expr{Op: op, Operand: list[1]}, nil
}

package query

import (
	"strings"
	"time"

	"github.com/sadopc/worklog/internal/apperr"
	"github.com/sadopc/worklog/internal/resource"
)

// Compiler turns filter specs into predicate trees for a schema.
type Compiler struct {
	Schema *resource.Schema
	// Location interprets time operands that carry no zone. Nil means UTC.
	Location *time.Location
}

// Compile builds the conjunction of every condition in spec against res.
// An empty spec compiles to nil.
func (c Compiler) Compile(spec FilterSpec, res *resource.Resource) (Predicate, error) {
	var preds []Predicate
	for _, field := range spec.Fields() {
		p, err := c.Field(res, field, spec[field])
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return AllOf(preds...), nil
}

// Field compiles a single condition. Dotted paths become nested
// RelationExists nodes; the leaf is always a column of the last resource.
func (c Compiler) Field(res *resource.Resource, path string, expr Expr) (Predicate, error) {
	if relName, rest, dotted := strings.Cut(path, "."); dotted {
		_, target, err := c.Schema.Related(res, relName)
		if err != nil {
			return nil, apperr.InvalidFilter("filter %q: %v", path, err)
		}
		inner, err := c.Field(target, rest, expr)
		if err != nil {
			return nil, err
		}
		if target.SoftDelete != "" {
			inner = AllOf(inner, IsNull{Column: target.SoftDelete})
		}
		return RelationExists{Relation: relName, Where: inner}, nil
	}

	typ, ok := res.Columns[path]
	if !ok {
		return nil, apperr.InvalidFilter("filter %q: %s has no such column", path, res.Name)
	}
	return c.column(path, typ, expr)
}

func (c Compiler) column(col string, typ resource.ColumnType, expr Expr) (Predicate, error) {
	switch expr.Op {
	case OpEq, OpNe:
		if isList(expr.Operand) {
			return nil, apperr.InvalidFilter("filter %q: %s takes a single value", col, expr.Op)
		}
		v, err := c.value(col, typ, expr.Operand, true)
		if err != nil {
			return nil, err
		}
		return Equals{Column: col, Value: v, Negate: expr.Op == OpNe}, nil

	case OpIn, OpNotIn:
		list, ok := toList(expr.Operand)
		if !ok || len(list) == 0 {
			return nil, apperr.InvalidFilter("filter %q: %s needs a non-empty array", col, expr.Op)
		}
		values, err := c.values(col, typ, list)
		if err != nil {
			return nil, err
		}
		return In{Column: col, Values: values, Negate: expr.Op == OpNotIn}, nil

	case OpLike:
		s, ok := expr.Operand.(string)
		if !ok {
			return nil, apperr.InvalidFilter("filter %q: like needs a string pattern", col)
		}
		return Like{Column: col, Pattern: s}, nil

	case OpLt, OpLe, OpGt, OpGe:
		if isList(expr.Operand) {
			return nil, apperr.InvalidFilter("filter %q: %s takes a single value", col, expr.Op)
		}
		v, err := c.value(col, typ, expr.Operand, false)
		if err != nil {
			return nil, err
		}
		return Compare{Column: col, Op: expr.Op, Value: v}, nil

	case OpBetween:
		list, ok := toList(expr.Operand)
		if !ok || len(list) != 2 {
			return nil, apperr.InvalidFilter("filter %q: between needs exactly two values", col)
		}
		values, err := c.values(col, typ, list)
		if err != nil {
			return nil, err
		}
		return Between{Column: col, Low: values[0], High: values[1]}, nil
	}
	return nil, apperr.InvalidFilter("filter %q: unknown operator %q", col, expr.Op)
}

func (c Compiler) values(col string, typ resource.ColumnType, list []any) ([]any, error) {
	out := make([]any, len(list))
	for i, v := range list {
		n, err := c.value(col, typ, v, false)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// value coerces an operand to the column's storage representation.
func (c Compiler) value(col string, typ resource.ColumnType, v any, nullable bool) (any, error) {
	if v == nil {
		if nullable {
			return nil, nil
		}
		return nil, apperr.InvalidFilter("filter %q: null operand", col)
	}
	switch typ {
	case resource.Int:
		n, ok := resource.ToInt64(v)
		if !ok {
			return nil, apperr.InvalidFilter("filter %q: %v is not an integer", col, v)
		}
		return n, nil
	case resource.Bool:
		if resource.ToBool(v) {
			return int64(1), nil
		}
		return int64(0), nil
	case resource.Time:
		s, err := resource.NormalizeTime(v, c.Location)
		if err != nil {
			return nil, apperr.InvalidFilter("filter %q: %v", col, err)
		}
		return s, nil
	}
	if _, ok := v.(string); !ok {
		return nil, apperr.InvalidFilter("filter %q: %v is not a string", col, v)
	}
	return v, nil
}

func isList(v any) bool {
	_, ok := toList(v)
	return ok
}

func toList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []int64:
		out := make([]any, len(l))
		for i, x := range l {
			out[i] = x
		}
		return out, true
	case []int:
		out := make([]any, len(l))
		for i, x := range l {
			out[i] = x
		}
		return out, true
	case []string:
		out := make([]any, len(l))
		for i, x := range l {
			out[i] = x
		}
		return out, true
	}
	return nil, false
}

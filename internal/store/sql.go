package store

import (
	"fmt"
	"strings"

	"github.com/sadopc/worklog/internal/query"
	"github.com/sadopc/worklog/internal/resource"
)

// builder renders predicate trees as SQLite WHERE clauses. Each relation hop
// gets its own table alias so nested EXISTS sub-queries stay unambiguous.
type builder struct {
	schema  *resource.Schema
	args    []any
	aliases int
}

func (b *builder) alias() string {
	a := fmt.Sprintf("t%d", b.aliases)
	b.aliases++
	return a
}

func (b *builder) column(res *resource.Resource, alias, col string) (string, error) {
	if !res.HasColumn(col) {
		return "", fmt.Errorf("%s has no column %q", res.Name, col)
	}
	return alias + "." + col, nil
}

func (b *builder) where(p query.Predicate, res *resource.Resource, alias string) (string, error) {
	switch p := p.(type) {
	case nil:
		return "1=1", nil

	case query.None:
		return "0=1", nil

	case query.Equals:
		col, err := b.column(res, alias, p.Column)
		if err != nil {
			return "", err
		}
		if p.Value == nil {
			if p.Negate {
				return col + " IS NOT NULL", nil
			}
			return col + " IS NULL", nil
		}
		b.args = append(b.args, sqlValue(p.Value))
		if p.Negate {
			return col + " != ?", nil
		}
		return col + " = ?", nil

	case query.In:
		col, err := b.column(res, alias, p.Column)
		if err != nil {
			return "", err
		}
		if len(p.Values) == 0 {
			if p.Negate {
				return "1=1", nil
			}
			return "0=1", nil
		}
		marks := make([]string, len(p.Values))
		for i, v := range p.Values {
			marks[i] = "?"
			b.args = append(b.args, sqlValue(v))
		}
		op := " IN "
		if p.Negate {
			op = " NOT IN "
		}
		return col + op + "(" + strings.Join(marks, ", ") + ")", nil

	case query.Like:
		col, err := b.column(res, alias, p.Column)
		if err != nil {
			return "", err
		}
		b.args = append(b.args, p.Pattern)
		return col + " LIKE ?", nil

	case query.Compare:
		col, err := b.column(res, alias, p.Column)
		if err != nil {
			return "", err
		}
		switch p.Op {
		case query.OpLt, query.OpLe, query.OpGt, query.OpGe:
		default:
			return "", fmt.Errorf("unsupported comparison %q", p.Op)
		}
		b.args = append(b.args, sqlValue(p.Value))
		return col + " " + string(p.Op) + " ?", nil

	case query.Between:
		col, err := b.column(res, alias, p.Column)
		if err != nil {
			return "", err
		}
		b.args = append(b.args, sqlValue(p.Low), sqlValue(p.High))
		return col + " BETWEEN ? AND ?", nil

	case query.IsNull:
		col, err := b.column(res, alias, p.Column)
		if err != nil {
			return "", err
		}
		return col + " IS NULL", nil

	case query.And:
		return b.join(p.Preds, res, alias, " AND ", "1=1")

	case query.Or:
		return b.join(p.Preds, res, alias, " OR ", "0=1")

	case query.RelationExists:
		rel, target, err := b.schema.Related(res, p.Relation)
		if err != nil {
			return "", err
		}
		sub := b.alias()
		link := fmt.Sprintf("%s.%s = %s.%s", sub, rel.ForeignKey, alias, rel.LocalKey)
		inner, err := b.where(p.Where, target, sub)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("EXISTS (SELECT 1 FROM %s AS %s WHERE %s AND (%s))", target.Table, sub, link, inner), nil
	}
	return "", fmt.Errorf("unsupported predicate %T", p)
}

func (b *builder) join(preds []query.Predicate, res *resource.Resource, alias, sep, empty string) (string, error) {
	if len(preds) == 0 {
		return empty, nil
	}
	parts := make([]string, len(preds))
	for i, p := range preds {
		s, err := b.where(p, res, alias)
		if err != nil {
			return "", err
		}
		parts[i] = "(" + s + ")"
	}
	return strings.Join(parts, sep), nil
}

// sqlValue converts Go values into what the sqlite driver stores.
func sqlValue(v any) any {
	switch b := v.(type) {
	case bool:
		if b {
			return int64(1)
		}
		return int64(0)
	}
	return v
}

// selectSQL renders the SELECT for plan. The base table is aliased t0.
func (s *Store) selectSQL(plan query.Plan, count bool) (string, []any, error) {
	res := plan.Resource
	b := &builder{schema: s.schema}
	base := b.alias()

	where, err := b.where(plan.Where, res, base)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	if count {
		fmt.Fprintf(&sb, "SELECT COUNT(*) FROM %s AS %s WHERE %s", res.Table, base, where)
		return sb.String(), b.args, nil
	}

	cols := res.ColumnNames()
	qualified := make([]string, len(cols))
	for i, c := range cols {
		qualified[i] = base + "." + c
	}
	fmt.Fprintf(&sb, "SELECT %s FROM %s AS %s WHERE %s", strings.Join(qualified, ", "), res.Table, base, where)

	if len(plan.OrderBy) > 0 {
		order := make([]string, len(plan.OrderBy))
		for i, o := range plan.OrderBy {
			col, err := b.column(res, base, o.Column)
			if err != nil {
				return "", nil, err
			}
			if o.Desc {
				col += " DESC"
			}
			order[i] = col
		}
		sb.WriteString(" ORDER BY " + strings.Join(order, ", "))
	}
	if plan.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d OFFSET %d", plan.Limit, plan.Offset)
	}
	return sb.String(), b.args, nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/sadopc/worklog/internal/query"
	"github.com/sadopc/worklog/internal/resource"
)

// Execute runs plan and loads the relations it names.
func (s *Store) Execute(ctx context.Context, plan query.Plan) ([]resource.Row, error) {
	sqlText, args, err := s.selectSQL(plan, false)
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", plan.Resource.Name, err)
	}
	rows, err := s.scan(ctx, plan.Resource, sqlText, args)
	if err != nil {
		return nil, err
	}
	for _, rel := range plan.With {
		if err := s.load(ctx, plan.Resource, rows, rel); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

func (s *Store) Count(ctx context.Context, plan query.Plan) (int64, error) {
	sqlText, args, err := s.selectSQL(plan, true)
	if err != nil {
		return 0, fmt.Errorf("build %s count: %w", plan.Resource.Name, err)
	}
	var n int64
	if err := s.q(ctx).QueryRowContext(ctx, sqlText, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", plan.Resource.Name, err)
	}
	return n, nil
}

func (s *Store) scan(ctx context.Context, res *resource.Resource, sqlText string, args []any) ([]resource.Row, error) {
	rows, err := s.q(ctx).QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", res.Name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []resource.Row{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", res.Name, err)
		}
		row := make(resource.Row, len(cols))
		for i, c := range cols {
			row[c] = fromSQL(res.Columns[c], values[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func fromSQL(typ resource.ColumnType, v any) any {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if v == nil {
		return nil
	}
	if typ == resource.Bool {
		return resource.ToBool(v)
	}
	return v
}

// load attaches the named relation to every row: a slice for has-many
// relations and a single row (or nil) otherwise.
func (s *Store) load(ctx context.Context, res *resource.Resource, rows []resource.Row, name string) error {
	rel, target, err := s.schema.Related(res, name)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	seen := make(map[int64]bool)
	var keys []any
	for _, r := range rows {
		if k, ok := r.Int64(rel.LocalKey); ok && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	byKey := make(map[int64][]resource.Row)
	if len(keys) > 0 {
		where := query.AllOf(query.In{Column: rel.ForeignKey, Values: keys})
		if target.SoftDelete != "" {
			where = query.AllOf(where, query.IsNull{Column: target.SoftDelete})
		}
		related, err := s.Execute(ctx, query.Plan{
			Resource: target,
			Where:    where,
			OrderBy:  []query.Order{{Column: target.PrimaryKey}},
		})
		if err != nil {
			return fmt.Errorf("load %s.%s: %w", res.Name, name, err)
		}
		for _, r := range related {
			if k, ok := r.Int64(rel.ForeignKey); ok {
				byKey[k] = append(byKey[k], r)
			}
		}
	}

	for _, r := range rows {
		k, _ := r.Int64(rel.LocalKey)
		matches := byKey[k]
		if rel.Many {
			if matches == nil {
				matches = []resource.Row{}
			}
			r[name] = matches
			continue
		}
		if len(matches) > 0 {
			r[name] = matches[0]
		} else {
			r[name] = nil
		}
	}
	return nil
}

// writable lists the columns of res a payload may set directly, sorted.
func writable(res *resource.Resource, row resource.Row) []string {
	var cols []string
	for c := range res.Columns {
		switch c {
		case res.PrimaryKey, res.SoftDelete, "created_at", "updated_at":
			continue
		}
		if _, ok := row[c]; ok {
			cols = append(cols, c)
		}
	}
	sort.Strings(cols)
	return cols
}

// Persist inserts row, or updates it when it carries a primary key.
func (s *Store) Persist(ctx context.Context, res *resource.Resource, row resource.Row) (resource.Row, error) {
	cols := writable(res, row)
	ts := now()

	if id, ok := row.Int64(res.PrimaryKey); ok && id > 0 {
		sets := make([]string, 0, len(cols)+1)
		args := make([]any, 0, len(cols)+2)
		for _, c := range cols {
			sets = append(sets, c+" = ?")
			args = append(args, sqlValue(row[c]))
		}
		if res.Timestamps {
			sets = append(sets, "updated_at = ?")
			args = append(args, ts)
		}
		if len(sets) > 0 {
			args = append(args, id)
			stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", res.Table, strings.Join(sets, ", "), res.PrimaryKey)
			if _, err := s.q(ctx).ExecContext(ctx, stmt, args...); err != nil {
				return nil, fmt.Errorf("update %s %d: %w", res.Name, id, err)
			}
		}
		return s.get(ctx, res, id)
	}

	names := append([]string(nil), cols...)
	args := make([]any, 0, len(cols)+2)
	for _, c := range cols {
		args = append(args, sqlValue(row[c]))
	}
	if res.Timestamps {
		names = append(names, "created_at", "updated_at")
		args = append(args, ts, ts)
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", res.Table, strings.Join(names, ", "), marks)
	result, err := s.q(ctx).ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", res.Name, err)
	}
	id, _ := result.LastInsertId()
	return s.get(ctx, res, id)
}

// get reads a row by primary key, soft-deleted or not.
func (s *Store) get(ctx context.Context, res *resource.Resource, id int64) (resource.Row, error) {
	rows, err := s.Execute(ctx, query.Plan{
		Resource: res,
		Where:    query.Equals{Column: res.PrimaryKey, Value: id},
		Limit:    1,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("get %s %d: %w", res.Name, id, sql.ErrNoRows)
	}
	return rows[0], nil
}

// Delete stamps deleted_at on soft-deletable resources and removes the row otherwise.
func (s *Store) Delete(ctx context.Context, res *resource.Resource, id int64) error {
	if res.SoftDelete != "" {
		ts := now()
		stmt := fmt.Sprintf("UPDATE %s SET %s = ?", res.Table, res.SoftDelete)
		args := []any{ts}
		if res.Timestamps {
			stmt += ", updated_at = ?"
			args = append(args, ts)
		}
		stmt += fmt.Sprintf(" WHERE %s = ? AND %s IS NULL", res.PrimaryKey, res.SoftDelete)
		args = append(args, id)
		if _, err := s.q(ctx).ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("soft delete %s %d: %w", res.Name, id, err)
		}
		return nil
	}
	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", res.Table, res.PrimaryKey)
	if _, err := s.q(ctx).ExecContext(ctx, stmt, id); err != nil {
		return fmt.Errorf("delete %s %d: %w", res.Name, id, err)
	}
	return nil
}

// Exists reports whether table holds a live row with the given id. Only tables
// of known resources are accepted.
func (s *Store) Exists(ctx context.Context, table string, id int64) (bool, error) {
	res := s.byTable(table)
	if res == nil {
		return false, fmt.Errorf("unknown table %q", table)
	}
	where := query.Predicate(query.Equals{Column: res.PrimaryKey, Value: id})
	if res.SoftDelete != "" {
		where = query.AllOf(where, query.IsNull{Column: res.SoftDelete})
	}
	n, err := s.Count(ctx, query.Plan{Resource: res, Where: where})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) byTable(table string) *resource.Resource {
	for _, name := range []string{resource.Users, resource.Projects, resource.Tasks, resource.TimeIntervals, resource.Screenshots} {
		if res, ok := s.schema.Get(name); ok && res.Table == table {
			return res
		}
	}
	return nil
}

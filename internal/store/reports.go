package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/worklog/internal/report"
	"github.com/sadopc/worklog/internal/resource"
)

// reportWhere renders the shared interval filter of the report queries.
func reportWhere(f report.Filter) (string, []any) {
	conds := []string{
		"ti.deleted_at IS NULL",
		"t.deleted_at IS NULL",
		"p.deleted_at IS NULL",
		"ti.start_at >= ?",
		"ti.start_at < ?",
	}
	args := []any{resource.CanonicalTime(f.Start), resource.CanonicalTime(f.End)}
	if len(f.UserIDs) > 0 {
		conds = append(conds, "ti.user_id IN ("+marks(len(f.UserIDs))+")")
		for _, id := range f.UserIDs {
			args = append(args, id)
		}
	}
	if len(f.ProjectIDs) > 0 {
		conds = append(conds, "t.project_id IN ("+marks(len(f.ProjectIDs))+")")
		for _, id := range f.ProjectIDs {
			args = append(args, id)
		}
	}
	if v := f.Visible; v != nil {
		var alts []string
		if len(v.Projects) > 0 {
			alts = append(alts, "t.project_id IN ("+marks(len(v.Projects))+")")
			for _, id := range v.Projects {
				args = append(args, id)
			}
		}
		if v.Owner != 0 {
			alts = append(alts, "ti.user_id = ?")
			args = append(args, v.Owner)
		}
		if len(alts) == 0 {
			alts = []string{"0=1"}
		}
		conds = append(conds, "("+strings.Join(alts, " OR ")+")")
	}
	return strings.Join(conds, " AND "), args
}

func marks(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// ProjectRows returns one row per (task, user) with the intervals and
// screenshots of that pair packed as JSON arrays.
func (s *Store) ProjectRows(ctx context.Context, f report.Filter) ([]report.ProjectRow, error) {
	where, args := reportWhere(f)
	q := `
		SELECT ti.user_id, u.full_name, t.project_id, p.name, ti.task_id, t.task_name,
		       json_group_array(json_object('id', ti.id, 'start_at', ti.start_at, 'end_at', ti.end_at)),
		       (SELECT json_group_array(json_object(
		                   'id', sc.id, 'path', sc.path,
		                   'thumbnail_path', sc.thumbnail_path, 'created_at', sc.created_at))
		          FROM screenshots sc
		          JOIN time_intervals si ON si.id = sc.time_interval_id
		         WHERE si.task_id = ti.task_id AND si.user_id = ti.user_id
		           AND si.deleted_at IS NULL AND sc.deleted_at IS NULL
		           AND si.start_at >= ? AND si.start_at < ?)
		FROM time_intervals ti
		JOIN tasks t    ON t.id = ti.task_id
		JOIN projects p ON p.id = t.project_id
		JOIN users u    ON u.id = ti.user_id
		WHERE ` + where + `
		GROUP BY ti.task_id, ti.user_id
		ORDER BY ti.task_id, ti.user_id`

	all := append([]any{resource.CanonicalTime(f.Start), resource.CanonicalTime(f.End)}, args...)
	rows, err := s.q(ctx).QueryContext(ctx, q, all...)
	if err != nil {
		return nil, fmt.Errorf("project report rows: %w", err)
	}
	defer rows.Close()

	out := []report.ProjectRow{}
	for rows.Next() {
		var r report.ProjectRow
		if err := rows.Scan(&r.UserID, &r.UserName, &r.ProjectID, &r.ProjectName, &r.TaskID, &r.TaskName, &r.Intervals, &r.Screens); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TimeUseRows returns one row per (task, user) with the pair's intervals as JSON.
func (s *Store) TimeUseRows(ctx context.Context, f report.Filter) ([]report.TimeUseRow, error) {
	where, args := reportWhere(f)
	q := `
		SELECT ti.user_id, u.full_name, u.email, ti.task_id, t.task_name, t.project_id, p.name,
		       json_group_array(json_object('id', ti.id, 'start_at', ti.start_at, 'end_at', ti.end_at))
		FROM time_intervals ti
		JOIN tasks t    ON t.id = ti.task_id
		JOIN projects p ON p.id = t.project_id
		JOIN users u    ON u.id = ti.user_id
		WHERE ` + where + `
		GROUP BY ti.task_id, ti.user_id
		ORDER BY ti.user_id, ti.task_id`

	rows, err := s.q(ctx).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("time use rows: %w", err)
	}
	defer rows.Close()

	out := []report.TimeUseRow{}
	for rows.Next() {
		var r report.TimeUseRow
		if err := rows.Scan(&r.UserID, &r.UserName, &r.UserEmail, &r.TaskID, &r.TaskName, &r.ProjectID, &r.ProjectName, &r.Intervals); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Intervals returns every matching interval with its owner, oldest first.
func (s *Store) Intervals(ctx context.Context, f report.Filter) ([]report.Interval, error) {
	where, args := reportWhere(f)
	q := `
		SELECT ti.user_id, u.full_name, ti.start_at, ti.end_at
		FROM time_intervals ti
		JOIN tasks t    ON t.id = ti.task_id
		JOIN projects p ON p.id = t.project_id
		JOIN users u    ON u.id = ti.user_id
		WHERE ` + where + `
		ORDER BY ti.start_at, ti.id`

	rows, err := s.q(ctx).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("report intervals: %w", err)
	}
	defer rows.Close()

	out := []report.Interval{}
	for rows.Next() {
		var iv report.Interval
		var start, end string
		if err := rows.Scan(&iv.UserID, &iv.UserName, &start, &end); err != nil {
			return nil, err
		}
		if iv.Start, err = time.Parse(time.RFC3339, start); err != nil {
			return nil, fmt.Errorf("interval start %q: %w", start, err)
		}
		if iv.End, err = time.Parse(time.RFC3339, end); err != nil {
			return nil, fmt.Errorf("interval end %q: %w", end, err)
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

package store

import (
	"context"
	"database/sql"
	"fmt"
)

func (s *Store) CreateTask(ctx context.Context, projectID, userID int64, name string) (*Task, error) {
	ts := now()
	res, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO tasks (project_id, user_id, task_name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		projectID, userID, name, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetTask(ctx, id)
}

func (s *Store) GetTask(ctx context.Context, id int64) (*Task, error) {
	t := &Task{}
	var description sql.NullString
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT id, project_id, user_id, task_name, description FROM tasks WHERE id = ?`, id,
	).Scan(&t.ID, &t.ProjectID, &t.UserID, &t.Name, &description)
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	t.Description = description.String
	return t, nil
}

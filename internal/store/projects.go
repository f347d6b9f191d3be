package store

import (
	"context"
	"database/sql"
	"fmt"
)

func (s *Store) CreateProject(ctx context.Context, name, description string) (*Project, error) {
	ts := now()
	res, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO projects (name, description, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		name, description, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetProject(ctx, id)
}

func (s *Store) GetProject(ctx context.Context, id int64) (*Project, error) {
	p := &Project{}
	var description sql.NullString
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT id, name, description FROM projects WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &description)
	if err != nil {
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}
	p.Description = description.String
	return p, nil
}

// ListProjects returns live projects ordered by name.
func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT id, name, description FROM projects WHERE deleted_at IS NULL ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		var description sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &description); err != nil {
			return nil, err
		}
		p.Description = description.String
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// AddProjectMember gives userID roleID inside the project, replacing any earlier role.
func (s *Store) AddProjectMember(ctx context.Context, projectID, userID, roleID int64) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO projects_users (project_id, user_id, role_id) VALUES (?, ?, ?)
		 ON CONFLICT(project_id, user_id) DO UPDATE SET role_id = excluded.role_id`,
		projectID, userID, roleID,
	)
	if err != nil {
		return fmt.Errorf("add user %d to project %d: %w", userID, projectID, err)
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/sadopc/worklog/internal/apperr"
)

// Actor is a snapshot of a user's grants, loaded once per request.
type Actor struct {
	User     User
	global   map[string]bool
	projects map[int64]map[string]bool
}

func rule(object, action string) string { return object + "." + action }

func (a *Actor) ID() int64 { return a.User.ID }

func (a *Actor) HasFullAccess(resource string) bool {
	return a.global[rule(resource, "full_access")]
}

func (a *Actor) RoleGrants(object, action string) bool {
	return a.global[rule(object, action)]
}

func (a *Actor) ProjectRoleGrants(projectID int64, object, action string) bool {
	return a.projects[projectID][rule(object, action)]
}

func (a *Actor) GrantedProjects(object, action string) []int64 {
	var ids []int64
	for id := range a.projects {
		if a.ProjectRoleGrants(id, object, action) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (a *Actor) ManualTime() bool { return a.User.ManualTime }

// LoadActor reads a user together with the rules of its global and project roles.
func (s *Store) LoadActor(ctx context.Context, userID int64) (*Actor, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, apperr.ForbiddenAction("user is not active")
	}
	a := &Actor{
		User:     *u,
		global:   make(map[string]bool),
		projects: make(map[int64]map[string]bool),
	}

	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT r.object, r.action
		FROM user_role ur
		JOIN rules r ON r.role_id = ur.role_id
		WHERE ur.user_id = ? AND r.allow = 1`, userID)
	if err != nil {
		return nil, fmt.Errorf("load global rules: %w", err)
	}
	for rows.Next() {
		var object, action string
		if err := rows.Scan(&object, &action); err != nil {
			rows.Close()
			return nil, err
		}
		a.global[rule(object, action)] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.q(ctx).QueryContext(ctx, `
		SELECT pu.project_id, r.object, r.action
		FROM projects_users pu
		JOIN projects p ON p.id = pu.project_id AND p.deleted_at IS NULL
		JOIN rules r ON r.role_id = pu.role_id
		WHERE pu.user_id = ? AND r.allow = 1`, userID)
	if err != nil {
		return nil, fmt.Errorf("load project rules: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var projectID int64
		var object, action string
		if err := rows.Scan(&projectID, &object, &action); err != nil {
			return nil, err
		}
		if a.projects[projectID] == nil {
			a.projects[projectID] = make(map[string]bool)
		}
		a.projects[projectID][rule(object, action)] = true
	}
	return a, rows.Err()
}

// GetUser returns a user or a not-found error.
func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	u := &User{}
	var manual, active int
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT id, full_name, email, manual_time, active FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.FullName, &u.Email, &manual, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("users", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	u.ManualTime = manual == 1
	u.Active = active == 1
	return u, nil
}

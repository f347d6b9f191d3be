package store

import (
	"context"
	"fmt"
)

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *Store) CreateUser(ctx context.Context, fullName, email string, manualTime bool) (*User, error) {
	ts := now()
	res, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO users (full_name, email, manual_time, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		fullName, email, boolInt(manualTime), ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetUser(ctx, id)
}

// ListUsers returns active users ordered by name.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT id, full_name, email, manual_time, active FROM users WHERE active = 1 ORDER BY full_name, id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var manual, active int
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &manual, &active); err != nil {
			return nil, err
		}
		u.ManualTime = manual == 1
		u.Active = active == 1
		users = append(users, u)
	}
	return users, rows.Err()
}

// AssignRole gives the user a global role.
func (s *Store) AssignRole(ctx context.Context, userID, roleID int64) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`INSERT OR IGNORE INTO user_role (user_id, role_id) VALUES (?, ?)`, userID, roleID)
	if err != nil {
		return fmt.Errorf("assign role %d to user %d: %w", roleID, userID, err)
	}
	return nil
}

func (s *Store) SetManualTime(ctx context.Context, userID int64, allowed bool) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`UPDATE users SET manual_time = ?, updated_at = ? WHERE id = ?`, boolInt(allowed), now(), userID)
	return err
}

func (s *Store) DeactivateUser(ctx context.Context, userID int64) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`UPDATE users SET active = 0, updated_at = ? WHERE id = ?`, now(), userID)
	return err
}

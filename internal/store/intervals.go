package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sadopc/worklog/internal/resource"
)

func (s *Store) CreateInterval(ctx context.Context, taskID, userID int64, start, end time.Time) (*TimeInterval, error) {
	ts := now()
	res, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO time_intervals (task_id, user_id, start_at, end_at, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		taskID, userID, resource.CanonicalTime(start), resource.CanonicalTime(end), ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert interval: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetInterval(ctx, id)
}

func (s *Store) GetInterval(ctx context.Context, id int64) (*TimeInterval, error) {
	iv := &TimeInterval{}
	var startAt, endAt string
	var manual int
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT id, task_id, user_id, start_at, end_at, is_manual FROM time_intervals WHERE id = ?`, id,
	).Scan(&iv.ID, &iv.TaskID, &iv.UserID, &startAt, &endAt, &manual)
	if err != nil {
		return nil, fmt.Errorf("get interval %d: %w", id, err)
	}
	iv.StartAt, _ = time.Parse(time.RFC3339, startAt)
	iv.EndAt, _ = time.Parse(time.RFC3339, endAt)
	iv.IsManual = manual == 1
	return iv, nil
}

// CreateScreenshot records a screenshot taken at createdAt for an interval.
func (s *Store) CreateScreenshot(ctx context.Context, intervalID int64, path, thumbnail string, createdAt time.Time) (*Screenshot, error) {
	ts := resource.CanonicalTime(createdAt)
	res, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO screenshots (time_interval_id, path, thumbnail_path, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		intervalID, path, thumbnail, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert screenshot: %w", err)
	}
	id, _ := res.LastInsertId()
	return &Screenshot{
		ID:             id,
		TimeIntervalID: intervalID,
		Path:           path,
		ThumbnailPath:  thumbnail,
		CreatedAt:      createdAt.UTC().Truncate(time.Second),
	}, nil
}

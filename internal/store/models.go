package store

import "time"

type User struct {
	ID         int64
	FullName   string
	Email      string
	ManualTime bool
	Active     bool
}

type Project struct {
	ID          int64
	Name        string
	Description string
}

type Task struct {
	ID          int64
	ProjectID   int64
	UserID      int64
	Name        string
	Description string
}

type TimeInterval struct {
	ID       int64
	TaskID   int64
	UserID   int64
	StartAt  time.Time
	EndAt    time.Time
	IsManual bool
}

type Screenshot struct {
	ID             int64
	TimeIntervalID int64
	Path           string
	ThumbnailPath  string
	CreatedAt      time.Time
}

type Setting struct {
	Key   string
	Value string
}

// Well-known role ids seeded by the first migration.
const (
	RoleAdmin    int64 = 1
	RoleUser     int64 = 2
	RoleObserver int64 = 3
	RoleManager  int64 = 4
)

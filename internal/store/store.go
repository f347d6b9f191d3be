package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sadopc/worklog/internal/resource"
	_ "modernc.org/sqlite"
)

const currentVersion = 1

type Store struct {
	db     *sql.DB
	schema *resource.Schema
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, schema: resource.DefaultSchema()}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Schema returns the resource descriptors the store was built for.
func (s *Store) Schema() *resource.Schema {
	return s.schema
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// q returns the transaction carried by ctx, or the database.
func (s *Store) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

// WithinTx runs fn inside a transaction. Calls nested in fn's context join the
// outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func now() string {
	return resource.CanonicalTime(time.Now())
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS roles (
		id    INTEGER PRIMARY KEY AUTOINCREMENT,
		name  TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS rules (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		role_id  INTEGER NOT NULL REFERENCES roles(id),
		object   TEXT NOT NULL,
		action   TEXT NOT NULL,
		allow    INTEGER NOT NULL DEFAULT 1,
		UNIQUE(role_id, object, action)
	);

	CREATE TABLE IF NOT EXISTS users (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		full_name    TEXT NOT NULL,
		email        TEXT NOT NULL UNIQUE,
		manual_time  INTEGER NOT NULL DEFAULT 0,
		active       INTEGER NOT NULL DEFAULT 1,
		created_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS user_role (
		user_id  INTEGER NOT NULL REFERENCES users(id),
		role_id  INTEGER NOT NULL REFERENCES roles(id),
		UNIQUE(user_id, role_id)
	);

	CREATE TABLE IF NOT EXISTS projects (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		company_id   INTEGER,
		name         TEXT NOT NULL,
		description  TEXT,
		created_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		deleted_at   TEXT
	);

	CREATE TABLE IF NOT EXISTS projects_users (
		project_id  INTEGER NOT NULL REFERENCES projects(id),
		user_id     INTEGER NOT NULL REFERENCES users(id),
		role_id     INTEGER NOT NULL REFERENCES roles(id),
		UNIQUE(project_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id   INTEGER NOT NULL REFERENCES projects(id),
		task_name    TEXT NOT NULL,
		description  TEXT,
		active       INTEGER NOT NULL DEFAULT 1,
		user_id      INTEGER NOT NULL REFERENCES users(id),
		assigned_by  INTEGER,
		priority_id  INTEGER,
		due_date     TEXT,
		created_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		deleted_at   TEXT
	);

	CREATE TABLE IF NOT EXISTS time_intervals (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id         INTEGER NOT NULL REFERENCES tasks(id),
		user_id         INTEGER NOT NULL REFERENCES users(id),
		start_at        TEXT NOT NULL,
		end_at          TEXT NOT NULL,
		is_manual       INTEGER NOT NULL DEFAULT 0,
		count_mouse     INTEGER NOT NULL DEFAULT 0,
		count_keyboard  INTEGER NOT NULL DEFAULT 0,
		created_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		deleted_at      TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_intervals_user_start ON time_intervals(user_id, start_at);
	CREATE INDEX IF NOT EXISTS idx_intervals_task       ON time_intervals(task_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_project        ON tasks(project_id);

	CREATE TABLE IF NOT EXISTS screenshots (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		time_interval_id  INTEGER NOT NULL REFERENCES time_intervals(id),
		path              TEXT NOT NULL,
		thumbnail_path    TEXT,
		created_at        TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at        TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		deleted_at        TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_screenshots_interval ON screenshots(time_interval_id);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO roles (id, name) VALUES
		(1, 'admin'),
		(2, 'user'),
		(3, 'observer'),
		(4, 'manager');

	INSERT OR IGNORE INTO rules (role_id, object, action) VALUES
		(1, 'projects',       'full_access'),
		(1, 'tasks',          'full_access'),
		(1, 'time-intervals', 'full_access'),
		(1, 'screenshots',    'full_access'),
		(3, 'projects',       'list'),
		(3, 'tasks',          'list'),
		(3, 'time-intervals', 'list'),
		(3, 'time-intervals', 'show'),
		(4, 'projects',       'list'),
		(4, 'projects',       'show'),
		(4, 'tasks',          'list'),
		(4, 'tasks',          'show'),
		(4, 'tasks',          'edit'),
		(4, 'time-intervals', 'list'),
		(4, 'time-intervals', 'show'),
		(4, 'time-intervals', 'edit'),
		(4, 'time-intervals', 'bulk-edit'),
		(4, 'time-intervals', 'remove'),
		(4, 'time-intervals', 'bulk-remove'),
		(4, 'screenshots',    'list'),
		(4, 'screenshots',    'show');

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('timezone',    'UTC'),
		('report_days', '7'),
		('order_by',    'name'),
		('order_dir',   'asc');
	`
	_, err := s.db.Exec(ddl)
	return err
}

// DefaultDBPath returns ~/.config/worklog/worklog.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "worklog", "worklog.db"), nil
}

package store

import (
	"context"
	"fmt"
	"strconv"
)

// Keys under which the report viewer keeps its preferences.
const (
	settingTimezone   = "timezone"
	settingReportDays = "report_days"
	settingOrderBy    = "order_by"
	settingOrderDir   = "order_dir"
)

func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.q(ctx).QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("setting %q: %w", key, err)
	}
	return value, nil
}

// SetSetting inserts key or replaces its value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *Store) ListSettings(ctx context.Context) ([]Setting, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var out []Setting
	for rows.Next() {
		var st Setting
		if err := rows.Scan(&st.Key, &st.Value); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// ReportDefaults are the viewer's saved report preferences.
type ReportDefaults struct {
	Timezone string
	Days     int
	OrderBy  string
	OrderDir string
}

// DefaultReportDefaults is what the viewer starts with on a fresh database.
var DefaultReportDefaults = ReportDefaults{Timezone: "UTC", Days: 7, OrderBy: "name", OrderDir: "asc"}

// GetReportDefaults overlays stored preferences on DefaultReportDefaults.
// Unparseable day counts are ignored.
func (s *Store) GetReportDefaults(ctx context.Context) (ReportDefaults, error) {
	d := DefaultReportDefaults
	settings, err := s.ListSettings(ctx)
	if err != nil {
		return d, err
	}
	for _, st := range settings {
		switch st.Key {
		case settingTimezone:
			d.Timezone = st.Value
		case settingReportDays:
			if n, err := strconv.Atoi(st.Value); err == nil && n > 0 {
				d.Days = n
			}
		case settingOrderBy:
			d.OrderBy = st.Value
		case settingOrderDir:
			d.OrderDir = st.Value
		}
	}
	return d, nil
}

// SaveReportDefaults writes all preferences in one transaction.
func (s *Store) SaveReportDefaults(ctx context.Context, d ReportDefaults) error {
	pairs := [][2]string{
		{settingTimezone, d.Timezone},
		{settingReportDays, strconv.Itoa(d.Days)},
		{settingOrderBy, d.OrderBy},
		{settingOrderDir, d.OrderDir},
	}
	return s.WithinTx(ctx, func(ctx context.Context) error {
		for _, p := range pairs {
			if err := s.SetSetting(ctx, p[0], p[1]); err != nil {
				return err
			}
		}
		return nil
	})
}

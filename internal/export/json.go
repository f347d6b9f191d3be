package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/worklog/internal/report"
)

type jsonExport struct {
	ExportedAt string              `json:"exported_at"`
	Count      int                 `json:"count"`
	Columns    []string            `json:"columns"`
	Rows       []map[string]string `json:"rows"`
}

// DashboardJSON writes the dashboard table as an indented JSON document. Each
// row is keyed by column title; columns keeps their display order.
func DashboardJSON(w io.Writer, rows []report.DashboardRow) error {
	t := DashboardTable(rows)
	out := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(t.Records),
		Columns:    t.Header,
		Rows:       make([]map[string]string, 0, len(t.Records)),
	}
	for _, rec := range t.Records {
		m := make(map[string]string, len(rec))
		for i, v := range rec {
			m[t.Header[i]] = v
		}
		out.Rows = append(out.Rows, m)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return nil
}

// ToJSON writes the dashboard to a JSON file at path.
func ToJSON(rows []report.DashboardRow, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	defer f.Close()

	if err := DashboardJSON(f, rows); err != nil {
		return err
	}
	return nil
}

package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/sadopc/worklog/internal/report"
)

// DashboardCSV writes the dashboard table as CSV with a header row.
func DashboardCSV(w io.Writer, rows []report.DashboardRow) error {
	t := DashboardTable(rows)

	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Records); err != nil {
		return err
	}
	return cw.Error()
}

// ToCSV writes the dashboard to a CSV file at path.
func ToCSV(rows []report.DashboardRow, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if err := DashboardCSV(f, rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

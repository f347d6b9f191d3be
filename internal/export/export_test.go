package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/worklog/internal/report"
)

func sampleRows() []report.DashboardRow {
	return []report.DashboardRow{
		{
			ID:   1,
			Name: "Ann",
			PerDay: []report.DayTotal{
				{Date: "2024-01-01", Seconds: 5400},
				{Date: "2024-01-02", Seconds: 0},
			},
			TimeWorked: 5400,
		},
		{
			ID:   2,
			Name: `Bob "B", Jr`,
			PerDay: []report.DayTotal{
				{Date: "2024-01-01", Seconds: 0},
				{Date: "2024-01-02", Seconds: 1800},
			},
			TimeWorked: 1800,
		},
	}
}

// ============================================================
// Table
// ============================================================

func TestDashboardTableHeader(t *testing.T) {
	tbl := DashboardTable(sampleRows())
	want := []string{"User", "Time worked", "Time worked (decimal)", "Monday, 01 Jan 2024", "Tuesday, 02 Jan 2024"}
	if len(tbl.Header) != len(want) {
		t.Fatalf("header = %v, want %v", tbl.Header, want)
	}
	for i, h := range want {
		if tbl.Header[i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, tbl.Header[i], h)
		}
	}
}

func TestDashboardTableRecords(t *testing.T) {
	tbl := DashboardTable(sampleRows())
	if len(tbl.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(tbl.Records))
	}
	ann := tbl.Records[0]
	want := []string{"Ann", "1:30:00", "1.500", "1.500", "0.000"}
	for i, v := range want {
		if ann[i] != v {
			t.Fatalf("ann[%d] = %q, want %q", i, ann[i], v)
		}
	}
	if tbl.Records[1][4] != "0.500" {
		t.Fatalf("bob day 2 = %q, want 0.500", tbl.Records[1][4])
	}
}

func TestDashboardTableSortsDates(t *testing.T) {
	rows := []report.DashboardRow{{
		Name: "Ann",
		PerDay: []report.DayTotal{
			{Date: "2024-01-03", Seconds: 60},
			{Date: "2023-12-31", Seconds: 60},
		},
	}}
	tbl := DashboardTable(rows)
	if tbl.Header[3] != "Sunday, 31 Dec 2023" || tbl.Header[4] != "Wednesday, 03 Jan 2024" {
		t.Fatalf("dates not sorted: %v", tbl.Header[3:])
	}
}

func TestDashboardTableEmpty(t *testing.T) {
	tbl := DashboardTable(nil)
	if len(tbl.Header) != 3 {
		t.Fatalf("header = %v, want the three fixed columns", tbl.Header)
	}
	if len(tbl.Records) != 0 {
		t.Fatalf("records = %d, want 0", len(tbl.Records))
	}
}

// ============================================================
// CSV
// ============================================================

func TestDashboardCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := DashboardCSV(&buf, sampleRows()); err != nil {
		t.Fatalf("DashboardCSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("CSV should be valid even with special chars: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 rows (1 header + 2 data), got %d", len(records))
	}
	if records[2][0] != `Bob "B", Jr` {
		t.Fatalf("user name mangled: %q", records[2][0])
	}
}

func TestToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.csv")
	if err := ToCSV(sampleRows(), path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if records[1][1] != "1:30:00" {
		t.Fatalf("Time worked = %q, want 1:30:00", records[1][1])
	}
}

func TestToCSVBadPath(t *testing.T) {
	if err := ToCSV(nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// JSON
// ============================================================

func TestDashboardJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := DashboardJSON(&buf, sampleRows()); err != nil {
		t.Fatalf("DashboardJSON: %v", err)
	}

	var result jsonExport
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if result.Count != 2 {
		t.Fatalf("count = %d, want 2", result.Count)
	}
	if _, err := time.Parse(time.RFC3339, result.ExportedAt); err != nil {
		t.Fatalf("exported_at is not valid RFC3339: %q", result.ExportedAt)
	}
	if result.Columns[3] != "Monday, 01 Jan 2024" {
		t.Fatalf("columns = %v", result.Columns)
	}
	if got := result.Rows[1]["Tuesday, 02 Jan 2024"]; got != "0.500" {
		t.Fatalf("bob day 2 = %q, want 0.500", got)
	}
	if got := result.Rows[0]["Time worked (decimal)"]; got != "1.500" {
		t.Fatalf("ann decimal = %q, want 1.500", got)
	}
}

func TestDashboardJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := DashboardJSON(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"rows": []`) {
		t.Fatalf("empty export should carry an empty rows array: %s", buf.String())
	}
}

func TestToJSONPrettyPrinted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pretty.json")
	if err := ToJSON(sampleRows(), path); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "\n  ") {
		t.Fatal("JSON should be indented with spaces")
	}
}

func TestToJSONBadPath(t *testing.T) {
	if err := ToJSON(nil, "/nonexistent/dir/file.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// helpers
// ============================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		secs int64
		want string
	}{
		{0, "0:00:00"},
		{1, "0:00:01"},
		{60, "0:01:00"},
		{3600, "1:00:00"},
		{3661, "1:01:01"},
		{90061, "25:01:01"},
		{-90, "-0:01:30"},
	}

	for _, tt := range tests {
		got := formatDuration(tt.secs)
		if got != tt.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}

func TestDecimalHours(t *testing.T) {
	tests := []struct {
		secs int64
		want string
	}{
		{0, "0.000"},
		{1800, "0.500"},
		{3600, "1.000"},
		{100, "0.028"},
	}
	for _, tt := range tests {
		if got := decimalHours(tt.secs); got != tt.want {
			t.Errorf("decimalHours(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}

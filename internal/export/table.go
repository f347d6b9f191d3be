package export

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/sadopc/worklog/internal/report"
)

// DayLayout is the column title format of a dashboard day.
const DayLayout = "Monday, 02 Jan 2006"

// Table is the tabular form of a dashboard shared by every writer.
type Table struct {
	Header  []string
	Records [][]string
}

// DashboardTable flattens dashboard rows into User, Time worked,
// Time worked (decimal) and one decimal-hours column per day.
func DashboardTable(rows []report.DashboardRow) Table {
	dates := dashboardDates(rows)

	header := []string{"User", "Time worked", "Time worked (decimal)"}
	for _, d := range dates {
		header = append(header, dayTitle(d))
	}

	t := Table{Header: header, Records: make([][]string, 0, len(rows))}
	for _, r := range rows {
		perDay := make(map[string]int64, len(r.PerDay))
		for _, d := range r.PerDay {
			perDay[d.Date] = d.Seconds
		}
		rec := []string{r.Name, formatDuration(r.TimeWorked), decimalHours(r.TimeWorked)}
		for _, d := range dates {
			rec = append(rec, decimalHours(perDay[d]))
		}
		t.Records = append(t.Records, rec)
	}
	return t
}

// dashboardDates returns every date of the matrix in YYYY-MM-DD order.
func dashboardDates(rows []report.DashboardRow) []string {
	seen := make(map[string]bool)
	var dates []string
	for _, r := range rows {
		for _, d := range r.PerDay {
			if !seen[d.Date] {
				seen[d.Date] = true
				dates = append(dates, d.Date)
			}
		}
	}
	sort.Strings(dates)
	return dates
}

func dayTitle(date string) string {
	d, err := time.Parse(report.DateLayout, date)
	if err != nil {
		return date
	}
	return d.Format(DayLayout)
}

func decimalHours(secs int64) string {
	return strconv.FormatFloat(float64(secs)/3600, 'f', 3, 64)
}

// formatDuration renders seconds as H:MM:SS. Hours are not capped at 24.
func formatDuration(secs int64) string {
	sign := ""
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%s%d:%02d:%02d", sign, h, m, s)
}

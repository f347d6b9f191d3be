package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/worklog/internal/report"
)

const (
	nameWidth = 18
	dayWidth  = 8
)

type dashboardModel struct {
	width  int
	height int

	rows  []report.DashboardRow
	total report.TotalResult
	chart barchart.Model
}

func newDashboardModel() dashboardModel {
	return dashboardModel{chart: barchart.New(60, 10)}
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
	d.buildChart()
}

func (d *dashboardModel) setData(rows []report.DashboardRow, total report.TotalResult) {
	d.rows = rows
	d.total = total
	d.buildChart()
}

// buildChart draws one bar per user, in dashboard order, of hours worked.
func (d *dashboardModel) buildChart() {
	chartWidth := d.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 10
	if d.height > 30 {
		chartHeight = 14
	}
	d.chart = barchart.New(chartWidth, chartHeight)

	bars := make([]barchart.BarData, 0, len(d.rows))
	for i, r := range d.rows {
		bars = append(bars, barchart.BarData{
			Label: truncate(r.Name, 10),
			Values: []barchart.BarValue{{
				Name:  r.Name,
				Value: float64(r.TimeWorked) / 3600,
				Style: lipgloss.NewStyle().Foreground(userColor(i)),
			}},
		})
	}
	if len(bars) == 0 {
		return
	}
	d.chart.PushAll(bars)
	d.chart.Draw()
}

func (d dashboardModel) view(header string) string {
	w := d.width - 4
	title := titleStyle.Render("Dashboard")
	total := highlightStyle.Render(formatSeconds(d.total.Time))
	top := lipgloss.JoinHorizontal(lipgloss.Bottom, title, "  ", total, "  ", header)

	if len(d.rows) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			top, "", mutedStyle.Render("No time tracked in this period"),
		))
	}

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		top, "", d.chart.View(), "", d.renderMatrix(w-6),
	))
}

// renderMatrix prints the user x day table, dropping the oldest days that
// do not fit the width.
func (d dashboardModel) renderMatrix(w int) string {
	fixed := 2 + nameWidth + 1 + 10
	fit := (w - fixed) / dayWidth
	if fit < 0 {
		fit = 0
	}
	days := d.rows[0].PerDay
	if len(days) > fit {
		days = days[len(days)-fit:]
	}

	var b strings.Builder
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %-*s %10s", nameWidth, "User", "Worked")))
	for _, day := range days {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%*s", dayWidth, dayLabel(day.Date))))
	}
	b.WriteString("\n")

	for i, r := range d.rows {
		dot := lipgloss.NewStyle().Foreground(userColor(i)).Render("●")
		fmt.Fprintf(&b, "%s %-*s %10s", dot, nameWidth, truncate(r.Name, nameWidth), formatSeconds(r.TimeWorked))
		for _, day := range r.PerDay[len(r.PerDay)-len(days):] {
			cell := fmt.Sprintf("%*s", dayWidth, formatHours(day.Seconds))
			if day.Seconds == 0 {
				cell = mutedStyle.Render(cell)
			}
			b.WriteString(cell)
		}
		if i < len(d.rows)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func dayLabel(date string) string {
	t, err := time.Parse(report.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("Mon 02")
}

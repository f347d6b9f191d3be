package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/worklog/internal/report"
)

type projectsModel struct {
	width  int
	height int

	buckets  []report.ProjectBucket
	cursor   int
	expanded bool // true = showing users and tasks of the selected project
}

func newProjectsModel() projectsModel {
	return projectsModel{}
}

func (p *projectsModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

func (p *projectsModel) setData(buckets []report.ProjectBucket) {
	p.buckets = buckets
	if p.cursor >= len(buckets) {
		p.cursor = 0
		p.expanded = false
	}
}

func (p projectsModel) update(msg tea.Msg) (projectsModel, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch {
	case key.Matches(km, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(km, keys.Down):
		if p.cursor < len(p.buckets)-1 {
			p.cursor++
		}
	case key.Matches(km, keys.Enter):
		p.expanded = len(p.buckets) > 0 && !p.expanded
	case key.Matches(km, keys.Back):
		p.expanded = false
	}
	return p, nil
}

func (p projectsModel) view(header string) string {
	if p.expanded && p.cursor < len(p.buckets) {
		return p.renderProject(p.buckets[p.cursor])
	}
	return p.renderList(header)
}

func (p projectsModel) renderList(header string) string {
	w := p.width - 4
	title := lipgloss.JoinHorizontal(lipgloss.Bottom, titleStyle.Render("Projects"), "  ", header)

	if len(p.buckets) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render("No project time in this period"),
		))
	}

	var rows []string
	rows = append(rows, title, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-28s %10s %6s", "Project", "Time", "Users")))
	for i, b := range p.buckets {
		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-28s %10s %6d",
			cursor, truncate(b.Name, 28), formatSeconds(b.ProjectTime), len(b.Users))))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: details  ↑/↓: move"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (p projectsModel) renderProject(b report.ProjectBucket) string {
	w := p.width - 4
	title := titleStyle.Render(fmt.Sprintf("%s  %s", b.Name, highlightStyle.Render(formatSeconds(b.ProjectTime))))

	var rows []string
	rows = append(rows, title, "")
	for _, u := range b.Users {
		rows = append(rows, fmt.Sprintf("  %s  %s", highlightStyle.Render(u.FullName), formatSeconds(u.TasksTime)))
		for _, t := range u.Tasks {
			rows = append(rows, fmt.Sprintf("    %-26s %10s  %s",
				truncate(t.TaskName, 26), formatSeconds(t.Duration), mutedStyle.Render(taskDays(t))))
		}
	}
	rows = append(rows, "", mutedStyle.Render("  esc: back"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

// taskDays lists the dates a task was worked on with their hours.
func taskDays(t *report.TaskBucket) string {
	dates := make([]string, 0, len(t.Dates))
	for d := range t.Dates {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	parts := make([]string, len(dates))
	for i, d := range dates {
		parts[i] = fmt.Sprintf("%s %s", dayLabel(d), formatHours(t.Dates[d]))
	}
	return strings.Join(parts, ", ")
}

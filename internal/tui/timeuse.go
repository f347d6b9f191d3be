package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/worklog/internal/report"
)

type timeUseModel struct {
	width  int
	height int

	buckets []report.UserBucket
	cursor  int
}

func newTimeUseModel() timeUseModel {
	return timeUseModel{}
}

func (t *timeUseModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

func (t *timeUseModel) setData(buckets []report.UserBucket) {
	t.buckets = buckets
	if t.cursor >= len(buckets) {
		t.cursor = 0
	}
}

func (t timeUseModel) update(msg tea.Msg) (timeUseModel, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.Up):
			if t.cursor > 0 {
				t.cursor--
			}
		case key.Matches(km, keys.Down):
			if t.cursor < len(t.buckets)-1 {
				t.cursor++
			}
		}
	}
	return t, nil
}

func (t timeUseModel) view(header string) string {
	w := t.width - 4
	title := lipgloss.JoinHorizontal(lipgloss.Bottom, titleStyle.Render("Time use"), "  ", header)

	if len(t.buckets) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render("No time tracked in this period"),
		))
	}

	var rows []string
	rows = append(rows, title, "")
	for i, b := range t.buckets {
		cursor := "  "
		style := normalItemStyle
		if i == t.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-24s %10s", cursor, truncate(b.User.FullName, 24), formatSeconds(b.TotalTime)))+
			mutedStyle.Render("  "+b.User.Email))
		if i != t.cursor {
			continue
		}
		for _, task := range b.Tasks {
			rows = append(rows, fmt.Sprintf("      %-22s %10s  %s",
				truncate(task.Name, 22), formatSeconds(task.TotalTime), mutedStyle.Render(task.ProjectName)))
		}
	}
	rows = append(rows, "", mutedStyle.Render("  ↑/↓: move"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/worklog/internal/store"
)

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	defaults   store.ReportDefaults
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	timezone *string
	days     *string
	orderBy  *string
	orderDir *string
}

func newSettingsModel(s *store.Store) settingsModel {
	tz, days, by, dir := "", "", "", ""
	return settingsModel{
		store:    s,
		timezone: &tz,
		days:     &days,
		orderBy:  &by,
		orderDir: &dir,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	defaults store.ReportDefaults
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		d, _ := s.store.GetReportDefaults(context.Background())
		return settingsDataMsg{defaults: d}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.defaults = msg.defaults
		return s, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Enter) {
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.timezone = s.defaults.Timezone
	*s.days = strconv.Itoa(s.defaults.Days)
	*s.orderBy = s.defaults.OrderBy
	*s.orderDir = s.defaults.OrderDir

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Timezone").
				Description("IANA name, e.g. Europe/Berlin").
				Validate(validateTimezone).
				Value(s.timezone),
			huh.NewInput().Title("Days per period").
				Validate(validateDays).
				Value(s.days),
		).Title("Period"),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Order users by").
				Options(
					huh.NewOption("Name", "name"),
					huh.NewOption("Time worked", "time_worked"),
					huh.NewOption("Id", "id"),
				).Value(s.orderBy),
			huh.NewSelect[string]().Title("Direction").
				Options(
					huh.NewOption("Ascending", "asc"),
					huh.NewOption("Descending", "desc"),
				).Value(s.orderDir),
		).Title("Dashboard"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		return s, s.save()
	}

	return s, cmd
}

func (s settingsModel) save() tea.Cmd {
	d := store.ReportDefaults{
		Timezone: strings.TrimSpace(*s.timezone),
		OrderBy:  *s.orderBy,
		OrderDir: *s.orderDir,
	}
	d.Days, _ = strconv.Atoi(strings.TrimSpace(*s.days))
	return func() tea.Msg {
		loc, err := time.LoadLocation(d.Timezone)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Settings error: %v", err), isError: true}
		}
		if err := s.store.SaveReportDefaults(context.Background(), d); err != nil {
			return statusMsg{text: fmt.Sprintf("Settings error: %v", err), isError: true}
		}
		return settingsSavedMsg{days: d.Days, loc: loc, orderBy: d.OrderBy, orderDir: d.OrderDir}
	}
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	entries := [][2]string{
		{"timezone", s.defaults.Timezone},
		{"days per period", strconv.Itoa(s.defaults.Days)},
		{"order by", s.defaults.OrderBy},
		{"direction", s.defaults.OrderDir},
	}
	rows := []string{title, ""}
	for _, e := range entries {
		label := lipgloss.NewStyle().Width(20).Render(e[0])
		rows = append(rows, fmt.Sprintf("  %s %s", label, highlightStyle.Render(e[1])))
	}
	rows = append(rows, "", mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func validateTimezone(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("timezone is required")
	}
	_, err := time.LoadLocation(strings.TrimSpace(s))
	return err
}

func validateDays(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 31 {
		return errors.New("days must be between 1 and 31")
	}
	return nil
}

package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/worklog/internal/export"
	"github.com/sadopc/worklog/internal/report"
	"github.com/sadopc/worklog/internal/store"
)

var orderColumns = []string{"name", "time_worked", "id"}

// App is the root Bubble Tea model of the report viewer.
type App struct {
	store  *store.Store
	loader loader
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int
	exportDir     string

	period period
	order  report.Order
	data   reportData

	filter    filterModel
	dashboard dashboardModel
	projects  projectsModel
	timeUse   timeUseModel
	settings  settingsModel

	help      help.Model
	status    string
	statusErr bool
}

// NewApp builds the viewer for actor, starting from the saved report defaults.
func NewApp(s *store.Store, actor *store.Actor) App {
	h := help.New()
	h.ShowAll = false

	d, _ := s.GetReportDefaults(context.Background())
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		loc = time.UTC
	}
	order, err := report.ParseOrder(d.OrderBy, d.OrderDir)
	if err != nil {
		order = report.Order{By: "name"}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	l := newLoader(s, actor)
	return App{
		store:      s,
		loader:     l,
		activeView: viewDashboard,
		exportDir:  home,
		period:     newPeriod(d.Days, loc),
		order:      order,
		filter:     newFilterModel(s, l.seesOthers()),
		dashboard:  newDashboardModel(),
		projects:   newProjectsModel(),
		timeUse:    newTimeUseModel(),
		settings:   newSettingsModel(s),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.reload(),
		a.filter.loadOptions(),
		a.settings.refresh(),
	)
}

// reload fetches every report for the current period, filter and order.
func (a App) reload() tea.Cmd {
	start, end := a.period.bounds()
	f := a.loader.filter(start, end, a.filter.selectedProjects(), a.filter.selectedUsers())
	return a.loader.load(f, a.period.loc, a.order)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.filter.width = a.width
		a.dashboard.setSize(a.width, contentHeight)
		a.projects.setSize(a.width, contentHeight)
		a.timeUse.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}
		if a.filter.formActive {
			var cmd tea.Cmd
			a.filter, cmd = a.filter.update(msg)
			return a, cmd
		}
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewDashboard
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewProjects
			return a, nil
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewTimeUse
			return a, nil
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewSettings
			return a, a.settings.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, nil
		case key.Matches(msg, keys.Earlier):
			a.period = a.period.earlier()
			return a, a.reload()
		case key.Matches(msg, keys.Later):
			a.period = a.period.later()
			return a, a.reload()
		case key.Matches(msg, keys.Refresh):
			return a, a.reload()
		case key.Matches(msg, keys.Filter):
			var cmd tea.Cmd
			a.filter, cmd = a.filter.open()
			return a, cmd
		case key.Matches(msg, keys.Order):
			a.order.By = nextOrder(a.order.By)
			return a, a.reload()
		case key.Matches(msg, keys.Reverse):
			a.order.Desc = !a.order.Desc
			return a, a.reload()
		}

	case reportsLoadedMsg:
		if msg.err != nil {
			a.status = fmt.Sprintf("Report error: %v", msg.err)
			a.statusErr = true
			return a, nil
		}
		a.data = msg.data
		a.dashboard.setData(msg.data.dashboard, msg.data.total)
		a.projects.setData(msg.data.projects)
		a.timeUse.setData(msg.data.timeUse)
		return a, nil

	case filterOptionsMsg:
		var cmd tea.Cmd
		a.filter, cmd = a.filter.update(msg)
		return a, cmd

	case filterAppliedMsg:
		a.status = "Filter: " + a.filter.summary()
		a.statusErr = false
		return a, a.reload()

	case settingsSavedMsg:
		a.period = newPeriod(msg.days, msg.loc)
		if o, err := report.ParseOrder(msg.orderBy, msg.orderDir); err == nil {
			a.order = o
		}
		a.status = "Settings saved"
		a.statusErr = false
		return a, tea.Batch(a.reload(), a.settings.refresh())

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		a.exportPicking = false
		return a, nil
	}

	if a.filter.formActive {
		var cmd tea.Cmd
		a.filter, cmd = a.filter.update(msg)
		return a, cmd
	}
	return a.updateActiveView(msg)
}

func nextOrder(by string) string {
	for i, c := range orderColumns {
		if c == by {
			return orderColumns[(i+1)%len(orderColumns)]
		}
	}
	return orderColumns[0]
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewProjects:
		a.projects, cmd = a.projects.update(msg)
	case viewTimeUse:
		a.timeUse, cmd = a.timeUse.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	return a.activeView == viewSettings && a.settings.formActive
}

// subheader describes what the report views currently show.
func (a App) subheader() string {
	dir := "asc"
	if a.order.Desc {
		dir = "desc"
	}
	return mutedStyle.Render(fmt.Sprintf("%s  ·  %s  ·  %s %s",
		a.period.label(), a.filter.summary(), a.order.By, dir))
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view(a.subheader())
	case viewProjects:
		content = a.projects.view(a.subheader())
	case viewTimeUse:
		content = a.timeUse.view(a.subheader())
	case viewSettings:
		content = a.settings.view()
	}

	contentHeight := a.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 1 {
		contentHeight = 1
	}

	switch {
	case a.exportPicking:
		content = a.renderExportPicker()
	case a.filter.formActive:
		content = a.filter.view()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("worklog")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	left := footerStyle.Render(a.help.View(keys))

	right := successStyle.Render(" Σ " + formatSeconds(a.data.total.Time))
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		right += style.Render(" " + a.status)
	}

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

var exportFormats = []string{"CSV", "JSON"}

func (a App) renderExportPicker() string {
	var rows []string
	rows = append(rows, titleStyle.Render("Export dashboard"), "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: export  esc: cancel"))
	if len(a.data.dashboard) == 0 {
		rows = append(rows, warningStyle.Render("  nothing tracked in this period"))
	}

	return activePanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// exportPath names the file for the current period, e.g.
// worklog-dashboard-2024-01-01_2024-01-07.csv.
func (a App) exportPath(ext string) string {
	start, end := a.period.bounds()
	name := fmt.Sprintf("worklog-dashboard-%s_%s.%s",
		start.Format(report.DateLayout), end.AddDate(0, 0, -1).Format(report.DateLayout), ext)
	return filepath.Join(a.exportDir, name)
}

func (a App) doExport(format int) tea.Cmd {
	rows := a.data.dashboard
	return func() tea.Msg {
		if len(rows) == 0 {
			return statusMsg{text: "Nothing to export", isError: true}
		}
		var path string
		if format == 0 {
			path = a.exportPath("csv")
			if err := export.ToCSV(rows, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = a.exportPath("json")
			if err := export.ToJSON(rows, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}
		return exportDoneMsg{path: path}
	}
}

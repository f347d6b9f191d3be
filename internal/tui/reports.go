package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/worklog/internal/report"
	"github.com/sadopc/worklog/internal/resource"
	"github.com/sadopc/worklog/internal/scope"
	"github.com/sadopc/worklog/internal/store"
)

// reportData is everything the report views render for one window.
type reportData struct {
	projects  []report.ProjectBucket
	timeUse   []report.UserBucket
	dashboard []report.DashboardRow
	total     report.TotalResult
}

type reportsLoadedMsg struct {
	data reportData
	err  error
}

// loader runs the report engine on behalf of one actor.
type loader struct {
	store  *store.Store
	engine report.Engine
	actor  *store.Actor
}

func newLoader(s *store.Store, actor *store.Actor) loader {
	return loader{store: s, engine: report.Engine{Source: s}, actor: actor}
}

// seesOthers reports whether the actor can list intervals of other users,
// either everyone's or those on projects it manages.
func (l loader) seesOthers() bool {
	d := l.decision()
	return d.Kind == scope.FullAccess || len(d.Projects()) > 0
}

func (l loader) decision() scope.Decision {
	res := l.store.Schema().MustGet(resource.TimeIntervals)
	return scope.Resolve(l.actor, scope.Target{Resource: res, Method: resource.MethodList})
}

// filter builds the report filter for [start, end), scoped to the intervals
// the actor could list.
func (l loader) filter(start, end time.Time, projectIDs, userIDs []int64) report.Filter {
	return report.Filter{
		Start:      start,
		End:        end,
		ProjectIDs: projectIDs,
		UserIDs:    userIDs,
		Visible:    l.decision().Visibility(),
	}
}

func (l loader) load(f report.Filter, loc *time.Location, o report.Order) tea.Cmd {
	return func() tea.Msg {
		data, err := l.fetch(context.Background(), f, loc, o)
		return reportsLoadedMsg{data: data, err: err}
	}
}

func (l loader) fetch(ctx context.Context, f report.Filter, loc *time.Location, o report.Order) (reportData, error) {
	var data reportData
	var err error
	if data.dashboard, err = l.engine.Dashboard(ctx, f, loc, o); err != nil {
		return data, fmt.Errorf("dashboard: %w", err)
	}
	if data.projects, err = l.engine.Project(ctx, f, loc); err != nil {
		return data, fmt.Errorf("project report: %w", err)
	}
	if data.timeUse, err = l.engine.TimeUse(ctx, f, loc); err != nil {
		return data, fmt.Errorf("time use: %w", err)
	}
	if data.total, err = l.engine.Total(ctx, f); err != nil {
		return data, fmt.Errorf("total: %w", err)
	}
	return data, nil
}

// --- Filter form ---

type filterOptionsMsg struct {
	projects []store.Project
	users    []store.User
	err      error
}

type filterAppliedMsg struct{}

type filterModel struct {
	store     *store.Store
	showUsers bool
	width     int

	projects []store.Project
	users    []store.User

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	projectIDs *[]int64
	userIDs    *[]int64
}

func newFilterModel(s *store.Store, showUsers bool) filterModel {
	var projects, users []int64
	return filterModel{
		store:      s,
		showUsers:  showUsers,
		projectIDs: &projects,
		userIDs:    &users,
	}
}

func (f filterModel) loadOptions() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		projects, err := f.store.ListProjects(ctx)
		if err != nil {
			return filterOptionsMsg{err: err}
		}
		var users []store.User
		if f.showUsers {
			if users, err = f.store.ListUsers(ctx); err != nil {
				return filterOptionsMsg{err: err}
			}
		}
		return filterOptionsMsg{projects: projects, users: users}
	}
}

func (f filterModel) open() (filterModel, tea.Cmd) {
	projectOpts := make([]huh.Option[int64], 0, len(f.projects))
	for _, p := range f.projects {
		projectOpts = append(projectOpts, huh.NewOption(p.Name, p.ID))
	}
	fields := []huh.Field{
		huh.NewMultiSelect[int64]().
			Title("Projects").
			Description("Nothing selected means every project").
			Options(projectOpts...).
			Value(f.projectIDs),
	}
	if f.showUsers {
		userOpts := make([]huh.Option[int64], 0, len(f.users))
		for _, u := range f.users {
			userOpts = append(userOpts, huh.NewOption(u.FullName, u.ID))
		}
		fields = append(fields, huh.NewMultiSelect[int64]().
			Title("Users").
			Description("Nothing selected means every user").
			Options(userOpts...).
			Value(f.userIDs))
	}

	f.form = huh.NewForm(huh.NewGroup(fields...).Title("Filter")).
		WithShowHelp(true)
	f.formActive = true
	return f, f.form.Init()
}

func (f filterModel) update(msg tea.Msg) (filterModel, tea.Cmd) {
	switch msg := msg.(type) {
	case filterOptionsMsg:
		if msg.err == nil {
			f.projects = msg.projects
			f.users = msg.users
		}
		return f, nil
	case tea.KeyMsg:
		if msg.String() == "esc" {
			f.formActive = false
			f.form = nil
			return f, nil
		}
	}
	if !f.formActive || f.form == nil {
		return f, nil
	}

	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}
	if f.form.State == huh.StateCompleted {
		f.formActive = false
		f.form = nil
		return f, func() tea.Msg { return filterAppliedMsg{} }
	}
	return f, cmd
}

func (f filterModel) selectedProjects() []int64 { return append([]int64(nil), *f.projectIDs...) }
func (f filterModel) selectedUsers() []int64    { return append([]int64(nil), *f.userIDs...) }

// summary is the one-line description shown in the header.
func (f filterModel) summary() string {
	s := "all projects"
	if n := len(*f.projectIDs); n == 1 {
		s = f.projectName((*f.projectIDs)[0])
	} else if n > 1 {
		s = fmt.Sprintf("%d projects", n)
	}
	if !f.showUsers {
		return s
	}
	if n := len(*f.userIDs); n == 0 {
		s += ", all users"
	} else {
		s += fmt.Sprintf(", %d users", n)
	}
	return s
}

func (f filterModel) projectName(id int64) string {
	for _, p := range f.projects {
		if p.ID == id {
			return p.Name
		}
	}
	return fmt.Sprintf("project %d", id)
}

func (f filterModel) view() string {
	if f.form == nil {
		return ""
	}
	content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Filter reports"), "", f.form.View())
	return activePanelStyle.Width(f.width - 4).Render(content)
}

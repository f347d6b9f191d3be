package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/worklog/internal/report"
	"github.com/sadopc/worklog/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

type fixture struct {
	store          *store.Store
	root, ann, bob *store.Actor
	web, api       *store.Project
}

func mustTime(t *testing.T, v string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, v)
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

// seed creates an admin and two users. Ann has 30 minutes on Web on
// 2024-01-01, Bob 45 minutes on API on 2024-01-02.
func seed(t *testing.T) fixture {
	t.Helper()
	s := newTestStore(t)
	ctx := context.Background()

	root, err := s.CreateUser(ctx, "Root", "root@example.com", false)
	if err != nil {
		t.Fatal(err)
	}
	ann, _ := s.CreateUser(ctx, "Ann", "ann@example.com", false)
	bob, _ := s.CreateUser(ctx, "Bob", "bob@example.com", false)
	if err := s.AssignRole(ctx, root.ID, store.RoleAdmin); err != nil {
		t.Fatal(err)
	}
	s.AssignRole(ctx, ann.ID, store.RoleUser)
	s.AssignRole(ctx, bob.ID, store.RoleUser)

	web, _ := s.CreateProject(ctx, "Web", "")
	api, _ := s.CreateProject(ctx, "API", "")
	build, _ := s.CreateTask(ctx, web.ID, ann.ID, "Build")
	deploy, _ := s.CreateTask(ctx, api.ID, bob.ID, "Deploy")

	if _, err := s.CreateInterval(ctx, build.ID, ann.ID,
		mustTime(t, "2024-01-01T10:00:00Z"), mustTime(t, "2024-01-01T10:30:00Z")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateInterval(ctx, deploy.ID, bob.ID,
		mustTime(t, "2024-01-02T09:00:00Z"), mustTime(t, "2024-01-02T09:45:00Z")); err != nil {
		t.Fatal(err)
	}

	f := fixture{store: s, web: web, api: api}
	for _, p := range []struct {
		dst **store.Actor
		id  int64
	}{{&f.root, root.ID}, {&f.ann, ann.ID}, {&f.bob, bob.ID}} {
		a, err := s.LoadActor(ctx, p.id)
		if err != nil {
			t.Fatal(err)
		}
		*p.dst = a
	}
	return f
}

func fixedNow(v string) func() time.Time {
	ts, _ := time.Parse(time.RFC3339, v)
	return func() time.Time { return ts }
}

// newTestApp returns a sized viewer whose period ends on 2024-01-03.
func newTestApp(t *testing.T, f fixture, actor *store.Actor) App {
	t.Helper()
	app := NewApp(f.store, actor)
	app.period.now = fixedNow("2024-01-03T12:00:00Z")
	app.exportDir = t.TempDir()
	m, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m.(App)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, app App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := app.Update(msg)
	a, ok := m.(App)
	if !ok {
		t.Fatalf("update returned %T", m)
	}
	return a, cmd
}

// load runs the viewer's reload command and feeds the result back.
func load(t *testing.T, app App) App {
	t.Helper()
	msg := app.reload()()
	loaded, ok := msg.(reportsLoadedMsg)
	if !ok {
		t.Fatalf("reload produced %T", msg)
	}
	if loaded.err != nil {
		t.Fatalf("reload: %v", loaded.err)
	}
	app, _ = press(t, app, loaded)
	return app
}

// ============================================================
// Helpers
// ============================================================

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		secs int64
		want string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{3600, "01:00:00"},
		{3661, "01:01:01"},
		{90000, "25:00:00"},
		{-90, "-00:01:30"},
	}
	for _, tt := range tests {
		if got := formatSeconds(tt.secs); got != tt.want {
			t.Errorf("formatSeconds(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}

func TestFormatHours(t *testing.T) {
	tests := []struct {
		secs int64
		want string
	}{
		{0, "0.0h"},
		{1800, "0.5h"},
		{3600, "1.0h"},
		{5400, "1.5h"},
	}
	for _, tt := range tests {
		if got := formatHours(tt.secs); got != tt.want {
			t.Errorf("formatHours(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := truncate("Ümraniye office", 6); got != "Ümran…" {
		t.Fatalf("got %q", got)
	}
	if got := truncate("abc", 1); got != "…" {
		t.Fatalf("got %q", got)
	}
	if got := truncate("abc", 0); got != "abc" {
		t.Fatalf("zero width should not cut, got %q", got)
	}
}

func TestNextOrder(t *testing.T) {
	if nextOrder("name") != "time_worked" || nextOrder("time_worked") != "id" || nextOrder("id") != "name" {
		t.Fatal("order columns should cycle name, time_worked, id")
	}
	if nextOrder("bogus") != "name" {
		t.Fatal("unknown column should restart at name")
	}
}

// ============================================================
// Period
// ============================================================

func TestPeriodBounds(t *testing.T) {
	p := newPeriod(7, time.UTC)
	p.now = fixedNow("2024-01-03T12:00:00Z")

	start, end := p.bounds()
	if !start.Equal(mustTime(t, "2023-12-28T00:00:00Z")) {
		t.Fatalf("start = %v", start)
	}
	if !end.Equal(mustTime(t, "2024-01-04T00:00:00Z")) {
		t.Fatalf("end = %v", end)
	}
}

func TestPeriodNavigation(t *testing.T) {
	p := newPeriod(7, time.UTC)
	p.now = fixedNow("2024-01-03T12:00:00Z")

	p = p.earlier()
	start, end := p.bounds()
	if !start.Equal(mustTime(t, "2023-12-21T00:00:00Z")) || !end.Equal(mustTime(t, "2023-12-28T00:00:00Z")) {
		t.Fatalf("earlier window = %v .. %v", start, end)
	}

	p = p.later().later()
	if p.offset != 0 {
		t.Fatalf("later should stop at the current window, offset = %d", p.offset)
	}
}

func TestPeriodUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	p := newPeriod(1, loc)
	// 22:30 UTC is already the next day at +3.
	p.now = fixedNow("2024-01-03T22:30:00Z")

	start, end := p.bounds()
	if !start.Equal(mustTime(t, "2024-01-03T21:00:00Z")) {
		t.Fatalf("start = %v", start.UTC())
	}
	if end.Sub(start) != 24*time.Hour {
		t.Fatalf("one day window spans %v", end.Sub(start))
	}
	if got := p.label(); got != "Thu, Jan 04 2024" {
		t.Fatalf("label = %q", got)
	}
}

func TestPeriodDefaults(t *testing.T) {
	p := newPeriod(0, nil)
	if p.days != 7 || p.loc != time.UTC || p.now == nil {
		t.Fatalf("unexpected defaults %+v", p)
	}
}

func TestPeriodLabel(t *testing.T) {
	p := newPeriod(7, time.UTC)
	p.now = fixedNow("2024-01-03T12:00:00Z")
	if got := p.label(); got != "Dec 28 - Jan 03, 2024" {
		t.Fatalf("label = %q", got)
	}
}

// ============================================================
// Loader
// ============================================================

func TestLoaderFilterRestrictsUsers(t *testing.T) {
	f := seed(t)
	start, end := mustTime(t, "2024-01-01T00:00:00Z"), mustTime(t, "2024-01-08T00:00:00Z")

	admin := newLoader(f.store, f.root)
	if !admin.seesOthers() {
		t.Fatal("admin should list every interval")
	}
	got := admin.filter(start, end, []int64{f.web.ID}, []int64{f.bob.ID()})
	if len(got.UserIDs) != 1 || got.UserIDs[0] != f.bob.ID() || got.ProjectIDs[0] != f.web.ID {
		t.Fatalf("admin filter = %+v", got)
	}
	if got.Visible != nil {
		t.Fatalf("admin reports should be unscoped, got %+v", got.Visible)
	}

	user := newLoader(f.store, f.ann)
	if user.seesOthers() {
		t.Fatal("plain user should not list every interval")
	}
	got = user.filter(start, end, nil, []int64{f.bob.ID()})
	if got.Visible == nil || got.Visible.Owner != f.ann.ID() || len(got.Visible.Projects) != 0 {
		t.Fatalf("user filter should be scoped to the actor, got %+v", got.Visible)
	}
}

func TestLoaderFetchFollowsProjectRole(t *testing.T) {
	f := seed(t)
	ctx := context.Background()
	if err := f.store.AddProjectMember(ctx, f.web.ID, f.ann.ID(), store.RoleManager); err != nil {
		t.Fatal(err)
	}
	review, err := f.store.CreateTask(ctx, f.web.ID, f.bob.ID(), "Review")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.store.CreateInterval(ctx, review.ID, f.bob.ID(),
		mustTime(t, "2024-01-02T14:00:00Z"), mustTime(t, "2024-01-02T14:10:00Z")); err != nil {
		t.Fatal(err)
	}
	ann, err := f.store.LoadActor(ctx, f.ann.ID())
	if err != nil {
		t.Fatal(err)
	}

	l := newLoader(f.store, ann)
	if !l.seesOthers() {
		t.Fatal("a project manager should be able to filter by user")
	}
	flt := l.filter(mustTime(t, "2024-01-01T00:00:00Z"), mustTime(t, "2024-01-08T00:00:00Z"), nil, nil)
	data, err := l.fetch(ctx, flt, time.UTC, report.Order{By: "name"})
	if err != nil {
		t.Fatal(err)
	}
	if len(data.dashboard) != 2 || data.dashboard[1].Name != "Bob" || data.dashboard[1].TimeWorked != 600 {
		t.Fatalf("manager should see Bob's Web time only, got %+v", data.dashboard)
	}
	if data.total.Time != 2400 {
		t.Fatalf("total = %d, want 2400", data.total.Time)
	}
}

func TestLoaderFetchAll(t *testing.T) {
	f := seed(t)
	l := newLoader(f.store, f.root)
	flt := l.filter(mustTime(t, "2024-01-01T00:00:00Z"), mustTime(t, "2024-01-08T00:00:00Z"), nil, nil)

	data, err := l.fetch(context.Background(), flt, time.UTC, report.Order{By: "name"})
	if err != nil {
		t.Fatal(err)
	}
	if len(data.dashboard) != 2 || data.dashboard[0].Name != "Ann" || data.dashboard[1].Name != "Bob" {
		t.Fatalf("dashboard = %+v", data.dashboard)
	}
	if len(data.dashboard[0].PerDay) != 2 {
		t.Fatalf("dashboard should be dense over both days, got %+v", data.dashboard[0].PerDay)
	}
	if len(data.projects) != 2 {
		t.Fatalf("expected 2 project buckets, got %d", len(data.projects))
	}
	if len(data.timeUse) != 2 {
		t.Fatalf("expected 2 time use buckets, got %d", len(data.timeUse))
	}
	if data.total.Time != 4500 {
		t.Fatalf("total = %d, want 4500", data.total.Time)
	}
}

func TestLoaderFetchScopedToActor(t *testing.T) {
	f := seed(t)
	l := newLoader(f.store, f.bob)
	flt := l.filter(mustTime(t, "2024-01-01T00:00:00Z"), mustTime(t, "2024-01-08T00:00:00Z"), nil, nil)

	data, err := l.fetch(context.Background(), flt, time.UTC, report.Order{By: "name"})
	if err != nil {
		t.Fatal(err)
	}
	if len(data.dashboard) != 1 || data.dashboard[0].Name != "Bob" {
		t.Fatalf("Bob should only see himself, got %+v", data.dashboard)
	}
	if data.total.Time != 2700 {
		t.Fatalf("total = %d, want 2700", data.total.Time)
	}
}

func TestLoaderInvalidRange(t *testing.T) {
	f := seed(t)
	l := newLoader(f.store, f.root)
	start := mustTime(t, "2024-01-08T00:00:00Z")

	msg := l.load(report.Filter{Start: start, End: start}, time.UTC, report.Order{By: "name"})()
	loaded := msg.(reportsLoadedMsg)
	if loaded.err == nil {
		t.Fatal("empty range should fail")
	}
}

// ============================================================
// Filter
// ============================================================

func TestFilterSummary(t *testing.T) {
	f := seed(t)
	m := newFilterModel(f.store, false)
	if got := m.summary(); got != "all projects" {
		t.Fatalf("summary = %q", got)
	}

	m, _ = m.update(m.loadOptions()())
	if len(m.projects) != 2 {
		t.Fatalf("expected 2 project options, got %d", len(m.projects))
	}
	if len(m.users) != 0 {
		t.Fatal("users should not be loaded without user filtering")
	}

	*m.projectIDs = []int64{f.web.ID}
	if got := m.summary(); got != "Web" {
		t.Fatalf("summary = %q", got)
	}
	*m.projectIDs = []int64{f.web.ID, f.api.ID}
	if got := m.summary(); got != "2 projects" {
		t.Fatalf("summary = %q", got)
	}
}

func TestFilterSummaryWithUsers(t *testing.T) {
	f := seed(t)
	m := newFilterModel(f.store, true)
	m, _ = m.update(m.loadOptions()())
	if len(m.users) != 3 {
		t.Fatalf("expected 3 user options, got %d", len(m.users))
	}
	if got := m.summary(); got != "all projects, all users" {
		t.Fatalf("summary = %q", got)
	}
	*m.userIDs = []int64{f.ann.ID(), f.bob.ID()}
	if got := m.summary(); got != "all projects, 2 users" {
		t.Fatalf("summary = %q", got)
	}
}

func TestFilterSelectionCopies(t *testing.T) {
	f := seed(t)
	m := newFilterModel(f.store, true)
	*m.projectIDs = []int64{f.web.ID}

	got := m.selectedProjects()
	got[0] = 99
	if (*m.projectIDs)[0] != f.web.ID {
		t.Fatal("selectedProjects should return a copy")
	}
	if m.selectedUsers() != nil {
		t.Fatal("no users selected should be nil")
	}
}

func TestFilterOpenAndCancel(t *testing.T) {
	f := seed(t)
	m := newFilterModel(f.store, false)
	m, _ = m.open()
	if !m.formActive || m.form == nil {
		t.Fatal("open should activate the form")
	}
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.formActive || m.form != nil {
		t.Fatal("esc should close the form")
	}
}

func TestFilterProjectNameFallback(t *testing.T) {
	m := filterModel{}
	if got := m.projectName(7); got != "project 7" {
		t.Fatalf("got %q", got)
	}
}

// ============================================================
// Views
// ============================================================

func TestDashboardView(t *testing.T) {
	f := seed(t)
	app := load(t, newTestApp(t, f, f.root))

	out := app.dashboard.view("hdr")
	for _, want := range []string{"Dashboard", "Ann", "Bob", "01:15:00", "Mon 01", "Tue 02"} {
		if !strings.Contains(out, want) {
			t.Errorf("dashboard view missing %q", want)
		}
	}
}

func TestDashboardEmpty(t *testing.T) {
	d := newDashboardModel()
	d.setSize(100, 30)
	d.setData(nil, report.TotalResult{})
	if !strings.Contains(d.view(""), "No time tracked") {
		t.Fatal("empty dashboard should say so")
	}
}

func TestDashboardNarrowDropsOldDays(t *testing.T) {
	d := newDashboardModel()
	d.setSize(48, 20)
	d.setData([]report.DashboardRow{{
		ID:   1,
		Name: "Ann",
		PerDay: []report.DayTotal{
			{Date: "2024-01-01", Seconds: 3600},
			{Date: "2024-01-02", Seconds: 0},
			{Date: "2024-01-03", Seconds: 1800},
		},
		TimeWorked: 5400,
	}}, report.TotalResult{Time: 5400})

	out := d.renderMatrix(44)
	if strings.Contains(out, "Mon 01") {
		t.Fatal("oldest day should be dropped when narrow")
	}
	if !strings.Contains(out, "Wed 03") {
		t.Fatal("latest day should be kept")
	}
}

func TestDayLabel(t *testing.T) {
	if got := dayLabel("2024-01-01"); got != "Mon 01" {
		t.Fatalf("got %q", got)
	}
	if got := dayLabel("garbage"); got != "garbage" {
		t.Fatalf("got %q", got)
	}
}

func TestProjectsNavigation(t *testing.T) {
	f := seed(t)
	app := load(t, newTestApp(t, f, f.root))
	app, _ = press(t, app, runes("2"))
	if app.activeView != viewProjects {
		t.Fatal("2 should open projects")
	}

	if !strings.Contains(app.projects.view(""), "API") {
		t.Fatal("project list should show API")
	}

	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyDown})
	if app.projects.cursor != 1 {
		t.Fatalf("cursor = %d", app.projects.cursor)
	}
	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyDown})
	if app.projects.cursor != 1 {
		t.Fatal("cursor should stop at the last project")
	}

	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	if !app.projects.expanded {
		t.Fatal("enter should expand the project")
	}
	name := app.projects.buckets[1].Name
	if out := app.projects.view(""); !strings.Contains(out, name) || !strings.Contains(out, "esc: back") {
		t.Fatalf("expanded view should show %s:\n%s", name, out)
	}

	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	if app.projects.expanded {
		t.Fatal("esc should collapse")
	}
}

func TestProjectsEmptyEnter(t *testing.T) {
	p := newProjectsModel()
	p, _ = p.update(tea.KeyMsg{Type: tea.KeyEnter})
	if p.expanded {
		t.Fatal("nothing to expand")
	}
}

func TestTaskDaysSorted(t *testing.T) {
	got := taskDays(&report.TaskBucket{Dates: map[string]int64{
		"2024-01-02": 1800,
		"2024-01-01": 3600,
	}})
	if got != "Mon 01 1.0h, Tue 02 0.5h" {
		t.Fatalf("got %q", got)
	}
}

func TestTimeUseView(t *testing.T) {
	f := seed(t)
	app := load(t, newTestApp(t, f, f.root))
	app, _ = press(t, app, runes("3"))

	// Longest total first: Bob, then Ann.
	out := app.timeUse.view("")
	if !strings.Contains(out, "bob@example.com") || !strings.Contains(out, "Deploy") {
		t.Fatalf("time use should expand the selected user:\n%s", out)
	}
	if strings.Contains(out, "Build") {
		t.Fatal("only the selected user's tasks are listed")
	}

	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyDown})
	if !strings.Contains(app.timeUse.view(""), "Build") {
		t.Fatal("moving down should show Ann's tasks")
	}
}

// ============================================================
// Settings
// ============================================================

func TestValidateTimezone(t *testing.T) {
	if err := validateTimezone("UTC"); err != nil {
		t.Fatal(err)
	}
	if validateTimezone("") == nil {
		t.Fatal("empty timezone should fail")
	}
	if validateTimezone("Mars/Olympus") == nil {
		t.Fatal("unknown timezone should fail")
	}
}

func TestValidateDays(t *testing.T) {
	for _, ok := range []string{"1", "7", " 31 "} {
		if err := validateDays(ok); err != nil {
			t.Errorf("validateDays(%q): %v", ok, err)
		}
	}
	for _, bad := range []string{"", "0", "32", "x"} {
		if validateDays(bad) == nil {
			t.Errorf("validateDays(%q) should fail", bad)
		}
	}
}

func TestSettingsRefreshAndView(t *testing.T) {
	s := newTestStore(t)
	m := newSettingsModel(s)
	m.setSize(100, 30)
	m, _ = m.update(m.refresh()())

	if m.defaults.Days != 7 {
		t.Fatalf("defaults = %+v", m.defaults)
	}
	if out := m.view(); !strings.Contains(out, "UTC") || !strings.Contains(out, "days per period") {
		t.Fatalf("settings view:\n%s", out)
	}
}

func TestSettingsShowForm(t *testing.T) {
	s := newTestStore(t)
	m := newSettingsModel(s)
	m, _ = m.update(m.refresh()())
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyEnter})

	if !m.formActive {
		t.Fatal("enter should open the form")
	}
	if *m.timezone != "UTC" || *m.days != "7" || *m.orderBy != "name" {
		t.Fatal("form should be prefilled from the saved defaults")
	}
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.formActive {
		t.Fatal("esc should close the form")
	}
}

func TestSettingsSave(t *testing.T) {
	s := newTestStore(t)
	m := newSettingsModel(s)
	*m.timezone = " UTC "
	*m.days = "14"
	*m.orderBy = "time_worked"
	*m.orderDir = "desc"

	msg := m.save()()
	saved, ok := msg.(settingsSavedMsg)
	if !ok {
		t.Fatalf("save produced %T", msg)
	}
	if saved.days != 14 || saved.loc != time.UTC || saved.orderBy != "time_worked" {
		t.Fatalf("saved = %+v", saved)
	}

	d, _ := s.GetReportDefaults(context.Background())
	want := store.ReportDefaults{Timezone: "UTC", Days: 14, OrderBy: "time_worked", OrderDir: "desc"}
	if d != want {
		t.Fatalf("stored %+v, want %+v", d, want)
	}
}

func TestSettingsSaveBadTimezone(t *testing.T) {
	s := newTestStore(t)
	m := newSettingsModel(s)
	*m.timezone = "Nowhere/Land"
	*m.days = "7"

	msg := m.save()()
	st, ok := msg.(statusMsg)
	if !ok || !st.isError {
		t.Fatalf("expected error status, got %#v", msg)
	}
	d, _ := s.GetReportDefaults(context.Background())
	if d.Timezone != "UTC" {
		t.Fatal("bad settings should not be stored")
	}
}

// ============================================================
// App model
// ============================================================

func TestNewApp(t *testing.T) {
	f := seed(t)
	app := NewApp(f.store, f.root)

	if app.activeView != viewDashboard {
		t.Fatal("default view should be dashboard")
	}
	if app.showHelp || app.exportPicking {
		t.Fatal("overlays should be hidden by default")
	}
	if app.period.days != 7 || app.period.loc != time.UTC {
		t.Fatalf("period should come from saved defaults, got %+v", app.period)
	}
	if app.order.By != "name" || app.order.Desc {
		t.Fatalf("order = %+v", app.order)
	}
	if !app.filter.showUsers {
		t.Fatal("admin should be able to filter by user")
	}
	if NewApp(f.store, f.ann).filter.showUsers {
		t.Fatal("plain users only see themselves")
	}
}

func TestNewAppReadsSavedDefaults(t *testing.T) {
	f := seed(t)
	f.store.SaveReportDefaults(context.Background(), store.ReportDefaults{Timezone: "UTC", Days: 3, OrderBy: "time_worked", OrderDir: "desc"})

	app := NewApp(f.store, f.root)
	if app.period.days != 3 || app.order.By != "time_worked" || !app.order.Desc {
		t.Fatalf("period %+v order %+v", app.period, app.order)
	}
}

func TestAppLoadsReports(t *testing.T) {
	f := seed(t)
	app := load(t, newTestApp(t, f, f.root))

	if app.data.total.Time != 4500 {
		t.Fatalf("total = %d", app.data.total.Time)
	}
	if len(app.dashboard.rows) != 2 || len(app.projects.buckets) != 2 || len(app.timeUse.buckets) != 2 {
		t.Fatal("loaded reports should reach every view")
	}
	if !strings.Contains(app.renderFooter(), "01:15:00") {
		t.Fatal("footer should show the period total")
	}
}

func TestAppReportError(t *testing.T) {
	f := seed(t)
	app := newTestApp(t, f, f.root)
	app, _ = press(t, app, reportsLoadedMsg{err: context.Canceled})
	if !app.statusErr || !strings.Contains(app.status, "Report error") {
		t.Fatalf("status = %q", app.status)
	}
}

func TestAppTabs(t *testing.T) {
	f := seed(t)
	app := newTestApp(t, f, f.root)

	app, _ = press(t, app, runes("3"))
	if app.activeView != viewTimeUse {
		t.Fatal("3 should open time use")
	}
	app, cmd := press(t, app, runes("4"))
	if app.activeView != viewSettings || cmd == nil {
		t.Fatal("4 should open settings and refresh them")
	}
	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyTab})
	if app.activeView != viewDashboard {
		t.Fatal("tab should wrap around to the dashboard")
	}
}

func TestAppPeriodKeys(t *testing.T) {
	f := seed(t)
	app := newTestApp(t, f, f.root)

	app, cmd := press(t, app, tea.KeyMsg{Type: tea.KeyLeft})
	if app.period.offset != 1 || cmd == nil {
		t.Fatal("left should go one period back and reload")
	}
	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyRight})
	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyRight})
	if app.period.offset != 0 {
		t.Fatal("right should stop at the current period")
	}
}

func TestAppOrderKeys(t *testing.T) {
	f := seed(t)
	app := newTestApp(t, f, f.root)

	app, cmd := press(t, app, runes("o"))
	if app.order.By != "time_worked" || cmd == nil {
		t.Fatalf("o should cycle the order column, got %+v", app.order)
	}
	app, _ = press(t, app, runes("r"))
	if !app.order.Desc {
		t.Fatal("r should reverse the order")
	}

	app = load(t, app)
	if app.dashboard.rows[0].Name != "Bob" {
		t.Fatal("most time worked should come first")
	}
}

func TestAppFilterFlow(t *testing.T) {
	f := seed(t)
	app := newTestApp(t, f, f.root)
	app, _ = press(t, app, app.filter.loadOptions()())

	app, _ = press(t, app, runes("f"))
	if !app.filter.formActive {
		t.Fatal("f should open the filter form")
	}
	if !strings.Contains(app.View(), "Filter reports") {
		t.Fatal("filter form should replace the content")
	}
	app, _ = press(t, app, runes("q"))
	if !app.filter.formActive {
		t.Fatal("keys go to the form while it is open")
	}

	*app.filter.projectIDs = []int64{f.web.ID}
	app.filter.formActive = false
	app.filter.form = nil
	app, cmd := press(t, app, filterAppliedMsg{})
	if cmd == nil || app.status != "Filter: Web, all users" {
		t.Fatalf("applying the filter should reload, status %q", app.status)
	}

	app = load(t, app)
	if len(app.projects.buckets) != 1 || app.projects.buckets[0].Name != "Web" {
		t.Fatalf("filtered buckets = %+v", app.projects.buckets)
	}
}

func TestAppSettingsSaved(t *testing.T) {
	f := seed(t)
	app := newTestApp(t, f, f.root)
	app.period = app.period.earlier()

	app, cmd := press(t, app, settingsSavedMsg{days: 14, loc: time.UTC, orderBy: "id", orderDir: "desc"})
	if cmd == nil {
		t.Fatal("saved settings should reload")
	}
	if app.period.days != 14 || app.period.offset != 0 {
		t.Fatalf("period = %+v", app.period)
	}
	if app.order.By != "id" || !app.order.Desc {
		t.Fatalf("order = %+v", app.order)
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	f := seed(t)
	app := newTestApp(t, f, f.root)
	header := app.renderHeader()
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Errorf("header missing tab %q", name)
		}
	}
}

func TestAppLoadingState(t *testing.T) {
	f := seed(t)
	app := NewApp(f.store, f.root)
	if app.View() != "Loading..." {
		t.Fatal("unsized app should show loading")
	}
}

func TestAppHelpToggle(t *testing.T) {
	f := seed(t)
	app := newTestApp(t, f, f.root)
	app, _ = press(t, app, runes("?"))
	if !app.showHelp || !app.help.ShowAll {
		t.Fatal("? should show full help")
	}
}

func TestAppQuit(t *testing.T) {
	f := seed(t)
	app := newTestApp(t, f, f.root)
	_, cmd := press(t, app, runes("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q should produce a quit message")
	}
}

// ============================================================
// Export
// ============================================================

func TestExportPicker(t *testing.T) {
	f := seed(t)
	app := newTestApp(t, f, f.root)

	app, _ = press(t, app, runes("e"))
	if !app.exportPicking {
		t.Fatal("e should open the export picker")
	}
	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyDown})
	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyDown})
	if app.exportCursor != 1 {
		t.Fatalf("cursor = %d", app.exportCursor)
	}
	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	if app.exportPicking {
		t.Fatal("esc should close the picker")
	}
}

func TestExportWritesFiles(t *testing.T) {
	f := seed(t)
	app := load(t, newTestApp(t, f, f.root))

	for i, ext := range []string{"csv", "json"} {
		msg := app.doExport(i)()
		done, ok := msg.(exportDoneMsg)
		if !ok {
			t.Fatalf("export %s produced %#v", ext, msg)
		}
		want := filepath.Join(app.exportDir, "worklog-dashboard-2023-12-28_2024-01-03."+ext)
		if done.path != want {
			t.Fatalf("path = %q, want %q", done.path, want)
		}
		data, err := os.ReadFile(done.path)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "Ann") {
			t.Fatalf("%s export missing rows:\n%s", ext, data)
		}
	}

	app, _ = press(t, app, exportDoneMsg{path: "x.csv"})
	if app.status != "Exported to x.csv" {
		t.Fatalf("status = %q", app.status)
	}
}

func TestExportNothing(t *testing.T) {
	f := seed(t)
	app := newTestApp(t, f, f.root)
	msg := app.doExport(0)()
	st, ok := msg.(statusMsg)
	if !ok || !st.isError {
		t.Fatalf("expected error status, got %#v", msg)
	}
}

// ============================================================
// Keys
// ============================================================

func TestKeyMapShortHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should not be empty")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) != 4 {
		t.Fatalf("expected 4 help groups, got %d", len(groups))
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Errorf("help group %d is empty", i)
		}
	}
}

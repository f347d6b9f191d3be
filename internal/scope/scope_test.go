package scope

import (
	"testing"

	"github.com/sadopc/worklog/internal/query"
	"github.com/sadopc/worklog/internal/report"
	"github.com/sadopc/worklog/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeActor struct {
	id       int64
	full     map[string]bool
	global   map[string]bool
	projects map[int64]map[string]bool
	manual   bool
	calls    int
}

func (a *fakeActor) ID() int64 { return a.id }

func (a *fakeActor) HasFullAccess(res string) bool { return a.full[res] }

func (a *fakeActor) RoleGrants(object, action string) bool {
	return a.global[object+"."+action]
}

func (a *fakeActor) ProjectRoleGrants(projectID int64, object, action string) bool {
	return a.projects[projectID][object+"."+action]
}

func (a *fakeActor) GrantedProjects(object, action string) []int64 {
	a.calls++
	var ids []int64
	for id := range a.projects {
		if a.ProjectRoleGrants(id, object, action) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (a *fakeActor) ManualTime() bool { return a.manual }

func target(name, method string) Target {
	return Target{Resource: resource.DefaultSchema().MustGet(name), Method: method}
}

func compiler() query.Compiler {
	return query.Compiler{Schema: resource.DefaultSchema()}
}

// ============================================================
// Resolve
// ============================================================

func TestResolveFullAccessGrant(t *testing.T) {
	a := &fakeActor{id: 1, full: map[string]bool{resource.TimeIntervals: true}}
	d := Resolve(a, target(resource.TimeIntervals, resource.MethodList))
	assert.Equal(t, FullAccess, d.Kind)
	assert.False(t, d.Unmapped)
}

func TestResolveUnmappedMethodFailsOpen(t *testing.T) {
	a := &fakeActor{id: 1}
	// screenshots expose no edit rule
	d := Resolve(a, target(resource.Screenshots, resource.MethodEdit))
	assert.Equal(t, FullAccess, d.Kind)
	assert.True(t, d.Unmapped)
	assert.NotEqual(t, ProjectRoleFiltered, d.Kind)
}

func TestResolveGlobalRoleGrant(t *testing.T) {
	a := &fakeActor{id: 1, global: map[string]bool{"time-intervals.list": true}}
	d := Resolve(a, target(resource.TimeIntervals, resource.MethodList))
	assert.Equal(t, FullAccess, d.Kind)
	assert.Equal(t, "time-intervals", d.Object)
	assert.Equal(t, "list", d.Action)
}

func TestResolveProjectRoleFiltered(t *testing.T) {
	a := &fakeActor{id: 4, projects: map[int64]map[string]bool{
		7: {"time-intervals.list": true},
		3: {"time-intervals.list": true},
		9: {"time-intervals.edit": true},
	}}
	d := Resolve(a, target(resource.TimeIntervals, resource.MethodList))
	assert.Equal(t, ProjectRoleFiltered, d.Kind)
	assert.Equal(t, []int64{3, 7}, d.Projects())
	assert.True(t, d.IncludesOwnRows())
}

func TestResolveOwnRowsOnly(t *testing.T) {
	a := &fakeActor{id: 4}
	d := Resolve(a, target(resource.TimeIntervals, resource.MethodShow))
	assert.Equal(t, OwnRowsOnly, d.Kind)
	assert.True(t, d.IncludesOwnRows())
	assert.Empty(t, d.Projects())
}

func TestResolveEditNeedsManualTimeForOwnRows(t *testing.T) {
	a := &fakeActor{id: 4}
	d := Resolve(a, target(resource.TimeIntervals, resource.MethodEdit))
	assert.Equal(t, ProjectRoleFiltered, d.Kind)
	assert.False(t, d.IncludesOwnRows())

	a.manual = true
	d = Resolve(a, target(resource.TimeIntervals, resource.MethodBulkEdit))
	assert.Equal(t, OwnRowsOnly, d.Kind)
	assert.True(t, d.IncludesOwnRows())
}

func TestResolveDestroyIncludesOwnRows(t *testing.T) {
	a := &fakeActor{id: 4}
	d := Resolve(a, target(resource.TimeIntervals, resource.MethodDestroy))
	assert.Equal(t, OwnRowsOnly, d.Kind)
}

func TestResolveResourceWithoutOwner(t *testing.T) {
	a := &fakeActor{id: 4}
	d := Resolve(a, target(resource.Projects, resource.MethodList))
	assert.Equal(t, ProjectRoleFiltered, d.Kind)
	assert.False(t, d.IncludesOwnRows())
}

func TestDecisionIsSnapshot(t *testing.T) {
	a := &fakeActor{id: 4, projects: map[int64]map[string]bool{
		1: {"time-intervals.list": true},
	}}
	d := Resolve(a, target(resource.TimeIntervals, resource.MethodList))
	require.Equal(t, []int64{1}, d.Projects())

	a.projects[2] = map[string]bool{"time-intervals.list": true}
	got := d.Projects()
	got[0] = 99

	assert.Equal(t, []int64{1}, d.Projects())
	assert.Equal(t, 1, a.calls)
}

// ============================================================
// Predicate
// ============================================================

func TestPredicateFullAccessIsNil(t *testing.T) {
	p, err := Decision{Kind: FullAccess}.Predicate(compiler(), resource.DefaultSchema().MustGet(resource.Tasks))
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestPredicateProjectOrOwner(t *testing.T) {
	a := &fakeActor{id: 4, projects: map[int64]map[string]bool{
		5: {"time-intervals.list": true},
	}}
	tg := target(resource.TimeIntervals, resource.MethodList)
	d := Resolve(a, tg)

	p, err := d.Predicate(compiler(), tg.Resource)
	require.NoError(t, err)

	or, ok := p.(query.Or)
	require.True(t, ok, "got %T", p)
	require.Len(t, or.Preds, 2)

	rel, ok := or.Preds[0].(query.RelationExists)
	require.True(t, ok, "project branch should go through the task relation, got %T", or.Preds[0])
	assert.Equal(t, "task", rel.Relation)
	assert.Equal(t, query.Equals{Column: "user_id", Value: int64(4)}, or.Preds[1])
}

func TestPredicateOwnRowsOnly(t *testing.T) {
	tg := target(resource.Screenshots, resource.MethodList)
	d := Resolve(&fakeActor{id: 2}, tg)
	require.Equal(t, OwnRowsOnly, d.Kind)

	p, err := d.Predicate(compiler(), tg.Resource)
	require.NoError(t, err)
	rel, ok := p.(query.RelationExists)
	require.True(t, ok, "got %T", p)
	assert.Equal(t, "time_interval", rel.Relation)
}

func TestPredicateNoGrantsMatchesNothing(t *testing.T) {
	tg := target(resource.Projects, resource.MethodShow)
	d := Resolve(&fakeActor{id: 2}, tg)

	p, err := d.Predicate(compiler(), tg.Resource)
	require.NoError(t, err)
	assert.Equal(t, query.None{}, p)
}

func TestPredicateProjectsByID(t *testing.T) {
	a := &fakeActor{id: 2, projects: map[int64]map[string]bool{
		8: {"projects.list": true},
	}}
	tg := target(resource.Projects, resource.MethodList)
	p, err := Resolve(a, tg).Predicate(compiler(), tg.Resource)
	require.NoError(t, err)
	assert.Equal(t, query.In{Column: "id", Values: []any{int64(8)}}, p)
}

func TestVisibility(t *testing.T) {
	tg := target(resource.TimeIntervals, resource.MethodList)

	full := Resolve(&fakeActor{id: 1, full: map[string]bool{resource.TimeIntervals: true}}, tg)
	assert.Nil(t, full.Visibility())

	own := Resolve(&fakeActor{id: 2}, tg)
	assert.Equal(t, &report.Visibility{Owner: 2}, own.Visibility())

	manager := Resolve(&fakeActor{id: 3, projects: map[int64]map[string]bool{
		9: {"time-intervals.list": true},
		4: {"time-intervals.list": true},
	}}, tg)
	assert.Equal(t, &report.Visibility{Projects: []int64{4, 9}, Owner: 3}, manager.Visibility())
}

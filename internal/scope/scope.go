package scope

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sadopc/worklog/internal/query"
	"github.com/sadopc/worklog/internal/report"
	"github.com/sadopc/worklog/internal/resource"
)

// Actor is the authenticated user as seen by the resolver.
type Actor interface {
	ID() int64
	// HasFullAccess reports the "<resource>.full_access" grant.
	HasFullAccess(resource string) bool
	// RoleGrants reports whether the actor's global role allows object.action.
	RoleGrants(object, action string) bool
	// ProjectRoleGrants reports whether the actor's role in a project allows object.action.
	ProjectRoleGrants(projectID int64, object, action string) bool
	// GrantedProjects lists the projects where ProjectRoleGrants holds.
	GrantedProjects(object, action string) []int64
	ManualTime() bool
}

type Kind int

const (
	FullAccess Kind = iota
	OwnRowsOnly
	ProjectRoleFiltered
)

func (k Kind) String() string {
	switch k {
	case FullAccess:
		return "full_access"
	case OwnRowsOnly:
		return "own_rows_only"
	case ProjectRoleFiltered:
		return "project_role_filtered"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Decision is the resolved visibility of a resource for one actor and method.
// It is a value; nothing in it changes after Resolve returns.
type Decision struct {
	Kind   Kind
	Object string
	Action string
	// Unmapped is set when the method had no rule and access defaulted open.
	Unmapped bool

	actorID  int64
	projects []int64
	ownRows  bool
}

// Projects returns the granted project ids captured at resolve time.
func (d Decision) Projects() []int64 {
	return append([]int64(nil), d.projects...)
}

// IncludesOwnRows reports whether rows owned by the actor are visible.
func (d Decision) IncludesOwnRows() bool { return d.ownRows }

// Visibility renders the decision as a report row scope, so reports see the
// same intervals a list call would. FullAccess yields nil.
func (d Decision) Visibility() *report.Visibility {
	if d.Kind == FullAccess {
		return nil
	}
	v := &report.Visibility{Projects: d.Projects()}
	if d.ownRows {
		v.Owner = d.actorID
	}
	return v
}

// Target names the resource and controller method being authorised.
type Target struct {
	Resource *resource.Resource
	Method   string
}

var editActions = map[string]bool{
	"edit":      true,
	"bulk-edit": true,
}

// IsEditAction reports whether action modifies existing rows.
func IsEditAction(action string) bool { return editActions[action] }

// Resolve computes the scope decision for actor on target.
func Resolve(actor Actor, t Target) Decision {
	res := t.Resource
	if actor.HasFullAccess(res.Name) {
		return Decision{Kind: FullAccess}
	}

	rule, ok := res.Methods[t.Method]
	if !ok {
		return Decision{Kind: FullAccess, Unmapped: true}
	}
	object, action, ok := strings.Cut(rule, ".")
	if !ok {
		object, action = rule, ""
	}

	if actor.RoleGrants(object, action) {
		return Decision{Kind: FullAccess, Object: object, Action: action}
	}

	d := Decision{
		Kind:    ProjectRoleFiltered,
		Object:  object,
		Action:  action,
		actorID: actor.ID(),
	}
	if res.ProjectPath != "" {
		d.projects = dedupe(actor.GrantedProjects(object, action))
	}
	if res.OwnerPath != "" {
		if IsEditAction(action) {
			d.ownRows = actor.ManualTime()
		} else {
			d.ownRows = true
		}
	}
	if len(d.projects) == 0 && d.ownRows {
		d.Kind = OwnRowsOnly
	}
	return d
}

// Predicate translates the decision into a filter on res. FullAccess yields nil.
// A filtered decision with no grants and no own rows matches nothing.
func (d Decision) Predicate(c query.Compiler, res *resource.Resource) (query.Predicate, error) {
	if d.Kind == FullAccess {
		return nil, nil
	}

	var alts []query.Predicate
	if len(d.projects) > 0 {
		p, err := c.Field(res, res.ProjectPath, query.Expr{Op: query.OpIn, Operand: d.projects})
		if err != nil {
			return nil, fmt.Errorf("scope %s by project: %w", res.Name, err)
		}
		alts = append(alts, p)
	}
	if d.ownRows {
		p, err := c.Field(res, res.OwnerPath, query.Expr{Op: query.OpEq, Operand: d.actorID})
		if err != nil {
			return nil, fmt.Errorf("scope %s by owner: %w", res.Name, err)
		}
		alts = append(alts, p)
	}
	return query.AnyOf(alts...), nil
}

func dedupe(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	out := append([]int64(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}

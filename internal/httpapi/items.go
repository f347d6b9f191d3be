package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sadopc/worklog/internal/apperr"
	"github.com/sadopc/worklog/internal/item"
	"github.com/sadopc/worklog/internal/query"
	"github.com/sadopc/worklog/internal/resource"
)

// Request keys that control a list call rather than filter it.
var listKeys = map[string]bool{
	"with":         true,
	"with_deleted": true,
	"withDeleted":  true,
	"paginate":     true,
	"page":         true,
	"perPage":      true,
	"per_page":     true,
	"order_by":     true,
	"order_dir":    true,
}

// body decodes the JSON request body. An empty body is an empty object.
func body(c *gin.Context) (map[string]any, error) {
	m := map[string]any{}
	if err := c.ShouldBindJSON(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, apperr.Invalid("malformed JSON body: %v", err)
	}
	return m, nil
}

func listParams(res *resource.Resource, m map[string]any) (item.ListParams, error) {
	p := item.ListParams{
		With:        stringList(m["with"]),
		WithDeleted: resource.ToBool(first(m, "with_deleted", "withDeleted")),
		Paginate:    resource.ToBool(m["paginate"]),
		OrderBy:     str(m["order_by"]),
		OrderDir:    str(m["order_dir"]),
	}
	if n, ok := resource.ToInt64(m["page"]); ok {
		p.Page = int(n)
	}
	if n, ok := resource.ToInt64(first(m, "perPage", "per_page")); ok {
		p.PerPage = int(n)
	}

	raw := make(map[string]any, len(m))
	for k, v := range m {
		if !listKeys[k] {
			raw[k] = v
		}
	}
	// Intervals accept project_id as a shortcut for their task's project.
	if res.Name == resource.TimeIntervals {
		if v, ok := raw["project_id"]; ok {
			delete(raw, "project_id")
			raw["task.project_id"] = v
		}
	}
	filters, err := query.ParseFilterSpec(raw)
	if err != nil {
		return item.ListParams{}, err
	}
	p.Filters = filters
	return p, nil
}

func first(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// stringList accepts "a,b" or ["a", "b"].
func stringList(v any) []string {
	switch t := v.(type) {
	case string:
		var out []string
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func (s *Server) readOpts(res *resource.Resource) []item.Option {
	h := s.hooks[res.Name]
	if len(h.after) == 0 {
		return nil
	}
	return []item.Option{item.WithAfter(h.after...)}
}

func (s *Server) writeOpts(res *resource.Resource, extra ...resource.Hook) []item.Option {
	return s.hookOpts(res, true, extra...)
}

func (s *Server) hookOpts(res *resource.Resource, bounded bool, extra ...resource.Hook) []item.Option {
	h := s.hooks[res.Name]
	var before []resource.Hook
	if bounded {
		before = append(before, h.bounds...)
	}
	before = append(append(before, h.before...), extra...)
	var opts []item.Option
	if len(before) > 0 {
		opts = append(opts, item.WithBefore(before...))
	}
	if len(h.after) > 0 {
		opts = append(opts, item.WithAfter(h.after...))
	}
	return opts
}

func (s *Server) list(res *resource.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := body(c)
		if err != nil {
			fail(c, err)
			return
		}
		p, err := listParams(res, m)
		if err != nil {
			fail(c, err)
			return
		}
		result, err := s.items.List(c.Request.Context(), actorFrom(c), res, p, s.readOpts(res)...)
		if err != nil {
			fail(c, err)
			return
		}
		if result.Page != nil {
			c.JSON(http.StatusOK, result.Page)
			return
		}
		if result.Rows == nil {
			result.Rows = []resource.Row{}
		}
		c.JSON(http.StatusOK, result.Rows)
	}
}

func (s *Server) count(res *resource.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := body(c)
		if err != nil {
			fail(c, err)
			return
		}
		p, err := listParams(res, m)
		if err != nil {
			fail(c, err)
			return
		}
		n, err := s.items.Count(c.Request.Context(), actorFrom(c), res, p)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "total": n})
	}
}

func (s *Server) show(res *resource.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := body(c)
		if err != nil {
			fail(c, err)
			return
		}
		row, err := s.items.Show(c.Request.Context(), actorFrom(c), res, m["id"], stringList(m["with"]), s.readOpts(res)...)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, row)
	}
}

func (s *Server) create(res *resource.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.createWith(c, res, s.writeOpts(res))
	}
}

func (s *Server) createWith(c *gin.Context, res *resource.Resource, opts []item.Option) {
	m, err := body(c)
	if err != nil {
		fail(c, err)
		return
	}
	row, err := s.items.Create(c.Request.Context(), actorFrom(c), res, resource.Row(m), opts...)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "res": row})
}

// manualCreate records an interval entered by hand. Only users allowed to
// track manual time may do so. The interval length is not bounded.
func (s *Server) manualCreate(c *gin.Context) {
	actor := actorFrom(c)
	if !actor.ManualTime() {
		fail(c, apperr.ForbiddenAction("manual time is not allowed for this user"))
		return
	}
	res := s.store.Schema().MustGet(resource.TimeIntervals)
	s.createWith(c, res, s.hookOpts(res, false, resource.Set("is_manual", true)))
}

func (s *Server) edit(res *resource.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := body(c)
		if err != nil {
			fail(c, err)
			return
		}
		id := m["id"]
		delete(m, "id")
		row, err := s.items.Edit(c.Request.Context(), actorFrom(c), res, id, resource.Row(m), s.writeOpts(res)...)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "res": row})
	}
}

func (s *Server) remove(res *resource.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := body(c)
		if err != nil {
			fail(c, err)
			return
		}
		if err := s.items.Destroy(c.Request.Context(), actorFrom(c), res, m["id"]); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Item has been removed"})
	}
}

// bulkKey is the request key holding the items of a bulk call.
func bulkKey(res *resource.Resource) string {
	if res.Name == resource.TimeIntervals {
		return "intervals"
	}
	return "items"
}

func bulkItems(res *resource.Resource, m map[string]any) ([]any, error) {
	key := bulkKey(res)
	list, ok := m[key].([]any)
	if !ok {
		return nil, apperr.Validation(map[string][]string{
			key: {fmt.Sprintf("The %s field is required.", key)},
		})
	}
	return list, nil
}

func bulkStatus(r item.BulkResult) int {
	if r.Partial() {
		return http.StatusMultiStatus
	}
	return http.StatusOK
}

func (s *Server) bulkEdit(res *resource.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := body(c)
		if err != nil {
			fail(c, err)
			return
		}
		list, err := bulkItems(res, m)
		if err != nil {
			fail(c, err)
			return
		}
		edits := make([]item.Edit, 0, len(list))
		for _, e := range list {
			obj, ok := e.(map[string]any)
			if !ok {
				fail(c, apperr.Invalid("each %s entry must be an object", bulkKey(res)))
				return
			}
			payload := make(resource.Row, len(obj))
			for k, v := range obj {
				if k != "id" {
					payload[k] = v
				}
			}
			edits = append(edits, item.Edit{ID: obj["id"], Payload: payload})
		}

		result, err := s.items.BulkEdit(c.Request.Context(), actorFrom(c), res, edits, s.writeOpts(res)...)
		if err != nil {
			fail(c, err)
			return
		}
		out := gin.H{"success": true, "updated": result.Done}
		if result.Partial() {
			out["not_found"] = result.NotFound
		}
		c.JSON(bulkStatus(result), out)
	}
}

func (s *Server) bulkRemove(res *resource.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := body(c)
		if err != nil {
			fail(c, err)
			return
		}
		ids, err := bulkItems(res, m)
		if err != nil {
			fail(c, err)
			return
		}
		result, err := s.items.BulkDestroy(c.Request.Context(), actorFrom(c), res, ids)
		if err != nil {
			fail(c, err)
			return
		}
		out := gin.H{"success": true, "removed": result.Done}
		if result.Partial() {
			out["not_found"] = result.NotFound
		}
		c.JSON(bulkStatus(result), out)
	}
}

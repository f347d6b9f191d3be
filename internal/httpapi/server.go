package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sadopc/worklog/internal/item"
	"github.com/sadopc/worklog/internal/report"
	"github.com/sadopc/worklog/internal/resource"
	"github.com/sadopc/worklog/internal/store"
	"github.com/sadopc/worklog/internal/validation"
	"go.uber.org/zap"
)

// Options configure the HTTP boundary.
type Options struct {
	Secret   string
	TokenTTL time.Duration
	// MaxInterval bounds the length of created or edited intervals.
	MaxInterval time.Duration
	// Location is the default timezone for zone-less input and report dates.
	Location *time.Location
	PerPage  int
}

// Server wires the item service and the report engine to gin handlers.
type Server struct {
	store   *store.Store
	items   *item.Service
	reports report.Engine
	opts    Options
	log     *zap.Logger
	hooks   map[string]resourceHooks
}

// resourceHooks are the per-resource before/after hooks of write and read calls.
// bounds run before writes too, except on manual entry.
type resourceHooks struct {
	bounds []resource.Hook
	before []resource.Hook
	after  []resource.Hook
}

func New(st *store.Store, opts Options, log *zap.Logger) *Server {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.MaxInterval <= 0 {
		opts.MaxInterval = time.Hour
	}
	if log == nil {
		log = zap.NewNop()
	}
	svc := item.NewService(st, st.Schema(), validation.New(st.Exists))
	svc.PerPage = opts.PerPage
	svc.Location = opts.Location

	return &Server{
		store:   st,
		items:   svc,
		reports: report.Engine{Source: st},
		opts:    opts,
		log:     log,
		hooks: map[string]resourceHooks{
			resource.TimeIntervals: {bounds: []resource.Hook{resource.IntervalBounds(opts.MaxInterval)}},
			resource.Tasks:         {after: []resource.Hook{resource.RenderMarkdown("description")}},
			resource.Projects:      {after: []resource.Hook{resource.RenderMarkdown("description")}},
		},
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(requestID(), requestLogger(s.log), recovery(s.log))

	r.GET("/health", s.health)

	api := r.Group("/api/v1")
	api.Use(s.authMiddleware())

	schema := s.store.Schema()
	for _, name := range []string{resource.TimeIntervals, resource.Tasks, resource.Projects, resource.Screenshots} {
		s.registerItemRoutes(api.Group("/"+name), schema.MustGet(name))
	}
	api.POST("/time-intervals/manual-create", s.manualCreate)

	reports := api.Group("/reports")
	{
		reports.POST("/project", s.projectReport)
		reports.POST("/time-use", s.timeUseReport)
		reports.POST("/dashboard", s.dashboardReport)
	}
	api.POST("/time/total", s.totalTime)

	return r
}

// registerItemRoutes exposes the controller methods the descriptor maps to a
// permission rule. Methods without a rule get no route.
func (s *Server) registerItemRoutes(g *gin.RouterGroup, res *resource.Resource) {
	routes := []struct {
		method  string
		path    string
		handler func(*resource.Resource) gin.HandlerFunc
	}{
		{resource.MethodList, "/list", s.list},
		{resource.MethodCount, "/count", s.count},
		{resource.MethodShow, "/show", s.show},
		{resource.MethodCreate, "/create", s.create},
		{resource.MethodEdit, "/edit", s.edit},
		{resource.MethodDestroy, "/remove", s.remove},
		{resource.MethodBulkEdit, "/bulk-edit", s.bulkEdit},
		{resource.MethodBulkDestroy, "/bulk-remove", s.bulkRemove},
	}
	for _, rt := range routes {
		if _, ok := res.Methods[rt.method]; ok {
			g.POST(rt.path, rt.handler(res))
		}
	}
}

func (s *Server) health(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

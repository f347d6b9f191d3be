package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sadopc/worklog/internal/apperr"
	"github.com/sadopc/worklog/internal/export"
	"github.com/sadopc/worklog/internal/report"
	"github.com/sadopc/worklog/internal/resource"
	"github.com/sadopc/worklog/internal/scope"
	"github.com/sadopc/worklog/internal/store"
)

type reportRequest struct {
	StartAt    string  `json:"start_at"`
	EndAt      string  `json:"end_at"`
	UserIDs    []int64 `json:"user_ids"`
	ProjectIDs []int64 `json:"project_ids"`
	// UserID narrows /time/total to one user.
	UserID   int64  `json:"user_id"`
	Timezone string `json:"timezone"`
	OrderBy  string `json:"order_by"`
	OrderDir string `json:"order_dir"`
	Format   string `json:"format"`
}

func (s *Server) bindReport(c *gin.Context) (reportRequest, report.Filter, *time.Location, bool) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, apperr.Invalid("malformed report request: %v", err))
		return req, report.Filter{}, nil, false
	}

	loc := s.opts.Location
	if req.Timezone != "" {
		l, err := time.LoadLocation(req.Timezone)
		if err != nil {
			fail(c, apperr.Validation(map[string][]string{"timezone": {"The timezone must be a valid zone."}}))
			return req, report.Filter{}, nil, false
		}
		loc = l
	}

	f := report.Filter{UserIDs: req.UserIDs, ProjectIDs: req.ProjectIDs}
	if req.UserID > 0 {
		f.UserIDs = append(f.UserIDs, req.UserID)
	}
	bad := map[string][]string{}
	if req.StartAt != "" {
		t, err := resource.ParseTime(req.StartAt, loc)
		if err != nil {
			bad["start_at"] = []string{"The start_at is not a valid date."}
		}
		f.Start = t
	}
	if req.EndAt != "" {
		t, err := resource.ParseTime(req.EndAt, loc)
		if err != nil {
			bad["end_at"] = []string{"The end_at is not a valid date."}
		}
		f.End = t
	}
	if len(bad) > 0 {
		fail(c, apperr.Validation(bad))
		return req, report.Filter{}, nil, false
	}

	return req, s.restrict(actorFrom(c), f), loc, true
}

// restrict scopes a report to the intervals the actor could list.
func (s *Server) restrict(actor *store.Actor, f report.Filter) report.Filter {
	res := s.store.Schema().MustGet(resource.TimeIntervals)
	f.Visible = scope.Resolve(actor, scope.Target{Resource: res, Method: resource.MethodList}).Visibility()
	return f
}

func (s *Server) projectReport(c *gin.Context) {
	_, f, loc, ok := s.bindReport(c)
	if !ok {
		return
	}
	buckets, err := s.reports.Project(c.Request.Context(), f, loc)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, buckets)
}

func (s *Server) timeUseReport(c *gin.Context) {
	_, f, loc, ok := s.bindReport(c)
	if !ok {
		return
	}
	buckets, err := s.reports.TimeUse(c.Request.Context(), f, loc)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, buckets)
}

func (s *Server) dashboardReport(c *gin.Context) {
	req, f, loc, ok := s.bindReport(c)
	if !ok {
		return
	}
	format := strings.ToLower(req.Format)
	if format != "" && format != "csv" && format != "json" {
		fail(c, apperr.Validation(map[string][]string{"format": {"The selected format is invalid."}}))
		return
	}
	order, err := report.ParseOrder(req.OrderBy, req.OrderDir)
	if err != nil {
		fail(c, err)
		return
	}
	rows, err := s.reports.Dashboard(c.Request.Context(), f, loc, order)
	if err != nil {
		fail(c, err)
		return
	}

	switch format {
	case "":
		c.JSON(http.StatusOK, rows)
	case "csv":
		c.Header("Content-Disposition", `attachment; filename="dashboard.csv"`)
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Status(http.StatusOK)
		if err := export.DashboardCSV(c.Writer, rows); err != nil {
			_ = c.Error(err)
		}
	case "json":
		c.Header("Content-Disposition", `attachment; filename="dashboard.json"`)
		c.Header("Content-Type", "application/json; charset=utf-8")
		c.Status(http.StatusOK)
		if err := export.DashboardJSON(c.Writer, rows); err != nil {
			_ = c.Error(err)
		}
	}
}

func (s *Server) totalTime(c *gin.Context) {
	_, f, _, ok := s.bindReport(c)
	if !ok {
		return
	}
	total, err := s.reports.Total(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "time": total.Time, "start": total.Start, "end": total.End})
}

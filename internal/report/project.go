package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/sadopc/worklog/internal/apperr"
)

// ProjectRow is one (task, user) group of the project report query.
// Intervals and Screens are JSON arrays as produced by the database.
type ProjectRow struct {
	UserID      int64
	UserName    string
	ProjectID   int64
	ProjectName string
	TaskID      int64
	TaskName    string
	Intervals   string
	Screens     string
}

type Screenshot struct {
	ID            int64  `json:"id"`
	Path          string `json:"path"`
	ThumbnailPath string `json:"thumbnail_path"`
	CreatedAt     string `json:"created_at"`
}

// ScreenshotGrid maps a date to "HH:00" to a ten-minute slot (0-5).
type ScreenshotGrid map[string]map[string]map[int]Screenshot

type TaskBucket struct {
	ID          int64            `json:"id"`
	TaskName    string           `json:"task_name"`
	Duration    int64            `json:"duration"`
	Dates       map[string]int64 `json:"dates"`
	Screenshots ScreenshotGrid   `json:"screenshots"`
}

type UserTasks struct {
	ID        int64         `json:"id"`
	FullName  string        `json:"full_name"`
	TasksTime int64         `json:"tasks_time"`
	Tasks     []*TaskBucket `json:"tasks"`
}

type ProjectBucket struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	ProjectTime int64        `json:"project_time"`
	Users       []*UserTasks `json:"users"`
}

type screenJSON struct {
	ID            *int64 `json:"id"`
	Path          string `json:"path"`
	ThumbnailPath string `json:"thumbnail_path"`
	CreatedAt     string `json:"created_at"`
}

// ProjectReport groups rows by project, then user, then task. Every level is
// sorted by its total duration, longest first, keeping first-seen order on ties.
func ProjectReport(rows []ProjectRow, p Params) ([]ProjectBucket, error) {
	loc := p.location()

	var projects []*ProjectBucket
	projectIdx := make(map[int64]*ProjectBucket)
	userIdx := make(map[[2]int64]*UserTasks)
	taskIdx := make(map[[3]int64]*TaskBucket)

	for _, r := range rows {
		intervals, err := decodeIntervals(r.Intervals)
		if err != nil {
			return nil, fmt.Errorf("task %d user %d: %w", r.TaskID, r.UserID, err)
		}
		screens, err := decodeScreens(r.Screens)
		if err != nil {
			return nil, fmt.Errorf("task %d user %d: %w", r.TaskID, r.UserID, err)
		}

		proj, ok := projectIdx[r.ProjectID]
		if !ok {
			proj = &ProjectBucket{ID: r.ProjectID, Name: r.ProjectName}
			projectIdx[r.ProjectID] = proj
			projects = append(projects, proj)
		}
		ukey := [2]int64{r.ProjectID, r.UserID}
		user, ok := userIdx[ukey]
		if !ok {
			user = &UserTasks{ID: r.UserID, FullName: r.UserName}
			userIdx[ukey] = user
			proj.Users = append(proj.Users, user)
		}
		tkey := [3]int64{r.ProjectID, r.UserID, r.TaskID}
		task, ok := taskIdx[tkey]
		if !ok {
			task = &TaskBucket{
				ID:          r.TaskID,
				TaskName:    r.TaskName,
				Dates:       make(map[string]int64),
				Screenshots: make(ScreenshotGrid),
			}
			taskIdx[tkey] = task
			user.Tasks = append(user.Tasks, task)
		}

		var total int64
		for _, iv := range intervals {
			date := iv.start.In(loc).Format(DateLayout)
			task.Dates[date] += iv.seconds
			total += iv.seconds
		}
		task.Duration += total
		user.TasksTime += total
		proj.ProjectTime += total

		attachScreens(task, screens, p, loc)
	}

	out := make([]ProjectBucket, 0, len(projects))
	sort.SliceStable(projects, func(i, j int) bool { return projects[i].ProjectTime > projects[j].ProjectTime })
	for _, proj := range projects {
		sort.SliceStable(proj.Users, func(i, j int) bool { return proj.Users[i].TasksTime > proj.Users[j].TasksTime })
		for _, u := range proj.Users {
			sort.SliceStable(u.Tasks, func(i, j int) bool { return u.Tasks[i].Duration > u.Tasks[j].Duration })
		}
		out = append(out, *proj)
	}
	return out, nil
}

func decodeScreens(raw string) ([]screenJSON, error) {
	if raw == "" {
		return nil, nil
	}
	var items []screenJSON
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, apperr.MalformedRow("screens", err)
	}
	return items, nil
}

// attachScreens keeps the first screenshot of every ten-minute slot on dates
// that already carry tracked time.
func attachScreens(task *TaskBucket, screens []screenJSON, p Params, loc *time.Location) {
	for _, s := range screens {
		if s.ID == nil {
			continue
		}
		created, err := time.Parse(time.RFC3339, s.CreatedAt)
		if err != nil || !p.inRange(created) {
			continue
		}
		local := created.In(loc)
		date := local.Format(DateLayout)
		if _, tracked := task.Dates[date]; !tracked {
			continue
		}
		hour := local.Format("15") + ":00"
		slot := local.Minute() / 10

		hours, ok := task.Screenshots[date]
		if !ok {
			hours = make(map[string]map[int]Screenshot)
			task.Screenshots[date] = hours
		}
		slots, ok := hours[hour]
		if !ok {
			slots = make(map[int]Screenshot)
			hours[hour] = slots
		}
		if _, taken := slots[slot]; taken {
			continue
		}
		slots[slot] = Screenshot{
			ID:            *s.ID,
			Path:          s.Path,
			ThumbnailPath: s.ThumbnailPath,
			CreatedAt:     s.CreatedAt,
		}
	}
}

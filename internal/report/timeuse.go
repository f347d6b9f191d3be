package report

import (
	"fmt"
	"sort"
)

// TimeUseRow is one (task, user) group of the time-use query.
type TimeUseRow struct {
	UserID      int64
	UserName    string
	UserEmail   string
	TaskID      int64
	TaskName    string
	ProjectID   int64
	ProjectName string
	Intervals   string
}

type UserInfo struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type TaskTime struct {
	TaskID      int64  `json:"task_id"`
	ProjectID   int64  `json:"project_id"`
	Name        string `json:"name"`
	ProjectName string `json:"project_name"`
	TotalTime   int64  `json:"total_time"`
}

type UserBucket struct {
	User      UserInfo    `json:"user"`
	TotalTime int64       `json:"total_time"`
	Tasks     []*TaskTime `json:"tasks"`
}

// TimeUseReport groups rows by user, then task.
func TimeUseReport(rows []TimeUseRow, p Params) ([]UserBucket, error) {
	var users []*UserBucket
	userIdx := make(map[int64]*UserBucket)
	taskIdx := make(map[[2]int64]*TaskTime)

	for _, r := range rows {
		intervals, err := decodeIntervals(r.Intervals)
		if err != nil {
			return nil, fmt.Errorf("task %d user %d: %w", r.TaskID, r.UserID, err)
		}

		u, ok := userIdx[r.UserID]
		if !ok {
			u = &UserBucket{User: UserInfo{ID: r.UserID, FullName: r.UserName, Email: r.UserEmail}}
			userIdx[r.UserID] = u
			users = append(users, u)
		}
		key := [2]int64{r.UserID, r.TaskID}
		t, ok := taskIdx[key]
		if !ok {
			t = &TaskTime{TaskID: r.TaskID, ProjectID: r.ProjectID, Name: r.TaskName, ProjectName: r.ProjectName}
			taskIdx[key] = t
			u.Tasks = append(u.Tasks, t)
		}

		for _, iv := range intervals {
			t.TotalTime += iv.seconds
			u.TotalTime += iv.seconds
		}
	}

	sort.SliceStable(users, func(i, j int) bool { return users[i].TotalTime > users[j].TotalTime })
	out := make([]UserBucket, 0, len(users))
	for _, u := range users {
		sort.SliceStable(u.Tasks, func(i, j int) bool { return u.Tasks[i].TotalTime > u.Tasks[j].TotalTime })
		out = append(out, *u)
	}
	return out, nil
}

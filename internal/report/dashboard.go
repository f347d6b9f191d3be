package report

import (
	"sort"
	"strings"
	"time"

	"github.com/sadopc/worklog/internal/apperr"
)

// Interval is a single tracked interval with its owner.
type Interval struct {
	UserID   int64
	UserName string
	Start    time.Time
	End      time.Time
}

type DayTotal struct {
	Date    string `json:"date"`
	Seconds int64  `json:"seconds"`
}

type DashboardRow struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	PerDay     []DayTotal `json:"per_day"`
	TimeWorked int64      `json:"time_worked"`
}

// Order sorts dashboard users.
type Order struct {
	By   string
	Desc bool
}

var orderColumns = map[string]bool{"name": true, "time_worked": true, "id": true}

// ParseOrder validates order_by/order_dir. Empty values mean name ascending.
func ParseOrder(by, dir string) (Order, error) {
	o := Order{By: strings.ToLower(strings.TrimSpace(by))}
	if o.By == "" {
		o.By = "name"
	}
	if !orderColumns[o.By] {
		return Order{}, apperr.InvalidFilter("cannot order dashboard by %q", by)
	}
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "asc":
	case "desc":
		o.Desc = true
	default:
		return Order{}, apperr.InvalidFilter("order direction %q", dir)
	}
	return o, nil
}

// Dashboard builds a dense user x day matrix. Every date worked by any user
// appears for every user, with 0 where that user has no time.
func Dashboard(intervals []Interval, p Params, o Order) []DashboardRow {
	loc := p.location()

	var users []*DashboardRow
	idx := make(map[int64]*DashboardRow)
	perDay := make(map[int64]map[string]int64)
	allDates := make(map[string]bool)

	for _, iv := range intervals {
		row, ok := idx[iv.UserID]
		if !ok {
			row = &DashboardRow{ID: iv.UserID, Name: iv.UserName}
			idx[iv.UserID] = row
			users = append(users, row)
			perDay[iv.UserID] = make(map[string]int64)
		}
		date := iv.Start.In(loc).Format(DateLayout)
		secs := Seconds(iv.Start, iv.End)
		perDay[iv.UserID][date] += secs
		row.TimeWorked += secs
		allDates[date] = true
	}

	dates := make([]string, 0, len(allDates))
	for d := range allDates {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	for _, row := range users {
		days := perDay[row.ID]
		row.PerDay = make([]DayTotal, len(dates))
		for i, d := range dates {
			row.PerDay[i] = DayTotal{Date: d, Seconds: days[d]}
		}
	}

	sort.SliceStable(users, func(i, j int) bool {
		a, b := users[i], users[j]
		if o.Desc {
			a, b = b, a
		}
		switch o.By {
		case "time_worked":
			return a.TimeWorked < b.TimeWorked
		case "id":
			return a.ID < b.ID
		}
		return a.Name < b.Name
	})

	out := make([]DashboardRow, len(users))
	for i, u := range users {
		out[i] = *u
	}
	return out
}

// TotalResult is the summed time of a set of intervals.
type TotalResult struct {
	Time  int64      `json:"time"`
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// Total sums the intervals and reports the earliest start and latest end.
func Total(intervals []Interval) TotalResult {
	var res TotalResult
	for i := range intervals {
		iv := intervals[i]
		res.Time += Seconds(iv.Start, iv.End)
		if res.Start == nil || iv.Start.Before(*res.Start) {
			s := iv.Start
			res.Start = &s
		}
		if res.End == nil || iv.End.After(*res.End) {
			e := iv.End
			res.End = &e
		}
	}
	return res
}

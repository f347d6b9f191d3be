package tui

import (
	"fmt"
	"time"
)

// period is the window of whole local days the viewer reports on. offset
// counts windows back from the one ending today.
type period struct {
	days   int
	offset int
	loc    *time.Location
	now    func() time.Time
}

func newPeriod(days int, loc *time.Location) period {
	if days < 1 {
		days = 7
	}
	if loc == nil {
		loc = time.UTC
	}
	return period{days: days, loc: loc, now: time.Now}
}

// bounds returns the window as [start, end) instants.
func (p period) bounds() (time.Time, time.Time) {
	n := p.now().In(p.loc)
	today := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, p.loc)
	end := today.AddDate(0, 0, 1-p.days*p.offset)
	return end.AddDate(0, 0, -p.days), end
}

func (p period) earlier() period {
	p.offset++
	return p
}

func (p period) later() period {
	if p.offset > 0 {
		p.offset--
	}
	return p
}

func (p period) label() string {
	start, end := p.bounds()
	last := end.AddDate(0, 0, -1)
	if p.days == 1 {
		return last.Format("Mon, Jan 02 2006")
	}
	return fmt.Sprintf("%s - %s", start.Format("Jan 02"), last.Format("Jan 02, 2006"))
}

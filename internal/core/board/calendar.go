package board

import (
	"time"

	"github.com/workmanagement/taskboard/internal/core/domain"
)

// Day is one populated calendar cell.
type Day struct {
	Date  string         `json:"date"`
	Day   int            `json:"day"`
	Tasks []*domain.Task `json:"tasks"`
}

// Calendar is a Sunday-first month grid. Cells before the first of the month
// are nil; the last week is not padded.
type Calendar struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Weeks [][]*Day   `json:"weeks"`
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthGrid lays the month out in weeks and attaches each task to the cell of
// its due date. Due dates are compared by calendar day in loc.
func MonthGrid(year int, month time.Month, tasks []*domain.Task, loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	days := DaysIn(year, month)

	byDay := make(map[int][]*domain.Task)
	for _, t := range tasks {
		due := t.DueDate.In(loc)
		if due.Year() == year && due.Month() == month {
			byDay[due.Day()] = append(byDay[due.Day()], t)
		}
	}

	cells := make([]*Day, int(first.Weekday()), int(first.Weekday())+days)
	for d := 1; d <= days; d++ {
		list := byDay[d]
		if list == nil {
			list = []*domain.Task{}
		}
		cells = append(cells, &Day{
			Date:  time.Date(year, month, d, 0, 0, 0, 0, loc).Format(time.DateOnly),
			Day:   d,
			Tasks: list,
		})
	}

	cal := Calendar{Year: year, Month: month}
	for start := 0; start < len(cells); start += 7 {
		end := min(start+7, len(cells))
		cal.Weeks = append(cal.Weeks, cells[start:end])
	}
	return cal
}

// Cells flattens the grid, leading blanks included.
func (c Calendar) Cells() []*Day {
	var out []*Day
	for _, w := range c.Weeks {
		out = append(out, w...)
	}
	return out
}

// Package board derives the kanban, calendar and urgency projections that
// clients render from a task snapshot, and keeps a local board that supports
// speculative status moves with explicit rollback.
package board

import (
	"math"
	"time"

	"github.com/workmanagement/taskboard/internal/core/domain"
)

// Column is one kanban lane.
type Column struct {
	Status domain.TaskStatus `json:"status"`
	Tasks  []*domain.Task    `json:"tasks"`
}

// GroupByStatus splits tasks into the three lanes, always in board order and
// always all three, preserving the input order inside each lane.
func GroupByStatus(tasks []*domain.Task) []Column {
	cols := make([]Column, len(domain.TaskStatuses))
	index := make(map[domain.TaskStatus]int, len(cols))
	for i, st := range domain.TaskStatuses {
		cols[i] = Column{Status: st, Tasks: []*domain.Task{}}
		index[st] = i
	}
	for _, t := range tasks {
		if i, ok := index[t.Status]; ok {
			cols[i].Tasks = append(cols[i].Tasks, t)
		}
	}
	return cols
}

// FilterByAssignee keeps tasks assigned to userID. An empty userID keeps all.
func FilterByAssignee(tasks []*domain.Task, userID string) []*domain.Task {
	if userID == "" {
		return tasks
	}
	out := make([]*domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.AssignedTo == userID {
			out = append(out, t)
		}
	}
	return out
}

// Urgency buckets a due date relative to now.
type Urgency string

const (
	UrgencyOverdue  Urgency = "overdue"
	UrgencySoon     Urgency = "soon"
	UrgencyThisWeek Urgency = "this-week"
	UrgencyLater    Urgency = "later"
)

// DaysUntil returns the number of days until due, rounded up, so anything due
// later today counts as one day away and anything already past is negative or
// zero.
func DaysUntil(due, now time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours() / 24))
}

func UrgencyOf(due, now time.Time) Urgency {
	switch days := DaysUntil(due, now); {
	case days < 0:
		return UrgencyOverdue
	case days <= 2:
		return UrgencySoon
	case days <= 7:
		return UrgencyThisWeek
	default:
		return UrgencyLater
	}
}

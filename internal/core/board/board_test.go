package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workmanagement/taskboard/internal/core/domain"
)

func task(id, assignee string, status domain.TaskStatus) *domain.Task {
	return &domain.Task{ID: id, Title: "task " + id, AssignedTo: assignee, Status: status}
}

func TestGroupByStatus(t *testing.T) {
	tasks := []*domain.Task{
		task("1", "u1", domain.StatusCompleted),
		task("2", "u1", domain.StatusToDo),
		task("3", "u2", domain.StatusToDo),
		task("4", "u2", "archived"),
	}

	cols := GroupByStatus(tasks)

	require.Len(t, cols, 3)
	assert.Equal(t, domain.StatusToDo, cols[0].Status)
	assert.Equal(t, domain.StatusInProgress, cols[1].Status)
	assert.Equal(t, domain.StatusCompleted, cols[2].Status)
	assert.Equal(t, []string{"2", "3"}, ids(cols[0].Tasks))
	assert.Empty(t, cols[1].Tasks)
	assert.NotNil(t, cols[1].Tasks)
	assert.Equal(t, []string{"1"}, ids(cols[2].Tasks))
}

func TestFilterByAssignee(t *testing.T) {
	tasks := []*domain.Task{
		task("1", "u1", domain.StatusToDo),
		task("2", "u2", domain.StatusToDo),
		task("3", "u1", domain.StatusCompleted),
	}

	assert.Equal(t, []string{"1", "3"}, ids(FilterByAssignee(tasks, "u1")))
	assert.Len(t, FilterByAssignee(tasks, ""), 3)
	assert.Empty(t, FilterByAssignee(tasks, "nobody"))
}

func TestUrgencyOf(t *testing.T) {
	now := time.Date(2024, time.May, 10, 9, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		name string
		due  time.Time
		want Urgency
	}{
		{"two days late", now.Add(-2 * day), UrgencyOverdue},
		{"due an hour ago rounds to today", now.Add(-time.Hour), UrgencySoon},
		{"later today", now.Add(3 * time.Hour), UrgencySoon},
		{"in two days", now.Add(2 * day), UrgencySoon},
		{"in five days", now.Add(5 * day), UrgencyThisWeek},
		{"in exactly a week", now.Add(7 * day), UrgencyThisWeek},
		{"in two weeks", now.Add(14 * day), UrgencyLater},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UrgencyOf(tt.due, now))
		})
	}
}

func ids(tasks []*domain.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

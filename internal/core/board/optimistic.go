package board

import (
	"sync"

	"github.com/workmanagement/taskboard/internal/core/domain"
)

// Board is a client-side copy of a task snapshot. Moves are applied in two
// phases: Speculate changes the local state immediately and returns a
// Pending; the caller then either commits it or rolls it back depending on
// the server's answer. A full snapshot from the server (Replace) always wins
// and voids outstanding rollbacks.
type Board struct {
	mu    sync.Mutex
	tasks map[string]*domain.Task
	order []string
	gen   uint64
}

func New(tasks []*domain.Task) *Board {
	b := &Board{}
	b.Replace(tasks)
	return b
}

// Replace installs a server snapshot. Applying the same snapshot twice is
// harmless.
func (b *Board) Replace(tasks []*domain.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tasks = make(map[string]*domain.Task, len(tasks))
	b.order = b.order[:0]
	for _, t := range tasks {
		clone := *t
		b.tasks[t.ID] = &clone
		b.order = append(b.order, t.ID)
	}
	b.gen++
}

// Tasks returns a copy of the current state in snapshot order.
func (b *Board) Tasks() []*domain.Task {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]*domain.Task, 0, len(b.order))
	for _, id := range b.order {
		clone := *b.tasks[id]
		out = append(out, &clone)
	}
	return out
}

func (b *Board) Columns() []Column {
	return GroupByStatus(b.Tasks())
}

// Pending is an applied but unconfirmed move.
type Pending struct {
	b        *Board
	taskID   string
	previous domain.TaskStatus
	applied  domain.TaskStatus
	gen      uint64
	done     bool
}

// Speculate moves taskID to status locally. It returns nil when the task is
// unknown or already in that status.
func (b *Board) Speculate(taskID string, status domain.TaskStatus) *Pending {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.tasks[taskID]
	if !ok || t.Status == status {
		return nil
	}
	p := &Pending{b: b, taskID: taskID, previous: t.Status, applied: status, gen: b.gen}
	t.Status = status
	return p
}

// Commit marks the move as confirmed.
func (p *Pending) Commit() {
	p.b.mu.Lock()
	defer p.b.mu.Unlock()
	p.done = true
}

// Rollback restores the previous status. It does nothing if a newer snapshot
// has been installed since, or if the task has been moved again locally.
// It reports whether the compensating change was applied.
func (p *Pending) Rollback() bool {
	p.b.mu.Lock()
	defer p.b.mu.Unlock()

	if p.done || p.gen != p.b.gen {
		p.done = true
		return false
	}
	p.done = true
	t, ok := p.b.tasks[p.taskID]
	if !ok || t.Status != p.applied {
		return false
	}
	t.Status = p.previous
	return true
}

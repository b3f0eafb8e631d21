package client

import (
	"context"

	"github.com/workmanagement/taskboard/internal/core/board"
	"github.com/workmanagement/taskboard/internal/core/domain"
)

// LiveBoard is a local kanban kept in sync with the task stream. Status moves
// show up locally at once and are rolled back if the server rejects them.
type LiveBoard struct {
	c     *Client
	board *board.Board
}

// NewBoard loads the caller's tasks into a local board.
func (c *Client) NewBoard(ctx context.Context) (*LiveBoard, error) {
	tasks, err := c.ListTasks(ctx, "")
	if err != nil {
		return nil, err
	}
	return &LiveBoard{c: c, board: board.New(tasks)}, nil
}

func (lb *LiveBoard) Columns() []board.Column { return lb.board.Columns() }

func (lb *LiveBoard) Tasks() []*domain.Task { return lb.board.Tasks() }

// Follow applies every snapshot from the task stream until ctx ends or the
// stream fails. onChange, when non-nil, runs after each snapshot.
func (lb *LiveBoard) Follow(ctx context.Context, onChange func()) error {
	sub, err := lb.c.WatchTasks(ctx, "")
	if err != nil {
		return err
	}
	defer sub.Close()

	for tasks := range sub.C() {
		lb.board.Replace(tasks)
		if onChange != nil {
			onChange()
		}
	}
	return sub.Err()
}

// MoveTask moves a task locally, then asks the server. A rejected move is
// reverted unless a newer snapshot or move has already superseded it. Moving
// a task the board does not hold, or into its current column, is a no-op.
func (lb *LiveBoard) MoveTask(ctx context.Context, taskID string, status domain.TaskStatus) error {
	p := lb.board.Speculate(taskID, status)
	if p == nil {
		return nil
	}
	if _, err := lb.c.UpdateStatus(ctx, taskID, status); err != nil {
		p.Rollback()
		return err
	}
	p.Commit()
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/workmanagement/taskboard/internal/core/domain"
	"github.com/workmanagement/taskboard/internal/core/feed"
	"github.com/workmanagement/taskboard/internal/core/ports"
)

type taskService struct {
	tasks   ports.TaskRepository
	users   ports.UserRepository
	changes ports.ChangePublisher
	subs    ports.ChangeSubscriber
	push    ports.PushQueue
	log     zerolog.Logger
	now     func() time.Time
}

// NewTaskService returns a TaskService implementation.
func NewTaskService(
	tasks ports.TaskRepository,
	users ports.UserRepository,
	changes ports.ChangePublisher,
	subs ports.ChangeSubscriber,
	push ports.PushQueue,
	log zerolog.Logger,
) ports.TaskService {
	return &taskService{
		tasks:   tasks,
		users:   users,
		changes: changes,
		subs:    subs,
		push:    push,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *taskService) ListTasks(ctx context.Context, scope string) ([]*domain.Task, error) {
	tasks, err := s.tasks.List(ctx, domain.TaskFilter{AssignedTo: scope})
	if err != nil {
		return nil, domain.Wrap(err, "could not load tasks")
	}
	return tasks, nil
}

// CreateTask persists a task and schedules the assignment notification. The
// notification is fire-and-forget; losing it never undoes the task.
func (s *taskService) CreateTask(ctx context.Context, sess domain.Session, in ports.CreateTaskInput) (*domain.Task, error) {
	if !sess.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	task, err := s.buildTask(in)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.FindByID(ctx, task.AssignedTo); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.Invalid("assigned user does not exist")
		}
		return nil, domain.Wrap(err, "could not create task")
	}

	created, err := s.tasks.Create(ctx, task)
	if err != nil {
		return nil, domain.Wrap(err, "could not create task")
	}

	publish(ctx, s.changes, s.log, ports.TopicTasks, nil)
	s.enqueue(ports.PushJob{
		UserID: created.AssignedTo,
		Title:  domain.TitleTaskAssigned,
		Body:   fmt.Sprintf("You have been assigned a new task: %s", created.Title),
	})

	s.log.Info().
		Str("task_id", created.ID).
		Str("assigned_to", created.AssignedTo).
		Str("priority", string(created.Priority)).
		Msg("task created")
	return created, nil
}

func (s *taskService) buildTask(in ports.CreateTaskInput) (*domain.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.ErrMissingTitle
	}
	if in.AssignedTo == "" {
		return nil, domain.ErrMissingAssignee
	}

	priority := in.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.Valid() {
		return nil, domain.ErrInvalidPriority
	}

	status := in.Status
	if status == "" {
		status = domain.StatusToDo
	}
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	now := s.now()
	due := in.DueDate
	if due.IsZero() {
		due = now
	}

	return &domain.Task{
		Title:       title,
		Description: in.Description,
		AssignedTo:  in.AssignedTo,
		DueDate:     due,
		Priority:    priority,
		Status:      status,
		CreatedAt:   now,
	}, nil
}

// UpdateStatus persists the new status first, then re-reads the task to find
// its current assignee and notifies them. A failed write sends nothing.
// Workers may only move tasks assigned to them.
func (s *taskService) UpdateStatus(ctx context.Context, sess domain.Session, taskID string, status domain.TaskStatus) (*domain.Task, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	current, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, domain.Wrap(err, "could not update task")
	}
	if !sess.IsAdmin() && current.AssignedTo != sess.UserID {
		return nil, domain.ErrForbidden
	}

	if err := s.tasks.UpdateStatus(ctx, taskID, status); err != nil {
		return nil, domain.Wrap(err, "could not update task")
	}

	publish(ctx, s.changes, s.log, ports.TopicTasks, nil)

	updated, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		s.log.Warn().Err(err).Str("task_id", taskID).Msg("re-read after status update failed, skipping notification")
		current.Status = status
		return current, nil
	}

	s.enqueue(ports.PushJob{
		UserID: updated.AssignedTo,
		Title:  domain.TitleTaskStatusUpdated,
		Body:   fmt.Sprintf("The status of your task %q has been updated to %s", updated.Title, updated.Status),
	})

	s.log.Info().
		Str("task_id", taskID).
		Str("status", string(status)).
		Str("by", sess.UserID).
		Msg("task status updated")
	return updated, nil
}

func (s *taskService) CompleteTask(ctx context.Context, sess domain.Session, taskID string) (*domain.Task, error) {
	return s.UpdateStatus(ctx, sess, taskID, domain.StatusCompleted)
}

func (s *taskService) DeleteTask(ctx context.Context, sess domain.Session, taskID string) error {
	if !sess.IsAdmin() {
		return domain.ErrForbidden
	}
	if err := s.tasks.Delete(ctx, taskID); err != nil {
		return domain.Wrap(err, "could not delete task")
	}

	publish(ctx, s.changes, s.log, ports.TopicTasks, nil)
	s.log.Info().Str("task_id", taskID).Msg("task deleted")
	return nil
}

// WatchTasks streams ListTasks(scope) snapshots.
func (s *taskService) WatchTasks(ctx context.Context, scope string) (*feed.Stream[[]*domain.Task], error) {
	signals, release := s.subs.Subscribe(ports.TopicTasks)
	return feed.Watch(ctx, signals, release, func(ctx context.Context) ([]*domain.Task, error) {
		return s.ListTasks(ctx, scope)
	}, s.log)
}

func (s *taskService) enqueue(job ports.PushJob) {
	if !s.push.Enqueue(job) {
		s.log.Warn().Str("user_id", job.UserID).Str("title", job.Title).Msg("push queue full, notification dropped")
	}
}

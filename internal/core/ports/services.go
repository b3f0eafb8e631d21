package ports

import (
	"context"
	"io"
	"time"

	"github.com/workmanagement/taskboard/internal/core/domain"
	"github.com/workmanagement/taskboard/internal/core/feed"
)

type SessionService interface {
	Login(ctx context.Context, email, password string) (string, *domain.User, domain.Session, error)
	Logout(ctx context.Context, session domain.Session) error
	Signup(ctx context.Context, email, password, role string) domain.SignupResult
	Authenticate(ctx context.Context, token string) (domain.Session, error)
	WatchIdentity(ctx context.Context, sessionID string) (*feed.Stream[domain.Identity], error)
}

// CreateTaskInput carries the admin-supplied task fields. Zero values for
// Priority, Status and DueDate fall back to medium, to-do and now.
type CreateTaskInput struct {
	Title       string
	Description string
	AssignedTo  string
	DueDate     time.Time
	Priority    domain.Priority
	Status      domain.TaskStatus
}

type TaskService interface {
	// ListTasks returns every task for an empty scope, otherwise only the
	// tasks assigned to the user id in scope.
	ListTasks(ctx context.Context, scope string) ([]*domain.Task, error)
	CreateTask(ctx context.Context, session domain.Session, in CreateTaskInput) (*domain.Task, error)
	UpdateStatus(ctx context.Context, session domain.Session, taskID string, status domain.TaskStatus) (*domain.Task, error)
	CompleteTask(ctx context.Context, session domain.Session, taskID string) (*domain.Task, error)
	DeleteTask(ctx context.Context, session domain.Session, taskID string) error
	WatchTasks(ctx context.Context, scope string) (*feed.Stream[[]*domain.Task], error)
}

type PresenceService interface {
	SetOnline(ctx context.Context, userID string, online bool)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	ListWorkers(ctx context.Context) ([]*domain.User, error)
	WatchRoster(ctx context.Context) (*feed.Stream[[]*domain.User], error)
}

type MessageService interface {
	Send(ctx context.Context, senderID, receiverID, text string) (*domain.Message, error)
	ListConversation(ctx context.Context, conversationID string) ([]*domain.Message, error)
	WatchConversation(ctx context.Context, conversationID string) (*feed.Stream[[]*domain.Message], error)
}

type NotificationService interface {
	RegisterForPush(ctx context.Context, userID, token string, permission domain.PushPermission)
	Notify(ctx context.Context, userID, title, body string) error
	Listen(ctx context.Context, userID string) *feed.Stream[domain.PushNotification]
	VAPIDKey() string
}

// PushJob is one queued outbound notification.
type PushJob struct {
	UserID string
	Title  string
	Body   string
}

// PushQueue accepts outbound notifications for asynchronous delivery. Enqueue
// never blocks; it reports false when the job was dropped.
type PushQueue interface {
	Enqueue(job PushJob) bool
}

type UploadService interface {
	Upload(ctx context.Context, session domain.Session, filename, contentType string, r io.Reader) (*domain.Upload, error)
	Open(ctx context.Context, id string) (*domain.Upload, io.ReadCloser, error)
}

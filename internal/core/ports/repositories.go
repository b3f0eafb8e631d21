package ports

import (
	"context"
	"io"
	"time"

	"github.com/workmanagement/taskboard/internal/core/domain"
)

// UserRepository persists accounts, presence and push tokens.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// List returns every user, or only those holding role when it is non-empty.
	List(ctx context.Context, role string) ([]*domain.User, error)
	SetPresence(ctx context.Context, id string, online bool, at time.Time) error
	SetNotificationToken(ctx context.Context, id, token string) error
}

type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	FindByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error)
	UpdateStatus(ctx context.Context, id string, status domain.TaskStatus) error
	Delete(ctx context.Context, id string) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) (*domain.Message, error)
	// ListByConversation returns messages ordered by timestamp ascending.
	ListByConversation(ctx context.Context, conversationID string) ([]*domain.Message, error)
}

// UploadStore keeps file attachments.
type UploadStore interface {
	Save(ctx context.Context, upload *domain.Upload, r io.Reader) (*domain.Upload, error)
	Open(ctx context.Context, id string) (*domain.Upload, io.ReadCloser, error)
}

// SessionStore tracks live session ids so tokens can be revoked before they
// expire.
type SessionStore interface {
	Create(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	// Lookup returns the user bound to sessionID; ok is false once the session
	// has been revoked or has expired.
	Lookup(ctx context.Context, sessionID string) (userID string, ok bool, err error)
	Revoke(ctx context.Context, sessionID string) error
}

// PushSender delivers a notification to one device token. Implementations
// return an error wrapping domain.ErrPushTokenUnregistered when the provider
// rejects the token as stale.
type PushSender interface {
	Send(ctx context.Context, token string, n domain.PushNotification) error
}

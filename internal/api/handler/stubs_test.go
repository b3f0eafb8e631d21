package handler

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/workmanagement/taskboard/internal/api/middleware"
	"github.com/workmanagement/taskboard/internal/core/domain"
	"github.com/workmanagement/taskboard/internal/core/feed"
	"github.com/workmanagement/taskboard/internal/core/ports"
)

var (
	adminSession  = domain.Session{ID: "s-admin", UserID: "admin-1", Email: "boss@example.com", Role: domain.RoleAdmin}
	workerSession = domain.Session{ID: "s-worker", UserID: "worker-1", Email: "bob@example.com", Role: domain.RoleWorker}
)

// newContext builds an echo context with the validator installed and, when
// sess is non-nil, an authenticated session attached.
func newContext(method, target, body string, sess *domain.Session) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if sess != nil {
		middleware.SetSession(c, *sess)
	}
	return e, c, rec
}

func nopLogger() zerolog.Logger { return zerolog.Nop() }

// snapshotStream returns a stream that delivers v once and then ends.
func snapshotStream[T any](v T) *feed.Stream[T] {
	signals := make(chan struct{})
	close(signals)
	s, _ := feed.Watch(context.Background(), signals, func() {}, func(context.Context) (T, error) { return v, nil }, nopLogger())
	return s
}

// ---- Session ----------------------------------------------------------------

type stubSessionService struct {
	signupFn   func(ctx context.Context, email, password, role string) domain.SignupResult
	loginFn    func(ctx context.Context, email, password string) (string, *domain.User, domain.Session, error)
	logoutFn   func(ctx context.Context, sess domain.Session) error
	identities []domain.Identity
}

func (s *stubSessionService) Signup(ctx context.Context, email, password, role string) domain.SignupResult {
	return s.signupFn(ctx, email, password, role)
}

func (s *stubSessionService) Login(ctx context.Context, email, password string) (string, *domain.User, domain.Session, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubSessionService) Logout(ctx context.Context, sess domain.Session) error {
	if s.logoutFn == nil {
		return nil
	}
	return s.logoutFn(ctx, sess)
}

func (s *stubSessionService) Authenticate(context.Context, string) (domain.Session, error) {
	return domain.Session{}, domain.ErrUnauthenticated
}

func (s *stubSessionService) WatchIdentity(context.Context, string) (*feed.Stream[domain.Identity], error) {
	return snapshotStream(s.identities[0]), nil
}

// ---- Presence ---------------------------------------------------------------

type presenceCall struct {
	userID string
	online bool
}

type stubPresenceService struct {
	users []*domain.User
	calls []presenceCall
}

func (s *stubPresenceService) SetOnline(_ context.Context, userID string, online bool) {
	s.calls = append(s.calls, presenceCall{userID, online})
}

func (s *stubPresenceService) ListUsers(context.Context) ([]*domain.User, error) {
	return s.users, nil
}

func (s *stubPresenceService) ListWorkers(context.Context) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range s.users {
		if u.Role == domain.RoleWorker {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *stubPresenceService) WatchRoster(context.Context) (*feed.Stream[[]*domain.User], error) {
	return snapshotStream(s.users), nil
}

// ---- Tasks ------------------------------------------------------------------

type stubTaskService struct {
	tasks     []*domain.Task
	scopes    []string
	createFn  func(ctx context.Context, sess domain.Session, in ports.CreateTaskInput) (*domain.Task, error)
	updateFn  func(ctx context.Context, sess domain.Session, id string, status domain.TaskStatus) (*domain.Task, error)
	deleteErr error
}

func (s *stubTaskService) ListTasks(_ context.Context, scope string) ([]*domain.Task, error) {
	s.scopes = append(s.scopes, scope)
	if scope == "" {
		return s.tasks, nil
	}
	var out []*domain.Task
	for _, t := range s.tasks {
		if t.AssignedTo == scope {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *stubTaskService) CreateTask(ctx context.Context, sess domain.Session, in ports.CreateTaskInput) (*domain.Task, error) {
	return s.createFn(ctx, sess, in)
}

func (s *stubTaskService) UpdateStatus(ctx context.Context, sess domain.Session, id string, status domain.TaskStatus) (*domain.Task, error) {
	return s.updateFn(ctx, sess, id, status)
}

func (s *stubTaskService) CompleteTask(ctx context.Context, sess domain.Session, id string) (*domain.Task, error) {
	return s.updateFn(ctx, sess, id, domain.StatusCompleted)
}

func (s *stubTaskService) DeleteTask(context.Context, domain.Session, string) error {
	return s.deleteErr
}

func (s *stubTaskService) WatchTasks(ctx context.Context, scope string) (*feed.Stream[[]*domain.Task], error) {
	tasks, _ := s.ListTasks(ctx, scope)
	return snapshotStream(tasks), nil
}

// ---- Messages ---------------------------------------------------------------

type stubMessageService struct {
	sent    []string
	byConv  map[string][]*domain.Message
	sendErr error
}

func (s *stubMessageService) Send(_ context.Context, senderID, receiverID, text string) (*domain.Message, error) {
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	s.sent = append(s.sent, text)
	return &domain.Message{
		ID:             "m1",
		ConversationID: domain.ConversationID(senderID, receiverID),
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Message:        text,
	}, nil
}

func (s *stubMessageService) ListConversation(_ context.Context, cid string) ([]*domain.Message, error) {
	return s.byConv[cid], nil
}

func (s *stubMessageService) WatchConversation(_ context.Context, cid string) (*feed.Stream[[]*domain.Message], error) {
	return snapshotStream(s.byConv[cid]), nil
}

// ---- Notifications ----------------------------------------------------------

type stubNotificationService struct {
	registered []string
	pending    []domain.PushNotification
}

func (s *stubNotificationService) RegisterForPush(_ context.Context, userID, token string, permission domain.PushPermission) {
	s.registered = append(s.registered, userID+"|"+token+"|"+string(permission))
}

func (s *stubNotificationService) Notify(context.Context, string, string, string) error { return nil }

func (s *stubNotificationService) Listen(ctx context.Context, _ string) *feed.Stream[domain.PushNotification] {
	signals := make(chan domain.PushNotification, len(s.pending))
	for _, n := range s.pending {
		signals <- n
	}
	close(signals)
	return feed.Events(ctx, signals, func() {}, func(n domain.PushNotification) (domain.PushNotification, bool) { return n, true })
}

func (s *stubNotificationService) VAPIDKey() string { return "vapid-public" }

// ---- Uploads ----------------------------------------------------------------

type stubUploadService struct {
	files map[string][]byte
	meta  map[string]*domain.Upload
}

func (s *stubUploadService) Upload(_ context.Context, sess domain.Session, filename, contentType string, r io.Reader) (*domain.Upload, error) {
	if !sess.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	up := &domain.Upload{ID: "f1", Filename: filename, ContentType: contentType, Size: int64(len(data)), UploadedBy: sess.UserID, URL: "/v1/uploads/f1"}
	s.files[up.ID] = data
	s.meta[up.ID] = up
	return up, nil
}

func (s *stubUploadService) Open(_ context.Context, id string) (*domain.Upload, io.ReadCloser, error) {
	up, ok := s.meta[id]
	if !ok {
		return nil, nil, domain.ErrUploadNotFound
	}
	return up, io.NopCloser(bytes.NewReader(s.files[id])), nil
}


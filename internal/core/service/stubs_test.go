package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/workmanagement/taskboard/internal/core/domain"
	"github.com/workmanagement/taskboard/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu       sync.Mutex
	users    map[string]*domain.User
	seq      int
	err      error // returned by every call when set
	presence []string
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) seed(id, email, role string) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := &domain.User{ID: id, Email: email, Role: role}
	r.users[id] = u
	return cloneUser(u)
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.seq++
	created := cloneUser(user)
	created.ID = "user-" + strconv.Itoa(r.seq)
	r.users[created.ID] = created
	return cloneUser(created), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context, role string) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []*domain.User
	for _, u := range r.users {
		if role == "" || u.Role == role {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *stubUserRepo) SetPresence(_ context.Context, id string, online bool, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.IsOnline = online
	ts := at
	u.LastSeen = &ts
	r.presence = append(r.presence, id+":"+strconv.FormatBool(online))
	return nil
}

func (r *stubUserRepo) SetNotificationToken(_ context.Context, id, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.NotificationToken = token
	return nil
}

// ---------------------------------------------------------------------------
// Tasks
// ---------------------------------------------------------------------------

type stubTaskRepo struct {
	mu        sync.Mutex
	tasks     map[string]*domain.Task
	order     []string
	seq       int
	listErr   error
	updateErr error
	reads     int
}

func newStubTaskRepo() *stubTaskRepo {
	return &stubTaskRepo{tasks: make(map[string]*domain.Task)}
}

func (r *stubTaskRepo) seed(t *domain.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *t
	r.tasks[t.ID] = &clone
	r.order = append(r.order, t.ID)
}

func (r *stubTaskRepo) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	clone := *task
	clone.ID = "task-" + strconv.Itoa(r.seq)
	r.tasks[clone.ID] = &clone
	r.order = append(r.order, clone.ID)
	out := clone
	return &out, nil
}

func (r *stubTaskRepo) FindByID(_ context.Context, id string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	out := *t
	return &out, nil
}

func (r *stubTaskRepo) List(_ context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := []*domain.Task{}
	for _, id := range r.order {
		t, ok := r.tasks[id]
		if !ok {
			continue
		}
		if filter.AssignedTo != "" && t.AssignedTo != filter.AssignedTo {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		clone := *t
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubTaskRepo) UpdateStatus(_ context.Context, id string, status domain.TaskStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	t, ok := r.tasks[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	t.Status = status
	return nil
}

func (r *stubTaskRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

// ---------------------------------------------------------------------------
// Messages
// ---------------------------------------------------------------------------

type stubMessageRepo struct {
	mu   sync.Mutex
	msgs []*domain.Message
	err  error
}

func (r *stubMessageRepo) Create(_ context.Context, msg *domain.Message) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	clone := *msg
	clone.ID = "msg-" + strconv.Itoa(len(r.msgs)+1)
	r.msgs = append(r.msgs, &clone)
	out := clone
	return &out, nil
}

func (r *stubMessageRepo) ListByConversation(_ context.Context, cid string) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := []*domain.Message{}
	for _, m := range r.msgs {
		if m.ConversationID == cid {
			clone := *m
			out = append(out, &clone)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

type stubSessionStore struct {
	mu        sync.Mutex
	sessions  map[string]string
	revokeErr error
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: make(map[string]string)}
}

func (s *stubSessionStore) Create(_ context.Context, sid, userID string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sid] = userID
	return nil
}

func (s *stubSessionStore) Lookup(_ context.Context, sid string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uid, ok := s.sessions[sid]
	return uid, ok, nil
}

func (s *stubSessionStore) Revoke(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revokeErr != nil {
		return s.revokeErr
	}
	delete(s.sessions, sid)
	return nil
}

// ---------------------------------------------------------------------------
// Change feed
// ---------------------------------------------------------------------------

// memChanges is a synchronous in-memory change feed that records every topic
// published.
type memChanges struct {
	mu        sync.Mutex
	subs      map[string][]chan ports.Change
	published []ports.Change
}

func newMemChanges() *memChanges {
	return &memChanges{subs: make(map[string][]chan ports.Change)}
}

func (m *memChanges) Publish(_ context.Context, c ports.Change) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, c)
	for _, ch := range m.subs[c.Topic] {
		select {
		case ch <- c:
		default:
		}
	}
	return nil
}

func (m *memChanges) Subscribe(topic string) (<-chan ports.Change, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan ports.Change, 8)
	m.subs[topic] = append(m.subs[topic], ch)
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			list := m.subs[topic]
			for i, c := range list {
				if c == ch {
					m.subs[topic] = append(list[:i], list[i+1:]...)
					break
				}
			}
			close(ch)
		})
	}
}

func (m *memChanges) topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.published))
	for _, c := range m.published {
		out = append(out, c.Topic)
	}
	return out
}

func (m *memChanges) subscribers(topic string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs[topic])
}

// ---------------------------------------------------------------------------
// Push
// ---------------------------------------------------------------------------

type stubPushQueue struct {
	mu   sync.Mutex
	jobs []ports.PushJob
	full bool
}

func (q *stubPushQueue) Enqueue(job ports.PushJob) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.full {
		return false
	}
	q.jobs = append(q.jobs, job)
	return true
}

type stubSender struct {
	mu   sync.Mutex
	sent []string // token:title
	err  error
}

func (s *stubSender) Send(_ context.Context, token string, n domain.PushNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, token+":"+n.Title)
	return nil
}

// ---------------------------------------------------------------------------
// Uploads
// ---------------------------------------------------------------------------

type stubUploadStore struct {
	files map[string][]byte
	meta  map[string]*domain.Upload
}

func newStubUploadStore() *stubUploadStore {
	return &stubUploadStore{files: map[string][]byte{}, meta: map[string]*domain.Upload{}}
}

func (s *stubUploadStore) Save(_ context.Context, up *domain.Upload, r io.Reader) (*domain.Upload, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	clone := *up
	clone.ID = "file-" + strconv.Itoa(len(s.files)+1)
	clone.Size = int64(len(data))
	s.files[clone.ID] = data
	s.meta[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (s *stubUploadStore) Open(_ context.Context, id string) (*domain.Upload, io.ReadCloser, error) {
	data, ok := s.files[id]
	if !ok {
		return nil, nil, domain.ErrUploadNotFound
	}
	clone := *s.meta[id]
	return &clone, io.NopCloser(bytes.NewReader(data)), nil
}

var errBoom = errors.New("boom")

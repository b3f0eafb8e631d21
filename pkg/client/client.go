// Package client is a Go client for the taskboard HTTP API. It covers the
// session, task, presence, messaging and notification endpoints, reads the
// live streams, and keeps a local board with optimistic status moves.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/workmanagement/taskboard/internal/core/domain"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("taskboard: %d %s", e.Status, e.Message)
}

// Client talks to one taskboard server. It is safe for concurrent use.
type Client struct {
	base *url.URL
	http *http.Client
	// stream has no overall timeout; streams live until their context ends.
	stream *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

// WithHTTPClient replaces the client used for request/response calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken starts the client with an existing session token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("taskboard: base url: %w", err)
	}
	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: defaultTimeout},
		stream: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Token returns the current session token, empty when signed out.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do sends a JSON request and decodes a JSON answer into out when out is
// non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	msg := body.Error
	if msg == "" {
		msg = body.Message
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

// --- Session ---

// Signup registers an account. The result carries the server's inline
// message whether or not it succeeded.
func (c *Client) Signup(ctx context.Context, email, password, role string) (domain.SignupResult, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/signup", map[string]string{
		"email": email, "password": password, "role": role,
	})
	if err != nil {
		return domain.SignupResult{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return domain.SignupResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusUnprocessableEntity {
		return domain.SignupResult{}, decodeError(resp)
	}
	var res domain.SignupResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return domain.SignupResult{}, err
	}
	return res, nil
}

// Login opens a session and keeps its token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.User, error) {
	var out struct {
		Token string       `json:"token"`
		User  *domain.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, &out); err != nil {
		return nil, err
	}
	c.setToken(out.Token)
	return out.User, nil
}

// Logout ends the session. The local token is dropped even if the server
// call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.setToken("")
	return err
}

// --- Tasks ---

// CreateTask carries the fields of a new task. Empty fields take the server
// defaults.
type CreateTask struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	AssignedTo  string     `json:"assigned_to"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	Status      string     `json:"status,omitempty"`
}

// ListTasks returns the visible tasks. assignee is honoured for admins only.
func (c *Client) ListTasks(ctx context.Context, assignee string) ([]*domain.Task, error) {
	path := "/v1/tasks"
	if assignee != "" {
		path += "?assignee=" + url.QueryEscape(assignee)
	}
	var tasks []*domain.Task
	err := c.do(ctx, http.MethodGet, path, nil, &tasks)
	return tasks, err
}

func (c *Client) CreateTask(ctx context.Context, in CreateTask) (*domain.Task, error) {
	var t domain.Task
	if err := c.do(ctx, http.MethodPost, "/v1/tasks", in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) UpdateStatus(ctx context.Context, taskID string, status domain.TaskStatus) (*domain.Task, error) {
	var t domain.Task
	path := "/v1/tasks/" + url.PathEscape(taskID) + "/status"
	if err := c.do(ctx, http.MethodPatch, path, map[string]string{"status": string(status)}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) CompleteTask(ctx context.Context, taskID string) (*domain.Task, error) {
	var t domain.Task
	if err := c.do(ctx, http.MethodPost, "/v1/tasks/"+url.PathEscape(taskID)+"/complete", nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/tasks/"+url.PathEscape(taskID), nil, nil)
}

// --- Presence ---

func (c *Client) SetPresence(ctx context.Context, online bool) error {
	return c.do(ctx, http.MethodPost, "/v1/presence", map[string]bool{"online": online}, nil)
}

func (c *Client) Users(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	err := c.do(ctx, http.MethodGet, "/v1/users", nil, &users)
	return users, err
}

// --- Messages ---

// Conversation is the message history between the caller and one user.
type Conversation struct {
	ConversationID string            `json:"conversation_id"`
	Messages       []*domain.Message `json:"messages"`
}

func (c *Client) Conversation(ctx context.Context, receiverID string) (*Conversation, error) {
	var conv Conversation
	if err := c.do(ctx, http.MethodGet, "/v1/messages/"+url.PathEscape(receiverID), nil, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// SendMessage posts text to receiverID. Blank text is ignored by the server
// and yields (nil, nil).
func (c *Client) SendMessage(ctx context.Context, receiverID, text string) (*domain.Message, error) {
	var msg domain.Message
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/messages/"+url.PathEscape(receiverID), map[string]string{"message": text})
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode >= 300:
		return nil, decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// --- Notifications ---

func (c *Client) RegisterPushToken(ctx context.Context, token string, permission domain.PushPermission) error {
	return c.do(ctx, http.MethodPost, "/v1/notifications/token", map[string]string{
		"token": token, "permission": string(permission),
	}, nil)
}

func (c *Client) VAPIDKey(ctx context.Context) (string, error) {
	var out struct {
		VAPIDKey string `json:"vapid_key"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/notifications/config", nil, &out)
	return out.VAPIDKey, err
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/workmanagement/taskboard/internal/core/domain"
)

func seededUsers() []*domain.User {
	seen := fixedNow.Add(-125 * time.Second)
	return []*domain.User{
		{ID: "admin-1", Email: "boss@example.com", Role: domain.RoleAdmin, IsOnline: true, LastSeen: &fixedNow},
		{ID: "worker-1", Email: "bob@example.com", Role: domain.RoleWorker, LastSeen: &seen},
		{ID: "worker-2", Email: "eve@example.com", Role: domain.RoleWorker},
	}
}

func newUserHandler(stub *stubPresenceService) *UserHandler {
	h := NewUserHandler(stub)
	h.now = func() time.Time { return fixedNow }
	return h
}

func TestUserHandler_List_LastSeenLabels(t *testing.T) {
	h := newUserHandler(&stubPresenceService{users: seededUsers()})

	_, c, rec := newContext(http.MethodGet, "/v1/users", "", &workerSession)
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var users []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	want := []string{"Just now", "2 minutes ago", "Never"}
	for i, label := range want {
		if users[i]["last_seen_label"] != label {
			t.Fatalf("user %d: expected %q, got %v", i, label, users[i]["last_seen_label"])
		}
	}
	if _, leaked := users[0]["password_hash"]; leaked {
		t.Fatalf("password hash must never be serialized")
	}
}

func TestUserHandler_Workers(t *testing.T) {
	h := newUserHandler(&stubPresenceService{users: seededUsers()})

	_, c, rec := newContext(http.MethodGet, "/v1/users/workers", "", &adminSession)
	if err := h.Workers(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var users []domain.User
	if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 workers, got %d", len(users))
	}
}

func TestUserHandler_Presence(t *testing.T) {
	stub := &stubPresenceService{}
	h := newUserHandler(stub)

	_, c, rec := newContext(http.MethodPost, "/v1/presence", `{"online":false}`, &workerSession)
	if err := h.Presence(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(stub.calls) != 1 || stub.calls[0] != (presenceCall{workerSession.UserID, false}) {
		t.Fatalf("unexpected presence calls: %+v", stub.calls)
	}
}

func TestUserHandler_Presence_RequiresFlag(t *testing.T) {
	stub := &stubPresenceService{}
	h := newUserHandler(stub)

	_, c, _ := newContext(http.MethodPost, "/v1/presence", `{}`, &workerSession)
	if err := h.Presence(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(stub.calls) != 0 {
		t.Fatalf("presence must not change")
	}
}

func TestUserHandler_Stream(t *testing.T) {
	h := newUserHandler(&stubPresenceService{users: seededUsers()})

	_, c, rec := newContext(http.MethodGet, "/v1/users/stream", "", &workerSession)
	if err := h.Stream(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	body := rec.Body.String()
	if !strings.HasPrefix(body, "event: users\n") || !strings.Contains(body, `"last_seen_label":"2 minutes ago"`) {
		t.Fatalf("unexpected stream body: %q", body)
	}
}

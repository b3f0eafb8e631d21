package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/workmanagement/taskboard/internal/core/domain"
)

type stubAuthenticator struct {
	sessions map[string]domain.Session
	err      error
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (domain.Session, error) {
	if s.err != nil {
		return domain.Session{}, s.err
	}
	sess, ok := s.sessions[token]
	if !ok {
		return domain.Session{}, domain.ErrUnauthenticated
	}
	return sess, nil
}

func newStubAuthenticator() *stubAuthenticator {
	return &stubAuthenticator{sessions: map[string]domain.Session{
		"good": {ID: "s1", UserID: "u1", Email: "alice@example.com", Role: domain.RoleAdmin},
	}}
}

func TestAuthMiddleware_ValidBearer(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(newStubAuthenticator())(func(c echo.Context) error {
		called = true
		sess, ok := SessionFrom(c)
		if !ok || sess.UserID != "u1" || sess.Role != domain.RoleAdmin {
			t.Fatalf("session not set: %+v", sess)
		}
		if c.Get("role") != domain.RoleAdmin || c.Get("user_id") != "u1" {
			t.Fatalf("role/user_id not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_SessionCookie(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Auth(newStubAuthenticator())(func(c echo.Context) error {
		if _, ok := SessionFrom(c); !ok {
			t.Fatalf("session not set from cookie")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		header string
		auth   *stubAuthenticator
		want   int
	}{
		{"missing header", "", newStubAuthenticator(), http.StatusUnauthorized},
		{"invalid header format", "Token abc", newStubAuthenticator(), http.StatusUnauthorized},
		{"invalid token", "Bearer not-a-token", newStubAuthenticator(), http.StatusUnauthorized},
		{"revoked session", "Bearer good", &stubAuthenticator{err: domain.ErrSessionExpired}, http.StatusUnauthorized},
		{"session store down", "Bearer good", &stubAuthenticator{err: domain.Wrap(context.DeadlineExceeded, "could not verify session")}, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler := Auth(tc.auth)(func(c echo.Context) error {
				t.Fatalf("should not reach next")
				return nil
			})

			if err := handler(c); err != nil {
				e.HTTPErrorHandler(err, c)
			}
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	e := echo.New()

	for _, header := range []string{"", "Bearer bad", "Bearer good"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		var signedIn bool
		handler := OptionalAuth(newStubAuthenticator())(func(c echo.Context) error {
			_, signedIn = SessionFrom(c)
			return nil
		})
		if err := handler(c); err != nil {
			t.Fatalf("optional auth must not fail: %v", err)
		}
		if signedIn != (header == "Bearer good") {
			t.Fatalf("header %q: signedIn=%v", header, signedIn)
		}
	}
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/workmanagement/taskboard/internal/core/domain"
)

const (
	// SessionCookie carries the token for browser clients, including
	// EventSource connections which cannot set headers.
	SessionCookie = "session"

	sessionKey = "session"
)

// Authenticator verifies a token and returns the live session behind it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Session, error)
}

// Auth requires a valid session and stores it on the echo context.
func Auth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := tokenFrom(c)
			if err != nil {
				return err
			}

			sess, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrAuth) {
					return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
				}
				return err
			}

			SetSession(c, sess)
			return next(c)
		}
	}
}

// OptionalAuth attaches the session when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token, err := tokenFrom(c); err == nil {
				if sess, err := auth.Authenticate(c.Request().Context(), token); err == nil {
					SetSession(c, sess)
				}
			}
			return next(c)
		}
	}
}

func tokenFrom(c echo.Context) (string, error) {
	if authHeader := c.Request().Header.Get(echo.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
		}
		return parts[1], nil
	}

	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
}

// SetSession attaches sess to the request context.
func SetSession(c echo.Context, sess domain.Session) {
	c.Set(sessionKey, sess)
	c.Set("user_id", sess.UserID)
	c.Set("role", sess.Role)
}

// SessionFrom returns the session attached by Auth or OptionalAuth.
func SessionFrom(c echo.Context) (domain.Session, bool) {
	sess, ok := c.Get(sessionKey).(domain.Session)
	return sess, ok
}

package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/workmanagement/taskboard/internal/api/middleware"
	"github.com/workmanagement/taskboard/internal/core/domain"
)

// requireSession returns the session injected by the Auth middleware. A
// missing session means the route was mounted without Auth.
func requireSession(c echo.Context) (domain.Session, error) {
	sess, ok := middleware.SessionFrom(c)
	if !ok || sess.UserID == "" {
		return domain.Session{}, domain.ErrUnauthenticated
	}
	return sess, nil
}

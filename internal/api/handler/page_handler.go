package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/workmanagement/taskboard/internal/api/middleware"
	"github.com/workmanagement/taskboard/internal/core/domain"
)

const (
	loginPath     = "/login"
	dashboardPath = "/dashboard"
)

// apiPrefixes never fall back to the dashboard redirect.
var apiPrefixes = []string{"/v1/", "/auth/", "/health", "/metrics", "/swagger/"}

// PageHandler resolves client routes to view descriptors. It must be mounted
// behind OptionalAuth.
type PageHandler struct{}

func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

func (h *PageHandler) Login(c echo.Context) error {
	if _, ok := middleware.SessionFrom(c); ok {
		return c.Redirect(http.StatusFound, dashboardPath)
	}
	return c.JSON(http.StatusOK, pageView{View: "login"})
}

func (h *PageHandler) Signup(c echo.Context) error {
	if _, ok := middleware.SessionFrom(c); ok {
		return c.Redirect(http.StatusFound, dashboardPath)
	}
	return c.JSON(http.StatusOK, pageView{View: "signup"})
}

// Dashboard picks the admin or worker dashboard from the session role.
func (h *PageHandler) Dashboard(c echo.Context) error {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		return c.Redirect(http.StatusFound, loginPath)
	}

	view := "worker-dashboard"
	if sess.IsAdmin() {
		view = "admin-dashboard"
	}
	return c.JSON(http.StatusOK, pageView{View: view, Role: sess.Role, UserID: sess.UserID})
}

func (h *PageHandler) Messages(c echo.Context) error {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		return c.Redirect(http.StatusFound, loginPath)
	}

	receiver := c.Param("receiverId")
	return c.JSON(http.StatusOK, pageView{
		View:           "messages",
		Role:           sess.Role,
		UserID:         sess.UserID,
		ReceiverID:     receiver,
		ConversationID: domain.ConversationID(sess.UserID, receiver),
	})
}

// Fallback sends the root and unknown client routes to the dashboard.
// Unknown API paths still answer 404.
func (h *PageHandler) Fallback(c echo.Context) error {
	path := c.Request().URL.Path
	for _, prefix := range apiPrefixes {
		if strings.HasPrefix(path, prefix) {
			return echo.ErrNotFound
		}
	}
	return c.Redirect(http.StatusFound, dashboardPath)
}

package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/workmanagement/taskboard/internal/api/metrics"
	"github.com/workmanagement/taskboard/internal/core/domain"
	"github.com/workmanagement/taskboard/internal/core/ports"
)

// UserHandler serves the presence roster and the presence beacon.
type UserHandler struct {
	presence ports.PresenceService
	now      func() time.Time
}

func NewUserHandler(presence ports.PresenceService) *UserHandler {
	return &UserHandler{presence: presence, now: time.Now}
}

func (h *UserHandler) roster(users []*domain.User) []userView {
	now := h.now()
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, userView{User: u, LastSeenLabel: domain.FormatLastSeen(u.LastSeen, now)})
	}
	return out
}

// List returns every user with presence.
//
// @Summary      User roster
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   userView
// @Failure      503  {object}  errorResponse
// @Router       /v1/users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.presence.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.roster(users))
}

// Workers returns the users a task can be assigned to.
//
// @Summary      Assignable workers
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.User
// @Failure      403  {object}  errorResponse
// @Router       /v1/users/workers [get]
func (h *UserHandler) Workers(c echo.Context) error {
	workers, err := h.presence.ListWorkers(c.Request().Context())
	if err != nil {
		return err
	}
	if workers == nil {
		workers = []*domain.User{}
	}
	return c.JSON(http.StatusOK, workers)
}

// Stream pushes the whole roster on every presence change.
//
// @Summary      Roster stream
// @Tags         users
// @Produce      text/event-stream
// @Security     BearerAuth
// @Success      200  {array}  userView
// @Router       /v1/users/stream [get]
func (h *UserHandler) Stream(c echo.Context) error {
	s, err := h.presence.WatchRoster(c.Request().Context())
	if err != nil {
		return err
	}
	return streamSSE(c, "users", s, func(users []*domain.User) any { return h.roster(users) })
}

// Presence records the caller's online flag. Clients send online=false when
// the page is hidden or closed and online=true when it becomes visible.
//
// @Summary      Presence beacon
// @Tags         users
// @Accept       json
// @Security     BearerAuth
// @Param        body  body  presenceRequest  true  "Presence"
// @Success      204
// @Failure      422  {object}  errorResponse
// @Router       /v1/presence [post]
func (h *UserHandler) Presence(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}

	var req presenceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	h.presence.SetOnline(c.Request().Context(), sess.UserID, *req.Online)
	metrics.PresenceUpdatesTotal.WithLabelValues(strconv.FormatBool(*req.Online)).Inc()
	return c.NoContent(http.StatusNoContent)
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/workmanagement/taskboard/internal/core/domain"
	"github.com/workmanagement/taskboard/internal/core/ports"
)

type NotificationHandler struct {
	notifications ports.NotificationService
}

func NewNotificationHandler(notifications ports.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// RegisterToken stores the caller's push token. Registration problems are
// never reported to the client.
//
// @Summary      Register push token
// @Tags         notifications
// @Accept       json
// @Security     BearerAuth
// @Param        body  body  pushTokenRequest  true  "Token and browser permission"
// @Success      204
// @Router       /v1/notifications/token [post]
func (h *NotificationHandler) RegisterToken(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}

	var req pushTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	permission := domain.PushPermission(req.Permission)
	if permission == "" {
		permission = domain.PermissionGranted
	}
	h.notifications.RegisterForPush(c.Request().Context(), sess.UserID, req.Token, permission)
	return c.NoContent(http.StatusNoContent)
}

// Config returns the public key clients need to obtain a push token.
//
// @Summary      Push configuration
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  pushConfigResponse
// @Router       /v1/notifications/config [get]
func (h *NotificationHandler) Config(c echo.Context) error {
	return c.JSON(http.StatusOK, pushConfigResponse{VAPIDKey: h.notifications.VAPIDKey()})
}

// Stream delivers notifications to a foregrounded client.
//
// @Summary      In-app notification stream
// @Tags         notifications
// @Produce      text/event-stream
// @Security     BearerAuth
// @Success      200  {object}  domain.PushNotification
// @Router       /v1/notifications/stream [get]
func (h *NotificationHandler) Stream(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	return streamSSE(c, "notifications", h.notifications.Listen(c.Request().Context(), sess.UserID), nil)
}

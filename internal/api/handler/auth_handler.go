package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/workmanagement/taskboard/internal/api/metrics"
	"github.com/workmanagement/taskboard/internal/api/middleware"
	"github.com/workmanagement/taskboard/internal/core/domain"
	"github.com/workmanagement/taskboard/internal/core/ports"
)

type AuthHandler struct {
	sessions     ports.SessionService
	presence     ports.PresenceService
	cookieTTL    time.Duration
	secureCookie bool
}

func NewAuthHandler(sessions ports.SessionService, presence ports.PresenceService, cookieTTL time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		sessions:     sessions,
		presence:     presence,
		cookieTTL:    cookieTTL,
		secureCookie: secureCookie,
	}
}

// Signup creates a new account. The outcome is always reported inline.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest        true  "Account details"
// @Success      201   {object}  domain.SignupResult
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  domain.SignupResult
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if req.Role == "" {
		req.Role = domain.RoleWorker
	}

	res := h.sessions.Signup(c.Request().Context(), req.Email, req.Password, req.Role)
	if !res.Success {
		return c.JSON(http.StatusUnprocessableEntity, res)
	}
	return c.JSON(http.StatusCreated, res)
}

// Login authenticates a user, opens a session and marks the user online.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	token, user, _, err := h.sessions.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}

	h.presence.SetOnline(ctx, user.ID, true)
	metrics.PresenceUpdatesTotal.WithLabelValues("true").Inc()

	c.SetCookie(h.cookie(token, int(h.cookieTTL.Seconds())))
	return c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}

// Logout marks the user offline and revokes the session.
//
// @Summary      Logout
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	h.presence.SetOnline(ctx, sess.UserID, false)
	metrics.PresenceUpdatesTotal.WithLabelValues("false").Inc()

	if err := h.sessions.Logout(ctx, sess); err != nil {
		return err
	}

	c.SetCookie(h.cookie("", -1))
	return c.NoContent(http.StatusNoContent)
}

// Identity streams the signed-in identity of the current session. A
// "signed_in": false event means the session ended.
//
// @Summary      Identity stream
// @Tags         auth
// @Produce      text/event-stream
// @Security     BearerAuth
// @Success      200  {object}  domain.Identity
// @Router       /v1/session/stream [get]
func (h *AuthHandler) Identity(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}

	s, err := h.sessions.WatchIdentity(c.Request().Context(), sess.ID)
	if err != nil {
		return err
	}
	return streamSSE(c, "session", s, nil)
}

func (h *AuthHandler) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

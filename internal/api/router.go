package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/workmanagement/taskboard/docs"
	"github.com/workmanagement/taskboard/internal/api/handler"
	"github.com/workmanagement/taskboard/internal/api/middleware"
	"github.com/workmanagement/taskboard/internal/core/domain"
	"github.com/workmanagement/taskboard/internal/core/ports"
	"github.com/workmanagement/taskboard/internal/infrastructure/http/handlers"
)

// uploadBodyLimit caps multipart uploads.
const uploadBodyLimit = "10M"

// Deps are the services and settings the router wires into handlers.
type Deps struct {
	Sessions      ports.SessionService
	Tasks         ports.TaskService
	Presence      ports.PresenceService
	Messages      ports.MessageService
	Notifications ports.NotificationService
	Uploads       ports.UploadService

	// HealthChecks are run by the readiness probe, keyed by dependency name.
	HealthChecks map[string]handlers.Check

	SessionTTL    time.Duration
	SecureCookies bool
	// Location is the time zone used for calendar day boundaries.
	Location *time.Location
	Log      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddleware("taskboard"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Sessions, d.Presence, d.SessionTTL, d.SecureCookies)
	taskHandler := handler.NewTaskHandler(d.Tasks, d.Location)
	userHandler := handler.NewUserHandler(d.Presence)
	messageHandler := handler.NewMessageHandler(d.Messages)
	notificationHandler := handler.NewNotificationHandler(d.Notifications)
	uploadHandler := handler.NewUploadHandler(d.Uploads)
	pageHandler := handler.NewPageHandler()

	authMiddleware := middleware.Auth(d.Sessions)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Auth routes ---
	e.POST("/auth/signup", authHandler.Signup)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout, authMiddleware)

	// --- API v1 (authenticated) ---
	v1 := e.Group("/v1", authMiddleware)

	v1.GET("/session/stream", authHandler.Identity)

	v1.GET("/tasks", taskHandler.List)
	v1.POST("/tasks", taskHandler.Create, adminOnly)
	v1.GET("/tasks/stream", taskHandler.Stream)
	v1.PATCH("/tasks/:id/status", taskHandler.UpdateStatus)
	v1.POST("/tasks/:id/complete", taskHandler.Complete)
	v1.DELETE("/tasks/:id", taskHandler.Delete, adminOnly)
	v1.GET("/board", taskHandler.Board)
	v1.GET("/calendar", taskHandler.Calendar)

	v1.GET("/users", userHandler.List)
	v1.GET("/users/workers", userHandler.Workers, adminOnly)
	v1.GET("/users/stream", userHandler.Stream)
	v1.POST("/presence", userHandler.Presence)

	v1.GET("/messages/:receiverId", messageHandler.List)
	v1.POST("/messages/:receiverId", messageHandler.Send)
	v1.GET("/messages/:receiverId/stream", messageHandler.Stream)

	v1.POST("/notifications/token", notificationHandler.RegisterToken)
	v1.GET("/notifications/config", notificationHandler.Config)
	v1.GET("/notifications/stream", notificationHandler.Stream)

	v1.POST("/uploads", uploadHandler.Upload, adminOnly, echomiddleware.BodyLimit(uploadBodyLimit))
	v1.GET("/uploads/:id", uploadHandler.Download)

	// --- Page routes (view descriptors for the client router) ---
	optionalAuth := middleware.OptionalAuth(d.Sessions)
	e.GET("/login", pageHandler.Login, optionalAuth)
	e.GET("/signup", pageHandler.Signup, optionalAuth)
	e.GET("/dashboard", pageHandler.Dashboard, optionalAuth)
	e.GET("/messages/:receiverId", pageHandler.Messages, optionalAuth)
	e.GET("/", pageHandler.Fallback)
	e.RouteNotFound("/*", pageHandler.Fallback)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.HealthChecks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

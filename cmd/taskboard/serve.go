package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/workmanagement/taskboard/internal/api"
	"github.com/workmanagement/taskboard/internal/api/metrics"
	"github.com/workmanagement/taskboard/internal/core/service"
	mongodb "github.com/workmanagement/taskboard/internal/infrastructure/db/mongo"
	redisdb "github.com/workmanagement/taskboard/internal/infrastructure/db/redis"
	"github.com/workmanagement/taskboard/internal/infrastructure/http/handlers"
	"github.com/workmanagement/taskboard/internal/infrastructure/push"
	"github.com/workmanagement/taskboard/internal/infrastructure/queue"
	"github.com/workmanagement/taskboard/internal/infrastructure/realtime"
	"github.com/workmanagement/taskboard/internal/pkg/config"
	"github.com/workmanagement/taskboard/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: !cfg.IsProduction(), Service: "taskboard"})

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	users := mongodb.NewUserRepository(db)
	tasks := mongodb.NewTaskRepository(db)
	messages := mongodb.NewMessageRepository(db)
	uploads, err := mongodb.NewUploadStore(db)
	if err != nil {
		return err
	}
	sessions := redisdb.NewSessionStore(rdb)

	// --- Change feed: publish through redis, fan out locally ---
	hub := realtime.NewHub(logger.Component("realtime"))
	hub.Start()
	defer hub.Stop()

	changes := redisdb.NewChangePublisher(rdb)
	relay := redisdb.NewChangeRelay(rdb, hub, logger.Component("relay"))
	go func() {
		if err := relay.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("change relay stopped")
		}
	}()

	// --- Push ---
	sender, err := push.NewFCMSender(ctx, push.Config{ProjectID: cfg.Firebase.ProjectID, CredentialsFile: cfg.Firebase.CredentialsFile})
	if err != nil {
		return err
	}

	notificationService := service.NewNotificationService(users, sender, changes, hub, cfg.Push.VAPIDKey, logger.Component("notifications"))
	notificationService.OnResult(func(result string) {
		metrics.PushResultsTotal.WithLabelValues(result).Inc()
	})

	dispatcher := queue.NewDispatcher(cfg.Push.Workers, notificationService, logger.Component("push-dispatcher"))
	dispatcher.Start(ctx)

	// --- Services ---
	e := api.NewRouter(api.Deps{
		Sessions:      service.NewSessionService(users, sessions, changes, hub, cfg.JWTSecret, cfg.SessionTTL, logger.Component("session")),
		Tasks:         service.NewTaskService(tasks, users, changes, hub, dispatcher, logger.Component("tasks")),
		Presence:      service.NewPresenceService(users, changes, hub, logger.Component("presence")),
		Messages:      service.NewMessageService(messages, users, changes, hub, logger.Component("messages")),
		Notifications: notificationService,
		Uploads:       service.NewUploadService(uploads, logger.Component("uploads")),
		HealthChecks: map[string]handlers.Check{
			"mongodb": handlers.MongoCheck(db),
			"redis":   handlers.RedisCheck(rdb),
		},
		SessionTTL:    cfg.SessionTTL,
		SecureCookies: cfg.IsProduction(),
		Location:      loc,
		Log:           logger.Component("http"),
	})

	// Request contexts end with the process so open streams return on shutdown.
	e.Server.BaseContext = func(net.Listener) context.Context { return ctx }

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unicollab/unicollab/internal/auth"
	"github.com/unicollab/unicollab/internal/cache"
	"github.com/unicollab/unicollab/internal/config"
	"github.com/unicollab/unicollab/internal/database"
	"github.com/unicollab/unicollab/internal/logger"
	postgresrepo "github.com/unicollab/unicollab/internal/repository/postgres"
	"github.com/unicollab/unicollab/internal/service"
	"github.com/unicollab/unicollab/internal/transport/http/handlers"
	"github.com/unicollab/unicollab/internal/transport/ws"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logg, closer, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer closer.Close()

	if err := run(cfg, logg); err != nil {
		logg.Error("server stopped", "error", err)
		closer.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	pool, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		return err
	}
	logg.Info("connected to database")

	// Unread counter cache
	var unread cache.UnreadCache = cache.Noop{}
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rc.Close()
		unread = rc
		logg.Info("connected to redis")
	}

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	projectRepo := postgresrepo.NewProjectRepo(pool)
	requestRepo := postgresrepo.NewCollaborationRepo(pool)
	notificationRepo := postgresrepo.NewNotificationRepo(pool)
	teamRepo := postgresrepo.NewTeamRepo(pool)

	// Services
	tokens := auth.NewTokenCodec(cfg.JWTSecret, cfg.JWTExpiresIn)
	authService := service.NewAuthService(userRepo, tokens)
	notificationService := service.NewNotificationService(notificationRepo, unread, logger.With(logg, "notifications"))
	projectService := service.NewProjectService(projectRepo, userRepo, notificationService, logger.With(logg, "projects"))
	collabService := service.NewCollaborationService(requestRepo, projectRepo, userRepo, notificationService, logger.With(logg, "collaboration"))
	teamService := service.NewTeamService(teamRepo, userRepo)

	// WebSocket hub
	hub := ws.NewHub(logger.With(logg, "ws"))
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	notifier := ws.NewHubNotifier(hub, logger.With(logg, "ws"))
	notificationService.SetNotifier(notifier)
	projectService.SetNotifier(notifier)
	collabService.SetNotifier(notifier)

	router := handlers.NewRouter(handlers.RouterDeps{
		Auth:          authService,
		Projects:      projectService,
		Requests:      collabService,
		Notifications: notificationService,
		Teams:         teamService,
		Hub:           hub,
		CORSOrigins:   cfg.CORSOrigins,
		Log:           logg,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info("starting server", "addr", srv.Addr, "mode", cfg.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listening: %w", err)
		}
	case <-ctx.Done():
	}

	logg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Hijacked websocket connections are not tracked by Shutdown; stopping
	// the hub closes their send queues.
	stopHub()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

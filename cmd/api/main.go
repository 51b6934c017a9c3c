package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/xelth-com/eckassets/internal/buildinfo"
	"github.com/xelth-com/eckassets/internal/config"
	"github.com/xelth-com/eckassets/internal/database"
	"github.com/xelth-com/eckassets/internal/handlers"
	"github.com/xelth-com/eckassets/internal/logging"
	"github.com/xelth-com/eckassets/internal/middleware"
	"github.com/xelth-com/eckassets/internal/repository"
	"github.com/xelth-com/eckassets/internal/services/assets"
	"github.com/xelth-com/eckassets/internal/services/assignments"
	"github.com/xelth-com/eckassets/internal/services/history"
	"github.com/xelth-com/eckassets/internal/services/maintenance"
	"github.com/xelth-com/eckassets/internal/services/notify"
	"github.com/xelth-com/eckassets/internal/services/qr"
	"github.com/xelth-com/eckassets/internal/services/requests"
	"github.com/xelth-com/eckassets/internal/services/schedules"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Logger
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("Starting eckassets",
		zap.String("env", cfg.NodeEnv),
		zap.String("commit", buildinfo.CommitHash),
		zap.String("built", buildinfo.BuildTime))

	// 3. Initialize database (Detects Embedded vs External automatically)
	db, err := database.Connect(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	// Note: db.Close() is called manually in shutdown handler below

	// 4. Migrate schema
	logger.Info("Synchronizing database schema")
	if err := database.Migrate(db.DB); err != nil {
		_ = db.Close()
		logger.Fatal("Migration failed", zap.Error(err))
	}

	// 5. Services
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	renderer, err := qr.New(ctx, cfg.QR)
	if err != nil {
		_ = db.Close()
		logger.Fatal("Failed to initialize QR storage", zap.String("driver", cfg.QR.Driver), zap.Error(err))
	}

	repos := repository.NewRepositories(db.DB)
	recorder := history.NewRecorder(repos.History)
	notifier := notify.NewService(repos.Notifications)

	svc := handlers.Services{
		Assets:        assets.NewService(repos, recorder, renderer, cfg.QR.BaseURL, logger),
		Assignments:   assignments.NewService(repos, recorder, notifier, logger),
		Schedules:     schedules.NewService(repos, recorder, notifier, logger),
		Maintenance:   maintenance.NewService(repos, logger),
		Requests:      requests.NewService(repos, notifier, logger),
		Notifications: notifier,
	}

	// 6. Upcoming maintenance reminders (background)
	if cfg.Sweep.Enabled {
		sweeper := schedules.NewSweeper(repos, notifier, cfg.Sweep.WithinDays, logger)
		sweeper.Start(ctx, cfg.Sweep.Interval)
		logger.Info("Maintenance reminder sweep started",
			zap.Duration("interval", cfg.Sweep.Interval),
			zap.Int("within_days", cfg.Sweep.WithinDays))
	}

	// 7. Set up HTTP router
	router := handlers.NewRouter(db.DB, svc, cfg.JWTSecret, logger)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           middleware.CaseInsensitiveMiddleware(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	sig := <-shutdown
	logger.Info("Shutting down gracefully", zap.String("signal", sig.String()))

	// Stop background work first so nothing writes while the DB closes
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// Close database (this also stops embedded PostgreSQL)
	logger.Info("Closing database connection")
	if err := db.Close(); err != nil {
		logger.Error("Database close error", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}

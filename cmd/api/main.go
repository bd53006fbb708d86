package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/cashflow-service/internal/chat"
	"github.com/Dan9191/cashflow-service/internal/config"
	"github.com/Dan9191/cashflow-service/internal/handler"
	"github.com/Dan9191/cashflow-service/internal/integrations/gemini"
	"github.com/Dan9191/cashflow-service/internal/middleware"
	"github.com/Dan9191/cashflow-service/internal/repository"
	"github.com/Dan9191/cashflow-service/internal/scheduler"
	"github.com/Dan9191/cashflow-service/internal/service"
	"github.com/Dan9191/cashflow-service/internal/utils/email"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warnf("Failed to load .env: %v", err)
	}

	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize job store
	var store repository.JobStore
	if cfg.DBConn == "" {
		logger.Info("DB_CONN not set, keeping jobs in memory")
		store = repository.NewMemoryStore()
	} else {
		db, err := sql.Open("postgres", cfg.DBConn)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			logger.Fatalf("Failed to ping database: %v", err)
		}
		pg := repository.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatalf("Failed to prepare schema: %v", err)
		}
		store = pg
	}

	// Initialize chat generator
	var gen chat.Generator
	if cfg.GeminiAPIKey != "" {
		client, err := gemini.NewClient(ctx, cfg, logger)
		if err != nil {
			logger.Fatalf("Failed to create Gemini client: %v", err)
		}
		gen = client
	} else {
		logger.Warn("GEMINI_API_KEY not set, chat runs in demo mode")
	}
	chatSvc := chat.NewService(gen, logger, cfg.ChatHistoryLimit, nil)

	var notifier service.Notifier
	if cfg.MailEnabled() {
		notifier = email.NewSender(cfg, logger)
	}

	// Initialize layers
	svc := service.NewService(store, logger, cfg, chatSvc, notifier)
	h := handler.NewHandler(svc, logger, cfg.MaxUploadBytes)

	// Setup router
	r := mux.NewRouter()
	r.Use(
		middleware.RequestIDMiddleware(),
		middleware.LoggingMiddleware(logger),
		middleware.RecoveryMiddleware(logger),
	)
	h.RegisterRoutes(r)

	var sweeps *scheduler.Scheduler
	if cfg.SweepEnabled() {
		sweeps, err = scheduler.New(cfg.JobSweepSchedule, svc, logger)
		if err != nil {
			logger.Fatalf("Failed to create sweep scheduler: %v", err)
		}
		sweeps.Start()
	}

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.LLMTimeout + 30*time.Second,
	}
	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	if sweeps != nil {
		if err := sweeps.Stop(shutdownCtx); err != nil {
			logger.Errorf("Scheduler shutdown failed: %v", err)
		}
	}
	if err := svc.Wait(shutdownCtx); err != nil {
		logger.Errorf("Background analyses did not finish: %v", err)
	}
}

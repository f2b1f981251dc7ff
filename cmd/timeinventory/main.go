package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ryoyoshi29/TimeInventory/internal/api"
	"github.com/ryoyoshi29/TimeInventory/internal/calendar"
	"github.com/ryoyoshi29/TimeInventory/internal/config"
	"github.com/ryoyoshi29/TimeInventory/internal/feedback"
	"github.com/ryoyoshi29/TimeInventory/internal/metrics"
	"github.com/ryoyoshi29/TimeInventory/internal/repository"
	"github.com/ryoyoshi29/TimeInventory/internal/repository/memory"
	"github.com/ryoyoshi29/TimeInventory/internal/repository/postgres"
	"github.com/ryoyoshi29/TimeInventory/internal/service"
	"github.com/ryoyoshi29/TimeInventory/internal/timeline"
	"github.com/ryoyoshi29/TimeInventory/pkg/logger"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel, cfg.LogFormat)
	l.Info("Starting TimeInventory...")

	// Stores
	var (
		categoryRepo  repository.CategoryRepository
		logRepo       repository.LogEventRepository
		planRepo      repository.PlannedEventRepository
		exceptionRepo repository.ExceptionRepository
		settingsRepo  repository.SettingsRepository
		feedbackRepo  repository.FeedbackRepository
	)
	if cfg.Store == "postgres" {
		db, err := config.NewDatabase(cfg.DatabaseURL, l)
		if err != nil {
			l.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.Migrate(cfg.MigrationsPath); err != nil {
			l.Fatalf("Failed to run migrations: %v", err)
		}

		categoryRepo = postgres.NewCategoryRepository(db.DB)
		logRepo = postgres.NewLogEventRepository(db.DB)
		planRepo = postgres.NewPlannedEventRepository(db.DB)
		exceptionRepo = postgres.NewExceptionRepository(db.DB)
		settingsRepo = postgres.NewSettingsRepository(db.DB)
		feedbackRepo = postgres.NewFeedbackRepository(db.DB)
	} else {
		l.Warn("Using the in-memory store; data is lost on restart")
		store := memory.NewStore()
		categoryRepo = store.Categories()
		logRepo = store.LogEvents()
		planRepo = store.PlannedEvents()
		exceptionRepo = store.Exceptions()
		settingsRepo = store.Settings()
		feedbackRepo = store.Feedbacks()
	}

	// Service layer
	svc := service.New(l,
		categoryRepo, logRepo, planRepo,
		exceptionRepo, settingsRepo, feedbackRepo,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := svc.EnsureDefaultCategories(ctx); err != nil {
		l.Fatalf("Failed to seed default categories: %v", err)
	}

	// Timeline assembly and series editing
	merger := timeline.NewMerger(logRepo, planRepo, categoryRepo, exceptionRepo, l)
	resolver := timeline.NewResolver(planRepo, exceptionRepo, l)

	// Feedback generation is optional; without an API key the endpoint
	// reports itself as unconfigured.
	var generator *feedback.Generator
	if cfg.GeminiAPIKey != "" {
		client := feedback.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel)
		generator = feedback.NewGenerator(merger, feedbackRepo, client, l, cfg.Timezone)
	} else {
		l.Warn("GEMINI_API_KEY is not set; feedback generation is disabled")
	}

	importer := calendar.NewImporter(planRepo, l)
	m := metrics.New()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		l.Info("Received shutdown signal...")
		cancel()
	}()

	// HTTP server
	apiServer := api.NewServer(svc, merger, resolver, generator, importer, m, l, cfg.Timezone)
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: apiServer.Handler(),
	}

	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorf("HTTP server error: %v", err)
		}
	}()

	l.Info("TimeInventory started successfully")

	<-ctx.Done()

	l.Info("Shutting down HTTP server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.Errorf("HTTP server shutdown error: %v", err)
	}

	l.Info("TimeInventory stopped")
}

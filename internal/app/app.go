package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"tender-scout-go/internal/classifier"
	"tender-scout-go/internal/config"
	"tender-scout-go/internal/database"
	"tender-scout-go/internal/handler"
	"tender-scout-go/internal/metrics"
	"tender-scout-go/internal/notifier"
	"tender-scout-go/internal/pipeline"
	"tender-scout-go/internal/router"
	"tender-scout-go/internal/scheduler"
	"tender-scout-go/internal/scraper"
	"tender-scout-go/internal/store"
)

// Run initializes and starts the application
func Run() error {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	logrus.Info("Starting Tender Scout Service")

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	dbConn, err := database.Init(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	m := metrics.NewMetrics()
	tenderStore := store.New(dbConn)

	scrapers := []scraper.TenderScraper{
		scraper.NewGlobalTendersScraper(&cfg.Scraper),
		scraper.NewReliefWebScraper(&cfg.Scraper),
	}
	llm := classifier.NewOpenAIClassifier(&cfg.Classifier)
	telegram := notifier.NewTelegramNotifier(&cfg.Telegram)

	pipe := pipeline.New(
		scrapers,
		pipeline.NewIngestor(tenderStore, m),
		pipeline.NewFilterLoop(tenderStore, llm, cfg.Classifier.Criterion, m),
		pipeline.NewDispatcher(tenderStore, telegram, cfg.Telegram.ChatID, m),
		m,
	)

	sched := scheduler.NewScheduler(&cfg.Scheduler, pipe)

	h := handler.NewHandlers(dbConn, tenderStore, sched)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.SetupRouter(h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	go func() {
		logrus.Infof("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sched.Stop(); err != nil {
		logrus.Errorf("Failed to stop scheduler: %v", err)
	}
	sched.Wait()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	logrus.Info("Server stopped gracefully")
	return nil
}

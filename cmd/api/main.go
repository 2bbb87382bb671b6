package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/your-org/tcmreview/internal/api"
	"github.com/your-org/tcmreview/internal/api/handlers"
	"github.com/your-org/tcmreview/internal/api/ws"
	"github.com/your-org/tcmreview/internal/catalog"
	"github.com/your-org/tcmreview/internal/classifier"
	"github.com/your-org/tcmreview/internal/config"
	"github.com/your-org/tcmreview/internal/events"
	"github.com/your-org/tcmreview/internal/feedback"
	"github.com/your-org/tcmreview/internal/models"
	"github.com/your-org/tcmreview/internal/observability"
	"github.com/your-org/tcmreview/internal/queue"
	"github.com/your-org/tcmreview/internal/recordlog"
	"github.com/your-org/tcmreview/internal/review"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath, *configPath == defaultConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting TCM review service", "port", cfg.Server.Port,
		"storage", cfg.Storage.Driver, "records", cfg.Records.Driver)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checks := map[string]handlers.Pinger{}

	blobs, err := openBlobStores(ctx, cfg)
	if err != nil {
		slog.Error("open blob storage", "error", err)
		os.Exit(1)
	}
	checks["review_blobs"] = blobs.review
	checks["feedback_blobs"] = blobs.feedback

	logs, err := openRecordLogs(ctx, cfg)
	if err != nil {
		slog.Error("open record logs", "error", err)
		os.Exit(1)
	}
	defer logs.close()
	if logs.ping != nil {
		checks[cfg.Records.Driver] = logs.ping
	}

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run(ctx)
	notifiers := events.Fanout{hub}

	// NATS is optional; without it events only reach websocket clients.
	if cfg.NATS.URL != "" {
		producer, err := queue.NewProducer(cfg.NATS.URL)
		if err != nil {
			slog.Error("connect to nats", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		if err := producer.EnsureStreams(ctx); err != nil {
			slog.Warn("ensure nats streams", "error", err)
		}
		notifiers = append(notifiers, producer)
		checks["nats"] = producer
	}

	reviewSvc := review.NewService(
		recordlog.New[models.ReviewRecord]("review", logs.review),
		blobs.review,
		review.WithNotifier(notifiers),
	)
	feedbackSvc := feedback.NewService(
		recordlog.New[models.FeedbackRecord]("feedback", logs.feedback),
		blobs.feedback,
		classifier.NewClient(cfg.Classifier.URL, cfg.Classifier.Timeout),
		feedback.WithNotifier(notifiers),
		feedback.WithLabels(cfg.Labels),
	)
	catalogClient := catalog.NewClient(cfg.Catalog.URL, cfg.Catalog.Timeout, cfg.Catalog.Category, cfg.Catalog.Marker)

	// Setup router
	router := api.NewRouter(api.RouterConfig{
		Review:   reviewSvc,
		Catalog:  catalogClient,
		Feedback: feedbackSvc,
		Hub:      hub,
		Checks:   checks,
	})

	// Start HTTP server. Predict waits on the classifier, so the write
	// timeout must outlast it.
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Classifier.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	cancel()

	slog.Info("API server stopped")
}

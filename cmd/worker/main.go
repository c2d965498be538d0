package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kirillkom/kyc-extractor/internal/bootstrap"
	"github.com/kirillkom/kyc-extractor/internal/config"
	"github.com/kirillkom/kyc-extractor/internal/infrastructure/queue/nats"
	"github.com/kirillkom/kyc-extractor/internal/observability/logging"
	"github.com/kirillkom/kyc-extractor/internal/observability/metrics"
)

const serviceName = "kyc-worker"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		DependencyObserver: workerMetrics.Dependencies(),
		QualityRecorder:    workerMetrics.Quality(),
	})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject, "metrics_addr", metricsServer.Addr)
	err = app.Queue.SubscribeExtractionRequested(ctx, func(handlerCtx context.Context, extractionID string) error {
		if publishedAt, ok := nats.PublishedAt(handlerCtx); ok {
			workerMetrics.ObserveQueueLag(serviceName, time.Since(publishedAt))
		}

		processCtx, cancel := context.WithTimeout(handlerCtx, cfg.WorkerProcessTimeout())
		defer cancel()

		workerMetrics.StartExtraction()
		started := time.Now()
		err := app.ProcessUC.ProcessByID(processCtx, extractionID)
		workerMetrics.FinishExtraction(serviceName, time.Since(started), err)
		return err
	})
	if err != nil {
		logger.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}

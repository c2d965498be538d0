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
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	httpadapter "github.com/kirillkom/kyc-extractor/internal/adapters/http"
	mcpadapter "github.com/kirillkom/kyc-extractor/internal/adapters/mcp"
	"github.com/kirillkom/kyc-extractor/internal/bootstrap"
	"github.com/kirillkom/kyc-extractor/internal/config"
	"github.com/kirillkom/kyc-extractor/internal/observability/logging"
	"github.com/kirillkom/kyc-extractor/internal/observability/metrics"
)

const serviceName = "kyc-api"

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

	httpMetrics := metrics.NewHTTPServerMetrics(serviceName)
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		DependencyObserver: httpMetrics.Dependencies(),
	})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	opts := []httpadapter.Option{
		httpadapter.WithMetrics(httpMetrics),
		httpadapter.WithHealthCheck("postgres", app.Repo.Ping),
		httpadapter.WithHealthCheck("nats", app.Queue.Ping),
	}
	if cfg.MCPEnabled {
		opts = append(opts, httpadapter.WithMCPHandler(mcpadapter.NewHandler(app.ReaderUC)))
	}
	router := httpadapter.NewRouter(cfg, app.IngestUC, app.ReaderUC, app.StatsUC, app.ExportUC, opts...).Handler()

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      h2c.NewHandler(router, &http2.Server{}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "addr", server.Addr, "mcp_enabled", cfg.MCPEnabled)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
}

package bootstrap

import (
	"context"
	"fmt"

	"github.com/kirillkom/kyc-extractor/internal/config"
	"github.com/kirillkom/kyc-extractor/internal/core/ports"
	"github.com/kirillkom/kyc-extractor/internal/core/usecase"
	"github.com/kirillkom/kyc-extractor/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/kyc-extractor/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/kyc-extractor/internal/infrastructure/queue/nats"
	"github.com/kirillkom/kyc-extractor/internal/infrastructure/render"
	"github.com/kirillkom/kyc-extractor/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/kyc-extractor/internal/infrastructure/resilience"
	"github.com/kirillkom/kyc-extractor/internal/infrastructure/storage/localfs"
)

// Options carries per-binary observers; both may be nil.
type Options struct {
	DependencyObserver resilience.Observer
	QualityRecorder    ports.QualityRecorder
}

type App struct {
	Config config.Config

	Queue *nats.Queue
	Repo  *postgres.ExtractionRepository

	IngestUC  ports.ExtractionIngestor
	ProcessUC ports.ExtractionProcessor
	ReaderUC  ports.ExtractionReader
	StatsUC   ports.StatsReader
	ExportUC  ports.ExtractionExporter

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	executor := resilience.NewExecutor(cfg.Resilience)
	if opts.DependencyObserver != nil {
		executor = executor.WithObserver(opts.DependencyObserver)
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewExtractionRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaVisionModel, ollama.Options{
		Timeout:            cfg.OllamaTimeout(),
		ResilienceExecutor: executor,
	})
	extractor := ollama.NewExtractor(ollamaClient)
	renderer := render.NewRenderer(storage)

	ingestUC := usecase.NewIngestExtractionUseCase(repo, storage, queue, usecase.IngestOptions{
		BatchMaxFiles:    cfg.BatchMaxFiles,
		BatchConcurrency: cfg.BatchConcurrency,
	})
	processUC := usecase.NewProcessExtractionUseCase(repo, renderer, extractor, opts.QualityRecorder)
	queryUC := usecase.NewQueryUseCase(repo)
	statsUC := usecase.NewStatsUseCase(repo)
	exportUC := usecase.NewExportUseCase(repo, xlsx.NewWriter()).WithMaxRows(cfg.ExportMaxRows)

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		ReaderUC:  queryUC,
		StatsUC:   statsUC,
		ExportUC:  exportUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

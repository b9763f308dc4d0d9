// Package bootstrap wires the infrastructure and use cases shared by the api
// and worker binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cropguide/cropguide-ingest/internal/config"
	"github.com/cropguide/cropguide-ingest/internal/core/ports"
	"github.com/cropguide/cropguide-ingest/internal/core/usecase"
	"github.com/cropguide/cropguide-ingest/internal/infrastructure/extractor/content"
	"github.com/cropguide/cropguide-ingest/internal/infrastructure/llm/gemini"
	natsqueue "github.com/cropguide/cropguide-ingest/internal/infrastructure/queue/nats"
	"github.com/cropguide/cropguide-ingest/internal/infrastructure/repository/postgres"
	"github.com/cropguide/cropguide-ingest/internal/infrastructure/resilience"
	"github.com/cropguide/cropguide-ingest/internal/infrastructure/storage/localfs"
	"github.com/cropguide/cropguide-ingest/internal/infrastructure/vector/qdrant"
	"github.com/cropguide/cropguide-ingest/internal/parse"
)

type App struct {
	Config config.Config

	Queue        ports.MessageQueue
	DocumentRepo ports.DocumentRepository
	CropRepo     ports.CropRepository

	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	ConfirmUC ports.CropConfirmer
	SearchUC  ports.CropSearcher

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	documentRepo := postgres.NewDocumentRepository(db)
	if err := documentRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure documents schema: %w", err)
	}
	cropRepo := postgres.NewCropRepository(db)
	if err := cropRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure crops schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.QueueProfile()),
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	geminiClient := gemini.New(gemini.Config{
		BaseURL:            cfg.GeminiBaseURL,
		APIKey:             cfg.GeminiAPIKey,
		Model:              cfg.GeminiModel,
		EmbedModel:         cfg.GeminiEmbedModel,
		MinRequestInterval: time.Duration(cfg.GeminiMinIntervalMs) * time.Millisecond,
		MaxAttempts:        cfg.GeminiMaxAttempts,
		BaseRetryDelay:     time.Duration(cfg.GeminiRetryDelayMs) * time.Millisecond,
		HTTPTimeout:        time.Duration(cfg.GeminiTimeoutSec) * time.Second,
		MaxPromptRunes:     cfg.PromptMaxRunes,
	}, logger)

	vectorIndex := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection,
		resilience.NewExecutor(resilience.VectorProfile()))
	extractor := content.NewExtractor(storage, logger)
	parser := parse.NewParser(logger)

	ingestUC := usecase.NewIngestDocumentUseCase(documentRepo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(documentRepo, extractor, geminiClient, parser, logger)
	confirmUC := usecase.NewConfirmCropsUseCase(documentRepo, cropRepo, geminiClient, vectorIndex, logger)
	searchUC := usecase.NewSearchCropsUseCase(geminiClient, vectorIndex, cropRepo, cfg.SearchTopK, logger)

	return &App{
		Config: cfg,

		Queue:        queue,
		DocumentRepo: documentRepo,
		CropRepo:     cropRepo,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		ConfirmUC: confirmUC,
		SearchUC:  searchUC,

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

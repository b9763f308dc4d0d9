package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cropguide/cropguide-ingest/internal/core/domain"
	"github.com/cropguide/cropguide-ingest/internal/core/ports"
)

// Progress is reported at stage boundaries, not continuously.
const (
	progressLoaded    = 10
	progressExtracted = 30
	progressGenerated = 60
	progressParsed    = 90
	progressDone      = 100
)

type ProcessDocumentUseCase struct {
	repo      ports.DocumentRepository
	extractor ports.TextExtractor
	generator ports.CropGenerator
	parser    ports.ResponseParser
	logger    *slog.Logger
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.TextExtractor,
	generator ports.CropGenerator,
	parser ports.ResponseParser,
	logger *slog.Logger,
) *ProcessDocumentUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessDocumentUseCase{
		repo:      repo,
		extractor: extractor,
		generator: generator,
		parser:    parser,
		logger:    logger,
	}
}

// ProcessByID runs extract → generate → parse for one document and records
// the terminal status. Zero parsed records is not a failure; it completes as
// completed_empty so reviewers can tell it apart from a crop-bearing result.
func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	if err := uc.markProgress(ctx, documentID, progressLoaded); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	records, err := uc.runPipeline(ctx, doc)
	if err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SaveRecords(ctx, documentID, records); err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("save records: %w; mark failed status: %v", err, failErr)
		}
		return fmt.Errorf("save records: %w", err)
	}

	final := domain.StatusCompleted
	if len(records) == 0 {
		final = domain.StatusCompletedEmpty
	}
	if err := uc.repo.UpdateStatus(ctx, documentID, final, progressDone, ""); err != nil {
		return fmt.Errorf("set terminal status: %w", err)
	}

	uc.logger.Info("document.process.done",
		"document_id", documentID,
		"status", string(final),
		"records", len(records),
	)
	return nil
}

func (uc *ProcessDocumentUseCase) runPipeline(ctx context.Context, doc *domain.Document) ([]domain.CropRecord, error) {
	text, method := uc.extractor.Extract(ctx, doc)
	uc.logger.Debug("document.extract.done",
		"document_id", doc.ID,
		"method", method,
		"text_len", len(text),
	)
	if err := uc.markProgress(ctx, doc.ID, progressExtracted); err != nil {
		return nil, fmt.Errorf("checkpoint after extract: %w", err)
	}

	raw, err := uc.generator.GenerateCropText(ctx, text, doc.Filename)
	if err != nil {
		return nil, fmt.Errorf("generate crop text: %w", err)
	}
	if err := uc.markProgress(ctx, doc.ID, progressGenerated); err != nil {
		return nil, fmt.Errorf("checkpoint after generate: %w", err)
	}

	records := uc.parser.Parse(raw, doc.Filename)
	if err := uc.markProgress(ctx, doc.ID, progressParsed); err != nil {
		return nil, fmt.Errorf("checkpoint after parse: %w", err)
	}
	return records, nil
}

func (uc *ProcessDocumentUseCase) markProgress(ctx context.Context, documentID string, progress int) error {
	return uc.repo.UpdateStatus(ctx, documentID, domain.StatusProcessing, progress, "")
}

func (uc *ProcessDocumentUseCase) markFailed(ctx context.Context, documentID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, progressDone, processErr.Error())
}

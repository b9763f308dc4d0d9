package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cropguide/cropguide-ingest/internal/core/domain"
	"github.com/cropguide/cropguide-ingest/internal/core/ports"
)

type ConfirmCropsUseCase struct {
	documents ports.DocumentRepository
	crops     ports.CropRepository
	embedder  ports.Embedder
	index     ports.VectorIndex
	logger    *slog.Logger
}

func NewConfirmCropsUseCase(
	documents ports.DocumentRepository,
	crops ports.CropRepository,
	embedder ports.Embedder,
	index ports.VectorIndex,
	logger *slog.Logger,
) *ConfirmCropsUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfirmCropsUseCase{
		documents: documents,
		crops:     crops,
		embedder:  embedder,
		index:     index,
		logger:    logger,
	}
}

// Confirm persists reviewed records from a processed document. Records are
// written independently: one rejected insert does not roll back or stop the
// rest, and the per-record outcome is reported to the caller. Vector indexing
// is best-effort and never fails a confirmation.
func (uc *ConfirmCropsUseCase) Confirm(ctx context.Context, documentID string, names []string) ([]domain.PersistResult, error) {
	doc, err := uc.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	if !doc.Status.IsTerminal() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "confirm crops",
			fmt.Errorf("document %s still %s", documentID, doc.Status))
	}

	selected := selectRecords(doc.Records, names)
	if len(selected) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "confirm crops",
			fmt.Errorf("no matching records on document %s", documentID))
	}

	results := make([]domain.PersistResult, 0, len(selected))
	for _, rec := range selected {
		crop, err := uc.persistOne(ctx, rec)
		if err != nil {
			results = append(results, domain.PersistResult{Name: rec.Name, Error: err.Error()})
			continue
		}
		results = append(results, domain.PersistResult{Name: rec.Name, CropID: crop.ID})
		uc.indexCrop(ctx, crop)
	}
	return results, nil
}

func (uc *ConfirmCropsUseCase) persistOne(ctx context.Context, rec domain.CropRecord) (*domain.Crop, error) {
	now := time.Now().UTC()
	crop := &domain.Crop{
		ID:               uuid.NewString(),
		Name:             rec.Name,
		ScientificName:   rec.ScientificName,
		Description:      rec.Description,
		Seasons:          rec.Seasons,
		Climates:         rec.Climates,
		Soils:            rec.Soils,
		WaterRequirement: rec.WaterRequirement,
		GrowthDuration:   rec.GrowthDuration,
		AverageYield:     rec.AverageYield,
		Confidence:       rec.Confidence,
		SourceDocument:   rec.SourceDocument,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if _, err := uc.crops.Insert(ctx, crop); err != nil {
		return nil, err
	}
	return crop, nil
}

func (uc *ConfirmCropsUseCase) indexCrop(ctx context.Context, crop *domain.Crop) {
	vector, err := uc.embedder.EmbedText(ctx, crop.Name+"\n"+crop.Description)
	if err != nil {
		uc.logger.Warn("crop.index.embed_failed", "crop_id", crop.ID, "error", err)
		return
	}
	if err := uc.index.IndexCrop(ctx, crop, vector); err != nil {
		uc.logger.Warn("crop.index.upsert_failed", "crop_id", crop.ID, "error", err)
	}
}

// selectRecords filters by name; an empty filter selects everything.
func selectRecords(records []domain.CropRecord, names []string) []domain.CropRecord {
	if len(names) == 0 {
		return records
	}
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}
	var out []domain.CropRecord
	for _, rec := range records {
		if _, ok := wanted[rec.Name]; ok {
			out = append(out, rec)
		}
	}
	return out
}

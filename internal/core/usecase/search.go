package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cropguide/cropguide-ingest/internal/core/domain"
	"github.com/cropguide/cropguide-ingest/internal/core/ports"
)

const defaultSearchLimit = 5

type SearchCropsUseCase struct {
	embedder     ports.Embedder
	index        ports.VectorIndex
	crops        ports.CropRepository
	defaultLimit int
	logger       *slog.Logger
}

// NewSearchCropsUseCase builds the search use case. defaultLimit is the hit
// count used when the caller does not ask for one; non-positive values fall
// back to defaultSearchLimit.
func NewSearchCropsUseCase(
	embedder ports.Embedder,
	index ports.VectorIndex,
	crops ports.CropRepository,
	defaultLimit int,
	logger *slog.Logger,
) *SearchCropsUseCase {
	if defaultLimit <= 0 {
		defaultLimit = defaultSearchLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchCropsUseCase{
		embedder:     embedder,
		index:        index,
		crops:        crops,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// Search embeds the query, asks the vector index for the closest crops, and
// hydrates each hit from the crop store. Hits whose crop row has disappeared
// are skipped with a warning rather than failing the search.
func (uc *SearchCropsUseCase) Search(ctx context.Context, query string, limit int) ([]domain.CropMatch, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search crops", fmt.Errorf("empty query"))
	}
	if limit <= 0 {
		limit = uc.defaultLimit
	}

	vector, err := uc.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := uc.index.Search(ctx, vector, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	matches := make([]domain.CropMatch, 0, len(hits))
	for _, hit := range hits {
		crop, err := uc.crops.GetByID(ctx, hit.CropID)
		if err != nil {
			uc.logger.Warn("crop.search.hydrate_failed", "crop_id", hit.CropID, "error", err)
			continue
		}
		matches = append(matches, domain.CropMatch{Crop: *crop, Score: hit.Score})
	}
	return matches, nil
}

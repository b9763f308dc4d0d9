package ports

import (
	"context"
	"io"

	"github.com/cropguide/cropguide-ingest/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename string, size int64, body io.Reader) (*domain.Document, error)
}

// DocumentProcessor runs the extraction pipeline for one uploaded document.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// CropConfirmer persists reviewed records from a processed document.
// An empty names filter confirms every extracted record.
type CropConfirmer interface {
	Confirm(ctx context.Context, documentID string, names []string) ([]domain.PersistResult, error)
}

// CropSearcher answers semantic search over persisted crops.
type CropSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.CropMatch, error)
}

package ports

import (
	"context"
	"io"

	"github.com/cropguide/cropguide-ingest/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context, limit int) ([]*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, progress int, errMessage string) error
	SaveRecords(ctx context.Context, id string, records []domain.CropRecord) error
}

// CropRepository persists confirmed crop records.
type CropRepository interface {
	Insert(ctx context.Context, crop *domain.Crop) (string, error)
	GetByID(ctx context.Context, id string) (*domain.Crop, error)
	List(ctx context.Context, limit int) ([]*domain.Crop, error)
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes document-uploaded events.
type MessageQueue interface {
	PublishDocumentUploaded(ctx context.Context, documentID string) error
	SubscribeDocumentUploaded(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor converts a stored document into a text payload suitable for
// prompting. It never fails: unreadable inputs yield a deterministic
// type-specific fallback string. Method names the strategy that produced the
// text, for logging.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (text string, method string)
}

// CropGenerator submits document text to the hosted model and returns the raw
// response text. Implementations own rate limiting and retries.
type CropGenerator interface {
	GenerateCropText(ctx context.Context, docText, filename string) (string, error)
}

// ResponseParser converts raw model output into zero or more crop records.
// It never fails; an unparseable response yields an empty slice.
type ResponseParser interface {
	Parse(text, sourceDocument string) []domain.CropRecord
}

// Embedder builds vectors for crop descriptions and search queries.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// VectorHit is one scored point id from the vector index.
type VectorHit struct {
	CropID string
	Score  float64
}

// VectorIndex indexes crop vectors and performs semantic search.
type VectorIndex interface {
	IndexCrop(ctx context.Context, crop *domain.Crop, vector []float32) error
	Search(ctx context.Context, queryVector []float32, limit int) ([]VectorHit, error)
}

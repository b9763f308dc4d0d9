package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cropguide/cropguide-ingest/internal/core/domain"
	"github.com/cropguide/cropguide-ingest/internal/core/ports"
)

type IngestDocumentUseCase struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestDocumentUseCase {
	return &IngestDocumentUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

// Upload stores one file, creates its document row, and publishes the
// uploaded event. Batch callers invoke it once per file in selection order;
// a failure affects only that file.
func (uc *IngestDocumentUseCase) Upload(
	ctx context.Context,
	filename string,
	size int64,
	body io.Reader,
) (*domain.Document, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	docType, ok := domain.DetectDocumentType(ext)
	if !ok {
		return nil, domain.WrapError(domain.ErrUnsupportedUpload, "detect document type",
			fmt.Errorf("extension %q", ext))
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.Document{
		ID:          id,
		Filename:    filename,
		Type:        docType,
		SizeBytes:   size,
		StoragePath: storageKey,
		Status:      domain.StatusUploading,
		Progress:    0,
		UploadedAt:  now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	if err := uc.queue.PublishDocumentUploaded(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish uploaded event: %w", err)
	}

	return doc, nil
}

// ValidateUpload rejects zero-length or missing filenames before any storage
// write happens.
func ValidateUpload(filename string, size int64) error {
	if strings.TrimSpace(filename) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "validate upload", errors.New("empty filename"))
	}
	if size <= 0 {
		return domain.WrapError(domain.ErrInvalidInput, "validate upload", errors.New("empty file"))
	}
	return nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}

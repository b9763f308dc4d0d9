package usecase

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/cropguide/cropguide-ingest/internal/core/domain"
)

type ingestRepoFake struct {
	created *domain.Document
}

func (f *ingestRepoFake) Create(_ context.Context, doc *domain.Document) error {
	f.created = doc
	return nil
}

func (f *ingestRepoFake) GetByID(context.Context, string) (*domain.Document, error) {
	return nil, nil
}
func (f *ingestRepoFake) List(context.Context, int) ([]*domain.Document, error) { return nil, nil }
func (f *ingestRepoFake) UpdateStatus(context.Context, string, domain.DocumentStatus, int, string) error {
	return nil
}
func (f *ingestRepoFake) SaveRecords(context.Context, string, []domain.CropRecord) error { return nil }

type storageFake struct {
	saved map[string][]byte
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if f.saved == nil {
		f.saved = map[string][]byte{}
	}
	f.saved[key] = raw
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.saved[key])), nil
}

type queueFake struct {
	published []string
}

func (f *queueFake) PublishDocumentUploaded(_ context.Context, id string) error {
	f.published = append(f.published, id)
	return nil
}

func (f *queueFake) SubscribeDocumentUploaded(context.Context, func(context.Context, string) error) error {
	return nil
}

func TestUploadAcceptsKnownExtension(t *testing.T) {
	repo := &ingestRepoFake{}
	storage := &storageFake{}
	queue := &queueFake{}
	uc := NewIngestDocumentUseCase(repo, storage, queue)

	doc, err := uc.Upload(context.Background(), "winter wheat.pdf", 11, strings.NewReader("pdf content"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if doc.Type != domain.TypePDF {
		t.Errorf("type = %s, want pdf", doc.Type)
	}
	if doc.Status != domain.StatusUploading || doc.Progress != 0 {
		t.Errorf("status = %s progress = %d", doc.Status, doc.Progress)
	}
	if repo.created == nil || repo.created.ID != doc.ID {
		t.Error("document row was not created")
	}
	if len(queue.published) != 1 || queue.published[0] != doc.ID {
		t.Errorf("published = %v", queue.published)
	}
	if len(storage.saved) != 1 {
		t.Errorf("saved = %d objects, want 1", len(storage.saved))
	}
	for key := range storage.saved {
		if strings.Contains(key, " ") {
			t.Errorf("storage key %q should be sanitized", key)
		}
	}
}

func TestUploadRejectsUnknownExtension(t *testing.T) {
	uc := NewIngestDocumentUseCase(&ingestRepoFake{}, &storageFake{}, &queueFake{})

	_, err := uc.Upload(context.Background(), "notes.txt", 5, strings.NewReader("hello"))
	if !domain.IsKind(err, domain.ErrUnsupportedUpload) {
		t.Fatalf("error = %v, want unsupported upload kind", err)
	}
}

func TestValidateUpload(t *testing.T) {
	if err := ValidateUpload("a.pdf", 1); err != nil {
		t.Errorf("valid upload rejected: %v", err)
	}
	if err := ValidateUpload("", 1); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Errorf("empty filename: %v", err)
	}
	if err := ValidateUpload("a.pdf", 0); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Errorf("empty file: %v", err)
	}
}

package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/cropguide/cropguide-ingest/internal/core/domain"
	"github.com/cropguide/cropguide-ingest/internal/core/ports"
)

type cropRepoFake struct {
	inserted  []*domain.Crop
	failNames map[string]error
	cropsByID map[string]*domain.Crop
}

func (f *cropRepoFake) Insert(_ context.Context, crop *domain.Crop) (string, error) {
	if err, ok := f.failNames[crop.Name]; ok {
		return "", err
	}
	f.inserted = append(f.inserted, crop)
	return crop.ID, nil
}

func (f *cropRepoFake) GetByID(_ context.Context, id string) (*domain.Crop, error) {
	crop, ok := f.cropsByID[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrCropNotFound, "get crop", errors.New(id))
	}
	return crop, nil
}

func (f *cropRepoFake) List(context.Context, int) ([]*domain.Crop, error) { return nil, nil }

type embedFake struct {
	vector []float32
	err    error
	calls  int
}

func (f *embedFake) EmbedText(context.Context, string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

type indexFake struct {
	indexed  []string
	hits     []ports.VectorHit
	err      error
	gotLimit int
}

func (f *indexFake) IndexCrop(_ context.Context, crop *domain.Crop, _ []float32) error {
	if f.err != nil {
		return f.err
	}
	f.indexed = append(f.indexed, crop.ID)
	return nil
}

func (f *indexFake) Search(_ context.Context, _ []float32, limit int) ([]ports.VectorHit, error) {
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

func completedDoc(records ...domain.CropRecord) *domain.Document {
	return &domain.Document{
		ID:      "doc-1",
		Status:  domain.StatusCompleted,
		Records: records,
	}
}

func TestConfirmPersistsSelectedRecords(t *testing.T) {
	repo := &processRepoFake{doc: completedDoc(
		domain.CropRecord{Name: "Wheat", Confidence: 0.8},
		domain.CropRecord{Name: "Barley", Confidence: 0.7},
	)}
	crops := &cropRepoFake{}
	embedder := &embedFake{vector: []float32{0.1, 0.2}}
	index := &indexFake{}
	uc := NewConfirmCropsUseCase(repo, crops, embedder, index, nil)

	results, err := uc.Confirm(context.Background(), "doc-1", []string{"Wheat"})
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].Name != "Wheat" || results[0].CropID == "" || results[0].Error != "" {
		t.Errorf("unexpected result %+v", results[0])
	}
	if len(crops.inserted) != 1 || crops.inserted[0].Name != "Wheat" {
		t.Errorf("inserted = %+v", crops.inserted)
	}
	if len(index.indexed) != 1 {
		t.Errorf("indexed = %d crops, want 1", len(index.indexed))
	}
}

func TestConfirmPartialFailureIsIsolated(t *testing.T) {
	repo := &processRepoFake{doc: completedDoc(
		domain.CropRecord{Name: "Wheat"},
		domain.CropRecord{Name: "Barley"},
	)}
	crops := &cropRepoFake{
		failNames: map[string]error{
			"Wheat": domain.WrapError(domain.ErrCropConflict, "insert crop", errors.New("name Wheat")),
		},
	}
	uc := NewConfirmCropsUseCase(repo, crops, &embedFake{vector: []float32{1}}, &indexFake{}, nil)

	results, err := uc.Confirm(context.Background(), "doc-1", nil)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].Error == "" {
		t.Error("conflicting record should carry an error")
	}
	if results[1].Error != "" || results[1].CropID == "" {
		t.Errorf("second record should persist, got %+v", results[1])
	}
}

func TestConfirmRejectsUnprocessedDocument(t *testing.T) {
	repo := &processRepoFake{doc: &domain.Document{ID: "doc-1", Status: domain.StatusProcessing}}
	uc := NewConfirmCropsUseCase(repo, &cropRepoFake{}, &embedFake{}, &indexFake{}, nil)

	_, err := uc.Confirm(context.Background(), "doc-1", nil)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want invalid input kind", err)
	}
}

func TestConfirmIndexFailureDoesNotFailConfirmation(t *testing.T) {
	repo := &processRepoFake{doc: completedDoc(domain.CropRecord{Name: "Rice"})}
	crops := &cropRepoFake{}
	uc := NewConfirmCropsUseCase(repo, crops, &embedFake{err: errors.New("embed down")}, &indexFake{}, nil)

	results, err := uc.Confirm(context.Background(), "doc-1", nil)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if results[0].Error != "" {
		t.Errorf("persist should succeed despite embed failure, got %+v", results[0])
	}
}

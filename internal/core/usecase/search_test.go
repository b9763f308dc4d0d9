package usecase

import (
	"context"
	"testing"

	"github.com/cropguide/cropguide-ingest/internal/core/domain"
	"github.com/cropguide/cropguide-ingest/internal/core/ports"
)

func TestSearchHydratesHits(t *testing.T) {
	crops := &cropRepoFake{cropsByID: map[string]*domain.Crop{
		"c1": {ID: "c1", Name: "Wheat"},
		"c2": {ID: "c2", Name: "Barley"},
	}}
	index := &indexFake{hits: []ports.VectorHit{
		{CropID: "c1", Score: 0.92},
		{CropID: "gone", Score: 0.80},
		{CropID: "c2", Score: 0.75},
	}}
	uc := NewSearchCropsUseCase(&embedFake{vector: []float32{1}}, index, crops, 0, nil)

	matches, err := uc.Search(context.Background(), "bread grains", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2 (missing crop skipped)", len(matches))
	}
	if matches[0].Crop.Name != "Wheat" || matches[0].Score != 0.92 {
		t.Errorf("first match = %+v", matches[0])
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	uc := NewSearchCropsUseCase(&embedFake{}, &indexFake{}, &cropRepoFake{}, 0, nil)
	_, err := uc.Search(context.Background(), "   ", 3)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want invalid input kind", err)
	}
}

func TestSearchDefaultLimit(t *testing.T) {
	index := &indexFake{}
	uc := NewSearchCropsUseCase(&embedFake{vector: []float32{1}}, index, &cropRepoFake{}, 12, nil)

	if _, err := uc.Search(context.Background(), "grains", 0); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if index.gotLimit != 12 {
		t.Errorf("limit = %d, want configured default 12", index.gotLimit)
	}

	if _, err := uc.Search(context.Background(), "grains", 3); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if index.gotLimit != 3 {
		t.Errorf("limit = %d, caller value should win", index.gotLimit)
	}
}

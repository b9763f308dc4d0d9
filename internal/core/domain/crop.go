package domain

import "time"

// CropRecord is a structured, possibly low-confidence guess at one crop's
// attributes, produced from unstructured document text. Records are
// display-only until a human confirms persistence.
type CropRecord struct {
	Name             string   `json:"name"`
	ScientificName   string   `json:"scientific_name,omitempty"`
	Description      string   `json:"description,omitempty"`
	Seasons          []string `json:"seasons"`
	Climates         []string `json:"climates"`
	Soils            []string `json:"soils"`
	WaterRequirement string   `json:"water_requirement,omitempty"`
	GrowthDuration   string   `json:"growth_duration,omitempty"`
	AverageYield     string   `json:"average_yield,omitempty"`
	Confidence       float64  `json:"confidence"`
	SourceDocument   string   `json:"source_document,omitempty"`
	ExtractionNotes  string   `json:"extraction_notes,omitempty"`
}

// Normalize guarantees the set-valued fields are non-nil and the confidence
// score lies in [0,1]. A zero confidence is treated as unset and takes the
// fallback; callers that can distinguish an explicit zero resolve the value
// themselves and use Clamp.
func (r *CropRecord) Normalize(fallbackConfidence float64) {
	if r.Confidence == 0 {
		r.Confidence = fallbackConfidence
	}
	r.Clamp()
}

// Clamp forces the set-valued fields non-nil and the confidence into [0,1]
// without touching an explicit zero.
func (r *CropRecord) Clamp() {
	if r.Seasons == nil {
		r.Seasons = []string{}
	}
	if r.Climates == nil {
		r.Climates = []string{}
	}
	if r.Soils == nil {
		r.Soils = []string{}
	}
	if r.Confidence < 0 {
		r.Confidence = 0
	}
	if r.Confidence > 1 {
		r.Confidence = 1
	}
}

// Crop is a persisted crop entity.
type Crop struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	ScientificName   string    `json:"scientific_name,omitempty"`
	Description      string    `json:"description,omitempty"`
	Seasons          []string  `json:"seasons"`
	Climates         []string  `json:"climates"`
	Soils            []string  `json:"soils"`
	WaterRequirement string    `json:"water_requirement,omitempty"`
	GrowthDuration   string    `json:"growth_duration,omitempty"`
	AverageYield     string    `json:"average_yield,omitempty"`
	Confidence       float64   `json:"confidence"`
	SourceDocument   string    `json:"source_document,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// PersistResult reports the outcome of persisting a single record from a
// batch. Batches are per-record independent; partial success is expected.
type PersistResult struct {
	Name   string `json:"name"`
	CropID string `json:"crop_id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// CropMatch is one scored hit from semantic crop search.
type CropMatch struct {
	Crop  Crop    `json:"crop"`
	Score float64 `json:"score"`
}

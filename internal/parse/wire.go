package parse

import (
	"strings"

	"github.com/cropguide/cropguide-ingest/internal/core/domain"
)

// cropWire mirrors the JSON shape the extraction prompt asks the model to
// produce. Every field is optional at decode time; coercion happens in
// toRecord.
type cropWire struct {
	Name             string   `json:"name"`
	ScientificName   string   `json:"scientific_name"`
	Description      string   `json:"description"`
	Seasons          []string `json:"seasons"`
	Climates         []string `json:"climates"`
	Soils            []string `json:"soils"`
	WaterRequirement string   `json:"water_requirement"`
	GrowthDuration   string   `json:"growth_duration"`
	AverageYield     string   `json:"average_yield"`
	Confidence       *float64 `json:"confidence"`
	Notes            string   `json:"notes"`
}

// toRecord coerces a wire object into a domain record: missing arrays become
// empty, missing confidence takes the tier default, out-of-range confidence
// is clamped into [0,1]. An explicit zero confidence stays zero.
func (w cropWire) toRecord(sourceDocument string, defaultConfidence float64) (domain.CropRecord, bool) {
	name := strings.TrimSpace(w.Name)
	if name == "" {
		return domain.CropRecord{}, false
	}
	confidence := defaultConfidence
	if w.Confidence != nil {
		confidence = *w.Confidence
	}
	rec := domain.CropRecord{
		Name:             name,
		ScientificName:   strings.TrimSpace(w.ScientificName),
		Description:      strings.TrimSpace(w.Description),
		Seasons:          w.Seasons,
		Climates:         w.Climates,
		Soils:            w.Soils,
		WaterRequirement: strings.TrimSpace(w.WaterRequirement),
		GrowthDuration:   strings.TrimSpace(w.GrowthDuration),
		AverageYield:     strings.TrimSpace(w.AverageYield),
		Confidence:       confidence,
		SourceDocument:   sourceDocument,
		ExtractionNotes:  strings.TrimSpace(w.Notes),
	}
	rec.Clamp()
	return rec, true
}

// Package parse turns free-form model output into crop records.
//
// Parsing runs as an ordered list of tiers, most reliable first: a fenced
// JSON array, then salvage of individual truncated objects, then a line
// heuristic over plain prose. The first tier that produces records wins, and
// the final tier cannot fail; at worst it returns an empty list.
package parse

import (
	"log/slog"

	"github.com/cropguide/cropguide-ingest/internal/core/domain"
)

// Per-tier confidence defaults, applied when the model supplied none.
const (
	fencedDefaultConfidence    = 0.5
	salvageDefaultConfidence   = 0.6
	heuristicDefaultConfidence = 0.7
)

type tierFunc func(p *Parser, text, sourceDocument string) ([]domain.CropRecord, bool)

type Parser struct {
	logger    *slog.Logger
	validator *recordValidator
	tiers     []tierFunc
	tierNames []string
}

func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		logger:    logger,
		validator: newRecordValidator(),
		tiers: []tierFunc{
			(*Parser).parseFencedJSON,
			(*Parser).salvageObjects,
			(*Parser).parseHeuristic,
		},
		tierNames: []string{"fenced_json", "object_salvage", "line_heuristic"},
	}
}

// Parse converts raw model output into zero or more crop records. It never
// panics and never returns nil.
func (p *Parser) Parse(text, sourceDocument string) []domain.CropRecord {
	for i, tier := range p.tiers {
		records, ok := tier(p, text, sourceDocument)
		if !ok {
			continue
		}
		p.logger.Debug("parse.tier.matched",
			"tier", p.tierNames[i],
			"records", len(records),
			"source", sourceDocument,
		)
		if records == nil {
			records = []domain.CropRecord{}
		}
		return records
	}
	return []domain.CropRecord{}
}

package parse

import (
	"encoding/json"
	"regexp"

	"github.com/cropguide/cropguide-ingest/internal/core/domain"
)

var fencedJSONRe = regexp.MustCompile("(?s)```json\\s*(.*?)```")

// parseFencedJSON handles the well-behaved case: a markdown ```json fence
// containing a JSON array of crop objects. A fence whose body does not decode
// as an array falls through to the salvage tier.
func (p *Parser) parseFencedJSON(text, sourceDocument string) ([]domain.CropRecord, bool) {
	m := fencedJSONRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}

	var wires []cropWire
	if err := json.Unmarshal([]byte(m[1]), &wires); err != nil {
		p.logger.Debug("parse.fenced.decode_failed", "error", err)
		return nil, false
	}

	records := make([]domain.CropRecord, 0, len(wires))
	for _, w := range wires {
		rec, ok := w.toRecord(sourceDocument, fencedDefaultConfidence)
		if !ok {
			continue
		}
		if err := p.validator.validate(rec); err != nil {
			p.logger.Warn("parse.fenced.record_rejected", "name", rec.Name, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, true
}

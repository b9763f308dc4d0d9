package parse

import (
	"encoding/json"
	"strings"

	"github.com/cropguide/cropguide-ingest/internal/core/domain"
)

// Defaults for fields a truncated object usually loses.
var (
	salvageSeasons  = []string{"Spring", "Summer"}
	salvageClimates = []string{"Temperate"}
)

// salvageObjects recovers records from a response whose JSON was cut off
// mid-stream: it scans for balanced {...} substrings that mention a "name"
// key and decodes each independently, filling the commonly missing fields
// with generic defaults.
func (p *Parser) salvageObjects(text, sourceDocument string) ([]domain.CropRecord, bool) {
	var records []domain.CropRecord
	seen := make(map[string]struct{})

	for _, candidate := range scanObjects(text) {
		if !strings.Contains(candidate, `"name"`) {
			continue
		}
		var w cropWire
		if err := json.Unmarshal([]byte(candidate), &w); err != nil {
			continue
		}
		if len(w.Seasons) == 0 {
			w.Seasons = append([]string(nil), salvageSeasons...)
		}
		if len(w.Climates) == 0 {
			w.Climates = append([]string(nil), salvageClimates...)
		}
		if w.Notes == "" {
			w.Notes = "recovered from partial response"
		}
		rec, ok := w.toRecord(sourceDocument, salvageDefaultConfidence)
		if !ok {
			continue
		}
		if _, dup := seen[rec.Name]; dup {
			continue
		}
		seen[rec.Name] = struct{}{}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, false
	}
	return records, true
}

// scanObjects returns every balanced top-level {...} substring. The scanner
// tracks JSON string state so braces inside values do not confuse the depth
// count; unbalanced trailing garbage is simply ignored.
func scanObjects(text string) []string {
	var (
		objects  []string
		depth    int
		start    = -1
		inString bool
		escaped  bool
	)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				objects = append(objects, text[start:i+1])
				start = -1
			}
		}
	}
	return objects
}

package parse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cropguide/cropguide-ingest/internal/core/domain"
)

// Defaults for heuristic records, where the prose rarely states these fields.
var (
	heuristicSeasons  = []string{"Spring", "Summer"}
	heuristicClimates = []string{"Temperate"}
	heuristicSoils    = []string{"Loamy"}
)

var (
	percentRe  = regexp.MustCompile(`(\d{1,3})\s*%`)
	binomialRe = regexp.MustCompile(`^[A-Z][a-z]+ [a-z]+\.?$`)
	bulletRe   = regexp.MustCompile(`^[-*•\d.)\s]+`)
)

// How far below a candidate name line we look for a scientific name or a
// descriptive sentence.
const heuristicLookahead = 3

// parseHeuristic is the tier of last resort: no JSON anywhere, just prose.
// It scans for short lines that look like crop names and assembles best-guess
// records from nearby scientific names and descriptions. It always succeeds,
// possibly with an empty result.
func (p *Parser) parseHeuristic(text, sourceDocument string) ([]domain.CropRecord, bool) {
	lines := strings.Split(text, "\n")
	var records []domain.CropRecord
	seen := make(map[string]struct{})

	for i, raw := range lines {
		name, ok := candidateName(raw)
		if !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}

		rec := domain.CropRecord{
			Name:            name,
			Seasons:         append([]string(nil), heuristicSeasons...),
			Climates:        append([]string(nil), heuristicClimates...),
			Soils:           append([]string(nil), heuristicSoils...),
			SourceDocument:  sourceDocument,
			ExtractionNotes: "assembled from free-text scan",
		}

		for j := i + 1; j < len(lines) && j <= i+heuristicLookahead; j++ {
			neighbor := strings.TrimSpace(lines[j])
			if rec.ScientificName == "" && looksScientific(neighbor) {
				rec.ScientificName = neighbor
				continue
			}
			if rec.Description == "" && len(neighbor) > 40 {
				rec.Description = neighbor
			}
		}

		rec.Confidence = inlineConfidence(raw, lines, i)
		rec.Normalize(heuristicDefaultConfidence)

		seen[name] = struct{}{}
		records = append(records, rec)
	}
	return records, true
}

// candidateName accepts short title-cased lines that are neither percentages
// nor Latin binomials. Leading bullet and numbering characters are stripped.
func candidateName(raw string) (string, bool) {
	line := strings.TrimSpace(bulletRe.ReplaceAllString(strings.TrimSpace(raw), ""))
	if line == "" || len(line) > 40 {
		return "", false
	}
	if strings.Contains(line, "%") {
		return "", false
	}
	if looksScientific(line) {
		return "", false
	}
	if strings.HasSuffix(line, ".") || strings.Contains(line, ":") {
		return "", false
	}
	first, _ := firstRune(line)
	if first < 'A' || first > 'Z' {
		return "", false
	}
	if len(strings.Fields(line)) > 4 {
		return "", false
	}
	return line, true
}

func looksScientific(line string) bool {
	if strings.Contains(line, "spp.") || strings.Contains(line, "var.") {
		return true
	}
	return binomialRe.MatchString(line)
}

// inlineConfidence derives a score from an "NN%" figure on the candidate line
// or the lines scanned for its details, normalized and clamped into [0,1].
// Zero means no figure was found and the tier default applies.
func inlineConfidence(nameLine string, lines []string, idx int) float64 {
	window := nameLine
	for j := idx + 1; j < len(lines) && j <= idx+heuristicLookahead; j++ {
		window += "\n" + lines[j]
	}
	m := percentRe.FindStringSubmatch(window)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	score := float64(n) / 100
	if score > 1 {
		score = 1
	}
	return score
}

func firstRune(s string) (byte, bool) {
	if s == "" {
		return 0, false
	}
	return s[0], true
}

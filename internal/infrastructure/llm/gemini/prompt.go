package gemini

import (
	"fmt"

	"github.com/cropguide/cropguide-ingest/internal/infrastructure/promptwindow"
)

const extractionInstructions = `You are an agronomy data specialist. Extract every crop described in the document below into structured records.

Return ONLY a JSON array inside a ` + "```json" + ` fence. Each element must be an object with these fields:
  "name"              string, the common crop name (required)
  "scientific_name"   string, Latin binomial if stated
  "description"       string, one or two sentences
  "seasons"           array of strings, growing seasons
  "climates"          array of strings, suitable climates
  "soils"             array of strings, suitable soil types
  "water_requirement" string, e.g. "Moderate" or "High"
  "growth_duration"   string, e.g. "90-120 days"
  "average_yield"     string, with units if stated
  "confidence"        number between 0 and 1, your certainty in this record
  "notes"             string, caveats about the extraction

Use empty strings and empty arrays for fields the document does not state. Do not invent crops that are not in the document. No prose outside the fence.`

func buildExtractionPrompt(docText, filename string, maxRunes int) string {
	window := promptwindow.New(maxRunes)
	return fmt.Sprintf("%s\n\nDocument: %s\n---\n%s\n---", extractionInstructions, filename, window.Clip(docText))
}

package parse

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/cropguide/cropguide-ingest/internal/core/domain"
)

// buildCropRecordSchema returns the JSON Schema a fully coerced record must
// satisfy. It is intentionally loose on optional fields and strict on the
// two invariants that matter: a non-empty name and confidence in [0,1].
func buildCropRecordSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":              map[string]any{"type": "string", "minLength": 1},
			"scientific_name":   map[string]any{"type": "string"},
			"description":       map[string]any{"type": "string"},
			"seasons":           stringArrayProp(),
			"climates":          stringArrayProp(),
			"soils":             stringArrayProp(),
			"water_requirement": map[string]any{"type": "string"},
			"growth_duration":   map[string]any{"type": "string"},
			"average_yield":     map[string]any{"type": "string"},
			"confidence":        map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
			"source_document":   map[string]any{"type": "string"},
			"extraction_notes":  map[string]any{"type": "string"},
		},
		"required": []string{"name", "seasons", "climates", "soils", "confidence"},
	}
}

func stringArrayProp() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
}

type recordValidator struct {
	schema *jsonschema.Schema
}

func newRecordValidator() *recordValidator {
	b, err := json.Marshal(buildCropRecordSchema())
	if err != nil {
		panic(fmt.Sprintf("marshal crop record schema: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("crop-record.json", bytes.NewReader(b)); err != nil {
		panic(fmt.Sprintf("add crop record schema: %v", err))
	}
	schema, err := compiler.Compile("crop-record.json")
	if err != nil {
		panic(fmt.Sprintf("compile crop record schema: %v", err))
	}
	return &recordValidator{schema: schema}
}

func (v *recordValidator) validate(rec domain.CropRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	var value any
	if err := json.Unmarshal(b, &value); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	if err := v.schema.Validate(value); err != nil {
		return fmt.Errorf("record does not match schema: %w", err)
	}
	return nil
}

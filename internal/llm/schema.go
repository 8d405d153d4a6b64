package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// buildPFDAnalysisSchema returns the JSON-Schema (draft 2020-12 subset) the
// extraction output must satisfy. Passed to the provider as a structured
// output constraint and used locally to validate before trusting the reply.
func buildPFDAnalysisSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"equipment": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"tag":     map[string]any{"type": "string", "minLength": 1},
						"type":    map[string]any{"type": "string", "minLength": 1},
						"service": map[string]any{"type": "string"},
					},
					"required": []string{"tag", "type"},
				},
			},
			"process_streams": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"stream_id":      map[string]any{"type": "string"},
						"description":    map[string]any{"type": "string"},
						"from_equipment": map[string]any{"type": "string"},
						"to_equipment":   map[string]any{"type": "string"},
						"phase":          map[string]any{"type": "string"},
					},
					"required": []string{"stream_id", "from_equipment", "to_equipment"},
				},
			},
			"drawing_info": drawingInfoSchema(),
			"missing_data": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []string{"equipment"},
	}
}

func buildPIDSpecSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title_block": drawingInfoSchema(),
			"equipment": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"tag":     map[string]any{"type": "string", "minLength": 1},
						"type":    map[string]any{"type": "string"},
						"service": map[string]any{"type": "string"},
					},
					"required": []string{"tag"},
				},
			},
			"lines": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"line_number":    map[string]any{"type": "string"},
						"from_equipment": map[string]any{"type": "string"},
						"to_equipment":   map[string]any{"type": "string"},
						"service":        map[string]any{"type": "string"},
						"size":           map[string]any{"type": "string"},
					},
					"required": []string{"line_number", "from_equipment", "to_equipment"},
				},
			},
			"assumptions": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"missing_elements": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"item":            map[string]any{"type": "string"},
						"severity":        map[string]any{"type": "string"},
						"engineer_action": map[string]any{"type": "string"},
					},
					"required": []string{"item"},
				},
			},
			"recommendations": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"equipment", "lines"},
	}
}

func buildInstrumentsSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"suggested_instruments": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"tag":               map[string]any{"type": "string", "minLength": 1},
						"type":              map[string]any{"type": "string", "minLength": 1},
						"location":          map[string]any{"type": "string"},
						"signal_type":       map[string]any{"type": "string"},
						"mandatory":         map[string]any{"type": "boolean"},
						"standard_practice": map[string]any{"type": "string"},
					},
					"required": []string{"tag", "type", "location"},
				},
			},
		},
		"required": []string{"suggested_instruments"},
	}
}

func buildValvesSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"suggested_valves": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"tag":               map[string]any{"type": "string", "minLength": 1},
						"type":              map[string]any{"type": "string", "minLength": 1},
						"location":          map[string]any{"type": "string"},
						"size":              map[string]any{"type": "string"},
						"mandatory":         map[string]any{"type": "boolean"},
						"standard_practice": map[string]any{"type": "string"},
					},
					"required": []string{"tag", "type", "location"},
				},
			},
		},
		"required": []string{"suggested_valves"},
	}
}

func drawingInfoSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":          map[string]any{"type": "string"},
			"drawing_number": map[string]any{"type": "string"},
			"revision":       map[string]any{"type": "string"},
			"project":        map[string]any{"type": "string"},
		},
	}
}

// validateJSONAgainstSchema validates data against schemaMap.
func validateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

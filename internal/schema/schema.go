package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildReceiptJSONSchema returns the JSON-Schema (draft 2020-12 subset) for a
// normalized receipt, as a generic map. The pipeline validates every
// assembled result against it before handing the receipt to persistence.
func BuildReceiptJSONSchema() map[string]any {
	sectionProp := map[string]any{
		"type":                 "object",
		"additionalProperties": map[string]any{"type": "string"},
	}
	itemProps := map[string]any{
		"name":       map[string]any{"type": "string", "minLength": 1},
		"quantity":   decimalProp(),
		"unit_price": decimalProp(),
		"tax_label":  map[string]any{"type": "string"},
		"tax_rate":   decimalProp(),
		"total":      decimalProp(),
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"source_url":   map[string]any{"type": "string", "minLength": 1},
			"retrieved_at": map[string]any{"type": "string"},
			"from_cache":   map[string]any{"type": "boolean"},
			"sections": map[string]any{
				"type":                 "object",
				"additionalProperties": sectionProp,
			},
			"items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties":           itemProps,
					"required":             []string{"name", "quantity", "unit_price", "total"},
				},
			},
		},
		"required": []string{"source_url", "retrieved_at", "sections", "items"},
	}
}

func decimalProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^-?\d+(\.\d+)?$`,
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	s, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// Package schema owns the canonical receipt schema: the label-to-key mapping
// table and the JSON Schema the assembled result is validated against.
package schema

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/sufscan/receipt-processor/constants"
	"github.com/sufscan/receipt-processor/internal/entity"
	"github.com/sufscan/receipt-processor/internal/translit"
)

//go:embed mappings.yaml
var mappingsYAML []byte

// Normalizer maps source-language field labels to canonical snake_case keys.
// Built once at startup and immutable afterwards; safe for concurrent use.
type Normalizer struct {
	mappings map[string]map[string]string
}

// NewNormalizer parses the embedded mapping table.
func NewNormalizer() (*Normalizer, error) {
	var m map[string]map[string]string
	if err := yaml.Unmarshal(mappingsYAML, &m); err != nil {
		return nil, fmt.Errorf("parse field mappings: %w", err)
	}
	return &Normalizer{mappings: m}, nil
}

// Normalize converts a section's raw fields into the canonical field map.
// Recognized labels take their mapped key; unrecognized labels are preserved
// under their slugified transliterated form so nothing is silently lost.
// When a key appears twice the first value wins.
func (n *Normalizer) Normalize(section constants.SectionName, fields []entity.Field) map[string]string {
	table := n.mappings[string(section)]
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		key, ok := table[f.Label]
		if !ok {
			key = translit.Slug(f.Label)
		}
		if key == "" {
			continue
		}
		if _, exists := out[key]; exists {
			continue
		}
		out[key] = translit.Transliterate(f.Value)
	}
	return out
}

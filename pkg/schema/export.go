package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// GenerateSpecJSONSchema produces a JSON Schema Draft 2020-12 document
// for the spec front matter block, reflected from the Metadata struct.
func GenerateSpecJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false

	s := r.Reflect(&Metadata{})
	s.ID = "https://github.com/caleidos-dev/specaudit/schemas/spec-metadata.json"
	s.Title = "QA Spec Metadata"
	s.Description = "Schema for the front matter block of *.spec.md documents (Draft 2020-12)"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}

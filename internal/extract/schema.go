package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/gemtrack/bid-tracker/constants"
)

// BuildBidJSONSchema returns a JSON-Schema (draft 2020-12 subset) describing
// the serialized form of a Record. Every schema field must be present;
// absent extractions serialize as null.
func BuildBidJSONSchema() map[string]any {
	props := make(map[string]any, len(constants.FieldNames))
	for _, name := range constants.FieldNames {
		props[name] = map[string]any{
			"type": []string{"string", "number", "null"},
		}
	}
	// date-bearing fields are ISO strings when parsing succeeded
	props[constants.FieldDated] = map[string]any{
		"type": []string{"string", "null"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             constants.FieldNames,
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

// MarshalRecord serializes a record for validation, storage and export.
func MarshalRecord(rec Record) ([]byte, error) {
	return json.Marshal(rec)
}

package criteria

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// configSchema is the §6 "Criteria config document" schema, validated
// before the tree builder ever walks the document — malformed shapes are
// rejected with a single aggregated tree_malformed error instead of a
// cascade of type assertions failing deep in Build.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "test_library": {"type": "string"},
    "base":    {"$ref": "#/definitions/category"},
    "bonus":   {"$ref": "#/definitions/category"},
    "penalty": {"$ref": "#/definitions/category"}
  },
  "additionalProperties": false,
  "definitions": {
    "category": {
      "type": "object",
      "properties": {
        "weight": {"type": "number"},
        "subjects": {"type": "array", "items": {"$ref": "#/definitions/subject"}},
        "tests": {"type": "array", "items": {"$ref": "#/definitions/test"}}
      },
      "required": ["weight"]
    },
    "subject": {
      "type": "object",
      "properties": {
        "subject_name": {"type": "string"},
        "weight": {"type": "number"},
        "subjects": {"type": "array", "items": {"$ref": "#/definitions/subject"}},
        "tests": {"type": "array", "items": {"$ref": "#/definitions/test"}}
      },
      "required": ["subject_name", "weight"]
    },
    "test": {
      "type": "object",
      "properties": {
        "name": {"type": "string"},
        "file": {"type": "string"},
        "parameters": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {"name": {"type": "string"}},
            "required": ["name"]
          }
        }
      },
      "required": ["name"]
    }
  }
}`

// validateShape runs the raw criteria_config document through the JSON
// schema above, returning a single combined error describing every
// violation (§7 tree_malformed).
func validateShape(config map[string]interface{}) error {
	schemaLoader := gojsonschema.NewStringLoader(configSchema)
	docLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("criteria config schema validation failed to run: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("criteria config does not match schema: %s", strings.Join(msgs, "; "))
}

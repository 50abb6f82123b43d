package httpapi

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// criteriaConfigSchema captures the shape of the criteria config document
// (§6): every category is optional, but a present one must declare a
// numeric weight; subjects and tests, when given, must be arrays. The
// schema does not require either of them to be present.
const criteriaConfigSchema = `{
  "type": "object",
  "properties": {
    "test_library": {"type": "string"},
    "base":    {"$ref": "#/definitions/category"},
    "bonus":   {"$ref": "#/definitions/category"},
    "penalty": {"$ref": "#/definitions/category"}
  },
  "definitions": {
    "category": {
      "type": "object",
      "required": ["weight"],
      "properties": {
        "weight":   {"type": "number"},
        "subjects": {"type": "array"},
        "tests":    {"type": "array"}
      }
    }
  }
}`

// setupConfigSchema accepts both the single-language and multi-language
// forms (§6): a flat {required_files, setup_commands} object, or a map of
// language_tag → that shape. JSON Schema can't easily express "object
// whose values are objects OR a flat object" without oneOf, so this only
// pins down the types gojsonschema can check cheaply; the pipeline's own
// setup resolution (internal/pipeline/setup.go) enforces the rest.
const setupConfigSchema = `{
  "type": "object",
  "properties": {
    "required_files":  {"type": "array"},
    "setup_commands":  {"type": "array"},
    "runtime_image":   {"type": "string"},
    "container_port":  {"type": ["string", "integer"]}
  }
}`

var (
	criteriaSchemaLoader = gojsonschema.NewStringLoader(criteriaConfigSchema)
	setupSchemaLoader    = gojsonschema.NewStringLoader(setupConfigSchema)
)

// validateAgainst runs doc through the compiled schema, collecting every
// violation into a single error so the caller gets one 400 response
// instead of failing on the first mismatch.
func validateAgainst(schemaLoader gojsonschema.JSONLoader, doc map[string]interface{}) error {
	if doc == nil {
		return nil
	}
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validating document: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
}

func validateCriteriaConfig(doc map[string]interface{}) error {
	return validateAgainst(criteriaSchemaLoader, doc)
}

func validateSetupConfig(doc map[string]interface{}) error {
	return validateAgainst(setupSchemaLoader, doc)
}

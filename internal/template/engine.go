package template

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Engine renders deterministic feedback text: a Sprig-powered Go template
// evaluated against a context map built by MergeContexts.
type Engine struct{}

// New creates a new template engine.
func New() *Engine {
	return &Engine{}
}

// RenderGoTemplate renders a full Go template with Sprig template functions,
// e.g. {{ eq .input.var "value" }} (§4.1 FEEDBACK, default provider).
func (e *Engine) RenderGoTemplate(templateStr string, context map[string]interface{}) (interface{}, error) {
	tmpl, err := template.New("template").Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, context); err != nil {
		return nil, fmt.Errorf("template execution failed: %w", err)
	}

	result := buf.String()

	// Try to parse as boolean first (common for eq/ne functions)
	if result == "true" {
		return true, nil
	}
	if result == "false" {
		return false, nil
	}

	return result, nil
}

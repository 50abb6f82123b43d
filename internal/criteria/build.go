package criteria

import (
	"fmt"

	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
	"github.com/webtech-network/autograder-sub001/internal/templates"
)

// Build parses criteria_config into a Tree, resolving every test name
// against reg and selecting the language-specific branch of any
// program_command parameter (§4.2). language is ignored for
// single-language assignments (program_command stays a plain string).
func Build(config map[string]interface{}, reg *templates.Registry, language string) (*Tree, error) {
	if err := validateShape(config); err != nil {
		return nil, api.NewGradingError(api.KindTreeMalformed, err.Error(), nil)
	}

	tree := &Tree{}

	if raw, ok := config["base"]; ok {
		node, err := buildCategory("base", raw, reg, language)
		if err != nil {
			return nil, err
		}
		tree.Base = node
	}
	if raw, ok := config["bonus"]; ok {
		node, err := buildCategory("bonus", raw, reg, language)
		if err != nil {
			return nil, err
		}
		tree.Bonus = node
	}
	if raw, ok := config["penalty"]; ok {
		node, err := buildCategory("penalty", raw, reg, language)
		if err != nil {
			return nil, err
		}
		tree.Penalty = node
	}

	if tree.Base == nil && tree.Bonus == nil && tree.Penalty == nil {
		return nil, api.NewGradingError(api.KindTreeMalformed, "criteria_config declares no base, bonus, or penalty category", nil)
	}

	return tree, nil
}

func asMap(name string, raw interface{}) (map[string]interface{}, error) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, api.NewGradingError(api.KindTreeMalformed, fmt.Sprintf("%s must be an object", name), nil)
	}
	return m, nil
}

func weightOf(name string, m map[string]interface{}) (float64, error) {
	raw, ok := m["weight"]
	if !ok {
		return 0, api.NewGradingError(api.KindTreeMalformed, fmt.Sprintf("%s is missing required field 'weight'", name), nil)
	}
	w, ok := toFloat(raw)
	if !ok || w <= 0 {
		return 0, api.NewGradingError(api.KindTreeMalformed, fmt.Sprintf("%s has a non-positive or non-numeric weight", name), nil)
	}
	return w, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func buildCategory(name string, raw interface{}, reg *templates.Registry, language string) (*Node, error) {
	m, err := asMap(name, raw)
	if err != nil {
		return nil, err
	}
	weight, err := weightOf(name, m)
	if err != nil {
		return nil, err
	}
	node := &Node{Name: name, Weight: weight}
	return populateChildren(node, m, reg, language)
}

// populateChildren fills subjects or tests, enforcing the exclusive
// subjects XOR tests invariant (§3, §9). An empty node (neither key
// present) is valid — the §8 "empty subject" boundary case.
func populateChildren(node *Node, m map[string]interface{}, reg *templates.Registry, language string) (*Node, error) {
	subjectsRaw, hasSubjects := m["subjects"]
	testsRaw, hasTests := m["tests"]

	if hasSubjects && hasTests {
		return nil, api.NewGradingError(api.KindTreeMalformed,
			fmt.Sprintf("node %q declares both subjects and tests; exactly one is allowed", node.Name), nil)
	}

	if hasSubjects {
		subjects, ok := subjectsRaw.([]interface{})
		if !ok {
			return nil, api.NewGradingError(api.KindTreeMalformed, fmt.Sprintf("%s.subjects must be an array", node.Name), nil)
		}
		for _, rawSubject := range subjects {
			child, err := buildSubject(rawSubject, reg, language)
			if err != nil {
				return nil, err
			}
			node.Subjects = append(node.Subjects, child)
		}
	}

	if hasTests {
		tests, ok := testsRaw.([]interface{})
		if !ok {
			return nil, api.NewGradingError(api.KindTreeMalformed, fmt.Sprintf("%s.tests must be an array", node.Name), nil)
		}
		for _, rawTest := range tests {
			test, err := buildTest(node.Name, rawTest, reg, language)
			if err != nil {
				return nil, err
			}
			node.Tests = append(node.Tests, test)
		}
	}

	return node, nil
}

func buildSubject(raw interface{}, reg *templates.Registry, language string) (*Node, error) {
	m, err := asMap("subject", raw)
	if err != nil {
		return nil, err
	}
	subjectName, _ := m["subject_name"].(string)
	if subjectName == "" {
		return nil, api.NewGradingError(api.KindTreeMalformed, "subject is missing required field 'subject_name'", nil)
	}
	weight, err := weightOf(subjectName, m)
	if err != nil {
		return nil, err
	}
	node := &Node{Name: subjectName, Weight: weight}
	return populateChildren(node, m, reg, language)
}

func buildTest(parentName string, raw interface{}, reg *templates.Registry, language string) (*Test, error) {
	m, err := asMap("test", raw)
	if err != nil {
		return nil, err
	}
	testName, _ := m["name"].(string)
	if testName == "" {
		return nil, api.NewGradingError(api.KindTreeMalformed, fmt.Sprintf("%s: test is missing required field 'name'", parentName), nil)
	}

	fn, ok := reg.Lookup(testName)
	if !ok {
		return nil, api.NewGradingError(api.KindTreeMalformed,
			fmt.Sprintf("%s: test %q is not registered in template %q", parentName, testName, reg.TemplateName),
			map[string]interface{}{"test": testName, "template": reg.TemplateName, "available_tests": reg.Names()})
	}

	file, _ := m["file"].(string)

	var params []api.TestParameter
	if rawParams, ok := m["parameters"].([]interface{}); ok {
		for _, rp := range rawParams {
			pm, ok := rp.(map[string]interface{})
			if !ok {
				return nil, api.NewGradingError(api.KindTreeMalformed, fmt.Sprintf("%s.%s: parameter entry must be an object", parentName, testName), nil)
			}
			pname, _ := pm["name"].(string)
			if pname == "" {
				return nil, api.NewGradingError(api.KindTreeMalformed, fmt.Sprintf("%s.%s: parameter is missing 'name'", parentName, testName), nil)
			}
			value, err := resolveParamValue(parentName, testName, pname, pm["value"], language)
			if err != nil {
				return nil, err
			}
			params = append(params, api.TestParameter{Name: pname, Value: value})
		}
	}

	return &Test{Name: testName, File: file, Parameters: params, Fn: fn}, nil
}

// resolveParamValue implements §4.2's multi-language command resolution:
// when a program_command value is a mapping, pick the entry for language;
// a missing key is a fatal build error naming the language. Every other
// parameter passes through verbatim (§4.2 "parameter values are not
// evaluated at build time").
func resolveParamValue(parentName, testName, paramName string, raw interface{}, language string) (interface{}, error) {
	if paramName != "program_command" {
		return raw, nil
	}
	mapping, ok := raw.(map[string]interface{})
	if !ok {
		return raw, nil
	}
	if language == "" {
		return nil, api.NewGradingError(api.KindTreeMalformed,
			fmt.Sprintf("%s.%s: program_command is multi-language but no submission language was supplied", parentName, testName), nil)
	}
	value, ok := mapping[language]
	if !ok {
		return nil, api.NewGradingError(api.KindTreeMalformed,
			fmt.Sprintf("%s.%s: program_command has no entry for language %q", parentName, testName, language),
			map[string]interface{}{"language": language})
	}
	return value, nil
}

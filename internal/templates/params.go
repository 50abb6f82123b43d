package templates

import (
	"fmt"

	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
)

// paramMap flattens an ordered parameter list into a lookup map. Order
// still matters upstream (the criteria tree and declared config preserve
// it end to end, per §3); within a single test invocation, named lookup is
// all the built-in test functions need.
func paramMap(params []api.TestParameter) map[string]interface{} {
	m := make(map[string]interface{}, len(params))
	for _, p := range params {
		m[p.Name] = p.Value
	}
	return m
}

func stringParam(m map[string]interface{}, name string, def string) string {
	if v, ok := m[name]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

func intParam(m map[string]interface{}, name string, def int) int {
	if v, ok := m[name]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return def
}

func stringSliceParam(m map[string]interface{}, name string) []string {
	v, ok := m[name]
	if !ok {
		return nil
	}
	switch s := v.(type) {
	case []string:
		return s
	case []interface{}:
		out := make([]string, 0, len(s))
		for _, item := range s {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	default:
		return nil
	}
}

func mapParam(m map[string]interface{}, name string) map[string]interface{} {
	v, ok := m[name]
	if !ok {
		return nil
	}
	if mm, ok := v.(map[string]interface{}); ok {
		return mm
	}
	return nil
}

// Package grader implements the weighted scorer (§4.3): it traverses a
// CriteriaTree (or a raw criteria_config), executes tests, and produces a
// ResultTree carrying a final numeric score. GradeFromConfig and
// GradeFromTree are required by §4.3/§8 to produce identical results for
// the same (config, template, submission) triple; GradeFromConfig builds
// the tree inline via internal/criteria and delegates to GradeFromTree.
package grader

// Package criteria builds and validates the criteria tree (§4.2): the
// typed, test-function-bound rubric the grader traverses. Node is a sum
// type enforced at construction — Subjects XOR Tests, never both — so a
// malformed tree cannot exist past Build (§9 "Exclusive sum type for tree
// nodes").
package criteria

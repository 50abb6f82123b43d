package api

// ResultNode is one node of a ResultTree (§3). Exactly one of Children or
// Test is populated, mirroring the criteria tree's tests-XOR-subjects
// invariant: a node with Test set is a leaf, otherwise it is a branch whose
// Children carry the same exclusion recursively.
type ResultNode struct {
	Name           string
	EffectiveWeight float64
	// DeclaredWeight is the node's raw weight as written in criteria_config,
	// before sibling normalization. The grader uses EffectiveWeight (the
	// normalized value) to aggregate scores, but Focus's diff_score formula
	// (§4.7) needs the raw value for the node's own contribution — kept
	// here instead of requiring Focus to re-walk the CriteriaTree.
	DeclaredWeight float64
	Score          float64
	Children       []*ResultNode
	Test           *TestResult
}

// IsLeaf reports whether this node is a test result rather than a branch.
func (n *ResultNode) IsLeaf() bool {
	return n.Test != nil
}

// TestResult is a leaf's executed outcome (§3).
type TestResult struct {
	Name       string
	Parameters []TestParameter
	Status     TestStatus
	Score      float64
	Report     string
	Telemetry  *Telemetry
}

// ResultTree mirrors the CriteriaTree, annotated with execution outcomes
// (§3). Base/Bonus/Penalty are nil when the corresponding category was
// absent from the rubric (§8: "omitting it is equivalent to weight 0").
type ResultTree struct {
	Base       *ResultNode
	Bonus      *ResultNode
	Penalty    *ResultNode
	FinalScore float64
}

// FocusEntry pairs a test result with its point-deficit contribution (§4.7).
type FocusEntry struct {
	Test      *TestResult
	DiffScore float64
}

// Focus is the per-category impact ranking derived from a ResultTree (§4.7).
type Focus struct {
	Base    []FocusEntry
	Bonus   []FocusEntry
	Penalty []FocusEntry
}

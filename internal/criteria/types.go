package criteria

import (
	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
	"github.com/webtech-network/autograder-sub001/internal/templates"
)

// Test is a resolved leaf: its function pointer is already bound to the
// template registry (§4.2 "Attach the resolved function").
type Test struct {
	Name       string
	File       string
	Parameters []api.TestParameter
	Fn         templates.TestFunc
}

// Node is one level of the tree: either a branch (Subjects populated) or a
// leaf test set (Tests populated), never both (§3, §9). The category roots
// (Base/Bonus/Penalty) are themselves Nodes, with Weight carrying the
// category's absolute point cap for bonus/penalty (§4.3) rather than a
// sibling weight.
type Node struct {
	Name     string
	Weight   float64
	Subjects []*Node
	Tests    []*Test
}

// IsBranch reports whether this node's children are subjects.
func (n *Node) IsBranch() bool {
	return len(n.Subjects) > 0
}

// IsLeafSet reports whether this node's children are tests.
func (n *Node) IsLeafSet() bool {
	return len(n.Tests) > 0
}

// IsEmpty reports the §8 "empty subject" case: no tests, no subjects.
// Empty nodes are silently excluded from weighted averaging at their parent.
func (n *Node) IsEmpty() bool {
	return len(n.Subjects) == 0 && len(n.Tests) == 0
}

// Tree is the full rubric (§3 CriteriaTree). Base/Bonus/Penalty are nil
// when the category was absent from criteria_config — equivalent to weight
// 0 (§8).
type Tree struct {
	Base    *Node
	Bonus   *Node
	Penalty *Node
}

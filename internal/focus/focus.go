package focus

import (
	"sort"

	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
)

// categoryRootMultiplier is the ancestor multiplier a category root
// contributes to its own direct children: a category is always 100% of
// itself (§4.7's formula has no notion of a category's own weight being
// discounted).
const categoryRootMultiplier = 1.0

// Compute derives a Focus from a graded ResultTree (§4.7). Categories
// absent from the tree (never graded, or excluded entirely) yield no
// entries for that category.
func Compute(tree *api.ResultTree) *api.Focus {
	return &api.Focus{
		Base:    rank(tree.Base),
		Bonus:   rank(tree.Bonus),
		Penalty: rank(tree.Penalty),
	}
}

// rank walks one category root and returns its entries sorted by
// diff_score descending, ties broken by declaration order (§4.7).
func rank(root *api.ResultNode) []api.FocusEntry {
	if root == nil {
		return nil
	}
	var entries []api.FocusEntry
	walk(root, categoryRootMultiplier, &entries)

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].DiffScore > entries[j].DiffScore
	})
	return entries
}

// walk recurses through the ResultTree, folding in each branch node's own
// EffectiveWeight (its normalized weight among its own siblings, as
// assigned by its parent during grading) into the multiplier passed to its
// children — this accumulates the "product of normalized_weight/100 for
// every ancestor from the category root to the test's parent" (§4.7).
// A leaf-test-set node's own declared weight becomes the per-test weight,
// split evenly across its tests, and is applied directly rather than
// folded into the multiplier — it is the node's own contribution, not an
// ancestor's.
func walk(node *api.ResultNode, multiplier float64, entries *[]api.FocusEntry) {
	if len(node.Children) == 0 {
		return
	}

	if node.Children[0].IsLeaf() {
		n := float64(len(node.Children))
		testWeight := node.DeclaredWeight / n
		for _, child := range node.Children {
			diff := (100 - child.Score) * (testWeight / 100) * multiplier
			*entries = append(*entries, api.FocusEntry{Test: child.Test, DiffScore: diff})
		}
		return
	}

	childMultiplier := multiplier * (node.EffectiveWeight / 100)
	for _, child := range node.Children {
		walk(child, childMultiplier, entries)
	}
}

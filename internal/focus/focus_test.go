package focus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
)

// TestCompute_SpecScenario6 reproduces spec scenario 6 exactly: A (weight
// 30, score 50), B (weight 20, score 90), C (weight 10, under a parent of
// weight 50, score 0). Expected diff_score: A=15.0, B=2.0, C=5.0, ranked
// [A, C, B].
func TestCompute_SpecScenario6(t *testing.T) {
	aTest := &api.TestResult{Name: "A-test", Score: 50}
	bTest := &api.TestResult{Name: "B-test", Score: 90}
	cTest := &api.TestResult{Name: "C-test", Score: 0}

	a := &api.ResultNode{Name: "A", Score: 50, DeclaredWeight: 30, EffectiveWeight: 30,
		Children: []*api.ResultNode{{Name: "A-test", Score: 50, Test: aTest}}}
	b := &api.ResultNode{Name: "B", Score: 90, DeclaredWeight: 20, EffectiveWeight: 20,
		Children: []*api.ResultNode{{Name: "B-test", Score: 90, Test: bTest}}}
	c := &api.ResultNode{Name: "C", Score: 0, DeclaredWeight: 10, EffectiveWeight: 100,
		Children: []*api.ResultNode{{Name: "C-test", Score: 0, Test: cTest}}}
	parentOfC := &api.ResultNode{Name: "parent", Score: 0, DeclaredWeight: 50, EffectiveWeight: 50,
		Children: []*api.ResultNode{c}}

	base := &api.ResultNode{
		Name:            "base",
		EffectiveWeight: 100,
		Children:        []*api.ResultNode{a, b, parentOfC},
	}

	f := Compute(&api.ResultTree{Base: base})
	require.Len(t, f.Base, 3)

	byName := map[string]api.FocusEntry{}
	for _, e := range f.Base {
		byName[e.Test.Name] = e
	}

	assert.InDelta(t, 15.0, byName["A-test"].DiffScore, 0.001)
	assert.InDelta(t, 2.0, byName["B-test"].DiffScore, 0.001)
	assert.InDelta(t, 5.0, byName["C-test"].DiffScore, 0.001)

	assert.Equal(t, "A-test", f.Base[0].Test.Name)
	assert.Equal(t, "C-test", f.Base[1].Test.Name)
	assert.Equal(t, "B-test", f.Base[2].Test.Name)
}

func TestCompute_NilCategoryYieldsNoEntries(t *testing.T) {
	f := Compute(&api.ResultTree{})
	assert.Nil(t, f.Base)
	assert.Nil(t, f.Bonus)
	assert.Nil(t, f.Penalty)
}

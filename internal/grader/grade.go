package grader

import (
	"context"

	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
	"github.com/webtech-network/autograder-sub001/internal/criteria"
	"github.com/webtech-network/autograder-sub001/internal/templates"
)

// rootEffectiveWeight is the convention used for a category root's own
// EffectiveWeight: a category always contributes its full declared share
// to the submission's ancestor-multiplier chain (§4.7), so it is treated
// as 100% of itself.
const rootEffectiveWeight = 100.0

// GradeFromConfig builds a CriteriaTree inline from the raw criteria_config
// document and grades it in one pass (§4.3, used when exactly one
// submission is being graded against a rubric). It MUST produce results
// identical to building the tree once with internal/criteria.Build and
// calling GradeFromTree (§8 round-trip law) — this is a thin wrapper
// around exactly that, not a separate implementation.
func GradeFromConfig(ctx context.Context, config map[string]interface{}, reg *templates.Registry, language string, sub *api.Submission, sbx templates.Sandbox) (*api.ResultTree, error) {
	tree, err := criteria.Build(config, reg, language)
	if err != nil {
		return nil, err
	}
	return GradeFromTree(ctx, tree, sub, sbx)
}

// GradeFromTree grades a pre-built CriteriaTree (§4.3, used when grading
// many submissions against the same rubric without rebuilding it each
// time).
func GradeFromTree(ctx context.Context, tree *criteria.Tree, sub *api.Submission, sbx templates.Sandbox) (*api.ResultTree, error) {
	result := &api.ResultTree{}

	baseNode, baseScore, baseRunnable, err := scoreCategory(ctx, tree.Base, sub, sbx)
	if err != nil {
		return nil, err
	}
	if baseRunnable {
		result.Base = baseNode
	}

	bonusNode, bonusScore, bonusRunnable, err := scoreCategory(ctx, tree.Bonus, sub, sbx)
	if err != nil {
		return nil, err
	}
	if bonusRunnable {
		result.Bonus = bonusNode
	}

	penaltyNode, penaltyScore, penaltyRunnable, err := scoreCategory(ctx, tree.Penalty, sub, sbx)
	if err != nil {
		return nil, err
	}
	if penaltyRunnable {
		result.Penalty = penaltyNode
	}

	bonusWeight := 0.0
	if tree.Bonus != nil {
		bonusWeight = tree.Bonus.Weight
	}
	penaltyWeight := 0.0
	if tree.Penalty != nil {
		penaltyWeight = tree.Penalty.Weight
	}

	result.FinalScore = finalScore(baseScore, bonusScore, penaltyScore, bonusWeight, penaltyWeight)
	return result, nil
}

// scoreCategory scores one optional category root (§4.3 "At the category
// level: apply the same weighted-mean rule"), returning a zero score and
// runnable=false when the category is absent — "equivalent to declaring it
// with weight 0" (§8).
func scoreCategory(ctx context.Context, node *criteria.Node, sub *api.Submission, sbx templates.Sandbox) (*api.ResultNode, float64, bool, error) {
	if node == nil {
		return nil, 0, false, nil
	}
	result, runnable, err := scoreNode(ctx, node, sub, sbx)
	if err != nil {
		return nil, 0, false, err
	}
	if !runnable {
		return nil, 0, false, nil
	}
	result.EffectiveWeight = rootEffectiveWeight
	result.DeclaredWeight = node.Weight
	return result, result.Score, true, nil
}

// finalScore reproduces §4.3's exact numerics.
func finalScore(baseScore, bonusScore, penaltyScore, bonusWeight, penaltyWeight float64) float64 {
	final := baseScore
	if final < 100 {
		final += (bonusScore / 100) * bonusWeight
	}
	if final > 100 {
		final = 100
	}
	final -= (penaltyScore / 100) * penaltyWeight
	return clamp(final, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// scoreNode is the recursive post-order traversal (§4.3). It returns
// runnable=false for the §8 "empty subject" case, which callers must
// exclude from their own weighted mean rather than counting as zero.
func scoreNode(ctx context.Context, node *criteria.Node, sub *api.Submission, sbx templates.Sandbox) (*api.ResultNode, bool, error) {
	switch {
	case node.IsEmpty():
		return nil, false, nil
	case node.IsLeafSet():
		return scoreLeafSet(ctx, node, sub, sbx)
	case node.IsBranch():
		return scoreBranch(ctx, node, sub, sbx)
	default:
		return nil, false, nil
	}
}

// scoreLeafSet executes every test under a leaf-test-set subject and
// averages them arithmetically (§4.3).
func scoreLeafSet(ctx context.Context, node *criteria.Node, sub *api.Submission, sbx templates.Sandbox) (*api.ResultNode, bool, error) {
	children := make([]*api.ResultNode, 0, len(node.Tests))
	sum := 0.0

	for _, test := range node.Tests {
		outcome, err := test.Fn(ctx, test.Parameters, sub.Files, sbx)
		if err != nil {
			return nil, false, api.NewGradingError(api.KindTestInfrastructure, err.Error(), map[string]interface{}{"test": test.Name})
		}
		tr := &api.TestResult{
			Name:       test.Name,
			Parameters: test.Parameters,
			Status:     outcome.Status,
			Score:      outcome.Score,
			Report:     outcome.Report,
			Telemetry:  outcome.Telemetry,
		}
		children = append(children, &api.ResultNode{Name: test.Name, Score: outcome.Score, Test: tr})
		sum += outcome.Score
	}

	return &api.ResultNode{
		Name:     node.Name,
		Score:    sum / float64(len(node.Tests)),
		Children: children,
	}, true, nil
}

// scoreBranch recursively scores each subject child, excludes non-runnable
// (empty) children, normalizes the remaining weights to sum to 100, and
// aggregates by weighted mean (§4.3).
func scoreBranch(ctx context.Context, node *criteria.Node, sub *api.Submission, sbx templates.Sandbox) (*api.ResultNode, bool, error) {
	type scored struct {
		node   *api.ResultNode
		weight float64
		score  float64
	}

	var runnable []scored
	for _, subject := range node.Subjects {
		childResult, isRunnable, err := scoreNode(ctx, subject, sub, sbx)
		if err != nil {
			return nil, false, err
		}
		if !isRunnable {
			continue
		}
		runnable = append(runnable, scored{node: childResult, weight: subject.Weight, score: childResult.Score})
	}

	if len(runnable) == 0 {
		return nil, false, nil
	}

	totalWeight := 0.0
	for _, r := range runnable {
		totalWeight += r.weight
	}

	children := make([]*api.ResultNode, 0, len(runnable))
	weightedSum := 0.0
	for _, r := range runnable {
		normalized := r.weight / totalWeight * 100
		r.node.EffectiveWeight = normalized
		r.node.DeclaredWeight = r.weight
		children = append(children, r.node)
		weightedSum += r.score * normalized / 100
	}

	return &api.ResultNode{
		Name:     node.Name,
		Score:    weightedSum,
		Children: children,
	}, true, nil
}

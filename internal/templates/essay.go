package templates

import (
	"context"

	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
)

// EssayGrader is the AI feedback service's grading capability, consumed
// here through the narrow slice this template needs (§4.4 "essay — wraps
// each test as a prompt and delegates to the AI grading service"). The
// concrete implementation lives in internal/feedback, backed by
// google.golang.org/genai; declaring the interface here keeps this package
// free of any AI-provider SDK dependency.
type EssayGrader interface {
	GradeEssay(ctx context.Context, prompt string, submissionText string) (EssayVerdict, error)
}

// EssayVerdict is the AI grading service's judgment of one essay prompt.
type EssayVerdict struct {
	Status     api.TestStatus
	Score      float64
	Reasoning  string
}

// newEssayRegistry builds the essay template (§4.4): no sandbox, delegates
// scoring to the injected EssayGrader. essayGrader may be nil when AI
// feedback is not configured for a deployment; essay tests then fail as
// infrastructure errors rather than panicking, matching the spec's
// test_infrastructure error kind (§7).
func newEssayRegistry(essayGrader EssayGrader) *Registry {
	return &Registry{
		TemplateName:    "essay",
		RequiresSandbox: false,
		funcs: map[string]TestFunc{
			"grade_essay": gradeEssayFunc(essayGrader),
		},
	}
}

// gradeEssayFunc closes over the injected grader so the TestFunc signature
// stays uniform with every other registered test (§9).
func gradeEssayFunc(grader EssayGrader) TestFunc {
	return func(ctx context.Context, params []api.TestParameter, files []api.SubmissionFile, _ Sandbox) (TestOutcome, error) {
		if grader == nil {
			return errOutcome("grade_essay: AI grading service not configured"), nil
		}

		p := paramMap(params)
		prompt := stringParam(p, "prompt", "")
		fileName := stringParam(p, "file", "")
		if prompt == "" {
			return errOutcome("grade_essay: missing 'prompt' parameter"), nil
		}
		if fileName == "" {
			return errOutcome("grade_essay: missing 'file' parameter"), nil
		}

		content, ok := submissionFile(files, fileName)
		if !ok {
			return TestOutcome{Status: api.TestFail, Score: 0, Report: "submission file " + fileName + " not found"}, nil
		}

		verdict, err := grader.GradeEssay(ctx, prompt, string(content))
		if err != nil {
			return errOutcome("grade_essay: AI grading service failed: %v", err), nil
		}

		return TestOutcome{
			Status: verdict.Status,
			Score:  verdict.Score,
			Report: verdict.Reasoning,
		}, nil
	}
}

func submissionFile(files []api.SubmissionFile, name string) ([]byte, bool) {
	for _, f := range files {
		if f.Name == name {
			return f.Content, true
		}
	}
	return nil, false
}

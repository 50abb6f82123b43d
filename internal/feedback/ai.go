package feedback

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
	"github.com/webtech-network/autograder-sub001/internal/templates"
	"github.com/webtech-network/autograder-sub001/pkg/logging"
)

const aiSubsystem = "Feedback"

const defaultModel = "gemini-2.5-flash-lite"

// feedbackPrompt wraps the graded result into a prompt the model turns
// into prose feedback, leading with the same Focus ordering the default
// formatter uses so the AI producer degrades gracefully to similar content.
const feedbackPrompt = `You are grading feedback assistant for an automated programming course.
A student submitted code and it was graded against a rubric. Write concise,
encouraging feedback (3-6 sentences) explaining the score and the most
impactful issues to fix next, in order of impact. Do not invent test names
that are not listed below.

Final score: %.1f/100

Failing tests by impact:
%s
`

// AI is an AI-backed feedback producer over google.golang.org/genai,
// rate-limited to avoid overrunning the provider's request quota (§4.1
// FEEDBACK, §9 "the AI feedback call is the pipeline's one outbound network
// dependency"). It also implements templates.EssayGrader so the essay
// template's grade_essay test can delegate scoring to the same client.
type AI struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
}

var _ api.FeedbackProducer = (*AI)(nil)
var _ templates.EssayGrader = (*AI)(nil)

// ratePerSecond bounds outbound calls to the provider; genai quotas are
// typically per-minute, so a slow steady trickle avoids bursting into a
// 429 on a batch of submissions finishing FOCUS at the same moment.
const ratePerSecond = 2

// NewAI constructs an AI feedback producer. model defaults to
// "gemini-2.5-flash-lite" when empty.
func NewAI(ctx context.Context, apiKey, model string) (*AI, error) {
	if model == "" {
		model = defaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &AI{
		client:  client,
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), 1),
	}, nil
}

// Produce turns a ResultTree + Focus into prose feedback via the
// configured model (§4.1 step 7). Failures here are soft: the pipeline
// records DegradedFeedback and continues rather than failing.
func (a *AI) Produce(ctx context.Context, sub *api.Submission, cfg *api.GradingConfig, tree *api.ResultTree, focus *api.Focus) (string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	finalScore := 0.0
	if tree != nil {
		finalScore = tree.FinalScore
	}
	prompt := fmt.Sprintf(feedbackPrompt, finalScore, renderFailingTests(focus))

	resp, err := a.client.Models.GenerateContent(ctx, a.model, []*genai.Content{
		{Role: "user", Parts: []*genai.Part{genai.NewPartFromText(prompt)}},
	}, nil)
	if err != nil {
		logging.Error(aiSubsystem, err, "AI feedback request failed for submission %s", sub.ID)
		return "", fmt.Errorf("AI feedback request: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("AI feedback: empty response")
	}
	return text, nil
}

// GradeEssay implements templates.EssayGrader, delegating a single essay
// prompt's scoring to the model (§4.4 essay template).
func (a *AI) GradeEssay(ctx context.Context, prompt string, submissionText string) (templates.EssayVerdict, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return templates.EssayVerdict{}, fmt.Errorf("rate limit wait: %w", err)
	}

	full := fmt.Sprintf(`Grade the following essay answer against the prompt. Respond with a line
"SCORE: <0-100>" followed by one paragraph of reasoning.

Prompt: %s

Answer:
%s
`, prompt, submissionText)

	resp, err := a.client.Models.GenerateContent(ctx, a.model, []*genai.Content{
		{Role: "user", Parts: []*genai.Part{genai.NewPartFromText(full)}},
	}, nil)
	if err != nil {
		return templates.EssayVerdict{}, fmt.Errorf("AI essay grading request: %w", err)
	}
	return parseEssayVerdict(resp.Text())
}

func renderFailingTests(focus *api.Focus) string {
	if focus == nil {
		return "(no test results)"
	}
	var b strings.Builder
	for _, entries := range [][]api.FocusEntry{focus.Base, focus.Bonus, focus.Penalty} {
		for _, e := range entries {
			if e.Test != nil && e.Test.Status != api.TestPass {
				fmt.Fprintf(&b, "- %s: %s (%.1f pts lost)\n", e.Test.Name, e.Test.Status, e.DiffScore)
			}
		}
	}
	if b.Len() == 0 {
		return "(no failing tests)"
	}
	return b.String()
}

// parseEssayVerdict extracts the "SCORE: N" line the prompt asked for,
// falling back to a test_infrastructure-style error when the model didn't
// follow the format (§4.4, §7 error taxonomy maps this to KindOf at the
// grader boundary, not here).
func parseEssayVerdict(text string) (templates.EssayVerdict, error) {
	text = strings.TrimSpace(text)
	lines := strings.SplitN(text, "\n", 2)
	var score float64
	if _, err := fmt.Sscanf(lines[0], "SCORE: %f", &score); err != nil {
		return templates.EssayVerdict{}, fmt.Errorf("unparseable essay verdict: %q", lines[0])
	}
	reasoning := text
	if len(lines) > 1 {
		reasoning = strings.TrimSpace(lines[1])
	}

	status := api.TestFail
	switch {
	case score >= 85:
		status = api.TestPass
	case score >= 40:
		status = api.TestPartial
	}

	return templates.EssayVerdict{Status: status, Score: score, Reasoning: reasoning}, nil
}

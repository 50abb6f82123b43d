package feedback

import (
	"context"
	"fmt"
	"sort"
	"strings"

	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
	"github.com/webtech-network/autograder-sub001/internal/template"
	pkgstrings "github.com/webtech-network/autograder-sub001/pkg/strings"
)

// defaultTemplate renders the deterministic feedback string (§4.1
// FEEDBACK, default provider). It leads with the final score, then the
// highest-impact failing tests per category, ordered by diff_score
// descending — the same ordering FOCUS already produced.
const defaultTemplate = `Submission {{ .submission_id }} ({{ .language }}) — final score: {{ printf "%.1f" .final_score }}/100

{{- range .categories }}

{{ .Name }}:
{{- range .Entries }}
  - {{ .Test.Name }} ({{ .Test.Status }}, {{ printf "%.1f" .DiffScore }} pts lost){{ if .Report }}: {{ .Report }}{{ end }}
{{- else }}
  (no graded tests)
{{- end }}
{{- end }}
`

// Default is the deterministic feedback formatter: no external service,
// no network calls, safe to run for every submission regardless of
// whether AI feedback is configured (§1 "opaque producer of a feedback
// string").
type Default struct {
	engine *template.Engine
}

// NewDefault constructs the default feedback formatter.
func NewDefault() *Default {
	return &Default{engine: template.New()}
}

var _ api.FeedbackProducer = (*Default)(nil)

// Produce renders defaultTemplate against the ResultTree/Focus (§4.1 step
// 7). A nil tree or focus still renders a best-effort report rather than
// erroring, since FEEDBACK failures degrade the result instead of failing
// the pipeline.
func (d *Default) Produce(ctx context.Context, sub *api.Submission, cfg *api.GradingConfig, tree *api.ResultTree, focus *api.Focus) (string, error) {
	finalScore := 0.0
	if tree != nil {
		finalScore = tree.FinalScore
	}

	submissionCtx := map[string]interface{}{
		"submission_id": sub.ID,
		"language":      sub.Language,
	}
	scoreCtx := map[string]interface{}{
		"final_score": finalScore,
		"categories":  categoryContexts(focus),
	}
	rendered, err := d.engine.RenderGoTemplate(defaultTemplate, template.MergeContexts(submissionCtx, scoreCtx))
	if err != nil {
		return "", fmt.Errorf("rendering default feedback: %w", err)
	}
	text, _ := rendered.(string)
	return strings.TrimSpace(text) + "\n", nil
}

type categoryContext struct {
	Name    string
	Entries []entryContext
}

// entryContext is a FocusEntry with its Report trimmed to one readable
// line, so a verbose sandbox report doesn't blow up the feedback string.
type entryContext struct {
	Test      *api.TestResult
	DiffScore float64
	Report    string
}

const maxReportLen = 80

// categoryContexts orders categories Base, Bonus, Penalty and keeps each
// one's entries in the diff_score-descending order FOCUS already computed
// (§4.7), capping the list so feedback stays readable for rubrics with
// many tests.
func categoryContexts(focus *api.Focus) []categoryContext {
	if focus == nil {
		return nil
	}
	const maxEntriesPerCategory = 5

	cap := func(entries []api.FocusEntry) []entryContext {
		failing := make([]api.FocusEntry, 0, len(entries))
		for _, e := range entries {
			if e.Test != nil && e.Test.Status != api.TestPass {
				failing = append(failing, e)
			}
		}
		sort.SliceStable(failing, func(i, j int) bool { return failing[i].DiffScore > failing[j].DiffScore })
		if len(failing) > maxEntriesPerCategory {
			failing = failing[:maxEntriesPerCategory]
		}

		out := make([]entryContext, len(failing))
		for i, e := range failing {
			report := ""
			if e.Test != nil {
				report = pkgstrings.TruncateDescription(e.Test.Report, maxReportLen)
			}
			out[i] = entryContext{Test: e.Test, DiffScore: e.DiffScore, Report: report}
		}
		return out
	}

	var out []categoryContext
	if len(focus.Base) > 0 {
		out = append(out, categoryContext{Name: "Base", Entries: cap(focus.Base)})
	}
	if len(focus.Bonus) > 0 {
		out = append(out, categoryContext{Name: "Bonus", Entries: cap(focus.Bonus)})
	}
	if len(focus.Penalty) > 0 {
		out = append(out, categoryContext{Name: "Penalty", Entries: cap(focus.Penalty)})
	}
	return out
}

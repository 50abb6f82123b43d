package pipeline

import (
	"context"
	"fmt"
	"time"

	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
	"github.com/webtech-network/autograder-sub001/internal/criteria"
	"github.com/webtech-network/autograder-sub001/internal/focus"
	"github.com/webtech-network/autograder-sub001/internal/grader"
	"github.com/webtech-network/autograder-sub001/internal/templates"
	"github.com/webtech-network/autograder-sub001/pkg/logging"
)

// Engine runs the ordered grading pipeline (§4.1) for one submission at a
// time; a Coordinator dispatches many Engine.Run calls concurrently across
// submissions, never concurrently for the same submission.
type Engine struct {
	Repo             api.Repository
	Templates        *templates.TemplateSet
	SandboxPool      SandboxPool
	FeedbackProducer api.FeedbackProducer
	ExportSink       api.ExportSink

	// SkipBuildTree, when true, grades directly from criteria_config via
	// grader.GradeFromConfig instead of pre-building a CriteriaTree — the
	// §4.1 "single-submission fast path" that may skip BUILD_TREE.
	SkipBuildTree bool
}

var _ interface {
	Run(ctx context.Context, sub *api.Submission) *api.SubmissionResult
} = (*Engine)(nil)

// Run executes every planned step in order, producing a complete
// PipelineExecution regardless of where the run halts (§4.1 execution
// contract). A sandbox acquired in PRE_FLIGHT is released on every exit
// path via defer, the single invariant this method must never violate.
func (e *Engine) Run(ctx context.Context, sub *api.Submission) *api.SubmissionResult {
	start := time.Now()
	steps := e.plannedSteps()
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.name
	}
	exec := api.NewPipelineExecution(names)

	st := &runState{sub: sub}
	result := &api.SubmissionResult{SubmissionID: sub.ID, PipelineExecution: exec}

	defer func() {
		if st.sandbox != nil {
			if err := e.SandboxPool.Release(context.Background(), st.sandbox); err != nil {
				logging.Error("Pipeline", err, "failed to release sandbox for submission %s", sub.ID)
			}
			st.sandbox = nil
		}
	}()

	exec.Status = api.PipelineSuccess
	for i, s := range steps {
		if ctx.Err() != nil {
			exec.Status = api.PipelineCancelled
			exec.FailedAtStep = s.name
			break
		}

		stepStart := time.Now()
		res := s.execute(ctx, st)
		duration := time.Since(stepStart)

		record := api.StepRecord{Name: s.name, Duration: duration}
		switch res.Outcome {
		case api.OutcomeOK:
			record.Status = api.StepRunSuccess
			exec.StepsCompleted++
		case api.OutcomeSkip:
			record.Status = api.StepRunSkipped
			record.Message = res.Message
			exec.StepsCompleted++
		case api.OutcomeFail:
			record.Status = api.StepRunFailed
			record.Message = res.Message
			record.Error = &api.StepError{Kind: res.Kind, Message: res.Message, Details: res.Details}
			if api.IsFatal(res.Kind) {
				exec.StepsCompleted++
				exec.Steps[i] = record
				if res.Kind == api.KindCancelled {
					exec.Status = api.PipelineCancelled
				} else {
					exec.Status = api.PipelineFailed
				}
				exec.FailedAtStep = s.name
				exec.Duration = time.Since(start)
				e.finalize(result, st)
				return result
			}
			// Soft failure (FEEDBACK, EXPORT): recorded, pipeline continues.
			exec.StepsCompleted++
		}
		exec.Steps[i] = record
	}

	exec.Duration = time.Since(start)
	e.finalize(result, st)
	return result
}

// finalize copies whatever runState accumulated onto the SubmissionResult,
// regardless of how far the pipeline got.
func (e *Engine) finalize(result *api.SubmissionResult, st *runState) {
	result.ResultTree = st.resultTree
	result.Focus = st.focus
	result.Feedback = st.feedback
	result.DegradedFeedback = st.degraded
	if st.resultTree != nil {
		result.FinalScore = st.resultTree.FinalScore
	}
}

func (e *Engine) plannedSteps() []step {
	return []step{
		{name: api.StepLoadConfig, execute: e.loadConfig},
		{name: api.StepLoadTemplate, execute: e.loadTemplate},
		{name: api.StepBuildTree, execute: e.buildTree},
		{name: api.StepPreFlight, execute: e.preFlight},
		{name: api.StepGrade, execute: e.grade},
		{name: api.StepFocus, execute: e.focus},
		{name: api.StepFeedback, execute: e.feedback},
		{name: api.StepExport, execute: e.export},
	}
}

// loadConfig fetches the GradingConfig via the repository (§4.1 step 1).
func (e *Engine) loadConfig(ctx context.Context, st *runState) api.StepResult {
	cfg, err := e.Repo.ActiveConfig(ctx, st.sub.ExternalAssignmentID)
	if err != nil {
		return api.Fail(api.KindConfigMissing, fmt.Sprintf("no active config for assignment %s", st.sub.ExternalAssignmentID), nil)
	}
	st.config = cfg
	return api.OK()
}

// loadTemplate resolves the template name to its test registry (§4.1 step 2).
func (e *Engine) loadTemplate(ctx context.Context, st *runState) api.StepResult {
	reg, ok := e.Templates.Lookup(st.config.TemplateName)
	if !ok {
		return api.Fail(api.KindTemplateUnknown, fmt.Sprintf("unknown template %q", st.config.TemplateName), map[string]interface{}{"template": st.config.TemplateName})
	}
	st.registry = reg
	return api.OK()
}

// buildTree parses criteria_config into a CriteriaTree (§4.1 step 3). The
// single-submission fast path (Engine.SkipBuildTree) defers tree
// construction to GRADE, which calls grader.GradeFromConfig directly —
// both paths produce an identical ResultTree (§8 round-trip law).
func (e *Engine) buildTree(ctx context.Context, st *runState) api.StepResult {
	if e.SkipBuildTree {
		return api.Skip("single-submission fast path: tree built inline during GRADE")
	}
	tree, err := criteria.Build(st.config.CriteriaConfig, st.registry, st.sub.Language)
	if err != nil {
		kind := api.KindOf(err)
		return api.Fail(kind, err.Error(), nil)
	}
	st.tree = tree
	return api.OK()
}

// preFlight verifies required files, then (if the template needs a
// sandbox) acquires one and runs setup commands in order (§4.1 step 4).
func (e *Engine) preFlight(ctx context.Context, st *runState) api.StepResult {
	setup := resolveSetupConfig(st.config, st.sub.Language)

	for _, name := range stringSlice(setup["required_files"]) {
		if _, ok := st.sub.File(name); !ok {
			details := map[string]interface{}{"file": name, "submitted_files": st.sub.FileNames()}
			return api.Fail(api.KindPreflightMissingFile, fmt.Sprintf("required file %q missing from submission", name), details)
		}
	}

	if !st.registry.RequiresSandbox {
		return api.OK()
	}
	if e.SandboxPool == nil {
		return api.Fail(api.KindSandboxUnavailable, "sandbox pool not configured", nil)
	}

	deadline := time.Now().Add(sandboxAcquireTimeout(setup))
	sbx, err := e.SandboxPool.Acquire(ctx, st.sub.Language, deadline)
	if err != nil {
		return api.Fail(api.KindSandboxUnavailable, fmt.Sprintf("acquiring sandbox: %v", err), nil)
	}
	st.sandbox = sbx

	if err := e.SandboxPool.InjectFiles(ctx, sbx, st.sub.Files); err != nil {
		return api.Fail(api.KindPreflightSetupFailed, fmt.Sprintf("injecting submission files: %v", err), nil)
	}

	cmds, err := setupCommands(setup["setup_commands"])
	if err != nil {
		return api.Fail(api.KindTreeMalformed, fmt.Sprintf("setup_config.setup_commands: %v", err), nil)
	}
	for _, cmd := range cmds {
		res, err := sbx.Run(ctx, cmd.Command, templates.RunOptions{Deadline: setupCommandTimeout(setup)})
		if err != nil {
			return api.Fail(api.KindExecTimeout, fmt.Sprintf("setup command %q: %v", cmd.Command, err), map[string]interface{}{"command": cmd.Command, "name": cmd.Name})
		}
		if res.ExitCode != 0 {
			return api.Fail(api.KindPreflightSetupFailed, fmt.Sprintf("setup command %q exited %d", cmd.Command, res.ExitCode),
				map[string]interface{}{"command": cmd.Command, "name": cmd.Name, "exit_code": res.ExitCode, "stdout": res.Stdout, "stderr": res.Stderr})
		}
	}
	return api.OK()
}

// grade invokes the grader on the built tree (or, on the fast path,
// directly on criteria_config) and attaches the resulting ResultTree to the
// context (§4.1 step 5).
func (e *Engine) grade(ctx context.Context, st *runState) api.StepResult {
	var result *api.ResultTree
	var err error
	if st.tree != nil {
		result, err = grader.GradeFromTree(ctx, st.tree, st.sub, st.sandbox)
	} else {
		result, err = grader.GradeFromConfig(ctx, st.config.CriteriaConfig, st.registry, st.sub.Language, st.sub, st.sandbox)
	}
	if err != nil {
		return api.Fail(api.KindOf(err), err.Error(), nil)
	}
	st.resultTree = result
	return api.OK()
}

// focus computes the per-category diff_score ranking, only when feedback is
// enabled (§4.1 step 6).
func (e *Engine) focus(ctx context.Context, st *runState) api.StepResult {
	if e.FeedbackProducer == nil {
		return api.Skip("feedback disabled, FOCUS not needed")
	}
	st.focus = focus.Compute(st.resultTree)
	return api.OK()
}

// feedback turns the ResultTree + Focus into a feedback string. Failures
// here are soft: they degrade the result rather than failing the pipeline
// (§4.1 step 7).
func (e *Engine) feedback(ctx context.Context, st *runState) api.StepResult {
	if e.FeedbackProducer == nil {
		return api.Skip("no feedback producer configured")
	}
	text, err := e.FeedbackProducer.Produce(ctx, st.sub, st.config, st.resultTree, st.focus)
	if err != nil {
		st.degraded = true
		return api.Fail(api.KindFeedbackFailed, err.Error(), nil)
	}
	st.feedback = text
	return api.OK()
}

// export delivers the result to an external sink. Failures here do not
// invalidate the grading result (§4.1 step 8).
func (e *Engine) export(ctx context.Context, st *runState) api.StepResult {
	if e.ExportSink == nil {
		return api.Skip("no export sink configured")
	}
	result := &api.SubmissionResult{
		SubmissionID:     st.sub.ID,
		ResultTree:       st.resultTree,
		Focus:            st.focus,
		Feedback:         st.feedback,
		DegradedFeedback: st.degraded,
	}
	if st.resultTree != nil {
		result.FinalScore = st.resultTree.FinalScore
	}
	if err := e.ExportSink.Export(ctx, st.sub, result); err != nil {
		return api.Fail(api.KindExportFailed, err.Error(), nil)
	}
	return api.OK()
}

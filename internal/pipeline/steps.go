package pipeline

import (
	"context"

	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
	"github.com/webtech-network/autograder-sub001/internal/criteria"
	"github.com/webtech-network/autograder-sub001/internal/templates"
)

// runState is the shared mutable Context every step reads from and writes
// to (§4.1: "a shared mutable Context"). Steps observe only what prior
// steps have populated; nothing here is visible across submissions.
type runState struct {
	sub *api.Submission

	config    *api.GradingConfig
	registry  *templates.Registry
	tree      *criteria.Tree
	sandbox   templates.Sandbox
	resultTree *api.ResultTree
	focus     *api.Focus
	feedback  string
	degraded  bool
}

// step is one entry in the ordered pipeline (§4.1): a name plus an
// execute(ctx) -> StepResult operation.
type step struct {
	name    string
	execute func(ctx context.Context, st *runState) api.StepResult
}

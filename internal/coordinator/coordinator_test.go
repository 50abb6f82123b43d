package coordinator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webtech-network/autograder-sub001/internal/fakes"
	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
)

// fakeRepository is an in-memory api.Repository double for coordinator
// tests, mirroring the teacher's mock-struct-with-recorded-calls style.
type fakeRepository struct {
	mu          sync.Mutex
	configs     map[string]*api.GradingConfig
	submissions map[string]*api.Submission
	results     map[string]*api.SubmissionResult
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		configs:     make(map[string]*api.GradingConfig),
		submissions: make(map[string]*api.Submission),
		results:     make(map[string]*api.SubmissionResult),
	}
}

func (f *fakeRepository) SaveConfig(ctx context.Context, cfg *api.GradingConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configs[cfg.ExternalAssignmentID] = cfg
	return nil
}

func (f *fakeRepository) ActiveConfig(ctx context.Context, externalAssignmentID string) (*api.GradingConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, ok := f.configs[externalAssignmentID]
	if !ok {
		return nil, api.NewGradingError(api.KindConfigMissing, "no config", nil)
	}
	return cfg, nil
}

func (f *fakeRepository) ActivateConfig(ctx context.Context, externalAssignmentID string, version int) error {
	return nil
}

func (f *fakeRepository) SaveSubmission(ctx context.Context, sub *api.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions[sub.ID] = sub
	return nil
}

func (f *fakeRepository) Submission(ctx context.Context, id string) (*api.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.submissions[id]
	if !ok {
		return nil, api.NewGradingError(api.KindInternalError, "not found", nil)
	}
	cp := *sub
	return &cp, nil
}

func (f *fakeRepository) UpdateSubmissionStatus(ctx context.Context, id string, status api.SubmissionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.submissions[id]
	if !ok {
		return api.NewGradingError(api.KindInternalError, "not found", nil)
	}
	sub.Status = status
	return nil
}

func (f *fakeRepository) SaveResult(ctx context.Context, result *api.SubmissionResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[result.SubmissionID] = result
	return nil
}

func (f *fakeRepository) Result(ctx context.Context, submissionID string) (*api.SubmissionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result, ok := f.results[submissionID]
	if !ok {
		return nil, api.NewGradingError(api.KindInternalError, "not found", nil)
	}
	return result, nil
}

// fakePipeline is a Pipeline double that records every submission it was
// asked to run and returns a pre-scripted result.
type fakePipeline struct {
	mu     sync.Mutex
	runs   []string
	result *api.SubmissionResult
	delay  time.Duration
}

func (f *fakePipeline) Run(ctx context.Context, sub *api.Submission) *api.SubmissionResult {
	f.mu.Lock()
	f.runs = append(f.runs, sub.ID)
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.result
}

func (f *fakePipeline) runCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.runs)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	require.True(t, cond(), "condition not met within %s", timeout)
}

func TestSubmit_RejectsUnknownAssignment(t *testing.T) {
	repo := newFakeRepository()
	pipeline := &fakePipeline{}
	c := New(repo, pipeline, 4)

	_, err := c.Submit(context.Background(), SubmitRequest{
		ExternalAssignmentID: "missing",
		Files:                []api.SubmissionFile{{Name: "a.py"}},
	})
	assert.Error(t, err)
	assert.Equal(t, api.KindConfigMissing, api.KindOf(err))
}

func TestSubmit_UsesInjectedClock(t *testing.T) {
	repo := newFakeRepository()
	require.NoError(t, repo.SaveConfig(context.Background(), &api.GradingConfig{ExternalAssignmentID: "hw1"}))
	c := New(repo, &fakePipeline{}, 4)

	pinned := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c.SetClock(fakes.NewMockClock(pinned))

	id, err := c.Submit(context.Background(), SubmitRequest{
		ExternalAssignmentID: "hw1",
		Files:                []api.SubmissionFile{{Name: "a.py"}},
	})
	require.NoError(t, err)

	sub, err := repo.Submission(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, sub.CreatedAt.Equal(pinned))
	assert.True(t, sub.UpdatedAt.Equal(pinned))
}

func TestSubmit_RejectsEmptyFiles(t *testing.T) {
	repo := newFakeRepository()
	require.NoError(t, repo.SaveConfig(context.Background(), &api.GradingConfig{ExternalAssignmentID: "hw1"}))
	c := New(repo, &fakePipeline{}, 4)

	_, err := c.Submit(context.Background(), SubmitRequest{ExternalAssignmentID: "hw1"})
	assert.Error(t, err)
	assert.Equal(t, api.KindPreflightMissingFile, api.KindOf(err))
}

func TestSubmit_DispatchesAndCompletes(t *testing.T) {
	repo := newFakeRepository()
	require.NoError(t, repo.SaveConfig(context.Background(), &api.GradingConfig{ExternalAssignmentID: "hw1"}))
	pipeline := &fakePipeline{result: &api.SubmissionResult{
		FinalScore: 90,
		PipelineExecution: &api.PipelineExecution{Status: api.PipelineSuccess},
	}}
	c := New(repo, pipeline, 4)

	id, err := c.Submit(context.Background(), SubmitRequest{
		ExternalAssignmentID: "hw1",
		Files:                []api.SubmissionFile{{Name: "main.py", Content: []byte("pass")}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	waitFor(t, time.Second, func() bool { return pipeline.runCount() == 1 })

	waitFor(t, time.Second, func() bool {
		res, err := c.Poll(context.Background(), id)
		return err == nil && res.Submission.Status == api.SubmissionCompleted
	})

	res, err := c.Poll(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, res.Result)
	assert.InDelta(t, 90.0, res.Result.FinalScore, 0.001)
}

func TestSubmit_HonorsIdempotencyKey(t *testing.T) {
	repo := newFakeRepository()
	require.NoError(t, repo.SaveConfig(context.Background(), &api.GradingConfig{ExternalAssignmentID: "hw1"}))
	c := New(repo, &fakePipeline{result: &api.SubmissionResult{PipelineExecution: &api.PipelineExecution{Status: api.PipelineSuccess}}}, 4)

	id, err := c.Submit(context.Background(), SubmitRequest{
		ExternalAssignmentID: "hw1",
		Files:                []api.SubmissionFile{{Name: "main.py"}},
		IdempotencyKey:       "fixed-id",
	})
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", id)
}

func TestCancel_BeforeStartSkipsPipelineRun(t *testing.T) {
	repo := newFakeRepository()
	require.NoError(t, repo.SaveConfig(context.Background(), &api.GradingConfig{ExternalAssignmentID: "hw1"}))
	pipeline := &fakePipeline{delay: 200 * time.Millisecond}
	c := New(repo, pipeline, 1)

	// Saturate the single executor slot so the next submission queues
	// behind it instead of starting immediately.
	_, err := c.Submit(context.Background(), SubmitRequest{
		ExternalAssignmentID: "hw1",
		Files:                []api.SubmissionFile{{Name: "a.py"}},
	})
	require.NoError(t, err)
	waitFor(t, time.Second, func() bool { return pipeline.runCount() >= 1 })

	id, err := c.Submit(context.Background(), SubmitRequest{
		ExternalAssignmentID: "hw1",
		Files:                []api.SubmissionFile{{Name: "b.py"}},
	})
	require.NoError(t, err)
	require.NoError(t, c.Cancel(context.Background(), id))

	waitFor(t, time.Second, func() bool {
		res, err := c.Poll(context.Background(), id)
		return err == nil && res.Submission.Status == api.SubmissionCancelled
	})
	assert.Equal(t, 1, pipeline.runCount())
}

package templates

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
)

type fakeEssayGrader struct {
	verdict EssayVerdict
	err     error
}

func (f *fakeEssayGrader) GradeEssay(context.Context, string, string) (EssayVerdict, error) {
	return f.verdict, f.err
}

func TestGradeEssay_Delegates(t *testing.T) {
	grader := &fakeEssayGrader{verdict: EssayVerdict{Status: api.TestPartial, Score: 70, Reasoning: "decent argument, weak conclusion"}}
	reg := newEssayRegistry(grader)
	fn, ok := reg.Lookup("grade_essay")
	require.True(t, ok)

	files := []api.SubmissionFile{{Name: "essay.md", Content: []byte("my essay text")}}
	params := []api.TestParameter{
		{Name: "prompt", Value: "Does the essay argue clearly for its thesis?"},
		{Name: "file", Value: "essay.md"},
	}

	outcome, err := fn(context.Background(), params, files, nil)
	require.NoError(t, err)
	assert.Equal(t, api.TestPartial, outcome.Status)
	assert.Equal(t, 70.0, outcome.Score)
}

func TestGradeEssay_NoGraderConfigured(t *testing.T) {
	reg := newEssayRegistry(nil)
	fn, _ := reg.Lookup("grade_essay")

	outcome, err := fn(context.Background(), []api.TestParameter{
		{Name: "prompt", Value: "p"}, {Name: "file", Value: "essay.md"},
	}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, api.TestError, outcome.Status)
}

func TestGradeEssay_GraderError(t *testing.T) {
	grader := &fakeEssayGrader{err: errors.New("ai service unavailable")}
	reg := newEssayRegistry(grader)
	fn, _ := reg.Lookup("grade_essay")

	files := []api.SubmissionFile{{Name: "essay.md", Content: []byte("text")}}
	outcome, err := fn(context.Background(), []api.TestParameter{
		{Name: "prompt", Value: "p"}, {Name: "file", Value: "essay.md"},
	}, files, nil)
	require.NoError(t, err)
	assert.Equal(t, api.TestError, outcome.Status)
}

func TestGradeEssay_MissingFile(t *testing.T) {
	grader := &fakeEssayGrader{}
	reg := newEssayRegistry(grader)
	fn, _ := reg.Lookup("grade_essay")

	outcome, err := fn(context.Background(), []api.TestParameter{
		{Name: "prompt", Value: "p"}, {Name: "file", Value: "missing.md"},
	}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, api.TestFail, outcome.Status)
}

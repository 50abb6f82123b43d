package templates

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
)

func htmlFile(name, body string) api.SubmissionFile {
	return api.SubmissionFile{Name: name, Content: []byte(body)}
}

func TestHasTag_Pass(t *testing.T) {
	files := []api.SubmissionFile{htmlFile("index.html", `<html><body><h1>Hi</h1><p>one</p><p>two</p></body></html>`)}
	params := []api.TestParameter{{Name: "tag", Value: "p"}, {Name: "required_count", Value: 2}}

	outcome, err := hasTag(context.Background(), params, files, nil)
	require.NoError(t, err)
	assert.Equal(t, api.TestPass, outcome.Status)
	assert.Equal(t, 100.0, outcome.Score)
}

func TestHasTag_Partial(t *testing.T) {
	files := []api.SubmissionFile{htmlFile("index.html", `<html><body><p>one</p></body></html>`)}
	params := []api.TestParameter{{Name: "tag", Value: "p"}, {Name: "required_count", Value: 4}}

	outcome, err := hasTag(context.Background(), params, files, nil)
	require.NoError(t, err)
	assert.Equal(t, api.TestPartial, outcome.Status)
	assert.InDelta(t, 25.0, outcome.Score, 0.001)
}

func TestHasTag_Fail(t *testing.T) {
	files := []api.SubmissionFile{htmlFile("index.html", `<html><body></body></html>`)}
	params := []api.TestParameter{{Name: "tag", Value: "table"}, {Name: "required_count", Value: 1}}

	outcome, err := hasTag(context.Background(), params, files, nil)
	require.NoError(t, err)
	assert.Equal(t, api.TestFail, outcome.Status)
}

func TestHasAttribute(t *testing.T) {
	files := []api.SubmissionFile{htmlFile("index.html", `<html><body><img alt="a"><img></body></html>`)}
	params := []api.TestParameter{{Name: "attribute", Value: "alt"}, {Name: "count", Value: 1}}

	outcome, err := hasAttribute(context.Background(), params, files, nil)
	require.NoError(t, err)
	assert.Equal(t, api.TestPass, outcome.Status)
}

func TestHasStyle(t *testing.T) {
	files := []api.SubmissionFile{htmlFile("style.css", `body { color: red; margin: 0; }`)}
	params := []api.TestParameter{{Name: "property", Value: "color"}, {Name: "count", Value: 1}}

	outcome, err := hasStyle(context.Background(), params, files, nil)
	require.NoError(t, err)
	assert.Equal(t, api.TestPass, outcome.Status)
}

func TestCheckBootstrapUsage(t *testing.T) {
	files := []api.SubmissionFile{htmlFile("index.html", `<link rel="stylesheet" href="bootstrap.min.css">`)}

	outcome, err := checkBootstrapUsage(context.Background(), nil, files, nil)
	require.NoError(t, err)
	assert.Equal(t, api.TestPass, outcome.Status)
}

func TestHasForbiddenTag(t *testing.T) {
	clean := []api.SubmissionFile{htmlFile("index.html", `<html><body><p>ok</p></body></html>`)}
	outcome, err := hasForbiddenTag(context.Background(), []api.TestParameter{{Name: "tag", Value: "table"}}, clean, nil)
	require.NoError(t, err)
	assert.Equal(t, api.TestPass, outcome.Status)

	dirty := []api.SubmissionFile{htmlFile("index.html", `<html><body><table></table></body></html>`)}
	outcome, err = hasForbiddenTag(context.Background(), []api.TestParameter{{Name: "tag", Value: "table"}}, dirty, nil)
	require.NoError(t, err)
	assert.Equal(t, api.TestFail, outcome.Status)
}

func TestWebdevRegistry_Lookup(t *testing.T) {
	reg := newWebdevRegistry()
	assert.False(t, reg.RequiresSandbox)
	_, ok := reg.Lookup("has_tag")
	assert.True(t, ok)
	_, ok = reg.Lookup("nonexistent")
	assert.False(t, ok)
}

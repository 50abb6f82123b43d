package templates

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
)

// newWebdevRegistry builds the webdev template (§4.4): static analysis of
// HTML/CSS/JS files via an HTML parser and text search, no sandbox.
func newWebdevRegistry() *Registry {
	return &Registry{
		TemplateName:    "webdev",
		RequiresSandbox: false,
		funcs: map[string]TestFunc{
			"has_tag":               hasTag,
			"has_attribute":         hasAttribute,
			"has_style":             hasStyle,
			"check_bootstrap_usage": checkBootstrapUsage,
			"has_forbidden_tag":     hasForbiddenTag,
		},
	}
}

// partialByCount applies the §4.4 PARTIAL rule: score = min(found,
// required)/required * 100, PASS at exactly required or more, FAIL at 0.
func partialByCount(found, required int, subject string) TestOutcome {
	if required <= 0 {
		if found > 0 {
			return TestOutcome{Status: api.TestPass, Score: 100, Report: subject + ": present"}
		}
		return TestOutcome{Status: api.TestFail, Score: 0, Report: subject + ": not found"}
	}
	if found <= 0 {
		return TestOutcome{Status: api.TestFail, Score: 0, Report: subject + ": found 0, required " + itoa(required)}
	}
	if found >= required {
		return TestOutcome{Status: api.TestPass, Score: 100, Report: subject + ": found " + itoa(found) + "/" + itoa(required)}
	}
	score := float64(found) / float64(required) * 100
	return TestOutcome{Status: api.TestPartial, Score: score, Report: subject + ": found " + itoa(found) + "/" + itoa(required)}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// parsedHTMLFiles parses every submitted .html/.htm file, skipping files
// that fail to parse rather than erroring the whole test — a malformed
// page is a student bug to be caught by has_tag returning 0, not an
// infrastructure error.
func parsedHTMLFiles(files []api.SubmissionFile, target string) []*html.Node {
	var docs []*html.Node
	for _, f := range files {
		if target != "" && f.Name != target {
			continue
		}
		if target == "" && !strings.HasSuffix(strings.ToLower(f.Name), ".html") && !strings.HasSuffix(strings.ToLower(f.Name), ".htm") {
			continue
		}
		doc, err := html.Parse(strings.NewReader(string(f.Content)))
		if err != nil {
			continue
		}
		docs = append(docs, doc)
	}
	return docs
}

func walk(n *html.Node, visit func(*html.Node)) {
	if n.Type == html.ElementNode {
		visit(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// hasTag implements has_tag(tag, required_count) (§4.4).
func hasTag(_ context.Context, params []api.TestParameter, files []api.SubmissionFile, _ Sandbox) (TestOutcome, error) {
	p := paramMap(params)
	tag := strings.ToLower(stringParam(p, "tag", ""))
	required := intParam(p, "required_count", 1)
	target := stringParam(p, "file", "")
	if tag == "" {
		return errOutcome("has_tag: missing 'tag' parameter"), nil
	}

	found := 0
	for _, doc := range parsedHTMLFiles(files, target) {
		walk(doc, func(n *html.Node) {
			if strings.ToLower(n.Data) == tag {
				found++
			}
		})
	}
	return partialByCount(found, required, "has_tag("+tag+")"), nil
}

// hasAttribute implements has_attribute(attribute, count) (§4.4).
func hasAttribute(_ context.Context, params []api.TestParameter, files []api.SubmissionFile, _ Sandbox) (TestOutcome, error) {
	p := paramMap(params)
	attribute := strings.ToLower(stringParam(p, "attribute", ""))
	required := intParam(p, "count", 1)
	target := stringParam(p, "file", "")
	if attribute == "" {
		return errOutcome("has_attribute: missing 'attribute' parameter"), nil
	}

	found := 0
	for _, doc := range parsedHTMLFiles(files, target) {
		walk(doc, func(n *html.Node) {
			if _, ok := attr(n, attribute); ok {
				found++
			}
		})
	}
	return partialByCount(found, required, "has_attribute("+attribute+")"), nil
}

// hasStyle implements has_style(property, count): counts occurrences of
// "property:" (case-insensitive) in the full text of every submitted file —
// a plain text search, not a CSS or HTML parse, matching the spec's "text
// search" framing for this template.
func hasStyle(_ context.Context, params []api.TestParameter, files []api.SubmissionFile, _ Sandbox) (TestOutcome, error) {
	p := paramMap(params)
	property := strings.ToLower(stringParam(p, "property", ""))
	required := intParam(p, "count", 1)
	if property == "" {
		return errOutcome("has_style: missing 'property' parameter"), nil
	}

	found := 0
	for _, f := range files {
		lower := strings.ToLower(string(f.Content))
		found += strings.Count(lower, property+":")
	}
	return partialByCount(found, required, "has_style("+property+")"), nil
}

// checkBootstrapUsage(required_count optional, default 1) counts the
// submitted files whose text mentions "bootstrap" (case-insensitive), which
// covers Bootstrap's CDN link/script tags and its class-name convention.
func checkBootstrapUsage(_ context.Context, params []api.TestParameter, files []api.SubmissionFile, _ Sandbox) (TestOutcome, error) {
	p := paramMap(params)
	required := intParam(p, "required_count", 1)

	found := 0
	for _, f := range files {
		lower := strings.ToLower(string(f.Content))
		if strings.Contains(lower, "bootstrap") {
			found++
		}
	}
	return partialByCount(found, required, "check_bootstrap_usage"), nil
}

// hasForbiddenTag(tag) is binary: any occurrence fails the test outright.
func hasForbiddenTag(_ context.Context, params []api.TestParameter, files []api.SubmissionFile, _ Sandbox) (TestOutcome, error) {
	p := paramMap(params)
	tag := strings.ToLower(stringParam(p, "tag", ""))
	if tag == "" {
		return errOutcome("has_forbidden_tag: missing 'tag' parameter"), nil
	}

	for _, doc := range parsedHTMLFiles(files, "") {
		forbidden := false
		walk(doc, func(n *html.Node) {
			if strings.ToLower(n.Data) == tag {
				forbidden = true
			}
		})
		if forbidden {
			return TestOutcome{Status: api.TestFail, Score: 0, Report: "forbidden tag <" + tag + "> present"}, nil
		}
	}
	return TestOutcome{Status: api.TestPass, Score: 100, Report: "forbidden tag <" + tag + "> absent"}, nil
}

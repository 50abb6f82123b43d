// Package feedback provides api.FeedbackProducer implementations for the
// FEEDBACK pipeline step (§4.1): a deterministic default formatter built on
// internal/template's sprig-powered engine, and an AI-backed producer over
// google.golang.org/genai that also implements templates.EssayGrader for
// the essay template's grade_essay test function.
package feedback

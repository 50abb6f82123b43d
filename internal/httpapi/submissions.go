package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
	"github.com/webtech-network/autograder-sub001/internal/coordinator"
)

// submissionFileWire is the wire shape of one submitted file; content is
// base64-encoded to travel safely as JSON text regardless of the
// submission's language or byte content.
type submissionFileWire struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type createSubmissionRequest struct {
	ExternalAssignmentID string                `json:"external_assignment_id"`
	ExternalUserID       string                `json:"external_user_id"`
	Username             string                `json:"username"`
	Language             string                `json:"language"`
	Files                []submissionFileWire `json:"files"`
}

type createSubmissionResponse struct {
	ID string `json:"id"`
}

// handleCreateSubmission implements POST /submissions (§6). The
// X-Gradecore-Submission-Id header, when present, becomes the
// coordinator's idempotency key so a retried request resolves to the same
// submission instead of creating a duplicate.
func (s *Server) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	var req createSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, api.NewGradingError(api.KindTreeMalformed, "invalid JSON body: "+err.Error(), nil))
		return
	}

	files := make([]api.SubmissionFile, 0, len(req.Files))
	for _, f := range req.Files {
		content, err := base64.StdEncoding.DecodeString(f.Content)
		if err != nil {
			writeError(w, api.NewGradingError(api.KindTreeMalformed, "file "+f.Filename+": content must be base64", nil))
			return
		}
		files = append(files, api.SubmissionFile{Name: f.Filename, Content: content})
	}

	id, err := s.Coordinator.Submit(r.Context(), coordinator.SubmitRequest{
		ExternalAssignmentID: req.ExternalAssignmentID,
		ExternalUserID:       req.ExternalUserID,
		Username:             req.Username,
		Language:             req.Language,
		Files:                files,
		IdempotencyKey:       r.Header.Get(api.RequestSubmissionIDHeader),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, createSubmissionResponse{ID: id})
}

// submissionResponse is the §6 GET /submissions/{id} wire shape.
type submissionResponse struct {
	ID                string                    `json:"id"`
	Status            api.SubmissionStatus      `json:"status"`
	FinalScore        float64                   `json:"final_score,omitempty"`
	ResultTree        *api.ResultTree           `json:"result_tree,omitempty"`
	Focus             *api.Focus                `json:"focus,omitempty"`
	Feedback          string                    `json:"feedback,omitempty"`
	DegradedFeedback  bool                      `json:"degraded_feedback,omitempty"`
	PipelineExecution *api.PipelineExecution    `json:"pipeline_execution,omitempty"`
}

func toSubmissionResponse(poll *coordinator.PollResult) submissionResponse {
	resp := submissionResponse{ID: poll.Submission.ID, Status: poll.Submission.Status}
	if poll.Result != nil {
		resp.FinalScore = poll.Result.FinalScore
		resp.ResultTree = poll.Result.ResultTree
		resp.Focus = poll.Result.Focus
		resp.Feedback = poll.Result.Feedback
		resp.DegradedFeedback = poll.Result.DegradedFeedback
		resp.PipelineExecution = poll.Result.PipelineExecution
	}
	return resp
}

// handleGetSubmission implements GET /submissions/{id} (§6 poll).
func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	poll, err := s.Coordinator.Poll(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubmissionResponse(poll))
}

// handleCancelSubmission implements POST /submissions/{id}/cancel
// (SPEC_FULL.md supplement surfacing §5's cancellation semantics).
func (s *Server) handleCancelSubmission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Coordinator.Cancel(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

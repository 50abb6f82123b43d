package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
)

// createConfigRequest is the POST /configs wire body (§6).
type createConfigRequest struct {
	ExternalAssignmentID string                 `json:"external_assignment_id"`
	TemplateName         string                 `json:"template_name"`
	Languages            []string               `json:"languages"`
	CriteriaConfig        map[string]interface{} `json:"criteria_config"`
	SetupConfig           map[string]interface{} `json:"setup_config"`
	ActivateImmediately   bool                   `json:"activate_immediately"`
}

type activateConfigRequest struct {
	Version int `json:"version"`
}

// handleCreateConfig implements POST /configs: validates the request
// bodies against JSON Schema, then rejects with conflict if an active
// config already exists for the assignment, unless the caller explicitly
// asked to replace it (§6 "Rejected with conflict if the assignment id
// already has an active config").
func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var req createConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, api.NewGradingError(api.KindTreeMalformed, "invalid JSON body: "+err.Error(), nil))
		return
	}
	if req.ExternalAssignmentID == "" || req.TemplateName == "" {
		writeError(w, api.NewGradingError(api.KindTreeMalformed, "external_assignment_id and template_name are required", nil))
		return
	}
	if err := validateCriteriaConfig(req.CriteriaConfig); err != nil {
		writeError(w, api.NewGradingError(api.KindTreeMalformed, err.Error(), nil))
		return
	}
	if err := validateSetupConfig(req.SetupConfig); err != nil {
		writeError(w, api.NewGradingError(api.KindTreeMalformed, err.Error(), nil))
		return
	}

	ctx := r.Context()
	if existing, err := s.Repo.ActiveConfig(ctx, req.ExternalAssignmentID); err == nil && existing != nil && !req.ActivateImmediately {
		writeError(w, api.NewGradingError(api.KindConfigMissing, "conflict: an active config already exists for "+req.ExternalAssignmentID, map[string]interface{}{"conflict": true}))
		return
	}

	cfg := &api.GradingConfig{
		ExternalAssignmentID: req.ExternalAssignmentID,
		TemplateName:         req.TemplateName,
		SupportedLanguages:   req.Languages,
		CriteriaConfig:       req.CriteriaConfig,
		SetupConfig:          req.SetupConfig,
		IsActive:             req.ActivateImmediately,
	}
	if err := s.Repo.SaveConfig(ctx, cfg); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cfg)
}

// handleGetConfig implements GET /configs/{id}, resolving {id} as the
// external_assignment_id (§6 "retrieve").
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cfg, err := s.Repo.ActiveConfig(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// handleActivateConfig implements PUT /configs/{id}/activate, flipping a
// previously saved config version back to active for re-grading/audit
// (SPEC_FULL.md supplement to §6).
func (s *Server) handleActivateConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req activateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, api.NewGradingError(api.KindTreeMalformed, "invalid JSON body: "+err.Error(), nil))
		return
	}
	if err := s.Repo.ActivateConfig(r.Context(), id, req.Version); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

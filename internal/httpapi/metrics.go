package httpapi

import (
	"net/http"

	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
)

// handleSandboxPoolStats implements GET /sandbox-pools (SPEC_FULL.md
// supplement: sandbox pool metrics for operational visibility). Errors if
// no sandbox pool was wired into the server, which is a valid
// configuration for deployments that only exercise sandbox-free templates.
func (s *Server) handleSandboxPoolStats(w http.ResponseWriter, r *http.Request) {
	if s.SandboxPool == nil {
		writeError(w, api.NewGradingError(api.KindSandboxUnavailable, "sandbox pool metrics unavailable: no pool configured", nil))
		return
	}
	writeJSON(w, http.StatusOK, s.SandboxPool.Stats())
}

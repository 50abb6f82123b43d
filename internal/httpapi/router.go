package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
	"github.com/webtech-network/autograder-sub001/internal/coordinator"
	"github.com/webtech-network/autograder-sub001/internal/sandboxrt"
)

// CoordinatorAPI is the narrow slice of *coordinator.Coordinator the HTTP
// adapter needs, declared here so handlers can be tested against a fake
// without pulling in the sandbox pool or pipeline engine.
type CoordinatorAPI interface {
	Submit(ctx context.Context, req coordinator.SubmitRequest) (string, error)
	Poll(ctx context.Context, id string) (*coordinator.PollResult, error)
	Cancel(ctx context.Context, id string) error
}

// SandboxStatsProvider is the narrow slice of *sandboxrt.Pool the metrics
// route needs (SPEC_FULL.md supplement: sandbox pool metrics).
type SandboxStatsProvider interface {
	Stats() map[string]sandboxrt.LanguagePoolStats
}

// Server is the thin Submission API adapter (§6): chi for routing, JSON
// Schema for request validation, translating every route directly into a
// Repo or Coordinator call with no business logic of its own.
type Server struct {
	Repo        api.Repository
	Coordinator CoordinatorAPI
	SandboxPool SandboxStatsProvider

	mux *chi.Mux
}

// NewServer builds the router and registers every route.
func NewServer(repo api.Repository, coord CoordinatorAPI) *Server {
	s := &Server{Repo: repo, Coordinator: coord, mux: chi.NewRouter()}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.Use(chimiddleware.Recoverer)
	s.mux.Use(chimiddleware.RequestID)
	s.mux.Use(requestTimeout(30 * time.Second))
	s.mux.Use(chimiddleware.Heartbeat("/healthz"))

	s.mux.Route("/configs", func(r chi.Router) {
		r.Post("/", s.handleCreateConfig)
		r.Get("/{id}", s.handleGetConfig)
		r.Put("/{id}/activate", s.handleActivateConfig)
	})

	s.mux.Route("/submissions", func(r chi.Router) {
		r.Post("/", s.handleCreateSubmission)
		r.Get("/{id}", s.handleGetSubmission)
		r.Post("/{id}/cancel", s.handleCancelSubmission)
		r.Get("/{id}/stream", s.handleStreamSubmission)
	})

	s.mux.Get("/sandbox-pools", s.handleSandboxPoolStats)
}

// requestTimeout mirrors chimiddleware.Timeout but skips the websocket
// stream endpoint, whose connections are meant to outlive a single request
// timeout budget.
func requestTimeout(d time.Duration) func(http.Handler) http.Handler {
	timeoutMW := chimiddleware.Timeout(d)
	return func(next http.Handler) http.Handler {
		wrapped := timeoutMW(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(r.URL.Path) > len("/stream") && r.URL.Path[len(r.URL.Path)-len("/stream"):] == "/stream" {
				next.ServeHTTP(w, r)
				return
			}
			wrapped.ServeHTTP(w, r)
		})
	}
}

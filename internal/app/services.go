package app

import (
	"context"
	"fmt"

	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
	"github.com/webtech-network/autograder-sub001/internal/config"
	"github.com/webtech-network/autograder-sub001/internal/coordinator"
	"github.com/webtech-network/autograder-sub001/internal/feedback"
	"github.com/webtech-network/autograder-sub001/internal/httpapi"
	"github.com/webtech-network/autograder-sub001/internal/pipeline"
	"github.com/webtech-network/autograder-sub001/internal/repository"
	"github.com/webtech-network/autograder-sub001/internal/sandboxrt"
	"github.com/webtech-network/autograder-sub001/internal/templates"
	"github.com/webtech-network/autograder-sub001/pkg/logging"
)

// Services holds every long-lived component InitializeServices wires
// together: the persistence backend, the sandbox pool, and the HTTP
// adapter that fronts the coordinator (§1's three core subsystems plus
// their external collaborators).
type Services struct {
	ServiceConfig config.ServiceConfig

	Repo        api.Repository
	SandboxPool *sandboxrt.Pool
	Coordinator *coordinator.Coordinator
	HTTPHandler *httpapi.Server

	// sqliteCloser is non-nil when Repo is backed by sqlite3, so Shutdown
	// can close the underlying database handle.
	sqliteCloser interface{ Close() error }

	// configWatcher hot-reloads the sandbox pool's per-language topology
	// when config.yaml changes on disk; nil if starting the watch failed
	// (treated as non-fatal — the service still runs on the config loaded
	// at startup).
	configWatcher *config.Watcher

	// dispatchQueue is non-nil when the coordinator's executor is fed by a
	// shared Redis list instead of dispatching purely in-process; stopDispatchWorker
	// cancels its drain loop on Shutdown.
	dispatchQueue      *coordinator.RedisQueue
	stopDispatchWorker context.CancelFunc
}

// InitializeServices loads config.ServiceConfig and constructs every
// component the grading service needs to start serving submissions:
// repository, template registry, feedback producer, sandbox pool,
// pipeline engine, coordinator, and HTTP router (§4, §6).
func InitializeServices(cfg *Config) (*Services, error) {
	svcCfg, err := config.LoadConfig(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading service configuration: %w", err)
	}

	repo, sqliteCloser, err := buildRepository(svcCfg.Repository)
	if err != nil {
		return nil, fmt.Errorf("building repository: %w", err)
	}

	essayGrader, feedbackProducer, err := buildFeedback(svcCfg.Feedback)
	if err != nil {
		return nil, fmt.Errorf("building feedback producer: %w", err)
	}
	templateSet := templates.NewBuiltinSet(essayGrader)

	pool, err := buildSandboxPool(svcCfg.SandboxPools)
	if err != nil {
		return nil, fmt.Errorf("building sandbox pool: %w", err)
	}
	if err := pool.Initialize(context.Background()); err != nil {
		return nil, fmt.Errorf("pre-warming sandbox pool: %w", err)
	}

	engine := &pipeline.Engine{
		Repo:             repo,
		Templates:        templateSet,
		SandboxPool:      pool,
		FeedbackProducer: feedbackProducer,
	}

	maxConcurrent := svcCfg.MaxConcurrentPipelines
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	coord := coordinator.New(repo, engine, maxConcurrent)

	server := httpapi.NewServer(repo, coord)
	server.SandboxPool = pool

	svc := &Services{
		ServiceConfig: svcCfg,
		Repo:          repo,
		SandboxPool:   pool,
		Coordinator:   coord,
		HTTPHandler:   server,
		sqliteCloser:  sqliteCloser,
	}

	if svcCfg.DispatchQueue.Addr != "" {
		queue := coordinator.NewRedisQueue(svcCfg.DispatchQueue.Addr, svcCfg.DispatchQueue.Key)
		coord.SetQueue(queue)
		svc.dispatchQueue = queue

		workerCtx, cancel := context.WithCancel(context.Background())
		svc.stopDispatchWorker = cancel
		go coord.RunDispatchWorker(workerCtx)
		logging.Info("Bootstrap", "dispatching submissions via shared Redis queue at %s", svcCfg.DispatchQueue.Addr)
	}

	watcher := config.NewWatcher(cfg.ConfigPath, 0)
	if err := watcher.Start(context.Background(), svc.reloadSandboxPools); err != nil {
		logging.Error("Bootstrap", err, "config hot-reload disabled: failed to watch config.yaml")
	} else {
		svc.configWatcher = watcher
	}

	return svc, nil
}

// reloadSandboxPools is the config.Watcher callback (SPEC_FULL.md
// supplement: hot-reload of sandbox pool config). Only sandbox_pools is
// re-applied live; other sections (repository driver, feedback provider)
// require a restart since swapping them would orphan in-flight
// submissions.
func (s *Services) reloadSandboxPools(cfg config.ServiceConfig, err error) {
	if err != nil {
		logging.Error("Bootstrap", err, "config.yaml reload failed, keeping previous sandbox pool config")
		return
	}
	langConfig := toLanguageConfig(cfg.SandboxPools)
	if rerr := s.SandboxPool.Reconfigure(context.Background(), langConfig); rerr != nil {
		logging.Error("Bootstrap", rerr, "applying reloaded sandbox pool config")
		return
	}
	logging.Info("Bootstrap", "applied reloaded sandbox pool config for %d language(s)", len(langConfig))
}

// buildRepository selects the persistence backend by driver name (§6
// "representation-agnostic"). sqlite3 returns its own Close so Shutdown
// can release the file handle; memory has nothing to close.
func buildRepository(cfg config.RepositoryConfig) (api.Repository, interface{ Close() error }, error) {
	switch cfg.Driver {
	case "sqlite3":
		db, err := repository.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	case "memory", "":
		return repository.NewMemory(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown repository driver %q", cfg.Driver)
	}
}

// buildFeedback constructs the configured FeedbackProducer (§4.1 FEEDBACK,
// §7 feedback_failed). When provider is "ai", the same client also backs
// the essay template's AI grading (§4.4). "none" disables FEEDBACK and
// FOCUS entirely (both steps are skipped when FeedbackProducer is nil).
func buildFeedback(cfg config.FeedbackConfig) (templates.EssayGrader, api.FeedbackProducer, error) {
	switch cfg.Provider {
	case "ai":
		model := cfg.AIModel
		if model == "" {
			model = "gemini-2.5-flash-lite"
		}
		ai, err := feedback.NewAI(context.Background(), cfg.AIAPIKey, model)
		if err != nil {
			return nil, nil, fmt.Errorf("initializing AI feedback client: %w", err)
		}
		return ai, ai, nil
	case "default", "":
		return nil, feedback.NewDefault(), nil
	case "none":
		return nil, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown feedback provider %q", cfg.Provider)
	}
}

// buildSandboxPool translates the per-language pool configuration into
// sandboxrt.LanguageConfig entries and constructs the pool's container
// runtime (§4.5, §9 "process-wide sandbox pool").
func buildSandboxPool(pools map[string]config.LanguagePoolConfig) (*sandboxrt.Pool, error) {
	runtime, err := sandboxrt.NewContainerRuntime("docker")
	if err != nil {
		return nil, err
	}
	return sandboxrt.NewPool(runtime, toLanguageConfig(pools)), nil
}

// toLanguageConfig translates the config-file shape of sandbox_pools into
// sandboxrt.LanguageConfig, shared by the initial build and every
// subsequent hot-reload.
func toLanguageConfig(pools map[string]config.LanguagePoolConfig) map[string]sandboxrt.LanguageConfig {
	langConfig := make(map[string]sandboxrt.LanguageConfig, len(pools))
	for lang, p := range pools {
		langConfig[lang] = sandboxrt.LanguageConfig{
			Image:               p.Image,
			PoolSize:            p.PoolSize,
			WorkingDir:          p.WorkingDir,
			RemoteAgentEndpoint: p.RemoteAgentEndpoint,
		}
	}
	return langConfig
}

// Shutdown releases every long-lived resource Services owns, in reverse
// dependency order: sandbox pool containers first, then the repository
// connection (§4.5 shutdown, §4.1 "released on every exit path").
func (s *Services) Shutdown(ctx context.Context) {
	if s.configWatcher != nil {
		s.configWatcher.Stop()
	}
	if s.stopDispatchWorker != nil {
		s.stopDispatchWorker()
	}
	if s.dispatchQueue != nil {
		if err := s.dispatchQueue.Close(); err != nil {
			logging.Error("Bootstrap", err, "dispatch queue close failed")
		}
	}
	if s.SandboxPool != nil {
		if err := s.SandboxPool.Shutdown(ctx); err != nil {
			logging.Error("Bootstrap", err, "sandbox pool shutdown failed")
		}
	}
	if s.sqliteCloser != nil {
		if err := s.sqliteCloser.Close(); err != nil {
			logging.Error("Bootstrap", err, "repository close failed")
		}
	}
}

package sandboxrt

import (
	"context"
	"fmt"
	"sync"
	"time"

	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
	"github.com/webtech-network/autograder-sub001/internal/templates"
	"github.com/webtech-network/autograder-sub001/pkg/logging"
)

const poolSubsystem = "SandboxPool"

// LanguageConfig is one entry of the §4.5 "map language_tag → {image,
// pool_size, working_dir}" configuration. A non-empty RemoteAgentEndpoint
// switches the language into remote-proxy mode: acquire/run/mapped_port are
// proxied to that agent instead of driving local containers.
type LanguageConfig struct {
	Image               string
	PoolSize            int
	WorkingDir          string
	RemoteAgentEndpoint string
}

// Pool is the sandbox pool manager (§4.5): it owns every container created
// for a language, hands idle ones out via Acquire, and sanitizes or
// destroys them on Release. All state transitions happen under mu, the
// "single manager lock" the concurrency model calls for (§5).
type Pool struct {
	runtime ContainerRuntime
	config  map[string]LanguageConfig

	mu      sync.Mutex
	idle    map[string][]*dockerSandbox
	inUse   map[string]*dockerSandbox // containerID -> handle
	created map[string]int            // language -> total containers ever created
	closed  bool
}

// NewPool constructs a Pool bound to runtime and config. Call Initialize
// before serving Acquire calls.
func NewPool(runtime ContainerRuntime, config map[string]LanguageConfig) *Pool {
	p := &Pool{
		runtime: runtime,
		config:  config,
		idle:    make(map[string][]*dockerSandbox),
		inUse:   make(map[string]*dockerSandbox),
		created: make(map[string]int),
	}
	return p
}

// Initialize pre-warms each language's pool to its configured size
// (§4.5 initialize).
func (p *Pool) Initialize(ctx context.Context) error {
	for lang, cfg := range p.config {
		if cfg.RemoteAgentEndpoint != "" {
			continue
		}
		if err := p.runtime.PullImage(ctx, cfg.Image); err != nil {
			return fmt.Errorf("pre-warming %s pool: %w", lang, err)
		}
		for i := 0; i < cfg.PoolSize; i++ {
			sbx, err := p.startContainer(ctx, lang, cfg)
			if err != nil {
				return fmt.Errorf("pre-warming %s pool: %w", lang, err)
			}
			p.idle[lang] = append(p.idle[lang], sbx)
		}
		logging.Info(poolSubsystem, "pre-warmed %d sandboxes for %s", cfg.PoolSize, lang)
	}
	return nil
}

func (p *Pool) startContainer(ctx context.Context, lang string, cfg LanguageConfig) (*dockerSandbox, error) {
	name := fmt.Sprintf("gradecore-%s-%d", lang, p.created[lang])
	id, err := p.runtime.StartContainer(ctx, ContainerConfig{
		Name:  name,
		Image: cfg.Image,
		User:  "nobody",
	})
	if err != nil {
		return nil, err
	}
	p.created[lang]++
	return &dockerSandbox{
		runtime:    p.runtime,
		containerID: id,
		workingDir: cfg.WorkingDir,
		language:   lang,
	}, nil
}

// Acquire blocks, bounded by deadline, until an idle sandbox for language is
// available (§4.5 acquire). In remote-proxy mode it instead polls the
// configured agent's readiness.
func (p *Pool) Acquire(ctx context.Context, language string, deadline time.Time) (templates.Sandbox, error) {
	cfg, ok := p.config[language]
	if !ok {
		return nil, api.NewGradingError(api.KindSandboxUnavailable, fmt.Sprintf("no sandbox pool configured for language %q", language), nil)
	}
	if cfg.RemoteAgentEndpoint != "" {
		return acquireRemote(ctx, language, cfg.RemoteAgentEndpoint, deadline)
	}

	p.mu.Lock()
	for {
		if p.closed {
			p.mu.Unlock()
			return nil, api.NewGradingError(api.KindSandboxUnavailable, "sandbox pool is shutting down", nil)
		}
		if queue := p.idle[language]; len(queue) > 0 {
			sbx := queue[len(queue)-1]
			p.idle[language] = queue[:len(queue)-1]
			p.mu.Unlock()

			if !p.healthy(ctx, sbx) {
				p.retireDead(ctx, language, cfg, sbx)
				p.mu.Lock()
				continue
			}

			p.mu.Lock()
			p.inUse[sbx.containerID] = sbx
			p.mu.Unlock()
			return sbx, nil
		}
		if time.Now().After(deadline) {
			p.mu.Unlock()
			return nil, api.NewGradingError(api.KindSandboxUnavailable, fmt.Sprintf("no idle %s sandbox before deadline", language), nil)
		}
		if ctx.Err() != nil {
			p.mu.Unlock()
			return nil, api.NewGradingError(api.KindCancelled, "acquire cancelled", nil)
		}
		p.mu.Unlock()
		time.Sleep(minDuration(25*time.Millisecond, time.Until(deadline)))
		p.mu.Lock()
	}
}

// healthy reports whether an idle sandbox's container is still running,
// guarding against one that died silently (OOM kill, host reclaim) between
// Release and the next Acquire.
func (p *Pool) healthy(ctx context.Context, sbx *dockerSandbox) bool {
	running, err := p.runtime.IsContainerRunning(ctx, sbx.containerID)
	if err != nil {
		logging.Error(poolSubsystem, err, "health check failed for %s sandbox %s, treating as unhealthy", sbx.language, shortID(sbx.containerID))
		return false
	}
	return running
}

// retireDead replaces a sandbox Acquire found unhealthy: its last logs are
// captured for diagnostics, then it is stopped, removed, and replaced so the
// pool's configured size is restored.
func (p *Pool) retireDead(ctx context.Context, language string, cfg LanguageConfig, sbx *dockerSandbox) {
	logging.Error(poolSubsystem, fmt.Errorf("container not running"), "retiring unhealthy %s sandbox %s", language, shortID(sbx.containerID))
	p.logDeadContainer(ctx, sbx)

	if err := p.runtime.StopContainer(ctx, sbx.containerID); err != nil {
		logging.Debug(poolSubsystem, "stopping unhealthy %s sandbox %s: %v", language, shortID(sbx.containerID), err)
	}
	if err := p.runtime.RemoveContainer(ctx, sbx.containerID); err != nil {
		logging.Error(poolSubsystem, err, "removing unhealthy %s sandbox %s", language, shortID(sbx.containerID))
	}

	replacement, err := p.startContainer(ctx, language, cfg)
	if err != nil {
		logging.Error(poolSubsystem, err, "failed to replace unhealthy %s sandbox", language)
		return
	}
	p.mu.Lock()
	p.idle[language] = append(p.idle[language], replacement)
	p.mu.Unlock()
}

// logDeadContainer best-effort captures an unhealthy container's last
// reported port from its logs, for operators correlating a health-check
// retirement with which student workload was running on it.
func (p *Pool) logDeadContainer(ctx context.Context, sbx *dockerSandbox) {
	logs, err := p.runtime.GetContainerLogs(ctx, sbx.containerID)
	if err != nil || logs == nil {
		return
	}
	defer logs.Close()
	if port, err := parseContainerLogsJSON(logs); err == nil {
		logging.Debug(poolSubsystem, "unhealthy %s sandbox %s last reported port %d", sbx.language, shortID(sbx.containerID), port)
	}
}

func minDuration(a, b time.Duration) time.Duration {
	if b <= 0 {
		return b
	}
	if a < b {
		return a
	}
	return b
}

// InjectFiles atomically places the submission's files into the sandbox's
// working directory (§4.5 inject_files).
func (p *Pool) InjectFiles(ctx context.Context, sbx templates.Sandbox, files []api.SubmissionFile) error {
	d, ok := sbx.(*dockerSandbox)
	if !ok {
		return fmt.Errorf("InjectFiles: sandbox is not a local container handle")
	}
	for _, f := range files {
		dir := "."
		script := fmt.Sprintf("mkdir -p %q && cat > %q", dir, f.Name)
		if _, stderr, exitCode, err := p.runtime.ExecInContainer(ctx, d.containerID, d.workingDir, script, string(f.Content)); err != nil {
			return fmt.Errorf("injecting %s: %w", f.Name, err)
		} else if exitCode != 0 {
			return fmt.Errorf("injecting %s: exit %d: %s", f.Name, exitCode, stderr)
		}
	}
	return nil
}

// Release sanitizes the sandbox and returns it to the pool as idle. If the
// language already has its configured pool_size of sandboxes idle or in
// use (because Reconfigure shrank it), the sandbox is destroyed instead. If
// sanitization fails, the sandbox is destroyed and a replacement is started
// in its place (§4.5 release).
func (p *Pool) Release(ctx context.Context, sbx templates.Sandbox) error {
	if remote, ok := sbx.(*remoteSandbox); ok {
		return remote.release(ctx)
	}
	d, ok := sbx.(*dockerSandbox)
	if !ok {
		return fmt.Errorf("Release: unrecognized sandbox handle")
	}

	_, _, exitCode, err := p.runtime.ExecInContainer(ctx, d.containerID, d.workingDir,
		"rm -rf -- ./* ./.[!.]* 2>/dev/null; pkill -9 -u nobody 2>/dev/null; true", "")

	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inUse, d.containerID)

	if cfg := p.config[d.language]; len(p.idle[d.language])+countInUse(p.inUse, d.language) >= cfg.PoolSize {
		_ = p.runtime.RemoveContainer(context.Background(), d.containerID)
		return nil
	}

	if err != nil || exitCode != 0 {
		logging.Error(poolSubsystem, err, "sanitizing %s sandbox %s failed, destroying", d.language, shortID(d.containerID))
		_ = p.runtime.RemoveContainer(context.Background(), d.containerID)
		cfg := p.config[d.language]
		replacement, rerr := p.startContainer(ctx, d.language, cfg)
		if rerr != nil {
			logging.Error(poolSubsystem, rerr, "failed to create replacement %s sandbox", d.language)
			return rerr
		}
		p.idle[d.language] = append(p.idle[d.language], replacement)
		return nil
	}

	p.idle[d.language] = append(p.idle[d.language], d)
	return nil
}

// LanguagePoolStats is one language's occupancy snapshot (SPEC_FULL.md
// supplement: sandbox pool metrics for operational visibility).
type LanguagePoolStats struct {
	Idle      int
	InUse     int
	Destroyed int
}

// Stats returns a per-language occupancy snapshot. Destroyed counts every
// sandbox ever created minus those still idle or in use, i.e. ones the pool
// has removed: after a failed Release sanitization, a failed health check,
// or a reduced pool size.
func (p *Pool) Stats() map[string]LanguagePoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := make(map[string]LanguagePoolStats, len(p.config))
	for lang := range p.config {
		idle := len(p.idle[lang])
		inUse := 0
		for _, sbx := range p.inUse {
			if sbx.language == lang {
				inUse++
			}
		}
		stats[lang] = LanguagePoolStats{
			Idle:      idle,
			InUse:     inUse,
			Destroyed: p.created[lang] - idle - inUse,
		}
	}
	return stats
}

// Reconfigure applies a freshly loaded set of LanguageConfig entries to a
// running pool (SPEC_FULL.md supplement: hot-reload of sandbox pool config
// via internal/config.Watcher). A language whose pool_size grew is topped
// up with freshly started containers; one whose pool_size shrank has idle
// containers destroyed down to the new target. In-use sandboxes are never
// touched — they drain back to their new target size on their next
// Release. Remote-proxy languages and newly added/removed languages simply
// replace their config entry, since remote mode has no local containers to
// resize.
func (p *Pool) Reconfigure(ctx context.Context, newConfig map[string]LanguageConfig) error {
	for lang, cfg := range newConfig {
		p.mu.Lock()
		old, existed := p.config[lang]
		p.config[lang] = cfg
		if cfg.RemoteAgentEndpoint != "" || (existed && old.RemoteAgentEndpoint != "") {
			p.mu.Unlock()
			continue
		}
		current := len(p.idle[lang]) + countInUse(p.inUse, lang)
		p.mu.Unlock()

		switch {
		case cfg.PoolSize > current:
			if err := p.growLanguage(ctx, lang, cfg, cfg.PoolSize-current); err != nil {
				return fmt.Errorf("growing %s pool to %d: %w", lang, cfg.PoolSize, err)
			}
		case cfg.PoolSize < current:
			p.shrinkLanguage(ctx, lang, current-cfg.PoolSize)
		}
		logging.Info(poolSubsystem, "reconfigured %s pool to size %d", lang, cfg.PoolSize)
	}
	return nil
}

func countInUse(inUse map[string]*dockerSandbox, lang string) int {
	n := 0
	for _, sbx := range inUse {
		if sbx.language == lang {
			n++
		}
	}
	return n
}

func (p *Pool) growLanguage(ctx context.Context, lang string, cfg LanguageConfig, n int) error {
	if err := p.runtime.PullImage(ctx, cfg.Image); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		sbx, err := p.startContainer(ctx, lang, cfg)
		if err != nil {
			return err
		}
		p.mu.Lock()
		p.idle[lang] = append(p.idle[lang], sbx)
		p.mu.Unlock()
	}
	return nil
}

// shrinkLanguage destroys up to n idle containers for lang. If fewer than n
// are idle (the rest in use), those drain naturally as Release stops
// returning them to idle once the pool is back at its target size.
func (p *Pool) shrinkLanguage(ctx context.Context, lang string, n int) {
	p.mu.Lock()
	queue := p.idle[lang]
	take := n
	if take > len(queue) {
		take = len(queue)
	}
	toRemove := append([]*dockerSandbox(nil), queue[:take]...)
	p.idle[lang] = queue[take:]
	p.mu.Unlock()

	for _, sbx := range toRemove {
		if err := p.runtime.RemoveContainer(ctx, sbx.containerID); err != nil {
			logging.Error(poolSubsystem, err, "removing excess %s sandbox %s during reconfigure", lang, shortID(sbx.containerID))
		}
	}
}

// Shutdown destroys all managed environments (§4.5 shutdown).
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	all := make([]*dockerSandbox, 0)
	for _, q := range p.idle {
		all = append(all, q...)
	}
	for _, sbx := range p.inUse {
		all = append(all, sbx)
	}
	p.idle = make(map[string][]*dockerSandbox)
	p.inUse = make(map[string]*dockerSandbox)
	p.mu.Unlock()

	var firstErr error
	for _, sbx := range all {
		if err := p.runtime.RemoveContainer(ctx, sbx.containerID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

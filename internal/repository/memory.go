package repository

import (
	"context"
	"sync"

	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
)

// Memory is an in-memory api.Repository, suitable for tests and single-
// process deployments that don't need durability across restarts.
type Memory struct {
	mu sync.RWMutex

	// activeConfigs and allConfigs both key by ExternalAssignmentID;
	// allConfigs holds every version ever saved, activeConfigs only the
	// one currently serving grading requests (§6 "conflict" / version
	// history).
	activeConfigs map[string]*api.GradingConfig
	allConfigs    map[string][]*api.GradingConfig

	submissions map[string]*api.Submission
	results     map[string]*api.SubmissionResult
}

// NewMemory constructs an empty Memory repository.
func NewMemory() *Memory {
	return &Memory{
		activeConfigs: make(map[string]*api.GradingConfig),
		allConfigs:    make(map[string][]*api.GradingConfig),
		submissions:   make(map[string]*api.Submission),
		results:       make(map[string]*api.SubmissionResult),
	}
}

func (m *Memory) SaveConfig(ctx context.Context, cfg *api.GradingConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	versions := m.allConfigs[cfg.ExternalAssignmentID]
	cfg.Version = len(versions) + 1
	cp := *cfg
	m.allConfigs[cfg.ExternalAssignmentID] = append(versions, &cp)

	if cfg.IsActive || m.activeConfigs[cfg.ExternalAssignmentID] == nil {
		active := cp
		active.IsActive = true
		m.activeConfigs[cfg.ExternalAssignmentID] = &active
	}
	cfg.Version = cp.Version
	return nil
}

func (m *Memory) ActiveConfig(ctx context.Context, externalAssignmentID string) (*api.GradingConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.activeConfigs[externalAssignmentID]
	if !ok {
		return nil, api.NewGradingError(api.KindConfigMissing, "no active config for "+externalAssignmentID, nil)
	}
	cp := *cfg
	return &cp, nil
}

func (m *Memory) ActivateConfig(ctx context.Context, externalAssignmentID string, version int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cfg := range m.allConfigs[externalAssignmentID] {
		if cfg.Version == version {
			active := *cfg
			active.IsActive = true
			m.activeConfigs[externalAssignmentID] = &active
			return nil
		}
	}
	return api.NewGradingError(api.KindConfigMissing, "no such config version", map[string]interface{}{"version": version})
}

func (m *Memory) SaveSubmission(ctx context.Context, sub *api.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sub
	m.submissions[sub.ID] = &cp
	return nil
}

func (m *Memory) Submission(ctx context.Context, id string) (*api.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub, ok := m.submissions[id]
	if !ok {
		return nil, api.NewGradingError(api.KindInternalError, "submission not found: "+id, nil)
	}
	cp := *sub
	return &cp, nil
}

func (m *Memory) UpdateSubmissionStatus(ctx context.Context, id string, status api.SubmissionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.submissions[id]
	if !ok {
		return api.NewGradingError(api.KindInternalError, "submission not found: "+id, nil)
	}
	sub.Status = status
	return nil
}

func (m *Memory) SaveResult(ctx context.Context, result *api.SubmissionResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *result
	m.results[result.SubmissionID] = &cp
	return nil
}

func (m *Memory) Result(ctx context.Context, submissionID string) (*api.SubmissionResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result, ok := m.results[submissionID]
	if !ok {
		return nil, api.NewGradingError(api.KindInternalError, "result not found: "+submissionID, nil)
	}
	cp := *result
	return &cp, nil
}

var _ api.Repository = (*Memory)(nil)

package runner

import (
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Manager tracks every in-flight task run so a caller can wait for or
// forcibly stop them together, keyed by task id (PTYs are resized and
// written to by task id).
type Manager struct {
	runner *Runner
	logger hclog.Logger

	mu      sync.Mutex
	done    bool
	running map[string]struct{}
}

// NewManager wraps a Runner with run-tracking.
func NewManager(runner *Runner, logger hclog.Logger) *Manager {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Manager{runner: runner, logger: logger, running: make(map[string]struct{})}
}

// ErrManagerClosing is returned by Run when the manager is shutting down.
type ErrManagerClosing struct{ TaskID string }

func (e *ErrManagerClosing) Error() string {
	return "runner: manager is closing, refusing to start " + e.TaskID
}

// Run starts spec's task if the manager isn't closing, tracking it for the
// duration of execution.
func (m *Manager) Run(spec Spec, onOutput OutputFunc) Result {
	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		return Result{TaskID: spec.TaskID, ExitCode: syntheticSpawnFailureCode, Err: &ErrManagerClosing{TaskID: spec.TaskID}}
	}
	m.running[spec.TaskID] = struct{}{}
	m.mu.Unlock()

	result := m.runner.Run(spec, onOutput)

	m.mu.Lock()
	delete(m.running, spec.TaskID)
	m.mu.Unlock()
	return result
}

// Close marks the manager as closing; tasks already running are allowed to
// finish naturally (PTY processes here are short-lived build/test/lint
// commands, not long-running servers, so there is no kill-signal escalation
// to perform).
func (m *Manager) Close() {
	m.mu.Lock()
	m.done = true
	m.mu.Unlock()
}

// Package runner spawns task commands under a PTY, captures their
// output for both the TUI and a log file, and reports completion so the
// caller can drive the artifact cache.
package runner

import (
	"time"

	"github.com/nxnative/core/internal/env"
)

// Spec describes a single task invocation.
type Spec struct {
	TaskID  string
	Command string
	Args    []string
	Dir     string
	Env     env.EnvironmentVariableMap
	Rows    uint16
	Cols    uint16
}

// OutputFunc receives raw bytes read from a task's PTY as they arrive.
// Writers must not retain the slice past the call.
type OutputFunc func(taskID string, chunk []byte)

// Result is what a completed (or failed-to-start) task run reports back.
type Result struct {
	TaskID   string
	ExitCode int
	Err      error
	Duration time.Duration
}

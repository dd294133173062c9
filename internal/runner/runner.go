package runner

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/hashicorp/go-hclog"
)

// Runner spawns task commands under a PTY and fans their output out to a
// per-task log file and an optional live callback (typically the TUI's
// PtyInstance).
type Runner struct {
	logDir string
	logger hclog.Logger

	mu       sync.Mutex
	children map[string]*os.File
}

// New builds a Runner that writes per-task replay logs under logDir.
func New(logDir string, logger hclog.Logger) *Runner {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Runner{
		logDir:   logDir,
		logger:   logger,
		children: make(map[string]*os.File),
	}
}

// LogPath returns the replay log file path for a task id.
func (r *Runner) LogPath(taskID string) string {
	return filepath.Join(r.logDir, filepath.FromSlash(taskID)+".log")
}

// Run starts spec's command under a PTY sized Rows x Cols, streams its
// combined stdout/stderr to onOutput as it arrives and to the task's log
// file, and blocks until the process exits. A non-zero exit code is
// reported in Result, not as an error; Err is reserved for spawn
// failures, which report a synthetic exit code.
func (r *Runner) Run(spec Spec, onOutput OutputFunc) Result {
	start := time.Now()

	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env.ToPairs()

	size := &pty.Winsize{Rows: spec.Rows, Cols: spec.Cols}
	if size.Rows == 0 {
		size.Rows = 24
	}
	if size.Cols == 0 {
		size.Cols = 80
	}

	ptmx, err := pty.StartWithSize(cmd, size)
	if err != nil {
		r.logger.Error("pty spawn failed", "task", spec.TaskID, "error", err)
		return Result{TaskID: spec.TaskID, ExitCode: syntheticSpawnFailureCode, Err: err, Duration: time.Since(start)}
	}

	r.mu.Lock()
	r.children[spec.TaskID] = ptmx
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.children, spec.TaskID)
		r.mu.Unlock()
	}()

	logFile, logErr := r.openLog(spec.TaskID)
	if logErr != nil {
		r.logger.Warn("could not open replay log", "task", spec.TaskID, "error", logErr)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.pump(ptmx, logFile, spec.TaskID, onOutput)
	}()

	waitErr := cmd.Wait()
	_ = ptmx.Close()
	wg.Wait()
	if logFile != nil {
		_ = logFile.Close()
	}

	exitCode := 0
	if waitErr != nil {
		exitCode = exitCodeFrom(waitErr)
	}

	return Result{TaskID: spec.TaskID, ExitCode: exitCode, Duration: time.Since(start)}
}

// Resize propagates a pane size change to a running task's PTY.
func (r *Runner) Resize(taskID string, rows uint16, cols uint16) error {
	r.mu.Lock()
	ptmx, ok := r.children[taskID]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("runner: no active pty for task %s", taskID)
	}
	return pty.Setsize(ptmx, &pty.Winsize{Rows: rows, Cols: cols})
}

// Write forwards interactive keystrokes to a running task's PTY.
func (r *Runner) Write(taskID string, data []byte) error {
	r.mu.Lock()
	ptmx, ok := r.children[taskID]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("runner: no active pty for task %s", taskID)
	}
	_, err := ptmx.Write(data)
	return err
}

func (r *Runner) openLog(taskID string) (*os.File, error) {
	if r.logDir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(r.logDir, 0775); err != nil {
		return nil, err
	}
	return os.Create(r.LogPath(taskID))
}

func (r *Runner) pump(src io.Reader, logFile *os.File, taskID string, onOutput OutputFunc) {
	var bufWriter *bufio.Writer
	if logFile != nil {
		bufWriter = bufio.NewWriter(logFile)
		defer bufWriter.Flush()
	}

	buf := make([]byte, 4096)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if onOutput != nil {
				onOutput(taskID, chunk)
			}
			if bufWriter != nil {
				_, _ = bufWriter.Write(chunk)
			}
		}
		if err != nil {
			return
		}
	}
}

// syntheticSpawnFailureCode is the exit code reported when the PTY never
// started, so a spawn failure still surfaces as a task failure.
const syntheticSpawnFailureCode = -1

func exitCodeFrom(err error) int {
	if exitErr, ok := err.(*exec.ExitError); ok {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			return status.ExitStatus()
		}
		return syntheticSpawnFailureCode
	}
	return syntheticSpawnFailureCode
}

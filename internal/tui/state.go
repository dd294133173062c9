package tui

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DoneCallback runs once the TUI has decided to quit naturally.
type DoneCallback func()

// ForcedShutdownCallback runs when TuiState.ForceShutdown is called, as
// on Ctrl-C.
type ForcedShutdownCallback func()

// ConsoleMessenger receives out-of-band notices (e.g. "run cancelled by
// user") the UI wants surfaced outside its own rendering.
type ConsoleMessenger interface {
	Notify(message string)
}

// UIPersistence carries the pieces of UI state that must survive a
// full-screen <-> inline mode switch: pane assignments, focus, selection,
// filter text, and batch expansion.
type UIPersistence struct {
	PaneAssignment map[string]int // taskID -> pane index (0 or 1)
	FocusedPane    int
	SelectedID     string
	FilterText     string
	FilterLocked   bool
	ExpandedBatch  map[string]bool
}

func newUIPersistence() UIPersistence {
	return UIPersistence{
		PaneAssignment: make(map[string]int),
		ExpandedBatch:  make(map[string]bool),
	}
}

// TuiState is the single source of truth for the run's display state,
// shared behind a mutex between the runner thread(s) and whichever
// presentation mode (full-screen or inline) is currently active.
type TuiState struct {
	mu sync.Mutex

	tasks       map[string]*Task
	order       []string // insertion order, for stable sort ties
	statuses    map[string]TaskStatus
	timings     map[string]TimingInfo
	dependsOn   map[string][]string // task graph: taskID -> its dependencies
	initiating  map[string]bool
	ptys        map[string]*PtyInstance
	batches     map[string]*Batch
	pinned      map[string]bool

	mode       RunMode
	title      string
	persist    UIPersistence

	quitAt         *time.Time
	forcedShutdown bool
	userInteracted bool

	done            DoneCallback
	forcedShutdownC ForcedShutdownCallback
	messenger       ConsoleMessenger
}

// NewState builds an empty TuiState for the given run mode and title.
func NewState(mode RunMode, title string) *TuiState {
	return &TuiState{
		tasks:      make(map[string]*Task),
		statuses:   make(map[string]TaskStatus),
		timings:    make(map[string]TimingInfo),
		dependsOn:  make(map[string][]string),
		initiating: make(map[string]bool),
		ptys:       make(map[string]*PtyInstance),
		batches:    make(map[string]*Batch),
		pinned:     make(map[string]bool),
		mode:       mode,
		title:      title,
		persist:    newUIPersistence(),
	}
}

// SetCallbacks wires the optional done/forced-shutdown/messenger hooks.
func (s *TuiState) SetCallbacks(done DoneCallback, forced ForcedShutdownCallback, messenger ConsoleMessenger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = done
	s.forcedShutdownC = forced
	s.messenger = messenger
}

// AddTask registers a task in NotStarted status and records its
// dependency edges; SortedTaskIDs does not consult them.
func (s *TuiState) AddTask(task Task, deps []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[task.ID]; !exists {
		s.order = append(s.order, task.ID)
	}
	t := task
	s.tasks[task.ID] = &t
	s.statuses[task.ID] = NotStarted
	s.dependsOn[task.ID] = deps
	if task.Initiating {
		s.initiating[task.ID] = true
	}
}

// RegisterBatch groups sibling tasks launched together under a fresh
// batch id and returns it. Presentation code keys batch expansion state
// on the returned id.
func (s *TuiState) RegisterBatch(taskIDs []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.batches[id] = &Batch{ID: id, Tasks: append([]string(nil), taskIDs...)}
	return id
}

// Batch returns the batch registered under id, if any.
func (s *TuiState) Batch(id string) (Batch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[id]
	if !ok {
		return Batch{}, false
	}
	return *b, true
}

// StartTasks transitions a set of tasks NotStarted -> InProgress and
// records their start time.
func (s *TuiState) StartTasks(taskIDs []string, nowMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range taskIDs {
		if s.statuses[id] != NotStarted {
			continue
		}
		s.statuses[id] = InProgress
		timing := s.timings[id]
		timing.StartMs = nowMs
		s.timings[id] = timing
	}
}

// ErrInvalidTransition is returned when EndTasks is asked to move a task
// out of a status it cannot terminate from.
type ErrInvalidTransition struct {
	TaskID string
	From    TaskStatus
	To      TaskStatus
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("tui: task %s cannot transition %s -> %s", e.TaskID, e.From, e.To)
}

// EndTasks transitions InProgress tasks to one of the six terminal
// statuses, recording end time. Only InProgress -> terminal and
// InProgress -> Stopped (continuous tasks only) are valid; anything else
// returns ErrInvalidTransition without mutating state.
func (s *TuiState) EndTasks(results map[string]TaskStatus, nowMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, next := range results {
		if !next.IsTerminal() && next != Stopped {
			return fmt.Errorf("tui: %s is not a terminal status", next)
		}
		current := s.statuses[id]
		if current != InProgress {
			return &ErrInvalidTransition{TaskID: id, From: current, To: next}
		}
		if next == Stopped && !s.tasks[id].Continuous {
			return &ErrInvalidTransition{TaskID: id, From: current, To: next}
		}
	}

	for id, next := range results {
		s.statuses[id] = next
		timing := s.timings[id]
		timing.EndMs = nowMs
		s.timings[id] = timing
	}
	return nil
}

// MarkShared flags a task as being run by a sibling process (display-only,
// does not affect cache or execution).
func (s *TuiState) MarkShared(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statuses[taskID] == NotStarted {
		s.statuses[taskID] = Shared
	}
}

// Status returns a task's current status.
func (s *TuiState) Status(taskID string) TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[taskID]
}

// RegisterPty attaches a PtyInstance to a task id. PTY instances are
// never removed once registered, only resized -
// RegisterPty is therefore a no-op if one is already present.
func (s *TuiState) RegisterPty(taskID string, instance *PtyInstance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.ptys[taskID]; exists {
		return
	}
	s.ptys[taskID] = instance
}

// Pty returns the PtyInstance registered for a task, if any.
func (s *TuiState) Pty(taskID string) (*PtyInstance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.ptys[taskID]
	return p, ok
}

// SortedTaskIDs returns task ids ordered for display: in-progress
// first, then highlighted (initiating) tasks, then failures, then other
// completed tasks by end-time ascending then name, then not-started. The
// sort is stable: tasks within the same bucket keep their relative
// insertion order except where the bucket itself specifies otherwise.
func (s *TuiState) SortedTaskIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, len(s.order))
	copy(ids, s.order)

	bucket := func(id string) int {
		// Highlighted (initiating) tasks keep their own bucket no matter
		// what status they reach, so a highlighted task that completes
		// still sorts ahead of non-highlighted failures.
		if s.initiating[id] {
			return 1
		}
		status := s.statuses[id]
		switch {
		case status == InProgress || status == Shared:
			return 0
		case status == Failure:
			return 2
		case status.IsTerminal():
			return 3
		default:
			return 4
		}
	}

	sort.SliceStable(ids, func(i, j int) bool {
		bi, bj := bucket(ids[i]), bucket(ids[j])
		if bi != bj {
			return bi < bj
		}
		if bi == 3 {
			ti, tj := s.timings[ids[i]].EndMs, s.timings[ids[j]].EndMs
			if ti != tj {
				return ti < tj
			}
			return s.tasks[ids[i]].Name < s.tasks[ids[j]].Name
		}
		return false
	})

	return ids
}

// AllTerminal reports whether every registered task has reached a
// terminal status, the condition that allows an immediate quit.
func (s *TuiState) AllTerminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		if !s.statuses[id].IsTerminal() {
			return false
		}
	}
	return true
}

// FailureCount returns how many tasks ended in Failure.
func (s *TuiState) FailureCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, id := range s.order {
		if s.statuses[id] == Failure {
			count++
		}
	}
	return count
}

// MarkUserInteracted flags that the user touched the keyboard beyond a
// bare quit request, per the quit protocol's "user interaction -> stay"
// rule (§4.8.6).
func (s *TuiState) MarkUserInteracted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userInteracted = true
}

// RequestQuit schedules a quit at `at`. Passing the zero time quits
// immediately on the next ShouldQuit check performed at/after now.
func (s *TuiState) RequestQuit(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quitAt = &at
}

// CancelQuit clears a pending quit countdown (any key other than q during
// the countdown resumes normal operation).
func (s *TuiState) CancelQuit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quitAt = nil
}

// ShouldQuit reports whether a scheduled quit time has been reached.
func (s *TuiState) ShouldQuit(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quitAt != nil && !now.Before(*s.quitAt)
}

// QuitPending reports whether a countdown is currently scheduled.
func (s *TuiState) QuitPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quitAt != nil
}

// ForceShutdown sets the forced-shutdown flag, notifies the console
// messenger and runs the forced-shutdown callback (if any), as on Ctrl-C.
// It does not run the done callback.
func (s *TuiState) ForceShutdown() {
	s.mu.Lock()
	s.forcedShutdown = true
	cb := s.forcedShutdownC
	messenger := s.messenger
	s.mu.Unlock()

	if messenger != nil {
		messenger.Notify("run cancelled")
	}
	if cb != nil {
		cb()
	}
}

// Finish runs the done callback, if any. Callers invoke this once
// ShouldQuit reports true.
func (s *TuiState) Finish() {
	s.mu.Lock()
	cb := s.done
	s.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Persistence returns a copy of the UI-persisted fields that survive a
// mode switch.
func (s *TuiState) Persistence() UIPersistence {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist
}

// SetPersistence stores the UI-persisted fields, typically right before
// switching from one presentation mode to the other.
func (s *TuiState) SetPersistence(p UIPersistence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persist = p
}

// Pin records whether a task is pinned. The flag is only stored:
// SortedTaskIDs and the presentations do not read it.
func (s *TuiState) Pin(taskID string, pinned bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pinned {
		s.pinned[taskID] = true
	} else {
		delete(s.pinned, taskID)
	}
}

// Title returns the run's display title.
func (s *TuiState) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

package tui

import "time"

// QuitDecision is the outcome of evaluating the quit protocol against the
// current run state.
type QuitDecision int

const (
	// QuitStay means no quit is scheduled; continue running.
	QuitStay QuitDecision = iota
	// QuitCountdown means a countdown should be (re)started.
	QuitCountdown
	// QuitImmediately means the run should end right away.
	QuitImmediately
)

// HandleQuitKey decides the response to pressing "q":
// quit immediately if every task has already reached a terminal state or
// a countdown is already pending (a second press), otherwise start a
// countdown.
func HandleQuitKey(allTerminal bool, countdownPending bool) QuitDecision {
	if allTerminal {
		return QuitImmediately
	}
	if countdownPending {
		return QuitImmediately
	}
	return QuitCountdown
}

// ShouldCancelCountdown implements the rule that any key other than "q"
// cancels a pending countdown and resumes normal operation.
func ShouldCancelCountdown(countdownPending bool) bool {
	return countdownPending
}

// HandleCtrlC is the forced-shutdown decision: quit immediately,
// regardless of how many tasks are still running. Notifying the console
// messenger and marking the forced shutdown is done by
// TuiState.ForceShutdown.
func HandleCtrlC() QuitDecision {
	return QuitImmediately
}

// NaturalEndDecision evaluates what should happen once every task has
// reached a terminal state on its own (no user quit key was pressed): a
// single clean task exits immediately; multiple tasks
// get a countdown; any failures or prior user interaction keep the run
// open for inspection.
func NaturalEndDecision(taskCount int, failureCount int, userInteracted bool) QuitDecision {
	if userInteracted {
		return QuitStay
	}
	if failureCount > 0 {
		return QuitStay
	}
	if taskCount <= 1 {
		return QuitImmediately
	}
	return QuitCountdown
}

// ScheduleFor turns a QuitDecision into the quitAt time TuiState.RequestQuit
// expects, given the configured countdown duration.
func ScheduleFor(decision QuitDecision, now time.Time, countdown time.Duration) (shouldSchedule bool, at time.Time) {
	switch decision {
	case QuitImmediately:
		return true, now
	case QuitCountdown:
		return true, now.Add(countdown)
	default:
		return false, time.Time{}
	}
}

package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHandleQuitKeyImmediateWhenAllTerminal(t *testing.T) {
	assert.Equal(t, QuitImmediately, HandleQuitKey(true, false))
}

func TestHandleQuitKeyStartsCountdownWhenTasksRunning(t *testing.T) {
	assert.Equal(t, QuitCountdown, HandleQuitKey(false, false))
}

func TestHandleQuitKeyImmediateOnSecondPressDuringCountdown(t *testing.T) {
	assert.Equal(t, QuitImmediately, HandleQuitKey(false, true))
}

func TestShouldCancelCountdown(t *testing.T) {
	assert.True(t, ShouldCancelCountdown(true))
	assert.False(t, ShouldCancelCountdown(false))
}

func TestHandleCtrlCAlwaysQuitsImmediately(t *testing.T) {
	assert.Equal(t, QuitImmediately, HandleCtrlC())
}

func TestNaturalEndDecisionSingleCleanTaskQuitsImmediately(t *testing.T) {
	assert.Equal(t, QuitImmediately, NaturalEndDecision(1, 0, false))
}

func TestNaturalEndDecisionMultipleCleanTasksGetCountdown(t *testing.T) {
	assert.Equal(t, QuitCountdown, NaturalEndDecision(5, 0, false))
}

func TestNaturalEndDecisionFailuresKeepRunOpen(t *testing.T) {
	assert.Equal(t, QuitStay, NaturalEndDecision(5, 1, false))
	assert.Equal(t, QuitStay, NaturalEndDecision(1, 1, false))
}

func TestNaturalEndDecisionUserInteractionKeepsRunOpen(t *testing.T) {
	assert.Equal(t, QuitStay, NaturalEndDecision(1, 0, true))
}

func TestScheduleForProducesExpectedTimes(t *testing.T) {
	now := time.Now()

	schedule, at := ScheduleFor(QuitImmediately, now, 5*time.Second)
	assert.True(t, schedule)
	assert.Equal(t, now, at)

	schedule, at = ScheduleFor(QuitCountdown, now, 5*time.Second)
	assert.True(t, schedule)
	assert.Equal(t, now.Add(5*time.Second), at)

	schedule, _ = ScheduleFor(QuitStay, now, 5*time.Second)
	assert.False(t, schedule)
}

package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFullScreenModelRendersWithoutPanicking(t *testing.T) {
	withFakeScreen(t)
	state := NewState(RunMany, "build //...")
	state.AddTask(Task{ID: "a", Name: "web#build"}, nil)
	state.AddTask(Task{ID: "b", Name: "api#build", Initiating: true}, nil)
	state.RegisterPty("a", NewPtyInstance())

	model := NewFullScreenModel(state)
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	model = updated.(*FullScreenModel)

	view := model.View()
	assert.Contains(t, view, "build //...")
}

func TestFullScreenModelAssignsPaneAndPersists(t *testing.T) {
	withFakeScreen(t)
	state := NewState(RunMany, "build")
	state.AddTask(Task{ID: "a", Name: "web#build"}, nil)

	model := NewFullScreenModel(state)
	model.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	model.selection.Select("a")

	model.assignPane(0, "a")
	assert.Equal(t, "a", model.panes[0])

	persisted := state.Persistence()
	assert.Equal(t, 0, persisted.PaneAssignment["a"])
}

func TestFullScreenModelQuitKeyStartsCountdownWhenTaskRunning(t *testing.T) {
	withFakeScreen(t)
	state := NewState(RunMany, "build")
	state.AddTask(Task{ID: "a", Name: "web#build"}, nil)
	state.StartTasks([]string{"a"}, 0)

	model := NewFullScreenModel(state)
	_, cmd := model.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})

	assert.Nil(t, cmd)
	assert.True(t, state.QuitPending())
}

func TestFullScreenModelQuitKeyImmediateWhenAllDone(t *testing.T) {
	withFakeScreen(t)
	state := NewState(RunMany, "build")
	state.AddTask(Task{ID: "a", Name: "web#build"}, nil)
	state.StartTasks([]string{"a"}, 0)
	require.NoError(t, state.EndTasks(map[string]TaskStatus{"a": Success}, 10))

	model := NewFullScreenModel(state)
	_, cmd := model.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})

	require.NotNil(t, cmd)
	msg := cmd()
	_, isQuit := msg.(tea.QuitMsg)
	assert.True(t, isQuit)
}

func TestFullScreenModelFilterTypingAndLock(t *testing.T) {
	withFakeScreen(t)
	state := NewState(RunMany, "build")
	state.AddTask(Task{ID: "a", Name: "web#build"}, nil)
	state.AddTask(Task{ID: "b", Name: "api#build"}, nil)

	model := NewFullScreenModel(state)
	model.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	model.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	assert.True(t, model.selection.InFilterMode())

	model.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("web")})
	assert.Equal(t, "web", model.selection.FilterText())
	assert.Equal(t, []string{"a"}, model.selection.CurrentPage())

	// a second "/" locks the filter in place
	model.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	assert.False(t, model.selection.InFilterMode())
	assert.Equal(t, "web", state.Persistence().FilterText)
	assert.True(t, state.Persistence().FilterLocked)

	// esc clears the locked filter entirely
	model.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, "", model.selection.FilterText())
}

func TestFullScreenModelPaneShowsPtyTail(t *testing.T) {
	withFakeScreen(t)
	state := NewState(RunMany, "build")
	state.AddTask(Task{ID: "a", Name: "web#build"}, nil)
	pty := NewPtyInstance()
	pty.Write([]byte("hello from the task\n"))
	state.RegisterPty("a", pty)

	model := NewFullScreenModel(state)
	model.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	model.assignPane(0, "a")

	assert.Contains(t, model.View(), "hello from the task")
}

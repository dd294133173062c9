package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestInlineModelEmitsOnlyNewLinesPerFrame(t *testing.T) {
	withFakeScreen(t)
	state := NewState(RunOne, "build")
	state.AddTask(Task{ID: "a", Name: "web#build"}, nil)
	pty := NewPtyInstance()
	state.RegisterPty("a", pty)

	model := NewInlineModel(state, "a")

	pty.Write([]byte("line one\n"))
	assert.Equal(t, "line one\n", model.View())
	assert.Equal(t, "", model.View())

	pty.Write([]byte("line two\n"))
	assert.Equal(t, "line two\n", model.View())
}

func TestInlineModelQuitsImmediatelyWhenTaskDone(t *testing.T) {
	withFakeScreen(t)
	state := NewState(RunOne, "build")
	state.AddTask(Task{ID: "a", Name: "web#build"}, nil)
	state.StartTasks([]string{"a"}, 0)
	_ = state.EndTasks(map[string]TaskStatus{"a": Success}, 10)

	model := NewInlineModel(state, "a")
	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})

	if cmd != nil {
		msg := cmd()
		_, isQuit := msg.(tea.QuitMsg)
		assert.True(t, isQuit)
	} else {
		t.Fatal("expected a quit command")
	}
}

package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// InlineModel is the inline presentation: a
// single task's live output rendered directly in the scrollback, with
// completed lines emitted "above" the live viewport via insert_before so
// the shell history keeps a readable transcript. Only q/Esc/Ctrl-C quit;
// there is no navigation.
type InlineModel struct {
	state  *TuiState
	taskID string

	width, height int
	emittedLines  int
	quitting      bool
}

// NewInlineModel builds the inline model for a single task, e.g. a
// run-one invocation.
func NewInlineModel(state *TuiState, taskID string) *InlineModel {
	return &InlineModel{state: state, taskID: taskID}
}

func (m *InlineModel) Init() tea.Cmd {
	return tick()
}

func (m *InlineModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if pty, ok := m.state.Pty(m.taskID); ok {
			pty.Resize(m.width, m.height)
		}
		return m, nil

	case tickMsg:
		if m.state.ShouldQuit(time.Time(msg)) {
			m.quitting = true
			m.state.Finish()
			return m, tea.Quit
		}
		return m, tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.state.ForceShutdown()
			m.quitting = true
			return m, tea.Quit
		case "q", "esc":
			decision := HandleQuitKey(m.state.AllTerminal(), m.state.QuitPending())
			if decision == QuitImmediately {
				m.quitting = true
				m.state.Finish()
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

// View renders only the lines written since the previous frame; the
// bubbletea program is expected to run in inline (non-alt-screen) mode so
// these are appended to the terminal's native scrollback rather than
// redrawing a fixed region.
func (m *InlineModel) View() string {
	if m.quitting {
		return ""
	}
	pty, ok := m.state.Pty(m.taskID)
	if !ok {
		return ""
	}
	lines, watermark := pty.NewLinesSince(m.emittedLines)
	m.emittedLines = watermark
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

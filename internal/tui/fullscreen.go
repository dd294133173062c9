package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// tickMsg drives periodic re-renders while tasks are in flight.
type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// countdownSeconds is the default quit-countdown duration.
const countdownSeconds = 3 * time.Second

// FullScreenModel is the full-screen presentation: a task list, up to
// two terminal panes, a filter bar, pagination, a help popup, and an
// optional countdown popup, all driven by a shared TuiState.
type FullScreenModel struct {
	state       *TuiState
	selection   *TaskSelectionManager
	filterInput textinput.Model

	width, height int

	focusedPane  int // 0 = task list, 1 = pane A, 2 = pane B
	panes        [2]string // task id assigned to each pane, "" if empty
	interactive  bool
	taskListShown bool
	helpVisible   bool

	quitting bool
}

// NewFullScreenModel builds the full-screen model over shared state. The
// caller is responsible for having already populated state with the task
// list via TuiState.AddTask.
func NewFullScreenModel(state *TuiState) *FullScreenModel {
	sel := NewTaskSelectionManager()
	persisted := state.Persistence()

	filterInput := textinput.New()
	filterInput.Prompt = "/"
	filterInput.CharLimit = 64

	m := &FullScreenModel{
		state:         state,
		selection:     sel,
		filterInput:   filterInput,
		taskListShown: true,
		focusedPane:   persisted.FocusedPane,
	}
	for id, pane := range persisted.PaneAssignment {
		if pane == 0 || pane == 1 {
			m.panes[pane] = id
		}
	}
	m.refreshSelection()
	if persisted.SelectedID != "" {
		sel.Select(persisted.SelectedID)
	}
	if persisted.FilterText != "" {
		sel.EnterFilterMode()
		sel.SetFilterText(persisted.FilterText)
		m.filterInput.SetValue(persisted.FilterText)
		if persisted.FilterLocked {
			sel.EnterFilterMode() // second call locks the filter
		} else {
			m.filterInput.Focus()
		}
	}
	return m
}

func (m *FullScreenModel) refreshSelection() {
	ids := m.state.SortedTaskIDs()
	names := make(map[string]string, len(ids))
	for _, id := range ids {
		if t, ok := m.taskByID(id); ok {
			names[id] = t.Name
		}
	}
	m.selection.SetEntries(ids, names, nil)
}

func (m *FullScreenModel) taskByID(id string) (Task, bool) {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	t, ok := m.state.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *t, true
}

func (m *FullScreenModel) Init() tea.Cmd {
	return tea.Batch(tick(), tea.EnterAltScreen)
}

func (m *FullScreenModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.selection.SetViewportHeight(m.listHeight())
		return m, nil

	case tickMsg:
		m.refreshSelection()
		if m.state.ShouldQuit(time.Time(msg)) {
			m.quitting = true
			m.state.Finish()
			return m, tea.Quit
		}
		return m, tick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *FullScreenModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.helpVisible {
		if msg.String() == "?" || msg.String() == "esc" {
			m.helpVisible = false
		}
		return m, nil
	}

	if m.interactive {
		switch msg.String() {
		case "ctrl+z":
			m.interactive = false
			return m, nil
		default:
			if id := m.activePaneTask(); id != "" {
				if pty, ok := m.state.Pty(id); ok {
					pty.Forward([]byte(msg.String()))
				}
			}
			return m, nil
		}
	}

	if m.selection.InFilterMode() {
		switch {
		case msg.Type == tea.KeyEsc:
			m.selection.ClearFilter()
			m.filterInput.SetValue("")
			m.filterInput.Blur()
		case msg.Type == tea.KeyEnter || msg.String() == "/":
			m.selection.EnterFilterMode() // second "/" locks the filter
			m.filterInput.Blur()
		default:
			var cmd tea.Cmd
			m.filterInput, cmd = m.filterInput.Update(msg)
			m.selection.SetFilterText(m.filterInput.Value())
			m.persistFilter()
			return m, cmd
		}
		m.persistFilter()
		return m, nil
	}

	if msg.String() != "q" {
		// Any key other than q counts as interaction and cancels a
		// pending quit countdown.
		m.state.MarkUserInteracted()
		if m.state.QuitPending() {
			m.state.CancelQuit()
		}
	}

	switch msg.String() {
	case "ctrl+c":
		m.state.ForceShutdown()
		m.quitting = true
		return m, tea.Quit

	case "q":
		decision := HandleQuitKey(m.state.AllTerminal(), m.state.QuitPending())
		if schedule, at := ScheduleFor(decision, time.Now(), countdownSeconds); schedule {
			m.state.RequestQuit(at)
			if decision == QuitImmediately {
				m.quitting = true
				m.state.Finish()
				return m, tea.Quit
			}
		}
		return m, nil

	case "up", "k":
		if m.state.QuitPending() {
			m.state.CancelQuit()
		}
		if pty, ok := m.focusedPanePty(); ok {
			pty.Scroll(1)
		} else {
			m.selection.MoveUp()
			m.persistSelection()
		}

	case "down", "j":
		if m.state.QuitPending() {
			m.state.CancelQuit()
		}
		if pty, ok := m.focusedPanePty(); ok {
			pty.Scroll(-1)
		} else {
			m.selection.MoveDown()
			m.persistSelection()
		}

	case "/":
		m.selection.EnterFilterMode()
		m.filterInput.Focus()
		return m, textinput.Blink

	case "esc":
		m.selection.ClearFilter()
		m.filterInput.SetValue("")
		m.persistFilter()

	case " ":
		m.assignQuickPane(m.selection.Selected())

	case "1":
		m.assignPane(0, m.selection.Selected())

	case "2":
		m.assignPane(1, m.selection.Selected())

	case "tab":
		m.focusedPane = (m.focusedPane + 1) % 3
		persisted := m.state.Persistence()
		persisted.FocusedPane = m.focusedPane
		m.state.SetPersistence(persisted)

	case "i":
		if id := m.activePaneTask(); id != "" && m.state.Status(id) == InProgress {
			if pty, ok := m.state.Pty(id); ok {
				_ = pty // writer already attached by the runner; entering interactive mode just starts forwarding keys
				m.interactive = true
			}
		}

	case "b":
		m.taskListShown = !m.taskListShown

	case "?":
		m.helpVisible = true

	case "pgup":
		if pty, ok := m.focusedPanePty(); ok {
			pty.Scroll(m.listHeight() / 2)
		} else {
			m.selection.PreviousPage()
		}

	case "pgdown":
		if pty, ok := m.focusedPanePty(); ok {
			pty.Scroll(-m.listHeight() / 2)
		} else {
			m.selection.NextPage()
		}
	}

	return m, nil
}

func (m *FullScreenModel) assignQuickPane(taskID string) {
	if taskID == "" {
		return
	}
	m.assignPane(0, taskID)
}

func (m *FullScreenModel) assignPane(pane int, taskID string) {
	if taskID == "" {
		return
	}
	m.panes[pane] = taskID
	persisted := m.state.Persistence()
	persisted.PaneAssignment[taskID] = pane
	m.state.SetPersistence(persisted)
}

// focusedPanePty returns the PTY of the focused terminal pane, if a task
// is pinned there, so navigation keys can scroll its view instead of
// moving the task-list selection.
func (m *FullScreenModel) focusedPanePty() (*PtyInstance, bool) {
	id := m.activePaneTask()
	if id == "" {
		return nil, false
	}
	return m.state.Pty(id)
}

func (m *FullScreenModel) persistFilter() {
	persisted := m.state.Persistence()
	persisted.FilterText = m.selection.FilterText()
	persisted.FilterLocked = !m.selection.InFilterMode() && m.selection.FilterText() != ""
	m.state.SetPersistence(persisted)
}

func (m *FullScreenModel) persistSelection() {
	persisted := m.state.Persistence()
	persisted.SelectedID = m.selection.Selected()
	m.state.SetPersistence(persisted)
}

func (m *FullScreenModel) activePaneTask() string {
	if m.focusedPane == 1 {
		return m.panes[0]
	}
	if m.focusedPane == 2 {
		return m.panes[1]
	}
	return ""
}

func (m *FullScreenModel) listHeight() int {
	h := m.height - 4
	if h < 1 {
		h = 1
	}
	return h
}

func (m *FullScreenModel) View() string {
	if m.quitting {
		return "\n"
	}
	if m.helpVisible {
		return m.renderHelp()
	}

	title := StyleTitle.Render(m.state.Title())

	var body string
	if m.taskListShown {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderTaskList(), m.renderPanes())
	} else {
		body = m.renderPanes()
	}

	filterBar := m.renderFilterBar()

	view := lipgloss.JoinVertical(lipgloss.Left, title, body, filterBar)
	if m.state.QuitPending() {
		view = lipgloss.JoinVertical(lipgloss.Left, view, StyleCountdown.Render("Press q again to quit, any other key to cancel..."))
	}
	return view
}

func (m *FullScreenModel) renderTaskList() string {
	var rows []string
	for _, id := range m.selection.CurrentPage() {
		task, _ := m.taskByID(id)
		status := m.state.Status(id)
		icon := statusStyle(status).Render(statusIcon(status))
		name := StyleTaskName.Render(task.Name)
		marker := " "
		if id == m.selection.Selected() {
			marker = ">"
		}
		rows = append(rows, fmt.Sprintf("%s %s %s", marker, icon, name))
	}
	style := StylePane
	if m.focusedPane == 0 {
		style = StylePaneFocused
	}
	return style.Width(36).Height(m.listHeight()).Render(strings.Join(rows, "\n"))
}

func (m *FullScreenModel) renderPanes() string {
	paneWidth := m.width - 36
	if paneWidth < 10 {
		paneWidth = 10
	}
	a := m.renderPane(0, paneWidth)
	b := m.renderPane(1, paneWidth)
	return lipgloss.JoinVertical(lipgloss.Left, a, b)
}

func (m *FullScreenModel) renderPane(index int, width int) string {
	taskID := m.panes[index]
	style := StylePane
	if m.focusedPane == index+1 {
		style = StylePaneFocused
	}
	height := m.listHeight()/2 - 1
	if height < 1 {
		height = 1
	}
	if taskID == "" {
		return style.Width(width).Height(height).Render(StyleMuted.Render("(empty pane)"))
	}
	task, _ := m.taskByID(taskID)
	header := StyleTaskName.Render(task.Name)
	if pty, ok := m.state.Pty(taskID); ok {
		pty.Resize(width, height)
		lines := pty.Tail(height - 1)
		return style.Width(width).Height(height).Render(
			lipgloss.JoinVertical(lipgloss.Left, header, strings.Join(lines, "\n")))
	}
	return style.Width(width).Height(height).Render(header)
}

func (m *FullScreenModel) renderFilterBar() string {
	if m.selection.InFilterMode() {
		return StyleFilterBar.Render(m.filterInput.View())
	}
	if m.selection.FilterText() != "" {
		return StyleFilterBar.Render("/" + m.selection.FilterText())
	}
	return StyleMuted.Render("q quit · / filter · tab cycle panes · i interactive · ? help")
}

func (m *FullScreenModel) renderHelp() string {
	help := `
  Navigation
  ↑/↓ or j/k     move selection
  tab            cycle pane focus
  pgup/pgdown    page through tasks
  /              filter tasks (press again to lock, Esc to clear)

  Panes
  space / 1 / 2  pin the selected task to a pane
  i              enter interactive mode (forward keys to the task)
  ctrl+z         leave interactive mode
  b              hide/show the task list

  q              quit (prompts if tasks are still running)
  ctrl+c         quit immediately

  Press ? or Esc to close this help
`
	return StylePane.Render(help)
}

package tui

import "strings"

// entry is one row in the selectable list: either a task id or a group
// separator between status buckets.
type entry struct {
	taskID     string
	isSeparator bool
}

// TaskSelectionManager owns the ordered, paginated, optionally-filtered
// view over a task list that the full-screen presentation navigates.
type TaskSelectionManager struct {
	names map[string]string // taskID -> display name, for filtering

	entries  []entry
	pageSize int
	page     int
	selected string

	filterText   string
	filterMode   bool
	filterLocked bool
}

// NewTaskSelectionManager builds a selection manager with a minimum page
// size of 1.
func NewTaskSelectionManager() *TaskSelectionManager {
	return &TaskSelectionManager{
		names:    make(map[string]string),
		pageSize: 1,
	}
}

// SetViewportHeight derives the page size from the available rows. If the
// current selection falls off the resulting page, it snaps to the first
// item of its new page.
func (m *TaskSelectionManager) SetViewportHeight(rows int) {
	if rows < 1 {
		rows = 1
	}
	m.pageSize = rows
	m.clampPage()
	for _, id := range m.CurrentPage() {
		if id == m.selected {
			return
		}
	}
	m.selectFirstOfPage()
}

// SetEntries replaces the full ordered list of task ids, inserting a
// status-group separator before every index marked in groupBoundaries
// (except index 0); a nil groupBoundaries inserts none. Names are used for
// filter matching.
func (m *TaskSelectionManager) SetEntries(taskIDs []string, names map[string]string, groupBoundaries map[int]bool) {
	m.names = names
	m.entries = m.entries[:0]
	for i, id := range taskIDs {
		if groupBoundaries[i] && i > 0 {
			m.entries = append(m.entries, entry{isSeparator: true})
		}
		m.entries = append(m.entries, entry{taskID: id})
	}
	m.clampPage()
	m.ensureSelection()
}

func (m *TaskSelectionManager) visibleEntries() []entry {
	if m.filterText == "" {
		return m.entries
	}
	needle := strings.ToLower(m.filterText)
	filtered := make([]entry, 0, len(m.entries))
	for _, e := range m.entries {
		if e.isSeparator {
			continue
		}
		name := strings.ToLower(m.names[e.taskID])
		if strings.Contains(name, needle) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

func (m *TaskSelectionManager) selectableIDs() []string {
	visible := m.visibleEntries()
	ids := make([]string, 0, len(visible))
	for _, e := range visible {
		if !e.isSeparator {
			ids = append(ids, e.taskID)
		}
	}
	return ids
}

func (m *TaskSelectionManager) pageCount() int {
	ids := m.selectableIDs()
	if len(ids) == 0 {
		return 1
	}
	return (len(ids) + m.pageSize - 1) / m.pageSize
}

func (m *TaskSelectionManager) clampPage() {
	pages := m.pageCount()
	if m.page >= pages {
		m.page = pages - 1
	}
	if m.page < 0 {
		m.page = 0
	}
}

func (m *TaskSelectionManager) ensureSelection() {
	ids := m.selectableIDs()
	for _, id := range ids {
		if id == m.selected {
			return
		}
	}
	page := m.CurrentPage()
	if len(page) > 0 {
		m.selected = page[0]
	} else {
		m.selected = ""
	}
}

// CurrentPage returns the selectable task ids visible on the current page.
func (m *TaskSelectionManager) CurrentPage() []string {
	ids := m.selectableIDs()
	start := m.page * m.pageSize
	if start >= len(ids) {
		return nil
	}
	end := start + m.pageSize
	if end > len(ids) {
		end = len(ids)
	}
	return ids[start:end]
}

// NextPage advances to the next page, wrapping to the first. The
// selection moves to the first item of the new page.
func (m *TaskSelectionManager) NextPage() {
	m.page = (m.page + 1) % m.pageCount()
	m.selectFirstOfPage()
}

// PreviousPage moves to the previous page, wrapping to the last.
func (m *TaskSelectionManager) PreviousPage() {
	m.page = (m.page - 1 + m.pageCount()) % m.pageCount()
	m.selectFirstOfPage()
}

func (m *TaskSelectionManager) selectFirstOfPage() {
	page := m.CurrentPage()
	if len(page) > 0 {
		m.selected = page[0]
	} else {
		m.selected = ""
	}
}

// Selected returns the currently-selected task id, or "" if none.
func (m *TaskSelectionManager) Selected() string {
	return m.selected
}

// Select sets the selection directly, e.g. from a mouse/click event.
func (m *TaskSelectionManager) Select(taskID string) {
	m.selected = taskID
}

// MoveDown moves the selection to the next item on the current page,
// advancing to the next page at the boundary.
func (m *TaskSelectionManager) MoveDown() {
	page := m.CurrentPage()
	for i, id := range page {
		if id == m.selected {
			if i+1 < len(page) {
				m.selected = page[i+1]
			} else {
				m.NextPage()
			}
			return
		}
	}
	m.selectFirstOfPage()
}

// MoveUp moves the selection to the previous item on the current page,
// retreating to the previous page at the boundary.
func (m *TaskSelectionManager) MoveUp() {
	page := m.CurrentPage()
	for i, id := range page {
		if id == m.selected {
			if i > 0 {
				m.selected = page[i-1]
			} else {
				m.PreviousPage()
			}
			return
		}
	}
	m.selectFirstOfPage()
}

// EnterFilterMode begins typing a filter. A second call (already in filter
// mode) persists the current text and exits edit mode.
func (m *TaskSelectionManager) EnterFilterMode() {
	if m.filterMode {
		m.filterLocked = true
		m.filterMode = false
		return
	}
	m.filterMode = true
	m.filterLocked = false
}

// InFilterMode reports whether filter text is currently editable.
func (m *TaskSelectionManager) InFilterMode() bool { return m.filterMode }

// TypeFilter appends to the filter text while in filter mode.
func (m *TaskSelectionManager) TypeFilter(s string) {
	if !m.filterMode {
		return
	}
	m.filterText += s
	m.page = 0
	m.clampPage()
	m.ensureSelection()
}

// SetFilterText replaces the filter text wholesale, for callers that edit
// the filter through a text input component rather than per-keystroke.
func (m *TaskSelectionManager) SetFilterText(s string) {
	if !m.filterMode {
		return
	}
	m.filterText = s
	m.page = 0
	m.clampPage()
	m.ensureSelection()
}

// BackspaceFilter removes the last character of the filter text.
func (m *TaskSelectionManager) BackspaceFilter() {
	if !m.filterMode || m.filterText == "" {
		return
	}
	m.filterText = m.filterText[:len(m.filterText)-1]
	m.page = 0
	m.clampPage()
	m.ensureSelection()
}

// ClearFilter removes any active filter (ESC).
func (m *TaskSelectionManager) ClearFilter() {
	m.filterText = ""
	m.filterMode = false
	m.filterLocked = false
	m.page = 0
	m.clampPage()
	m.ensureSelection()
}

// FilterText returns the current filter string.
func (m *TaskSelectionManager) FilterText() string { return m.filterText }

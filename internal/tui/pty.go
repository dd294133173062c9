package tui

import (
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/x/vt"
)

// vtScreen is the narrow slice of github.com/charmbracelet/x/vt's Terminal
// that PtyInstance depends on. Pinning the dependency to an interface keeps
// the rest of the package decoupled from that library's exact surface.
type vtScreen interface {
	io.Writer
	Resize(width, height int)
}

// newVTScreen is a seam so tests can swap in a fake without dragging in a
// real VT100 parser.
var newVTScreen = func(width, height int) vtScreen {
	return vt.NewTerminal(width, height)
}

// PtyInstance owns one task's VT100 screen and scrollback: a parser, an
// optional writer (interactive mode only), an optional exit status, a
// scroll offset, and a scrollback line count. It is
// shared by reference between the output callback (producer) and whichever
// presentation mode is currently rendering it (consumer), so all access goes
// through the internal lock.
type PtyInstance struct {
	mu sync.Mutex

	screen vtScreen
	writer io.Writer // set only while interactive mode is forwarding keystrokes

	width, height int

	exitCode  *int
	scrollOff int
	lineCount int

	// rawLines holds completed lines of output independent of the VT100
	// screen buffer, so inline mode can emit exactly the new lines since
	// the previous frame via insert_before without needing to read back
	// through the VT parser.
	rawLines    []string
	pendingLine strings.Builder
}

// NewPtyInstance creates a PTY-backed screen at a default size; callers
// resize it to the owning pane's dimensions once those are known.
func NewPtyInstance() *PtyInstance {
	const defaultWidth, defaultHeight = 80, 24
	return &PtyInstance{
		screen: newVTScreen(defaultWidth, defaultHeight),
		width:  defaultWidth,
		height: defaultHeight,
	}
}

// Resize matches the screen to the owning pane's interior: task PTYs are
// sized to the pane's dimensions minus 2 rows and 5 columns of
// padding/border.
func (p *PtyInstance) Resize(paneWidth, paneHeight int) {
	width := paneWidth - 5
	if width < 1 {
		width = 1
	}
	height := paneHeight - 2
	if height < 1 {
		height = 1
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if width == p.width && height == p.height {
		return
	}
	p.width, p.height = width, height
	p.screen.Resize(width, height)
}

// Write feeds task output into the VT100 parser. A lone '\n' is
// normalized to '\r\n' before reaching the parser so partial lines
// from commands that don't emit carriage returns render correctly.
func (p *PtyInstance) Write(chunk []byte) {
	normalized := normalizeNewlines(chunk)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.screen.Write(normalized)
	p.lineCount += countLines(normalized)
	p.appendRawLocked(chunk)
}

// appendRawLocked buffers completed lines for inline mode's insert_before
// rendering. Must be called with mu held.
func (p *PtyInstance) appendRawLocked(chunk []byte) {
	for _, b := range chunk {
		if b == '\n' {
			p.rawLines = append(p.rawLines, p.pendingLine.String())
			p.pendingLine.Reset()
			continue
		}
		if b == '\r' {
			continue
		}
		p.pendingLine.WriteByte(b)
	}
}

// Tail returns up to rows lines ending at the current scroll position:
// the live tail when the scroll offset is zero, or a window shifted up
// into scrollback by the offset. Used by pane rendering.
func (p *PtyInstance) Tail(rows int) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if rows < 1 {
		return nil
	}
	lines := p.rawLines
	if p.pendingLine.Len() > 0 {
		lines = append(append([]string(nil), lines...), p.pendingLine.String())
	}
	end := len(lines) - p.scrollOff
	if end < 0 {
		end = 0
	}
	start := end - rows
	if start < 0 {
		start = 0
	}
	return append([]string(nil), lines[start:end]...)
}

// NewLinesSince returns the completed lines written after `since` (an
// index previously returned by this same call, starting from 0), along
// with the new watermark to pass next time.
func (p *PtyInstance) NewLinesSince(since int) ([]string, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if since >= len(p.rawLines) {
		return nil, len(p.rawLines)
	}
	return append([]string(nil), p.rawLines[since:]...), len(p.rawLines)
}

func normalizeNewlines(chunk []byte) []byte {
	out := make([]byte, 0, len(chunk)+len(chunk)/8)
	for i := 0; i < len(chunk); i++ {
		b := chunk[i]
		if b == '\n' && (i == 0 || chunk[i-1] != '\r') {
			out = append(out, '\r', '\n')
			continue
		}
		out = append(out, b)
	}
	return out
}

func countLines(chunk []byte) int {
	count := 0
	for _, b := range chunk {
		if b == '\n' {
			count++
		}
	}
	return count
}

// SetWriter attaches the PTY's stdin writer, making the instance
// interactive. Entering interactive mode requires the owning task be
// InProgress and a writer be present; presentation code enforces the
// status check, this just holds the writer.
func (p *PtyInstance) SetWriter(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writer = w
}

// ClearWriter detaches the writer, e.g. once the task has ended.
func (p *PtyInstance) ClearWriter() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writer = nil
}

// Forward sends interactive keystrokes to the underlying process. It
// reports false if no writer is currently attached.
func (p *PtyInstance) Forward(data []byte) (bool, error) {
	p.mu.Lock()
	w := p.writer
	p.mu.Unlock()
	if w == nil {
		return false, nil
	}
	_, err := w.Write(data)
	return true, err
}

// SetExitCode records the process' final exit code.
func (p *PtyInstance) SetExitCode(code int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exitCode = &code
}

// ExitCode returns the recorded exit code, if the process has ended.
func (p *PtyInstance) ExitCode() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exitCode == nil {
		return 0, false
	}
	return *p.exitCode, true
}

// LineCount returns the number of newline-terminated lines written so far;
// Scroll clamps its offset to this count. Inline mode tracks new lines
// through NewLinesSince instead.
func (p *PtyInstance) LineCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lineCount
}

// ScrollOffset returns the current scrollback view offset.
func (p *PtyInstance) ScrollOffset() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scrollOff
}

// Scroll adjusts the scrollback view offset by delta, clamped to
// [0, lineCount].
func (p *PtyInstance) Scroll(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := p.scrollOff + delta
	if next < 0 {
		next = 0
	}
	if next > p.lineCount {
		next = p.lineCount
	}
	p.scrollOff = next
}

// ResetScroll returns the view to the live tail.
func (p *PtyInstance) ResetScroll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scrollOff = 0
}

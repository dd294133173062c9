package tui

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScreen struct {
	written []byte
	width   int
	height  int
}

func (f *fakeScreen) Write(p []byte) (int, error) {
	f.written = append(f.written, p...)
	return len(p), nil
}

func (f *fakeScreen) Resize(width, height int) {
	f.width, f.height = width, height
}

func withFakeScreen(t *testing.T) *fakeScreen {
	t.Helper()
	fake := &fakeScreen{}
	original := newVTScreen
	newVTScreen = func(width, height int) vtScreen {
		fake.width, fake.height = width, height
		return fake
	}
	t.Cleanup(func() { newVTScreen = original })
	return fake
}

func TestPtyInstanceNormalizesBareNewlines(t *testing.T) {
	fake := withFakeScreen(t)
	p := NewPtyInstance()

	p.Write([]byte("one\ntwo\r\nthree"))

	assert.Equal(t, "one\r\ntwo\r\nthree", string(fake.written))
	assert.Equal(t, 2, p.LineCount())
}

func TestPtyInstanceResizeAppliesPadding(t *testing.T) {
	fake := withFakeScreen(t)
	p := NewPtyInstance()

	p.Resize(40, 20)

	assert.Equal(t, 35, fake.width)
	assert.Equal(t, 18, fake.height)
}

func TestPtyInstanceForwardRequiresWriter(t *testing.T) {
	withFakeScreen(t)
	p := NewPtyInstance()

	ok, err := p.Forward([]byte("x"))
	require.NoError(t, err)
	assert.False(t, ok)

	sink := &fakeScreen{}
	p.SetWriter(sink)
	ok, err = p.Forward([]byte("x"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "x", string(sink.written))
}

func TestPtyInstanceScrollClampsToLineCount(t *testing.T) {
	withFakeScreen(t)
	p := NewPtyInstance()
	p.Write([]byte("a\nb\nc\n"))

	p.Scroll(-5)
	assert.Equal(t, 0, p.ScrollOffset())

	p.Scroll(100)
	assert.Equal(t, 3, p.ScrollOffset())

	p.ResetScroll()
	assert.Equal(t, 0, p.ScrollOffset())
}

func TestPtyInstanceNewLinesSinceEmitsOnlyUnseenLines(t *testing.T) {
	withFakeScreen(t)
	p := NewPtyInstance()
	p.Write([]byte("one\ntwo\n"))

	lines, watermark := p.NewLinesSince(0)
	assert.Equal(t, []string{"one", "two"}, lines)
	assert.Equal(t, 2, watermark)

	p.Write([]byte("three\n"))
	lines, watermark = p.NewLinesSince(watermark)
	assert.Equal(t, []string{"three"}, lines)
	assert.Equal(t, 3, watermark)

	lines, _ = p.NewLinesSince(watermark)
	assert.Empty(t, lines)
}

func TestPtyInstanceExitCode(t *testing.T) {
	withFakeScreen(t)
	p := NewPtyInstance()

	_, ok := p.ExitCode()
	assert.False(t, ok)

	p.SetExitCode(3)
	code, ok := p.ExitCode()
	require.True(t, ok)
	assert.Equal(t, 3, code)
}

func TestPtyInstanceTailWindowsIntoScrollback(t *testing.T) {
	withFakeScreen(t)
	p := NewPtyInstance()
	for i := 1; i <= 5; i++ {
		p.Write([]byte(fmt.Sprintf("line %d\n", i)))
	}

	assert.Equal(t, []string{"line 4", "line 5"}, p.Tail(2))

	p.Scroll(2)
	assert.Equal(t, []string{"line 2", "line 3"}, p.Tail(2))

	p.ResetScroll()
	p.Write([]byte("partial"))
	assert.Equal(t, []string{"line 5", "partial"}, p.Tail(2))
}

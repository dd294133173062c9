package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func envFrom(vars map[string]string) EnvLookup {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

func TestDetectEditorCursorTraceIDWins(t *testing.T) {
	editor := DetectEditor(envFrom(map[string]string{"CURSOR_TRACE_ID": "abc", "TERM_PROGRAM": "vscode"}))
	assert.Equal(t, EditorCursor, editor)
}

func TestDetectEditorPlainVSCode(t *testing.T) {
	editor := DetectEditor(envFrom(map[string]string{"TERM_PROGRAM": "vscode"}))
	assert.Equal(t, EditorVSCode, editor)
}

func TestDetectEditorVSCodeInsiders(t *testing.T) {
	editor := DetectEditor(envFrom(map[string]string{
		"TERM_PROGRAM":         "vscode",
		"TERM_PROGRAM_VERSION": "1.90.0-insider",
	}))
	assert.Equal(t, EditorVSCodeInsiders, editor)
}

func TestDetectEditorVSCodeAskpassReclassifiesAsCursor(t *testing.T) {
	editor := DetectEditor(envFrom(map[string]string{
		"TERM_PROGRAM":       "vscode",
		"VSCODE_GIT_ASKPASS": "/Applications/Cursor.app/askpass.sh",
	}))
	assert.Equal(t, EditorCursor, editor)
}

func TestDetectEditorVSCodeAskpassReclassifiesAsWindsurf(t *testing.T) {
	editor := DetectEditor(envFrom(map[string]string{
		"TERM_PROGRAM":       "vscode",
		"VSCODE_GIT_ASKPASS": "/Applications/Windsurf.app/askpass.sh",
	}))
	assert.Equal(t, EditorWindsurf, editor)
}

func TestDetectEditorJetBrainsSkipsAskpassCheck(t *testing.T) {
	editor := DetectEditor(envFrom(map[string]string{
		"TERM_PROGRAM":       "jetbrains",
		"VSCODE_GIT_ASKPASS": "/Applications/Cursor.app/askpass.sh",
	}))
	assert.Equal(t, EditorJetBrains, editor)
}

func TestDetectEditorUnknownWithNoHints(t *testing.T) {
	editor := DetectEditor(envFrom(map[string]string{}))
	assert.Equal(t, EditorUnknown, editor)
}

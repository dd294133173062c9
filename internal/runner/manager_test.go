package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerRunsTask(t *testing.T) {
	r := New(t.TempDir(), nil)
	m := NewManager(r, nil)

	result := m.Run(Spec{
		TaskID:  "app:test",
		Command: "sh",
		Args:    []string{"-c", "exit 0"},
		Dir:     t.TempDir(),
	}, nil)

	require.NoError(t, result.Err)
	assert.Equal(t, 0, result.ExitCode)
}

func TestManagerRefusesNewRunsAfterClose(t *testing.T) {
	r := New(t.TempDir(), nil)
	m := NewManager(r, nil)
	m.Close()

	result := m.Run(Spec{TaskID: "app:test", Command: "sh", Args: []string{"-c", "exit 0"}, Dir: t.TempDir()}, nil)
	assert.Error(t, result.Err)
}

package turbopath

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckedToAbsoluteSystemPath(t *testing.T) {
	abs, err := CheckedToAbsoluteSystemPath(string(filepath.Separator) + "repo")
	require.NoError(t, err)
	assert.Equal(t, AbsoluteSystemPath(string(filepath.Separator)+"repo"), abs)

	_, err = CheckedToAbsoluteSystemPath("relative/path")
	assert.Error(t, err)
}

func TestJoinAndDir(t *testing.T) {
	p := AbsoluteSystemPathFromUpstream(string(filepath.Separator) + "repo")
	joined := p.Join("apps", "web")
	assert.Equal(t, filepath.Join(p.ToString(), "apps", "web"), joined.ToString())
	assert.Equal(t, joined.Dir().Base(), "apps")
}

func TestContainsPath(t *testing.T) {
	root := AbsoluteSystemPathFromUpstream(string(filepath.Separator) + "repo")

	contained, err := root.ContainsPath(root.Join("dist"))
	require.NoError(t, err)
	assert.True(t, contained)

	outside, err := root.ContainsPath(root.Dir().Join("sibling"))
	require.NoError(t, err)
	assert.False(t, outside)
}

func TestEnsureDirAndFileRoundTrip(t *testing.T) {
	target := AbsoluteSystemPathFromUpstream(t.TempDir()).Join("a", "b", "file.txt")

	require.NoError(t, target.EnsureDir())
	require.NoError(t, target.WriteFile([]byte("contents"), 0644))

	read, err := target.ReadFile()
	require.NoError(t, err)
	assert.Equal(t, []byte("contents"), read)
	assert.True(t, target.FileExists())
	assert.True(t, target.Dir().DirExists())
}

func TestFindupFrom(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "apps", "web", "src")
	require.NoError(t, os.MkdirAll(nested, 0775))
	require.NoError(t, os.WriteFile(filepath.Join(root, "nx.json"), []byte("{}"), 0644))

	found, err := FindupFrom("nx.json", nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "nx.json"), found)

	missing, err := FindupFrom("definitely-not-here.json", nested)
	require.NoError(t, err)
	assert.Equal(t, "", missing)
}

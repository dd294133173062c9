package xhash

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashBytesDeterministic(t *testing.T) {
	a := HashBytes([]byte("hello world"))
	b := HashBytes([]byte("hello world"))
	assert.Equal(t, a, b)
	assert.Len(t, a, 16)
}

func TestHashBytesDistinguishesContent(t *testing.T) {
	a := HashBytes([]byte("hello"))
	b := HashBytes([]byte("world"))
	assert.NotEqual(t, a, b)
}

func TestHashFileMatchesHashBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	contents := []byte("some file contents\n")
	require.NoError(t, os.WriteFile(path, contents, 0644))

	fromFile, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, HashBytes(contents), fromFile)
}

func TestCombineSortedIsOrderIndependent(t *testing.T) {
	hashes := []string{HashString("a"), HashString("b"), HashString("c")}
	reversed := []string{hashes[2], hashes[1], hashes[0]}

	assert.Equal(t, CombineSorted(hashes), CombineSorted(reversed))
}

func TestCombineHashesIsOrderDependent(t *testing.T) {
	hashes := []string{HashString("a"), HashString("b")}
	reversed := []string{hashes[1], hashes[0]}

	assert.NotEqual(t, CombineHashes(hashes), CombineHashes(reversed))
}

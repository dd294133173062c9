package globmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertGlobFullPattern(t *testing.T) {
	got := convertGlob("dist/!(cache|cache2)/**/!(README|LICENSE).(js|ts)")
	assert.ElementsMatch(t, []string{
		"!dist/cache/**/*.{js,ts}",
		"!dist/cache2/**/*.{js,ts}",
		"!dist/**/README.{js,ts}",
		"!dist/**/LICENSE.{js,ts}",
		"dist/**/*.{js,ts}",
	}, got)
}

func TestConvertGlobNoDirs(t *testing.T) {
	got := convertGlob("dist/**/!(README|LICENSE).(js|ts)")
	assert.ElementsMatch(t, []string{
		"!dist/**/README.{js,ts}",
		"!dist/**/LICENSE.{js,ts}",
		"dist/**/*.{js,ts}",
	}, got)
}

func TestConvertGlobNoPatterns(t *testing.T) {
	got := convertGlob("dist/**/*.js")
	assert.Equal(t, []string{"dist/**/*.js"}, got)
}

func TestGlobSetDetectsPackageJSON(t *testing.T) {
	gs, err := Compile([]string{"packages/*/package.json"})
	require.NoError(t, err)
	assert.True(t, gs.IsMatch("packages/nx/package.json"))
	assert.False(t, gs.IsMatch("packages/nx/test-files/package.json"))
}

func TestGlobSetDeeplyNested(t *testing.T) {
	gs, err := Compile([]string{"packages/**/package.json"})
	require.NoError(t, err)
	assert.True(t, gs.IsMatch("packages/nx/test-files/package.json"))
}

func TestGlobSetHandlesNegatedGlobs(t *testing.T) {
	gs, err := Compile([]string{"!ignore/"})
	require.NoError(t, err)
	assert.True(t, gs.IsMatch("file.map"))
	assert.True(t, gs.IsMatch("file.ts"))
	assert.False(t, gs.IsMatch("ignore/file.map"))
}

func TestGlobSetMultipleNestedPatterns(t *testing.T) {
	gs, err := Compile([]string{"nested/", "!nested/*.{css,map}"})
	require.NoError(t, err)
	assert.True(t, gs.IsMatch("nested/file.js"))
	assert.True(t, gs.IsMatch("nested/file.ts"))
	assert.False(t, gs.IsMatch("nested/file.css"))
	assert.False(t, gs.IsMatch("nested/file.map"))
}

// Glob matching is idempotent under pattern shuffling.
func TestGlobIdempotenceUnderShuffle(t *testing.T) {
	patterns := []string{"dist/!(cache|cache2)/**/!(README|LICENSE).(js|ts)", "nested/", "!nested/*.{css,map}"}
	shuffled := []string{"!nested/*.{css,map}", "dist/!(cache|cache2)/**/!(README|LICENSE).(js|ts)", "nested/"}

	a, err := Compile(patterns)
	require.NoError(t, err)
	b, err := Compile(shuffled)
	require.NoError(t, err)

	paths := []string{"dist/nested/file.js", "dist/cache/file.js", "dist/nested/README.js", "nested/file.js", "nested/file.css"}
	for _, p := range paths {
		assert.Equal(t, a.IsMatch(p), b.IsMatch(p), p)
	}
}

func TestGlobExtendedPatternScenario(t *testing.T) {
	gs, err := Compile([]string{"dist/!(cache|cache2)/**/!(README|LICENSE).(js|ts)"})
	require.NoError(t, err)
	assert.True(t, gs.IsMatch("dist/nested/file.js"))
	assert.False(t, gs.IsMatch("dist/cache/file.js"))
	assert.False(t, gs.IsMatch("dist/nested/README.js"))
}

func TestCompileCachedReturnsSharedInstance(t *testing.T) {
	patterns := []string{"src/**/*.ts", "!src/**/*.test.ts"}
	a, err := CompileCached(patterns)
	require.NoError(t, err)
	b, err := CompileCached([]string{"!src/**/*.test.ts", "src/**/*.ts"})
	require.NoError(t, err)
	assert.Same(t, a, b)
}

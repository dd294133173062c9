package projecttrie

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmptyTrie(t *testing.T) {
	trie := New()
	_, ok := trie.FindProjectForPath("apps/my-app/src/index.ts")
	assert.False(t, ok)
}

func TestSingleProject(t *testing.T) {
	trie := FromRoots(map[string]string{"apps/my-app": "my-app"})

	name, ok := trie.FindProjectForPath("apps/my-app/src/index.ts")
	assert.True(t, ok)
	assert.Equal(t, "my-app", name)

	name, ok = trie.FindProjectForPath("apps/my-app/package.json")
	assert.True(t, ok)
	assert.Equal(t, "my-app", name)

	_, ok = trie.FindProjectForPath("apps/other-app/src/index.ts")
	assert.False(t, ok)

	_, ok = trie.FindProjectForPath("package.json")
	assert.False(t, ok)
}

func TestMultipleProjects(t *testing.T) {
	trie := FromRoots(map[string]string{
		"apps/my-app":        "my-app",
		"apps/other-app":     "other-app",
		"libs/shared":        "shared",
		"libs/ui/components": "ui-components",
	})
	assert.Equal(t, 4, trie.Len())

	cases := map[string]string{
		"apps/my-app/src/index.ts":          "my-app",
		"apps/other-app/src/App.tsx":        "other-app",
		"libs/shared/src/utils.ts":          "shared",
		"libs/ui/components/Button.tsx":     "ui-components",
	}
	for path, want := range cases {
		got, ok := trie.FindProjectForPath(path)
		assert.True(t, ok, path)
		assert.Equal(t, want, got, path)
	}

	_, ok := trie.FindProjectForPath("libs/ui/README.md")
	assert.False(t, ok)
	_, ok = trie.FindProjectForPath("package.json")
	assert.False(t, ok)
}

// The deepest enclosing root wins.
func TestNestedProjectsDeepestWins(t *testing.T) {
	trie := FromRoots(map[string]string{
		"libs":              "libs-root",
		"libs/shared":       "shared",
		"libs/shared/utils": "shared-utils",
	})
	assert.Equal(t, 3, trie.Len())

	name, ok := trie.FindProjectForPath("libs/shared/utils/format.ts")
	assert.True(t, ok)
	assert.Equal(t, "shared-utils", name)

	name, ok = trie.FindProjectForPath("libs/shared/index.ts")
	assert.True(t, ok)
	assert.Equal(t, "shared", name)

	name, ok = trie.FindProjectForPath("libs/README.md")
	assert.True(t, ok)
	assert.Equal(t, "libs-root", name)
}

func TestRootProject(t *testing.T) {
	trie := FromRoots(map[string]string{
		".":           "standalone",
		"apps/my-app": "my-app",
	})

	name, ok := trie.FindProjectForPath("package.json")
	assert.True(t, ok)
	assert.Equal(t, "standalone", name)

	name, ok = trie.FindProjectForPath("src/index.ts")
	assert.True(t, ok)
	assert.Equal(t, "standalone", name)

	name, ok = trie.FindProjectForPath("apps/my-app/src/index.ts")
	assert.True(t, ok)
	assert.Equal(t, "my-app", name)
}

func TestTrailingSlash(t *testing.T) {
	trie := FromRoots(map[string]string{"apps/my-app/": "my-app"})

	name, ok := trie.FindProjectForPath("apps/my-app/src/index.ts")
	assert.True(t, ok)
	assert.Equal(t, "my-app", name)
}

func TestSimilarProjectNames(t *testing.T) {
	trie := FromRoots(map[string]string{
		"apps/app":         "app",
		"apps/app-e2e":     "app-e2e",
		"apps/application": "application",
	})

	name, _ := trie.FindProjectForPath("apps/app/src/main.ts")
	assert.Equal(t, "app", name)
	name, _ = trie.FindProjectForPath("apps/app-e2e/src/app.cy.ts")
	assert.Equal(t, "app-e2e", name)
	name, _ = trie.FindProjectForPath("apps/application/src/app.ts")
	assert.Equal(t, "application", name)
}

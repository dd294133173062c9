package hashexec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nxnative/core/internal/hashplan"
	"github.com/nxnative/core/internal/projecttrie"
	"github.com/nxnative/core/internal/tsconfig"
	"github.com/nxnative/core/internal/workspacefs"
)

type fakeProjectFiles struct {
	files    map[string][]workspacefs.FileData
	roots    map[string]string
	configs  map[string]string
	tsconfig map[string]tsconfig.Config
}

func (f *fakeProjectFiles) FilesForProject(project string) []workspacefs.FileData {
	return f.files[project]
}

func (f *fakeProjectFiles) ProjectRoot(project string) (string, bool) {
	root, ok := f.roots[project]
	return root, ok
}

func (f *fakeProjectFiles) ProjectConfigJSON(project string) (string, error) {
	return f.configs[project], nil
}

func (f *fakeProjectFiles) TsConfig(project string) (tsconfig.Config, bool) {
	cfg, ok := f.tsconfig[project]
	return cfg, ok
}

func setupExecutor(t *testing.T) (*Executor, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "apps/my-app/src"), 0775))
	require.NoError(t, os.WriteFile(filepath.Join(root, "apps/my-app/src/index.ts"), []byte("export const x = 1;"), 0644))

	cacheDir := t.TempDir()
	ws := workspacefs.NewContext(root, cacheDir)
	ws.GetWorkspaceFiles()

	pf := &fakeProjectFiles{
		files: map[string][]workspacefs.FileData{
			"my-app": {{File: "apps/my-app/src/index.ts", Hash: "deadbeef"}},
		},
		roots:   map[string]string{"my-app": filepath.Join(root, "apps/my-app")},
		configs: map[string]string{"my-app": `{"name":"my-app"}`},
		tsconfig: map[string]tsconfig.Config{
			"my-app": {CompilerOptions: map[string]interface{}{"target": "ES2020"}},
		},
	}
	trie := projecttrie.FromRoots(map[string]string{"apps/my-app": "my-app"})
	externalDeps := map[string]string{"npm:react": "react-hash"}

	return NewExecutor(root, ws, pf, externalDeps, trie, nil), root
}

func TestEvaluateEnvironmentInstruction(t *testing.T) {
	exec, _ := setupExecutor(t)
	h1, err := exec.Evaluate("my-app:build", []hashplan.HashInstruction{hashplan.Environment{Var: "NODE_ENV"}}, map[string]string{"NODE_ENV": "production"})
	require.NoError(t, err)

	h2, err := exec.Evaluate("my-app:build", []hashplan.HashInstruction{hashplan.Environment{Var: "NODE_ENV"}}, map[string]string{"NODE_ENV": "development"})
	require.NoError(t, err)

	assert.NotEqual(t, h1.Value, h2.Value)
}

func TestEvaluateIsDeterministicAcrossInstructionOrder(t *testing.T) {
	exec, _ := setupExecutor(t)

	a, err := exec.Evaluate("my-app:build", []hashplan.HashInstruction{
		hashplan.Environment{Var: "NODE_ENV"},
		hashplan.ProjectConfiguration{Project: "my-app"},
	}, map[string]string{"NODE_ENV": "production"})
	require.NoError(t, err)

	b, err := exec.Evaluate("my-app:build", []hashplan.HashInstruction{
		hashplan.ProjectConfiguration{Project: "my-app"},
		hashplan.Environment{Var: "NODE_ENV"},
	}, map[string]string{"NODE_ENV": "production"})
	require.NoError(t, err)

	assert.Equal(t, a.Value, b.Value)
}

func TestEvaluateExternalUsesDeclaredHash(t *testing.T) {
	exec, _ := setupExecutor(t)
	result, err := exec.Evaluate("my-app:build", []hashplan.HashInstruction{hashplan.External{Package: "npm:react"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "react-hash", result.Details[hashplan.External{Package: "npm:react"}.Serialize()])
}

func TestEvaluateProjectFileSetPicksUpKnownFiles(t *testing.T) {
	exec, _ := setupExecutor(t)
	result, err := exec.Evaluate("my-app:build", []hashplan.HashInstruction{
		hashplan.ProjectFileSet{Project: "my-app", Patterns: []string{"apps/my-app/**/*.ts"}},
	}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Value)
}

func TestEvaluateUnreadableRuntimeCommandIsStructuredError(t *testing.T) {
	exec, _ := setupExecutor(t)
	_, err := exec.Evaluate("my-app:build", []hashplan.HashInstruction{
		hashplan.Runtime{Command: "exit 17"},
	}, nil)
	assert.Error(t, err)
}

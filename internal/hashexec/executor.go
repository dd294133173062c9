// Package hashexec evaluates the HashInstructions produced by hashplan into
// concrete hash strings and combines them into a task's fingerprint.
package hashexec

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/nxnative/core/internal/env"
	"github.com/nxnative/core/internal/globby"
	"github.com/nxnative/core/internal/globmatch"
	"github.com/nxnative/core/internal/hashplan"
	"github.com/nxnative/core/internal/projecttrie"
	"github.com/nxnative/core/internal/tsconfig"
	"github.com/nxnative/core/internal/workspacefs"
	"github.com/nxnative/core/internal/xhash"
)

// ProjectFiles exposes the per-project and global file views the executor
// needs to evaluate ProjectFileSet instructions without walking the whole
// workspace file map for every instruction.
type ProjectFiles interface {
	FilesForProject(project string) []workspacefs.FileData
	ProjectRoot(project string) (string, bool)
	ProjectConfigJSON(project string) (string, error)
	TsConfig(project string) (tsconfig.Config, bool)
}

// TaskHashDetails is the result of combining a task's instruction hashes
// into its fingerprint.
type TaskHashDetails struct {
	Value   string
	Details map[string]string
}

// Executor evaluates HashInstructions into hash strings and combines them.
// Per-instruction results are cached by serialized instruction string, since
// the same instruction frequently recurs across sibling tasks; a Runtime
// instruction's key also includes the task's env.
type Executor struct {
	workspaceRoot string
	workspace     *workspacefs.Context
	projectFiles  ProjectFiles
	externalDeps  map[string]string // external node name -> declared hash
	trie          *projecttrie.Trie
	logger        hclog.Logger

	cacheMu sync.Mutex
	cache   map[string]string
}

// NewExecutor builds an Executor over a workspace index, a project-file
// view, the external dependency hash table, and the project-root trie used
// to scope TsConfiguration path mappings.
func NewExecutor(workspaceRoot string, workspace *workspacefs.Context, projectFiles ProjectFiles, externalDeps map[string]string, trie *projecttrie.Trie, logger hclog.Logger) *Executor {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Executor{
		workspaceRoot: workspaceRoot,
		workspace:     workspace,
		projectFiles:  projectFiles,
		externalDeps:  externalDeps,
		trie:          trie,
		logger:        logger,
		cache:         map[string]string{},
	}
}

// Evaluate evaluates every instruction for a single task (in parallel,
// through a work-stealing errgroup) and combines the results by sorting
// (instruction, hash) pairs lexicographically by instruction string and
// hashing the concatenation of hash values.
func (e *Executor) Evaluate(taskID string, instructions []hashplan.HashInstruction, taskEnv env.EnvironmentVariableMap) (TaskHashDetails, error) {
	details := make(map[string]string, len(instructions))
	var mu sync.Mutex
	var g errgroup.Group
	var errs *multierror.Error
	var errMu sync.Mutex

	for _, instr := range instructions {
		instr := instr
		g.Go(func() error {
			hash, err := e.evaluateOne(instr, taskEnv)
			if err != nil {
				errMu.Lock()
				errs = multierror.Append(errs, fmt.Errorf("task %s, instruction %s: %w", taskID, instr.Serialize(), err))
				errMu.Unlock()
				return nil
			}
			mu.Lock()
			details[instr.Serialize()] = hash
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if errs != nil {
		return TaskHashDetails{}, errs.ErrorOrNil()
	}

	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	hashes := make([]string, len(keys))
	for i, k := range keys {
		hashes[i] = details[k]
	}

	return TaskHashDetails{
		Value:   xhash.CombineHashes(hashes),
		Details: details,
	}, nil
}

func (e *Executor) evaluateOne(instr hashplan.HashInstruction, taskEnv env.EnvironmentVariableMap) (string, error) {
	key := instr.Serialize()
	if _, ok := instr.(hashplan.Runtime); ok {
		pairs := taskEnv.ToPairs()
		sort.Strings(pairs)
		key += "\x00" + strings.Join(pairs, "\x00")
	}

	e.cacheMu.Lock()
	if cached, ok := e.cache[key]; ok {
		e.cacheMu.Unlock()
		return cached, nil
	}
	e.cacheMu.Unlock()

	hash, err := e.compute(instr, taskEnv)
	if err != nil {
		return "", err
	}

	e.cacheMu.Lock()
	e.cache[key] = hash
	e.cacheMu.Unlock()
	return hash, nil
}

func (e *Executor) compute(instr hashplan.HashInstruction, taskEnv env.EnvironmentVariableMap) (string, error) {
	switch v := instr.(type) {
	case hashplan.WorkspaceFileSet:
		return e.workspace.HashFilesMatchingGlob(v.Patterns, nil)

	case hashplan.ProjectFileSet:
		return e.hashProjectFileSet(v)

	case hashplan.Runtime:
		return e.hashRuntime(v.Command, taskEnv)

	case hashplan.Environment:
		return xhash.HashString(taskEnv[v.Var]), nil

	case hashplan.ProjectConfiguration:
		cfg, err := e.projectFiles.ProjectConfigJSON(v.Project)
		if err != nil {
			return "", err
		}
		return xhash.HashString(cfg), nil

	case hashplan.TsConfiguration:
		cfg, ok := e.projectFiles.TsConfig(v.Project)
		if !ok {
			return "", nil
		}
		return tsconfig.Hash(cfg, v.Project, e.trie, e.externalDeps["npm:typescript"]), nil

	case hashplan.TaskOutput:
		return e.hashTaskOutput(v)

	case hashplan.External:
		if hash, ok := e.externalDeps[v.Package]; ok {
			return hash, nil
		}
		return xhash.HashString(v.Package), nil

	case hashplan.AllExternalDependencies:
		return e.hashAllExternalDependencies(), nil

	default:
		return "", fmt.Errorf("hashexec: unknown instruction type %T", instr)
	}
}

// hashProjectFileSet restricts matching to the project's known file list,
// then walks the project directory on disk to pick up any matching file
// that is absent from the map (git-ignored but explicitly referenced).
func (e *Executor) hashProjectFileSet(v hashplan.ProjectFileSet) (string, error) {
	gs, err := globmatch.CompileCached(v.Patterns)
	if err != nil {
		return "", err
	}

	var hashes []string
	seen := map[string]bool{}
	for _, fd := range e.projectFiles.FilesForProject(v.Project) {
		if gs.IsMatch(fd.File) {
			hashes = append(hashes, fd.Hash)
			seen[fd.File] = true
		}
	}

	root, ok := e.projectFiles.ProjectRoot(v.Project)
	if ok {
		extra := globby.GlobFiles(root, v.Patterns, nil)
		for _, path := range extra {
			rel := strings.TrimPrefix(path, root+"/")
			if seen[rel] {
				continue
			}
			hash, err := xhash.HashFile(path)
			if err != nil {
				continue
			}
			hashes = append(hashes, hash)
		}
	}

	if len(hashes) == 0 {
		return "", nil
	}
	return xhash.CombineSorted(hashes), nil
}

// hashRuntime executes command in the workspace root and hashes its
// stdout. evaluateOne caches the result under the instruction's serialized
// string joined with the task's sorted env pairs, so tasks that run the
// same command with different env do not share a result.
func (e *Executor) hashRuntime(command string, taskEnv env.EnvironmentVariableMap) (string, error) {
	cmd := exec.Command("sh", "-c", command)
	cmd.Dir = e.workspaceRoot
	cmd.Env = append(os.Environ(), taskEnv.ToPairs()...)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("runtime command %q failed: %w", command, err)
	}
	return xhash.HashBytes(out), nil
}

func (e *Executor) hashTaskOutput(v hashplan.TaskOutput) (string, error) {
	var hashes []string
	for _, output := range v.Outputs {
		matches := globby.GlobFiles(output, []string{v.Glob}, nil)
		for _, path := range matches {
			hash, err := xhash.HashFile(path)
			if err != nil {
				continue
			}
			hashes = append(hashes, hash)
		}
	}
	if len(hashes) == 0 {
		return "", nil
	}
	return xhash.CombineSorted(hashes), nil
}

func (e *Executor) hashAllExternalDependencies() string {
	keys := make([]string, 0, len(e.externalDeps))
	for k := range e.externalDeps {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	hashes := make([]string, len(keys))
	for i, k := range keys {
		hashes[i] = e.externalDeps[k]
	}
	return xhash.CombineHashes(hashes)
}

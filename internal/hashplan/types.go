// Package hashplan produces, for each task in a task graph, the ordered
// list of HashInstructions whose combined hash is that task's fingerprint.
// The planner is pure over the project graph and task graph: it never reads
// a file or computes a hash itself, only decides what must be hashed.
package hashplan

import (
	"fmt"
	"strings"
)

// HashInstruction is one thing the hash executor must evaluate into a
// concrete hash string. Implementations are a closed set.
type HashInstruction interface {
	// Serialize returns the stable string form used both as the
	// lexicographic ordering key and as the
	// per-instruction cache key in the executor.
	Serialize() string
}

// WorkspaceFileSet hashes the workspace files matching patterns.
type WorkspaceFileSet struct {
	Patterns []string
}

func (w WorkspaceFileSet) Serialize() string {
	return "WorkspaceFileSet:" + strings.Join(w.Patterns, ",")
}

// ProjectFileSet hashes a project's files matching patterns, additionally
// walking the filesystem for git-ignored files explicitly named.
type ProjectFileSet struct {
	Project  string
	Patterns []string
}

func (p ProjectFileSet) Serialize() string {
	return "ProjectFileSet:" + p.Project + ":" + strings.Join(p.Patterns, ",")
}

// Runtime hashes the stdout of running Command in the workspace root.
type Runtime struct {
	Command string
}

func (r Runtime) Serialize() string { return "runtime:" + r.Command }

// Environment hashes the value (or empty string) of an environment variable.
type Environment struct {
	Var string
}

func (e Environment) Serialize() string { return "env:" + e.Var }

// ProjectConfiguration hashes the normalized configuration of a project.
type ProjectConfiguration struct {
	Project string
}

func (p ProjectConfiguration) Serialize() string { return "ProjectConfiguration:" + p.Project }

// TsConfiguration hashes the project-scoped TypeScript compiler options.
type TsConfiguration struct {
	Project string
}

func (t TsConfiguration) Serialize() string { return "TsConfig:" + t.Project }

// TaskOutput hashes the declared output files of a task, for chained
// cache restores (a task whose inputs include another task's outputs).
type TaskOutput struct {
	Glob    string
	Outputs []string
}

func (t TaskOutput) Serialize() string {
	return "TaskOutput:" + t.Glob + ":" + strings.Join(t.Outputs, ",")
}

// External hashes a single named external dependency.
type External struct {
	Package string
}

func (e External) Serialize() string { return "External:" + e.Package }

// AllExternalDependencies hashes the combination of every external node.
type AllExternalDependencies struct{}

func (AllExternalDependencies) Serialize() string { return "AllExternalDependencies" }

// ParseInstruction rebuilds a typed instruction from its stable serialized
// form. The planner's contract is a list of instruction strings; this is
// how the hash executor gets back to the tagged union.
func ParseInstruction(s string) (HashInstruction, error) {
	switch {
	case s == AllExternalDependencies{}.Serialize():
		return AllExternalDependencies{}, nil
	case strings.HasPrefix(s, "WorkspaceFileSet:"):
		return WorkspaceFileSet{Patterns: splitList(strings.TrimPrefix(s, "WorkspaceFileSet:"))}, nil
	case strings.HasPrefix(s, "ProjectFileSet:"):
		rest := strings.TrimPrefix(s, "ProjectFileSet:")
		i := strings.Index(rest, ":")
		if i < 0 {
			return nil, fmt.Errorf("hashplan: malformed ProjectFileSet instruction %q", s)
		}
		return ProjectFileSet{Project: rest[:i], Patterns: splitList(rest[i+1:])}, nil
	case strings.HasPrefix(s, "runtime:"):
		return Runtime{Command: strings.TrimPrefix(s, "runtime:")}, nil
	case strings.HasPrefix(s, "env:"):
		return Environment{Var: strings.TrimPrefix(s, "env:")}, nil
	case strings.HasPrefix(s, "ProjectConfiguration:"):
		return ProjectConfiguration{Project: strings.TrimPrefix(s, "ProjectConfiguration:")}, nil
	case strings.HasPrefix(s, "TsConfig:"):
		return TsConfiguration{Project: strings.TrimPrefix(s, "TsConfig:")}, nil
	case strings.HasPrefix(s, "TaskOutput:"):
		rest := strings.TrimPrefix(s, "TaskOutput:")
		i := strings.Index(rest, ":")
		if i < 0 {
			return nil, fmt.Errorf("hashplan: malformed TaskOutput instruction %q", s)
		}
		return TaskOutput{Glob: rest[:i], Outputs: splitList(rest[i+1:])}, nil
	case strings.HasPrefix(s, "External:"):
		return External{Package: strings.TrimPrefix(s, "External:")}, nil
	}
	return nil, fmt.Errorf("hashplan: unrecognized instruction %q", s)
}

// ParseInstructions converts a whole serialized plan.
func ParseInstructions(serialized []string) ([]HashInstruction, error) {
	out := make([]HashInstruction, len(serialized))
	for i, s := range serialized {
		instr, err := ParseInstruction(s)
		if err != nil {
			return nil, err
		}
		out[i] = instr
	}
	return out, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// Input is one thing a task declares as an input, before it has been
// resolved into HashInstructions. It mirrors the project configuration's
// raw input declarations.
type Input interface {
	isInput()
}

// FileSet is a glob pattern input. A pattern prefixed with `{projectRoot}/`
// (or its negation `!{projectRoot}/`) is project-scoped; everything else is
// workspace-scoped.
type FileSet string

func (FileSet) isInput() {}

// RuntimeInput runs a shell command and hashes its stdout.
type RuntimeInput string

func (RuntimeInput) isInput() {}

// EnvironmentInput hashes an environment variable's value.
type EnvironmentInput string

func (EnvironmentInput) isInput() {}

// ExternalDependencyInput names an external package whose transitive
// closure must be included in the target's External instructions.
type ExternalDependencyInput []string

func (ExternalDependencyInput) isInput() {}

// SplitInputs is a task's inputs, already divided into inputs that apply to
// the task's own target and inputs that should be gathered from each
// dependency.
type SplitInputs struct {
	SelfInputs []Input
	DepsInputs []Input
}

// Target is a project's named task definition.
type Target struct {
	Executor string
	Inputs   []Input
}

// ProjectNode is one project in the project graph.
type ProjectNode struct {
	Name    string
	Targets map[string]Target
}

// ExternalNode is a third-party dependency tracked by the project graph.
type ExternalNode struct {
	Name string
	Hash string
}

// ProjectGraph is the (read-only, never mutated during a run) project
// dependency graph the planner walks.
type ProjectGraph struct {
	Nodes         map[string]ProjectNode
	ExternalNodes map[string]ExternalNode
	// Dependencies maps a project name to the names of its direct
	// dependencies, which may be other projects or external nodes.
	Dependencies map[string][]string
}

// Task identifies one project:target pair in the task graph.
type Task struct {
	ID      string
	Project string
	Target  string
}

// TaskGraph is the task execution graph the planner consults for task
// metadata; it does not own dependency ordering (that belongs to the
// caller's scheduler).
type TaskGraph struct {
	Tasks map[string]Task
}

const workspaceRootPrefix = "{workspaceRoot}/"
const projectRootPrefix = "{projectRoot}/"
const negatedProjectRootPrefix = "!{projectRoot}/"

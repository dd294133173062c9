package hashplan

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nxnative/core/internal/util"
)

// Planner computes, per task, the ordered list of serialized
// HashInstructions that make up its fingerprint. It memoizes per task id
// (the dependency-input gathering in particular is expensive and shared
// across sibling dependents), matching taskhash.Tracker's caching shape.
type Planner struct {
	nxJSONFiles  []string // {workspaceRoot}/nx.json, .gitignore, .nxignore
	projectGraph *ProjectGraph

	mu         sync.Mutex
	taskInputs map[string][]string
}

// NewPlanner constructs a Planner over a fixed project graph. nxJSONFiles is
// the set of workspace-root sentinel files appended to every
// WorkspaceFileSet instruction (nx.json, .gitignore, .nxignore).
func NewPlanner(projectGraph *ProjectGraph, nxJSONFiles []string) *Planner {
	return &Planner{
		nxJSONFiles:  nxJSONFiles,
		projectGraph: projectGraph,
		taskInputs:   map[string][]string{},
	}
}

// GetPlans computes the instruction list for every task id in parallel,
// returning task id -> serialized instruction strings.
func (p *Planner) GetPlans(taskIDs []string, taskGraph TaskGraph, inputsByTask map[string]SplitInputs) (map[string][]string, error) {
	externalDepsMapped := p.setupExternalDeps()

	results := make(map[string][]string, len(taskIDs))
	var mu sync.Mutex
	var g errgroup.Group

	for _, id := range taskIDs {
		id := id
		g.Go(func() error {
			task, ok := taskGraph.Tasks[id]
			if !ok {
				return fmt.Errorf("hashplan: unknown task %q", id)
			}
			inputs := inputsByTask[id]

			target, err := p.targetInput(task.Project, task.Target, inputs.SelfInputs, externalDepsMapped)
			if err != nil {
				return err
			}

			selfAndDeps, err := p.selfAndDepsInputs(task.Project, task, inputs, taskGraph, inputsByTask, externalDepsMapped, map[string]bool{})
			if err != nil {
				return err
			}

			combined := append(append([]string{}, target...), selfAndDeps...)

			mu.Lock()
			results[id] = combined
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// targetInput implements step 2: the target's own executor-dependency
// instruction, either a single first-party executor package or the
// transitive external closure of every declared ExternalDependency input.
func (p *Planner) targetInput(projectName string, targetName string, selfInputs []Input, externalDepsMap map[string][]string) ([]string, error) {
	project, ok := p.projectGraph.Nodes[projectName]
	if !ok {
		return nil, fmt.Errorf("hashplan: unknown project %q", projectName)
	}
	target, ok := project.Targets[targetName]
	if !ok {
		return nil, nil
	}

	externalKeys := make([]string, 0, len(p.projectGraph.ExternalNodes))
	for k := range p.projectGraph.ExternalNodes {
		externalKeys = append(externalKeys, k)
	}

	if strings.HasPrefix(target.Executor, "@nrwl/") || strings.HasPrefix(target.Executor, "@nx/") {
		executorPackage := strings.SplitN(target.Executor, ":", 2)[0]
		name, ok := findExternalDependencyNodeName(executorPackage, externalKeys)
		if !ok {
			return nil, fmt.Errorf("hashplan: executor package %q for %s:%s not found among external dependencies", executorPackage, projectName, targetName)
		}
		return []string{External{Package: name}.Serialize()}, nil
	}

	var externalDeps []string
	for _, input := range selfInputs {
		deps, ok := input.(ExternalDependencyInput)
		if !ok {
			continue
		}
		for _, dep := range deps {
			name, ok := findExternalDependencyNodeName(dep, externalKeys)
			if !ok {
				return nil, fmt.Errorf("hashplan: externalDependency %q for %s:%s could not be found", dep, projectName, targetName)
			}
			externalDeps = append(externalDeps, name)
			externalDeps = append(externalDeps, externalDepsMap[name]...)
		}
	}

	if len(externalDeps) > 0 {
		out := make([]string, len(externalDeps))
		for i, name := range externalDeps {
			out[i] = External{Package: name}.Serialize()
		}
		return out, nil
	}
	return []string{AllExternalDependencies{}.Serialize()}, nil
}

// selfAndDepsInputs implements steps 3-5: the task's own file/runtime/env
// instructions plus, recursively, the same for each project dependency,
// memoized per task id.
func (p *Planner) selfAndDepsInputs(
	projectName string,
	task Task,
	inputs SplitInputs,
	taskGraph TaskGraph,
	inputsByTask map[string]SplitInputs,
	externalDepsMap map[string][]string,
	visited map[string]bool,
) ([]string, error) {
	p.mu.Lock()
	if cached, ok := p.taskInputs[task.ID]; ok {
		p.mu.Unlock()
		return cached, nil
	}
	p.mu.Unlock()

	self := p.gatherSelfInputs(projectName, inputs.SelfInputs)
	deps, err := p.gatherDependencyInputs(task, inputs.DepsInputs, taskGraph, inputsByTask, externalDepsMap, visited)
	if err != nil {
		return nil, err
	}

	combined := append(self, deps...)

	p.mu.Lock()
	p.taskInputs[task.ID] = combined
	p.mu.Unlock()
	return combined, nil
}

// gatherSelfInputs implements the per-project partition of file-set inputs
// into project-rooted and workspace-rooted instructions, plus runtime/env.
func (p *Planner) gatherSelfInputs(projectName string, selfInputs []Input) []string {
	var projectPatterns []string
	var workspacePatterns []string
	var out []string

	for _, input := range selfInputs {
		switch v := input.(type) {
		case FileSet:
			pattern := string(v)
			if strings.HasPrefix(pattern, projectRootPrefix) || strings.HasPrefix(pattern, negatedProjectRootPrefix) {
				projectPatterns = append(projectPatterns, pattern)
			} else {
				workspacePatterns = append(workspacePatterns, pattern)
			}
		case RuntimeInput:
			out = append(out, Runtime{Command: string(v)}.Serialize())
		case EnvironmentInput:
			out = append(out, Environment{Var: string(v)}.Serialize())
		}
	}

	if len(projectPatterns) > 0 {
		out = append(out,
			ProjectFileSet{Project: projectName, Patterns: projectPatterns}.Serialize(),
			ProjectConfiguration{Project: projectName}.Serialize(),
			TsConfiguration{Project: projectName}.Serialize(),
		)
	}
	if len(workspacePatterns) > 0 {
		patterns := append(append([]string{}, workspacePatterns...), p.nxJSONFiles...)
		out = append(out, WorkspaceFileSet{Patterns: patterns}.Serialize())
	}

	return out
}

// gatherDependencyInputs walks the project graph's direct dependency list,
// recursively invoking selfAndDepsInputs at each project dependency and
// folding in the external closure for each external-only dependency. A
// project dependency's own inputs are looked up under its task id
// (project#target, from util.GetTaskId), the same keying GetPlans uses
// for the tasks themselves.
func (p *Planner) gatherDependencyInputs(
	task Task,
	depsInputs []Input,
	taskGraph TaskGraph,
	inputsByTask map[string]SplitInputs,
	externalDepsMap map[string][]string,
	visited map[string]bool,
) ([]string, error) {
	var out []string
	deps := p.projectGraph.Dependencies[task.Project]
	if len(deps) == 0 {
		return out, nil
	}

	for range depsInputs {
		for _, dep := range deps {
			if visited[dep] {
				continue
			}
			visited[dep] = true

			if _, ok := p.projectGraph.Nodes[dep]; ok {
				depTaskID := util.GetTaskId(dep, task.Target)
				depTask, ok := taskGraph.Tasks[depTaskID]
				if !ok {
					depTask = Task{ID: depTaskID, Project: dep, Target: task.Target}
				}
				depInputs := inputsByTask[depTaskID]
				nested, err := p.selfAndDepsInputs(dep, depTask, depInputs, taskGraph, inputsByTask, externalDepsMap, copyVisited(visited))
				if err != nil {
					return nil, err
				}
				out = append(out, nested...)
			} else if externalDeps, ok := externalDepsMap[dep]; ok {
				for _, name := range externalDeps {
					out = append(out, External{Package: name}.Serialize())
				}
			}
		}
	}

	return out, nil
}

// setupExternalDeps precomputes, for every external node, its transitive
// closure of external dependency names.
func (p *Planner) setupExternalDeps() map[string][]string {
	out := make(map[string][]string, len(p.projectGraph.ExternalNodes))
	for name := range p.projectGraph.ExternalNodes {
		out[name] = findAllExternalDependencyClosure(name, p.projectGraph)
	}
	return out
}

func findAllExternalDependencyClosure(name string, graph *ProjectGraph) []string {
	visited := map[string]bool{name: true}
	var closure []string
	queue := append([]string{}, graph.Dependencies[name]...)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if visited[next] {
			continue
		}
		visited[next] = true
		if _, ok := graph.ExternalNodes[next]; ok {
			closure = append(closure, next)
		}
		queue = append(queue, graph.Dependencies[next]...)
	}
	sort.Strings(closure)
	return closure
}

func findExternalDependencyNodeName(pkg string, externalKeys []string) (string, bool) {
	for _, key := range externalKeys {
		if key == pkg || strings.HasSuffix(key, pkg) {
			return key, true
		}
	}
	return "", false
}

func copyVisited(v map[string]bool) map[string]bool {
	out := make(map[string]bool, len(v))
	for k := range v {
		out[k] = true
	}
	return out
}

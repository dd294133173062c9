package hashplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simpleGraph() *ProjectGraph {
	return &ProjectGraph{
		Nodes: map[string]ProjectNode{
			"app": {
				Name: "app",
				Targets: map[string]Target{
					"build": {Executor: "nx:run-commands"},
				},
			},
			"lib": {
				Name: "lib",
				Targets: map[string]Target{
					"build": {Executor: "nx:run-commands"},
				},
			},
		},
		ExternalNodes: map[string]ExternalNode{
			"npm:react": {Name: "npm:react", Hash: "abc"},
		},
		Dependencies: map[string][]string{
			"app": {"lib"},
			"lib": {"npm:react"},
		},
	}
}

func TestTargetInputFirstPartyExecutorEmitsExternal(t *testing.T) {
	graph := &ProjectGraph{
		Nodes: map[string]ProjectNode{
			"app": {Targets: map[string]Target{"build": {Executor: "@nx/webpack:build"}}},
		},
		ExternalNodes: map[string]ExternalNode{
			"npm:@nx/webpack": {Name: "npm:@nx/webpack"},
		},
		Dependencies: map[string][]string{},
	}
	p := NewPlanner(graph, nil)

	instructions, err := p.targetInput("app", "build", nil, map[string][]string{})
	require.NoError(t, err)
	assert.Equal(t, []string{External{Package: "npm:@nx/webpack"}.Serialize()}, instructions)
}

func TestTargetInputFallsBackToAllExternalDependencies(t *testing.T) {
	graph := simpleGraph()
	p := NewPlanner(graph, nil)

	instructions, err := p.targetInput("app", "build", nil, map[string][]string{})
	require.NoError(t, err)
	assert.Equal(t, []string{AllExternalDependencies{}.Serialize()}, instructions)
}

func TestTargetInputExpandsExternalDependencyInput(t *testing.T) {
	graph := simpleGraph()
	p := NewPlanner(graph, nil)
	externalDepsMap := map[string][]string{"npm:react": {}}

	instructions, err := p.targetInput("app", "build", []Input{ExternalDependencyInput{"npm:react"}}, externalDepsMap)
	require.NoError(t, err)
	assert.Equal(t, []string{External{Package: "npm:react"}.Serialize()}, instructions)
}

func TestGatherSelfInputsPartitionsProjectAndWorkspacePatterns(t *testing.T) {
	p := NewPlanner(simpleGraph(), []string{"{workspaceRoot}/nx.json", "{workspaceRoot}/.gitignore", "{workspaceRoot}/.nxignore"})

	out := p.gatherSelfInputs("app", []Input{
		FileSet("{projectRoot}/**/*.ts"),
		FileSet("{workspaceRoot}/tsconfig.base.json"),
		RuntimeInput("node --version"),
		EnvironmentInput("NODE_ENV"),
	})

	assert.Contains(t, out, ProjectFileSet{Project: "app", Patterns: []string{"{projectRoot}/**/*.ts"}}.Serialize())
	assert.Contains(t, out, ProjectConfiguration{Project: "app"}.Serialize())
	assert.Contains(t, out, TsConfiguration{Project: "app"}.Serialize())
	assert.Contains(t, out, Runtime{Command: "node --version"}.Serialize())
	assert.Contains(t, out, Environment{Var: "NODE_ENV"}.Serialize())

	var workspaceInstr string
	for _, instr := range out {
		if len(instr) > len("WorkspaceFileSet:") && instr[:len("WorkspaceFileSet:")] == "WorkspaceFileSet:" {
			workspaceInstr = instr
		}
	}
	require.NotEmpty(t, workspaceInstr)
	assert.Contains(t, workspaceInstr, "{workspaceRoot}/tsconfig.base.json")
	assert.Contains(t, workspaceInstr, "{workspaceRoot}/nx.json")
}

func TestGetPlansIsMemoizedPerTask(t *testing.T) {
	graph := simpleGraph()
	p := NewPlanner(graph, nil)
	taskGraph := TaskGraph{Tasks: map[string]Task{
		"app#build": {ID: "app#build", Project: "app", Target: "build"},
		"lib#build": {ID: "lib#build", Project: "lib", Target: "build"},
	}}
	inputs := map[string]SplitInputs{
		"app#build": {
			SelfInputs: []Input{FileSet("{projectRoot}/**/*.ts")},
			DepsInputs: []Input{FileSet("{projectRoot}/**/*.ts")},
		},
		"lib#build": {SelfInputs: []Input{FileSet("{projectRoot}/**/*.ts")}},
	}

	plans, err := p.GetPlans([]string{"app#build", "lib#build"}, taskGraph, inputs)
	require.NoError(t, err)
	assert.NotEmpty(t, plans["app#build"])
	assert.NotEmpty(t, plans["lib#build"])
	assert.Len(t, p.taskInputs, 2)
}

func TestGetPlansIncludesDependencyInputs(t *testing.T) {
	graph := simpleGraph()
	p := NewPlanner(graph, nil)
	taskGraph := TaskGraph{Tasks: map[string]Task{
		"app#build": {ID: "app#build", Project: "app", Target: "build"},
		"lib#build": {ID: "lib#build", Project: "lib", Target: "build"},
	}}
	inputs := map[string]SplitInputs{
		"app#build": {
			SelfInputs: []Input{FileSet("{projectRoot}/src/**/*.ts")},
			DepsInputs: []Input{FileSet("{projectRoot}/**/*.ts")},
		},
		"lib#build": {SelfInputs: []Input{FileSet("{projectRoot}/lib-only/**/*.ts")}},
	}

	plans, err := p.GetPlans([]string{"app#build"}, taskGraph, inputs)
	require.NoError(t, err)

	// The dependency's own declared inputs, looked up by its task id, must
	// be part of the dependent's plan; a change to lib's inputs has to
	// change app's fingerprint.
	assert.Contains(t, plans["app#build"],
		ProjectFileSet{Project: "lib", Patterns: []string{"{projectRoot}/lib-only/**/*.ts"}}.Serialize())
}

func TestParseInstructionRoundTrip(t *testing.T) {
	instructions := []HashInstruction{
		WorkspaceFileSet{Patterns: []string{"{workspaceRoot}/nx.json", "{workspaceRoot}/**/*.ts"}},
		ProjectFileSet{Project: "web", Patterns: []string{"{projectRoot}/**/*"}},
		Runtime{Command: "node --version"},
		Environment{Var: "NODE_ENV"},
		ProjectConfiguration{Project: "web"},
		TsConfiguration{Project: "web"},
		TaskOutput{Glob: "**/*.js", Outputs: []string{"dist", "build"}},
		External{Package: "npm:react"},
		AllExternalDependencies{},
	}
	for _, instr := range instructions {
		parsed, err := ParseInstruction(instr.Serialize())
		require.NoError(t, err, instr.Serialize())
		assert.Equal(t, instr, parsed)
	}
}

func TestParseInstructionRejectsUnknown(t *testing.T) {
	_, err := ParseInstruction("Bogus:thing")
	assert.Error(t, err)
}

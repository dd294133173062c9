// Command nxcore is a minimal wiring demonstration of the execution
// core: it hashes a single hard-coded task against the current
// workspace, consults the local (and optionally remote) artifact cache,
// and either replays the cached run or executes the task under a PTY
// and stores the result. The real task list, dependency graph, and
// scheduler belong to the out-of-scope orchestration layer.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"github.com/nxnative/core/internal/artifactcache"
	"github.com/nxnative/core/internal/colorcache"
	"github.com/nxnative/core/internal/config"
	"github.com/nxnative/core/internal/env"
	"github.com/nxnative/core/internal/fs"
	"github.com/nxnative/core/internal/hashexec"
	"github.com/nxnative/core/internal/hashplan"
	"github.com/nxnative/core/internal/projecttrie"
	"github.com/nxnative/core/internal/runner"
	"github.com/nxnative/core/internal/telemetry"
	"github.com/nxnative/core/internal/tsconfig"
	"github.com/nxnative/core/internal/tui"
	"github.com/nxnative/core/internal/turbopath"
	"github.com/nxnative/core/internal/util"
	"github.com/nxnative/core/internal/workspacefs"
)

const demoProject = "app"
const demoTarget = "build"

func main() {
	os.Exit(run())
}

func run() int {
	cwd, err := fs.GetCwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	var cacheDir fs.AbsolutePath
	var workers int
	flags := pflag.NewFlagSet("nxcore", pflag.ContinueOnError)
	fs.AbsolutePathVar(flags, &cacheDir, "cache-dir", cwd, "artifact cache directory", ".nxcore-cache")
	flags.Var(&util.ConcurrencyValue{Value: &workers}, "workers", "worker count or percentage of CPUs")
	flags.String("remote-url", "", "remote cache server URL")
	flags.String("remote-token", "", "remote cache bearer token")
	flags.Bool("insecure", false, "skip TLS verification for the remote cache")
	command := flags.String("command", "echo nxcore demo", "demo task command")
	verbosity := flags.CountP("verbose", "v", "log verbosity")
	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	repoRoot := cwd.ToString()
	if marker, err := turbopath.FindupFrom("nx.json", repoRoot); err == nil && marker != "" {
		repoRoot = filepath.Dir(marker)
	}

	loader := config.NewLoader()
	if err := loader.BindFlags(flags); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := loader.LoadProjectFile(filepath.Join(repoRoot, "nxcore.yaml")); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cfg := loader.Resolve(repoRoot)
	if flags.Changed("cache-dir") {
		cfg.CacheDir = cacheDir.ToString()
	} else if cfg.CacheDir == "" {
		cfg.CacheDir = cwd.Join(".nxcore-cache").ToString()
	}

	logger, err := telemetry.NewLogger("nxcore", *verbosity)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer telemetry.CapturePanic(logger)
	metrics := telemetry.NewCollector()

	workspace := workspacefs.NewContext(cfg.RepoRoot, cfg.CacheDir)
	defer workspace.Close()
	workspace.SetProjectRoots(map[string]string{".": demoProject})

	taskID := util.GetTaskId(demoProject, demoTarget)
	graph := &hashplan.ProjectGraph{
		Nodes: map[string]hashplan.ProjectNode{
			demoProject: {
				Name: demoProject,
				Targets: map[string]hashplan.Target{
					demoTarget: {Executor: "nxcore:run-commands"},
				},
			},
		},
	}
	taskGraph := hashplan.TaskGraph{
		Tasks: map[string]hashplan.Task{
			taskID: {ID: taskID, Project: demoProject, Target: demoTarget},
		},
	}
	inputs := map[string]hashplan.SplitInputs{
		taskID: {SelfInputs: []hashplan.Input{
			hashplan.FileSet("{projectRoot}/**/*"),
			hashplan.EnvironmentInput("NODE_ENV"),
		}},
	}

	planner := hashplan.NewPlanner(graph, []string{
		"{workspaceRoot}/nx.json",
		"{workspaceRoot}/.gitignore",
		"{workspaceRoot}/.nxignore",
	})
	plans, err := planner.GetPlans([]string{taskID}, taskGraph, inputs)
	if err != nil {
		logger.Error("planning failed", "error", err)
		return 1
	}
	instructions, err := hashplan.ParseInstructions(plans[taskID])
	if err != nil {
		logger.Error("plan parse failed", "error", err)
		return 1
	}

	trie := projecttrie.FromRoots(map[string]string{".": demoProject})
	executor := hashexec.NewExecutor(cfg.RepoRoot, workspace, demoProjectFiles{root: cfg.RepoRoot}, nil, trie, logger)
	details, err := executor.Evaluate(taskID, instructions, env.GetEnvMap())
	if err != nil {
		logger.Error("hashing failed", "error", err)
		return 1
	}
	logger.Info("task fingerprint computed", "task", taskID, "hash", details.Value)

	cache, err := artifactcache.NewLocalCache(cfg.CacheDir)
	if err != nil {
		logger.Error("cache open failed", "error", err)
		return 1
	}
	defer cache.Close()

	colors := colorcache.New()
	if result, hit, err := cache.Get(details.Value); err != nil {
		logger.Error("cache read failed", "error", err)
		return 1
	} else if hit {
		metrics.RecordCacheHit()
		fmt.Print(result.TerminalOutput)
		return int(result.Code)
	}

	if cfg.RemoteURL != "" {
		remote := artifactcache.NewRemoteCache(cfg.RemoteURL, cfg.RemoteToken, cfg.Insecure)
		if result, hit, err := remote.Fetch(filepath.Join(cfg.CacheDir, details.Value), details.Value); err != nil {
			logger.Warn("remote cache fetch failed", "error", err)
		} else if hit {
			if err := cache.ApplyRemoteCacheResult(details.Value, result); err != nil {
				logger.Error("applying remote cache result failed", "error", err)
				return 1
			}
			metrics.RecordCacheHit()
			fmt.Print(result.TerminalOutput)
			return int(result.Code)
		}
	}
	metrics.RecordCacheMiss()

	pty := tui.NewPtyInstance()
	var captured []byte
	taskRunner := runner.New(cfg.CacheDir, logger)
	manager := runner.NewManager(taskRunner, logger)
	defer manager.Close()
	result := manager.Run(runner.Spec{
		TaskID:  taskID,
		Command: "sh",
		Args:    []string{"-c", *command},
		Dir:     cfg.RepoRoot,
		Env:     env.GetEnvMap(),
	}, func(_ string, chunk []byte) {
		captured = append(captured, chunk...)
		pty.Write(chunk)
	})
	if result.Err != nil {
		logger.Error("task failed to start", "task", taskID, "error", result.Err)
		return result.ExitCode
	}
	pty.SetExitCode(result.ExitCode)

	if err := cache.Put(cfg.RepoRoot, details.Value, captured, nil, int16(result.ExitCode)); err != nil {
		logger.Error("cache store failed", "error", err)
	}
	if err := runner.ReplayLog(logger, colors, os.Stdout, taskID, taskRunner.LogPath(taskID)); err != nil {
		logger.Warn("replay failed", "error", err)
	}

	stats := metrics.Stats()
	logger.Debug("run finished",
		"duration", result.Duration.Round(time.Millisecond),
		"cache_hits", stats.CacheHits,
		"cache_misses", stats.CacheMisses,
	)
	return result.ExitCode
}

// demoProjectFiles adapts the single hard-coded demo project to the hash
// executor's project-file view.
type demoProjectFiles struct {
	root string
}

func (d demoProjectFiles) FilesForProject(string) []workspacefs.FileData { return nil }

func (d demoProjectFiles) ProjectRoot(string) (string, bool) { return d.root, true }

func (d demoProjectFiles) ProjectConfigJSON(string) (string, error) {
	return fmt.Sprintf(`{"name":%q,"targets":[%q]}`, demoProject, demoTarget), nil
}

func (d demoProjectFiles) TsConfig(string) (tsconfig.Config, bool) { return tsconfig.Config{}, false }

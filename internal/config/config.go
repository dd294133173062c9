// Package config loads the ambient configuration surface (cache
// directory, remote cache URL/token, worker count) from flags,
// environment variables, and an optional project config file, using the
// same layered viper setup the rest of the pack reaches for.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/nxnative/core/internal/util"
)

const envPrefix = "NXCORE"

// Config is the resolved ambient configuration for one invocation.
type Config struct {
	CacheDir     string
	RemoteURL    string
	RemoteToken  string
	Workers      int
	Insecure     bool
	RepoRoot     string
}

// Loader wraps a viper instance configured with NXCORE_-prefixed
// environment overrides, mirroring gendocs' Loader.
type Loader struct {
	v *viper.Viper
}

// NewLoader builds a Loader with defaults applied and environment
// variables bound.
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("cache_dir", defaultCacheDir())
	v.SetDefault("workers", defaultWorkers())
	v.SetDefault("insecure", false)

	return &Loader{v: v}
}

// BindFlags binds the flags backing the resolved config (cache dir,
// remote URL/token, workers, insecure), so CLI overrides take precedence
// over environment and defaults per viper's normal layering.
func (l *Loader) BindFlags(flags *pflag.FlagSet) error {
	for _, name := range []string{"cache-dir", "remote-url", "remote-token", "workers", "insecure"} {
		if flag := flags.Lookup(name); flag != nil {
			if err := l.v.BindPFlag(strings.ReplaceAll(name, "-", "_"), flag); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadProjectFile merges a project-level config file (e.g. nx.json-style
// fragment) at the given path if it exists. A missing file is not an
// error, matching gendocs' loadProjectConfig.
func (l *Loader) LoadProjectFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	l.v.SetConfigFile(path)
	return l.v.MergeInConfig()
}

// Resolve produces the final Config for the given repo root. The
// NX_SELF_HOSTED_REMOTE_CACHE_SERVER / _ACCESS_TOKEN and
// NODE_TLS_REJECT_UNAUTHORIZED=0 environment contract applies when no
// explicit nxcore configuration was given.
func (l *Loader) Resolve(repoRoot string) Config {
	cfg := Config{
		CacheDir:    l.v.GetString("cache_dir"),
		RemoteURL:   l.v.GetString("remote_url"),
		RemoteToken: l.v.GetString("remote_token"),
		Workers:     l.resolveWorkers(),
		Insecure:    l.v.GetBool("insecure"),
		RepoRoot:    repoRoot,
	}
	if cfg.RemoteURL == "" {
		cfg.RemoteURL = os.Getenv("NX_SELF_HOSTED_REMOTE_CACHE_SERVER")
	}
	if cfg.RemoteToken == "" {
		cfg.RemoteToken = os.Getenv("NX_SELF_HOSTED_REMOTE_CACHE_ACCESS_TOKEN")
	}
	if os.Getenv("NODE_TLS_REJECT_UNAUTHORIZED") == "0" {
		cfg.Insecure = true
	}
	return cfg
}

// resolveWorkers accepts either an absolute count ("8") or a percentage
// of available CPUs ("50%"). Unparseable values fall back to the CPU
// count default.
func (l *Loader) resolveWorkers() int {
	raw := l.v.GetString("workers")
	if raw == "" {
		return defaultWorkers()
	}
	workers, err := util.ParseConcurrency(raw)
	if err != nil {
		return defaultWorkers()
	}
	return workers
}

func defaultCacheDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "nxcore")
	}
	return ".nxcore-cache"
}

func defaultWorkers() int {
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	return n
}

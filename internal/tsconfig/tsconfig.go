// Package tsconfig implements the project-scoped TypeScript configuration
// hash used by the hash executor's TsConfiguration instruction: every
// compiler option (in a fixed field order) plus only the path-mapping
// entries whose target files belong to the project being hashed.
package tsconfig

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nxnative/core/internal/projecttrie"
	"github.com/nxnative/core/internal/xhash"
)

// Config is the subset of a tsconfig.json this package cares about:
// compiler options (an arbitrary string-keyed bag, since the option set
// keeps growing) and path mappings.
type Config struct {
	CompilerOptions map[string]interface{}
	Paths           map[string][]string
}

// Hash computes the project-scoped TsConfiguration hash for project:
// every compiler option in sorted key order, plus only the paths entries
// whose targets fall under the project's root according to trie.
// typescriptExternalHash, if non-empty, is prepended (the project graph's
// declared hash for the `typescript` external node).
func Hash(cfg Config, project string, trie *projecttrie.Trie, typescriptExternalHash string) string {
	var parts []string
	if typescriptExternalHash != "" {
		parts = append(parts, typescriptExternalHash)
	}

	parts = append(parts, serializeCompilerOptions(cfg.CompilerOptions))
	parts = append(parts, serializeScopedPaths(cfg.Paths, project, trie))

	return xhash.HashString(strings.Join(parts, "\x00"))
}

// serializeCompilerOptions stringifies every compiler option in a fixed
// (sorted) field order so that key-insertion order in the source JSON
// never affects the hash.
func serializeCompilerOptions(options map[string]interface{}) string {
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%v;", k, options[k])
	}
	return b.String()
}

// serializeScopedPaths keeps only path-mapping entries at least one of
// whose targets belongs to project (per the project-root trie), so that a
// project is only sensitive to the subset of the path map it can actually
// resolve through.
func serializeScopedPaths(paths map[string][]string, project string, trie *projecttrie.Trie) string {
	keys := make([]string, 0, len(paths))
	for k := range paths {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, alias := range keys {
		targets := paths[alias]
		var scoped []string
		for _, target := range targets {
			if owningProject, ok := trie.FindProjectForPath(strings.TrimPrefix(target, "./")); ok && owningProject == project {
				scoped = append(scoped, target)
			}
		}
		if len(scoped) == 0 {
			continue
		}
		sort.Strings(scoped)
		fmt.Fprintf(&b, "%s=%s;", alias, strings.Join(scoped, ","))
	}
	return b.String()
}

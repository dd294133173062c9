// Package env models the environment variable sets that feed task
// hashing and task execution.
package env

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/nxnative/core/internal/xhash"
)

// EnvironmentVariableMap is a map of env variables and their values
type EnvironmentVariableMap map[string]string

// EnvironmentVariablePairs is a list of "k=v" strings for env variables and their values
type EnvironmentVariablePairs []string

// GetEnvMap returns a map of env vars and their values from os.Environ
func GetEnvMap() EnvironmentVariableMap {
	envMap := make(EnvironmentVariableMap)
	for _, envVar := range os.Environ() {
		if i := strings.Index(envVar, "="); i >= 0 {
			envMap[envVar[:i]] = envVar[i+1:]
		}
	}
	return envMap
}

// FromPairs builds a map from "k=v" strings, the inverse of ToPairs.
func FromPairs(pairs []string) EnvironmentVariableMap {
	evm := make(EnvironmentVariableMap, len(pairs))
	for _, pair := range pairs {
		if i := strings.Index(pair, "="); i >= 0 {
			evm[pair[:i]] = pair[i+1:]
		}
	}
	return evm
}

// Union takes another EnvironmentVariableMap and adds it into the receiver
// It overwrites values if they already exist.
func (evm EnvironmentVariableMap) Union(another EnvironmentVariableMap) {
	for k, v := range another {
		evm[k] = v
	}
}

// Difference takes another EnvironmentVariableMap and removes matching keys
// from the receiver
func (evm EnvironmentVariableMap) Difference(another EnvironmentVariableMap) {
	for k := range another {
		delete(evm, k)
	}
}

// Add creates one new environment variable.
func (evm EnvironmentVariableMap) Add(key string, value string) {
	evm[key] = value
}

// Names returns a sorted list of env var names for the EnvironmentVariableMap
func (evm EnvironmentVariableMap) Names() []string {
	names := []string{}
	for k := range evm {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ToPairs returns a deterministically sorted set of EnvironmentVariablePairs
// from an EnvironmentVariableMap, suitable for exec.Cmd.Env.
func (evm EnvironmentVariableMap) ToPairs() EnvironmentVariablePairs {
	if evm == nil {
		return nil
	}
	pairs := make([]string, 0, len(evm))
	for k, v := range evm {
		pairs = append(pairs, fmt.Sprintf("%v=%v", k, v))
	}
	sort.Strings(pairs)
	return pairs
}

// Hash returns the hash of the sorted key=value pairs. Used as a task hash
// input, so it must be deterministic.
func (evm EnvironmentVariableMap) Hash() string {
	return xhash.HashString(strings.Join(evm.ToPairs(), "\n"))
}

// Package telemetry provides the ambient structured-logging setup and a
// lightweight in-process metrics collector (scan duration, cache hit/miss
// counts, glob cache hit rate). It deliberately stops at collection:
// transporting metrics anywhere is out of scope.
package telemetry

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/hashicorp/go-hclog"
)

const envLogLevel = "NXCORE_LOG_LEVEL"

// NewLogger builds the process logger: verbosity 0 falls back to
// NXCORE_LOG_LEVEL (defaulting to silence), verbosity 1-3+ escalate
// through Info/Debug/Trace, and output is discarded entirely when
// nothing was asked for.
func NewLogger(name string, verbosity int) (hclog.Logger, error) {
	var level hclog.Level
	switch verbosity {
	case 0:
		if v := os.Getenv(envLogLevel); v != "" {
			level = hclog.LevelFromString(v)
			if level == hclog.NoLevel {
				return nil, fmt.Errorf("%s value %q is not a valid log level", envLogLevel, v)
			}
		} else {
			level = hclog.NoLevel
		}
	case 1:
		level = hclog.Info
	case 2:
		level = hclog.Debug
	default:
		level = hclog.Trace
	}

	var output io.Writer = ioutil.Discard
	color := hclog.ColorOff
	if level != hclog.NoLevel {
		output = os.Stderr
		color = hclog.AutoColor
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Level:  level,
		Color:  color,
		Output: output,
	}), nil
}

// CapturePanic recovers a panic, logs it at Error level with a stack
// trace, and re-panics so the process still exits non-zero; it exists to
// get a structured log line on the way out rather than a bare stderr
// dump.
func CapturePanic(logger hclog.Logger) {
	if r := recover(); r != nil {
		logger.Error("panic", "value", r)
		panic(r)
	}
}

package telemetry

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerVerbosityLevels(t *testing.T) {
	logger, err := NewLogger("nxcore", 1)
	require.NoError(t, err)
	assert.Equal(t, hclog.Info, logger.GetLevel())

	logger, err = NewLogger("nxcore", 2)
	require.NoError(t, err)
	assert.Equal(t, hclog.Debug, logger.GetLevel())

	logger, err = NewLogger("nxcore", 3)
	require.NoError(t, err)
	assert.Equal(t, hclog.Trace, logger.GetLevel())
}

func TestNewLoggerDefaultsToSilent(t *testing.T) {
	logger, err := NewLogger("nxcore", 0)
	require.NoError(t, err)
	assert.Equal(t, hclog.NoLevel, logger.GetLevel())
}

func TestNewLoggerRejectsInvalidEnvLevel(t *testing.T) {
	t.Setenv(envLogLevel, "not-a-level")
	_, err := NewLogger("nxcore", 0)
	assert.Error(t, err)
}

func TestCapturePanicRePanics(t *testing.T) {
	logger := hclog.NewNullLogger()

	defer func() {
		r := recover()
		assert.Equal(t, "boom", r)
	}()
	defer CapturePanic(logger)
	panic("boom")
}

package flags

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApp_NewFlagSet(t *testing.T) {
	t.Parallel()
	app := NewApp()

	flagSet := app.NewFlagSet()

	args := []string{
		"--verbose",
		"--log-level", "warn",
		"--log-json",
		"--config", "hedgefetch.yaml",
	}

	err := flagSet.Parse(args)
	assert.NoError(t, err)

	result := app.GetApp()

	assert.True(t, result.Verbose, "The verbose flag should be parsed correctly")
	assert.Equal(t, "warn", result.LogLevel, "The log-level flag should be parsed correctly")
	assert.True(t, result.LogJSON, "The log-json flag should be parsed correctly")
	assert.Equal(t, "hedgefetch.yaml", result.Config, "The config flag should be parsed correctly")
}

func TestHedge_NewFlagSet(t *testing.T) {
	t.Parallel()
	h := NewHedge()

	flagSet := h.NewFlagSet()

	args := []string{
		"--interval", "250ms",
		"--max-attempts", "5",
		"--guard-band", "20ms",
		"--cancel-abandoned",
	}

	err := flagSet.Parse(args)
	assert.NoError(t, err)

	result := h.GetHedge()

	assert.Equal(t, 250*time.Millisecond, result.Interval, "The interval flag should be parsed correctly")
	assert.Equal(t, 5, result.MaxAttempts, "The max-attempts flag should be parsed correctly")
	assert.Equal(t, 20*time.Millisecond, result.GuardBand, "The guard-band flag should be parsed correctly")
	assert.True(t, result.CancelAbandoned, "The cancel-abandoned flag should be parsed correctly")
}

func TestHedge_NewFlagSet_DefaultValues(t *testing.T) {
	t.Parallel()
	h := NewHedge()

	flagSet := h.NewFlagSet()

	err := flagSet.Parse([]string{})
	assert.NoError(t, err)

	result := h.GetHedge()

	assert.Equal(t, time.Second, result.Interval)
	assert.Equal(t, 3, result.MaxAttempts)
	assert.Equal(t, 10*time.Millisecond, result.GuardBand)
	assert.False(t, result.CancelAbandoned)
}

func TestHTTP_NewFlagSet(t *testing.T) {
	t.Parallel()
	h := NewHTTP()

	flagSet := h.NewFlagSet()

	args := []string{
		"--timeout", "5s",
		"--rate", "2.5",
		"--burst", "3",
		"-H", "Accept: text/plain",
		"-H", "X-Trace: 1",
		"--fail-status", "429",
		"--parallel", "8",
		"--output", "/tmp/out",
	}

	err := flagSet.Parse(args)
	assert.NoError(t, err)

	result := h.GetHTTP()

	assert.Equal(t, 5*time.Second, result.Timeout)
	assert.Equal(t, 2.5, result.RatePerSecond)
	assert.Equal(t, 3, result.Burst)
	assert.Equal(t, []string{"Accept: text/plain", "X-Trace: 1"}, result.Headers)
	assert.Equal(t, 429, result.FailStatus)
	assert.Equal(t, 8, result.Parallel)
	assert.Equal(t, "/tmp/out", result.Output)
}

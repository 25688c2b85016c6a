package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" INFO ", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"trace", zerolog.TraceLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err)
		require.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"loud", ""} {
		_, err := ParseLevel(bad)
		require.ErrorContains(t, err, "invalid log level", bad)
	}
}

func TestNewLoggerLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "debug", false, true)
	require.NoError(t, err)
	logger.Info().Msg("hidden")
	require.Zero(t, buf.Len(), "info must be filtered without verbose")

	logger, err = NewLogger(&buf, "info", true, true)
	require.NoError(t, err)
	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")
	require.Contains(t, buf.String(), `"message":"shown"`)
	require.NotContains(t, buf.String(), "hidden")

	_, err = NewLogger(&buf, "loud", true, true)
	require.Error(t, err)
}

func TestNewLoggerConsole(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "", false, false)
	require.NoError(t, err)
	logger.Warn().Str("url", "http://x").Msg("slow")
	require.Contains(t, buf.String(), "slow")
	require.Contains(t, buf.String(), "url=")
}

func TestSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	Summary(logger, "http://a", 200, 12, time.Millisecond, nil)
	Summary(logger, "http://b", 0, 0, time.Millisecond, errors.New("boom"))

	dec := json.NewDecoder(&buf)
	var ok, failed map[string]any
	require.NoError(t, dec.Decode(&ok))
	require.NoError(t, dec.Decode(&failed))

	require.Equal(t, "info", ok["level"])
	require.Equal(t, "http://a", ok["url"])
	require.EqualValues(t, 200, ok["status"])
	require.EqualValues(t, 12, ok["bytes"])

	require.Equal(t, "error", failed["level"])
	require.Equal(t, "boom", failed["error"])
}

// Package logging builds the hedgefetch logger.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "15:04:05.000"

// NewLogger returns a logger writing to w. Without verbose only warnings and
// errors are written; with verbose the level is taken from level.
func NewLogger(w io.Writer, level string, isVerbose, isJSON bool) (zerolog.Logger, error) {
	lvl := zerolog.WarnLevel

	if isVerbose {
		var err error

		lvl, err = ParseLevel(level)
		if err != nil {
			return zerolog.Nop(), err
		}
	}

	if !isJSON {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: consoleTimeFormat}
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// ParseLevel parses a zerolog level name, also accepting "warning" for warn.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = zerolog.LevelWarnValue
	}

	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.NoLevel, fmt.Errorf("invalid log level: %q", s)
	}

	return lvl, nil
}

// Summary logs the outcome of one fetched URL.
func Summary(logger zerolog.Logger, url string, status int, size int64, elapsed time.Duration, err error) {
	if err != nil {
		logger.Error().Err(err).
			Str("url", url).
			Dur("elapsed", elapsed).
			Msg("fetch failed")

		return
	}

	logger.Info().
		Str("url", url).
		Int("status", status).
		Int64("bytes", size).
		Dur("elapsed", elapsed).
		Msg("fetched")
}

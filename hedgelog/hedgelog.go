// Package hedgelog connects the progress reporting of hedged runs to common
// structured loggers.
//
// Launches, hedges and successes are logged at debug level. Failed attempts
// are logged at warn level, except the failure of the last permitted attempt,
// which is logged as an error.
package hedgelog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/go-logr/logr"
	"github.com/rs/zerolog"

	"andy.dev/hedge"
)

const (
	keyRun     = "run_id"
	keyAttempt = "attempt"
	keyMax     = "max_attempts"
	keyEvent   = "event"
	keyElapsed = "elapsed"
)

func message(s hedge.Status) string {
	switch s.Event {
	case hedge.EventLaunch:
		return "attempt launched"
	case hedge.EventHedge:
		return "no response within interval, hedging"
	case hedge.EventAccelerate:
		return "sibling failed late, launching early"
	case hedge.EventFailure:
		return "attempt failed"
	case hedge.EventSuccess:
		return "attempt succeeded"
	default:
		return s.Event.String()
	}
}

// Zerolog reports run events to l.
func Zerolog(l zerolog.Logger) hedge.Option {
	return hedge.Each(func(s hedge.Status) {
		var ev *zerolog.Event
		switch {
		case s.Event == hedge.EventFailure && s.Last():
			ev = l.Error()
		case s.Event == hedge.EventFailure:
			ev = l.Warn()
		default:
			ev = l.Debug()
		}
		ev.Str(keyRun, s.RunID).
			Int(keyAttempt, s.Attempt).
			Int(keyMax, s.MaxAttempts).
			Stringer(keyEvent, s.Event).
			Dur(keyElapsed, s.Elapsed).
			Err(s.Err).
			Msg(message(s))
	})
}

// Slog reports run events to l.
func Slog(l *slog.Logger) hedge.Option {
	return hedge.Each(func(s hedge.Status) {
		level := slog.LevelDebug
		switch {
		case s.Event == hedge.EventFailure && s.Last():
			level = slog.LevelError
		case s.Event == hedge.EventFailure:
			level = slog.LevelWarn
		}
		attrs := []slog.Attr{
			slog.String(keyRun, s.RunID),
			slog.Int(keyAttempt, s.Attempt),
			slog.Int(keyMax, s.MaxAttempts),
			slog.String(keyEvent, s.Event.String()),
			slog.Duration(keyElapsed, s.Elapsed),
		}
		if s.Err != nil {
			attrs = append(attrs, slog.Any("error", s.Err))
		}
		l.LogAttrs(context.Background(), level, message(s), attrs...)
	})
}

// Logr reports run events to l. Everything but failures is logged at V(1).
func Logr(l logr.Logger) hedge.Option {
	return hedge.Each(func(s hedge.Status) {
		kv := []any{
			keyRun, s.RunID,
			keyAttempt, s.Attempt,
			keyMax, s.MaxAttempts,
			keyEvent, s.Event.String(),
			keyElapsed, s.Elapsed,
		}
		switch {
		case s.Event == hedge.EventFailure && s.Last():
			l.Error(s.Err, message(s), kv...)
		case s.Event == hedge.EventFailure:
			l.Info(message(s), append(kv, "error", s.Err.Error())...)
		default:
			l.V(1).Info(message(s), kv...)
		}
	})
}

// Writer returns a log sink, for use with [hedge.Log], that writes one line
// per message to w. It is safe to share between concurrent runs.
func Writer(w io.Writer) func(string) {
	var mu sync.Mutex
	return func(line string) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(w, line)
	}
}

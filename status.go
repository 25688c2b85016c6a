package hedge

import (
	"context"
	"fmt"
	"time"
)

type statusCtxKeyT string

const (
	statusCtxKey statusCtxKeyT = "hedge"
)

// GetStatus can be used to retrieve information about the current attempt
// from within the transport function, as opposed to setting a callback with
// [Each]. The returned Status describes the attempt's launch.
// It will return Status{} if not called from a hedged run, so make sure to
// check [Status.RunID] if your function might be run outside of one.
func GetStatus(ctx context.Context) Status {
	status := ctx.Value(statusCtxKey)
	if status == nil {
		return Status{}
	}
	return status.(Status)
}

// Event identifies what happened to an attempt.
type Event int

const (
	// EventLaunch is reported when an attempt's transport is invoked.
	EventLaunch Event = iota
	// EventHedge is reported when an attempt's timer expires while earlier
	// attempts are still in flight, right before it is launched.
	EventHedge
	// EventAccelerate is reported when a pending attempt is launched early
	// because a sibling failed close to the interval boundary.
	EventAccelerate
	// EventFailure is reported for every failed attempt.
	EventFailure
	// EventSuccess is reported for the attempt whose value is delivered.
	EventSuccess
)

var eventNames = [...]string{
	EventLaunch:     "launch",
	EventHedge:      "hedge",
	EventAccelerate: "accelerate",
	EventFailure:    "failure",
	EventSuccess:    "success",
}

// String implements fmt.Stringer
func (e Event) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return fmt.Sprintf("event(%d)", int(e))
	}
	return eventNames[e]
}

// Status describes one scheduling event of a run.
type Status struct {
	// RunID is unique per run and shared by all of its attempts.
	RunID string
	// Attempt is the 0-based sequence number of the attempt concerned.
	Attempt     int
	MaxAttempts int
	Event       Event
	// Err is set for EventFailure.
	Err error
	// Elapsed is the attempt's duration for EventFailure and EventSuccess, and
	// the time since the run started otherwise.
	Elapsed time.Duration
}

// Last reports whether the status concerns the last permitted attempt.
func (s Status) Last() bool {
	return s.Attempt == s.MaxAttempts-1
}

// String implements fmt.Stringer
func (s Status) String() string {
	return fmt.Sprintf("attempt %d/%d", s.Attempt+1, s.MaxAttempts)
}

// Format implements fmt.Formatter it supports the %s and %q print verbs. Output
// is flag-dependent:
//
//	%s -  "attempt #/#"
//	%+s - "attempt #/# <event> after <duration>"
//
// Where '#' is the attempt number as an integer starting from '1' followed by
// the maximum number of attempts.
func (s Status) Format(state fmt.State, verb rune) {
	switch verb {
	case 's', 'q':
		str := s.String()
		if state.Flag('+') {
			str = fmt.Sprintf("%s %s after %v", str, s.Event, shortDuration(s.Elapsed))
		}
		if verb == 'q' {
			str = fmt.Sprintf("%q", str)
		}
		fmt.Fprint(state, str)
	}
}

func shortDuration(d time.Duration) time.Duration {
	switch {
	case d < time.Millisecond:
		return d.Truncate(time.Microsecond)
	case d < time.Second:
		return d.Truncate(time.Millisecond)
	case d < time.Minute:
		return d.Round(10 * time.Millisecond)
	default:
		return d.Round(time.Second)
	}
}

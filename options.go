package hedge

import (
	"time"
)

// Option represents an optional run setting.
type Option func(o *opts)

// WithPolicy applies the settings in a [Policy] to a run, allowing you to
// reuse a set of options for multiple requests. Fields are taken as they are,
// except GuardBand, where zero selects DefaultGuardBand.
func WithPolicy(p Policy) Option {
	return func(o *opts) {
		o.interval = p.Interval
		o.maxAttempts = p.MaxAttempts
		o.guardBand = p.GuardBand
		if o.guardBand == 0 {
			o.guardBand = DefaultGuardBand
		}
		o.cancelAbandoned = p.CancelAbandoned
		o.eachFn = p.Each
		o.logFn = p.Log
	}
}

// Interval sets the delay between attempt launches. Zero launches every
// attempt back to back. Defaults to DefaultInterval (1 * time.Second).
func Interval(d time.Duration) Option {
	return func(o *opts) {
		o.interval = d
	}
}

// MaxAttempts caps the number of times the transport is invoked during a run,
// including the first attempt. Must be at least 1. Defaults to
// DefaultMaxAttempts (3).
func MaxAttempts(n int) Option {
	return func(o *opts) {
		o.maxAttempts = n
	}
}

// GuardBand sets the margin used to decide whether a failed attempt failed
// "late": if the attempt ran for at least Interval minus GuardBand, the next
// pending attempt is launched right away instead of waiting for its timer.
// Defaults to DefaultGuardBand (10 * time.Millisecond).
func GuardBand(d time.Duration) Option {
	return func(o *opts) {
		o.guardBand = d
	}
}

// CancelAbandoned gives every attempt its own context and cancels the
// contexts of all attempts other than the winner once the run concludes.
// The winner's context is never cancelled by the run, since its value may
// still depend on it; it is released when the caller's context ends.
// By default abandoned attempts keep running and their results are ignored.
func CancelAbandoned(enabled bool) Option {
	return func(o *opts) {
		o.cancelAbandoned = enabled
	}
}

// Each sets a function to be called for every scheduling event of a run:
// launches, hedges, accelerations, failures and the winning success. Multiple
// Each options are called in the order they were given. Functions are called
// from the run's scheduling goroutine and should return quickly.
func Each(eachFn func(Status)) Option {
	return func(o *opts) {
		if eachFn == nil {
			return
		}
		if prev := o.eachFn; prev != nil {
			o.eachFn = func(s Status) {
				prev(s)
				eachFn(s)
			}
			return
		}
		o.eachFn = eachFn
	}
}

// Log sets a sink for human-readable progress lines. Every line is prefixed
// with the time elapsed since the run started. A nil sink disables logging.
func Log(sink func(string)) Option {
	return func(o *opts) {
		o.logFn = sink
	}
}

// Abandoned sets a function that receives the values of attempts that
// succeeded after the run had already concluded, for example to close
// response bodies nobody will read. Multiple Abandoned options are called in
// the order they were given. They are called from a background goroutine.
func Abandoned[OUT any](fn func(OUT)) Option {
	return func(o *opts) {
		if fn == nil {
			return
		}
		next := func(v any) {
			if out, ok := v.(OUT); ok {
				fn(out)
			}
		}
		if prev := o.abandonedFn; prev != nil {
			o.abandonedFn = func(v any) {
				prev(v)
				next(v)
			}
			return
		}
		o.abandonedFn = next
	}
}

func newOpts(options []Option) *opts {
	o := &opts{
		interval:    DefaultInterval,
		maxAttempts: DefaultMaxAttempts,
		guardBand:   DefaultGuardBand,
	}
	for _, opt := range options {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func (o *opts) validate(ve *ValidationError) {
	if o.interval < 0 {
		ve.Add("interval must not be negative, got %v", o.interval)
	}
	if o.maxAttempts < 1 {
		ve.Add("max attempts must be a positive number, got %d", o.maxAttempts)
	}
	if o.guardBand < 0 {
		ve.Add("guard band must not be negative, got %v", o.guardBand)
	}
}

type opts struct {
	interval        time.Duration
	maxAttempts     int
	guardBand       time.Duration
	cancelAbandoned bool
	eachFn          func(Status)
	logFn           func(string)
	abandonedFn     func(any)
}

package hedge

import (
	"context"
	"time"
)

const (
	DefaultInterval    = 1 * time.Second
	DefaultMaxAttempts = 3
	DefaultGuardBand   = 10 * time.Millisecond
)

// Transport performs one attempt of the request being hedged. It will be
// called concurrently with itself, so the request it makes must be safe to
// execute more than once.
type Transport[OUT any] func(context.Context) (OUT, error)

// Result is the single outcome of a run.
type Result[OUT any] struct {
	// Value is the winning attempt's value, or the zero value on failure.
	Value OUT
	// Err is nil on success. If every attempt failed, it wraps the error of
	// the last permitted attempt and [Exhausted] reports true for it. If the
	// context ended first, it is the context's cause.
	Err error
	// Attempt is the 0-based sequence number of the attempt that produced the
	// result, or -1 if the context ended first.
	Attempt int
}

// Run starts a hedged run of fn in the background and returns immediately.
// onResult is called exactly once, from another goroutine, with the outcome of
// the run. If the arguments are malformed Run returns a [*ValidationError] and
// neither fn nor onResult is ever called.
//
// For more information on how attempts are scheduled and which outcome is
// delivered, see the package documentation.
func Run[OUT any](
	ctx context.Context,
	fn Transport[OUT],
	onResult func(Result[OUT]),
	options ...Option,
) error {
	ve := &ValidationError{}
	if onResult == nil {
		ve.Add("result callback must be a function, it receives the outcome of the run")
	}
	r, err := newRun(ctx, fn, options, ve)
	if err != nil {
		return err
	}
	go func() {
		onResult(r.loop())
	}()
	return nil
}

// Fn is a hedging runner for functions with the signature of:
//
//	func() error
//
// The error returned will be nil if any attempt succeeded, the error of the
// last permitted attempt otherwise.
func Fn(ctx context.Context,
	fn func() error,
	options ...Option,
) error {
	if fn == nil {
		return FnCtx(ctx, nil, options...)
	}
	return FnCtx(ctx, func(context.Context) error {
		return fn()
	}, options...)
}

// FnCtx is a hedging runner for functions with the signature of:
//
//	func(context.Context) error
//
// The context passed to fn carries the attempt's [Status], see [GetStatus].
func FnCtx(
	ctx context.Context,
	fn func(context.Context) error,
	options ...Option,
) error {
	if fn == nil {
		_, err := FnOutCtx[struct{}](ctx, nil, options...)
		return err
	}
	_, err := FnOutCtx(ctx, func(ictx context.Context) (struct{}, error) {
		return struct{}{}, fn(ictx)
	}, options...)
	return err
}

// FnOut is a hedging runner for functions with the signature of:
//
//	func() (OUT, error)
//
// Where OUT is a return value of any type.
func FnOut[OUT any](
	ctx context.Context,
	fn func() (OUT, error),
	options ...Option,
) (OUT, error) {
	if fn == nil {
		return FnOutCtx[OUT](ctx, nil, options...)
	}
	return FnOutCtx(ctx, func(context.Context) (OUT, error) {
		return fn()
	}, options...)
}

// FnOutCtx is a hedging runner for functions with the signature of:
//
//	func(context.Context) (OUT, error)
//
// Where OUT is a return value of any type.
//
// It blocks until the run concludes and returns the value of the first
// attempt to succeed, or the error of the last permitted attempt. Attempts
// still in flight at that point are abandoned, not waited for.
func FnOutCtx[OUT any](
	ctx context.Context,
	fn func(context.Context) (OUT, error),
	options ...Option,
) (OUT, error) {
	r, err := newRun(ctx, fn, options, &ValidationError{})
	if err != nil {
		var zero OUT
		return zero, err
	}
	res := r.loop()
	return res.Value, res.Err
}

package hedge

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"andy.dev/hedge/pending"
)

// run is the scheduling state of a single hedged request. Everything except
// the channels is owned by the goroutine executing loop; attempts and timers
// only ever talk to it by sending on fired and settled.
type run[OUT any] struct {
	ctx context.Context
	fn  Transport[OUT]
	o   *opts
	id  string

	start    time.Time
	timers   *pending.Queue
	cancels  map[int]context.CancelFunc
	launched int

	fired   chan int
	settled chan outcome[OUT]
	// closed when the run has concluded; late attempts and timers give up
	// their send when they see it.
	done chan struct{}
}

type outcome[OUT any] struct {
	attempt int
	value   OUT
	err     error
	elapsed time.Duration
}

func newRun[OUT any](
	ctx context.Context,
	fn Transport[OUT],
	options []Option,
	ve *ValidationError,
) (*run[OUT], error) {
	if ctx == nil {
		ve.Add("context must not be nil, use context.Background()")
	}
	if fn == nil {
		ve.Add("transport must be a function, it performs one attempt of the request")
	}
	o := newOpts(options)
	o.validate(ve)
	if err := ve.Err(); err != nil {
		return nil, err
	}
	return &run[OUT]{
		ctx:     ctx,
		fn:      fn,
		o:       o,
		id:      uuid.NewString(),
		timers:  pending.New(),
		fired:   make(chan int),
		settled: make(chan outcome[OUT]),
		done:    make(chan struct{}),
	}, nil
}

func (r *run[OUT]) loop() (res Result[OUT]) {
	r.start = time.Now()
	defer func() {
		r.finish(res)
	}()

	r.launch(0)
	for {
		select {
		case seq := <-r.fired:
			if !r.timers.Remove(seq) {
				// cancelled after the timer had already fired
				continue
			}
			r.logf("#%d no response in %v, firing #%d", seq-1, r.o.interval, seq)
			r.emit(r.status(EventHedge, seq, time.Since(r.start), nil))
			r.launch(seq)
		case out := <-r.settled:
			if res, concluded := r.settle(out); concluded {
				return res
			}
		case <-r.ctx.Done():
			err := context.Cause(r.ctx)
			r.logf("run stopped after %d attempt(s): %v", r.launched, err)
			return Result[OUT]{Err: err, Attempt: -1}
		}
	}
}

// settle decides what an attempt's outcome means for the run. It reports
// true when the outcome concludes the run.
func (r *run[OUT]) settle(out outcome[OUT]) (Result[OUT], bool) {
	if out.err == nil {
		r.logf("#%d completed, duration = %v", out.attempt, shortDuration(out.elapsed))
		r.emit(r.status(EventSuccess, out.attempt, out.elapsed, nil))
		return Result[OUT]{Value: out.value, Attempt: out.attempt}, true
	}

	r.logf("#%d failed after %v: %v", out.attempt, shortDuration(out.elapsed), out.err)
	r.emit(r.status(EventFailure, out.attempt, out.elapsed, out.err))
	if out.attempt == r.o.maxAttempts-1 {
		return Result[OUT]{Err: errExhausted(out.err, out.attempt), Attempt: out.attempt}, true
	}

	// A failure this close to the interval means the next timer is about to
	// fire anyway. Failures well inside the interval leave the schedule alone.
	if out.elapsed+r.o.guardBand >= r.o.interval {
		if next, ok := r.timers.Pop(); ok {
			r.logf("#%d failed late, firing #%d now", out.attempt, next)
			r.emit(r.status(EventAccelerate, next, time.Since(r.start), nil))
			r.launch(next)
		}
	}
	return Result[OUT]{}, false
}

// launch invokes the transport for attempt seq and arms the timer of the
// attempt after it.
func (r *run[OUT]) launch(seq int) {
	r.launched++
	status := r.status(EventLaunch, seq, time.Since(r.start), nil)
	r.logf("#%d request about to fire", seq)
	r.emit(status)

	actx := r.ctx
	if r.o.cancelAbandoned {
		var cancel context.CancelFunc
		actx, cancel = context.WithCancel(actx)
		if r.cancels == nil {
			r.cancels = make(map[int]context.CancelFunc)
		}
		r.cancels[seq] = cancel
	}
	go r.attempt(context.WithValue(actx, statusCtxKey, status), seq)

	if next := seq + 1; next < r.o.maxAttempts {
		r.timers.Arm(next, r.o.interval, r.fire)
	}
}

func (r *run[OUT]) attempt(ctx context.Context, seq int) {
	start := time.Now()
	value, err := call(ctx, r.fn)
	out := outcome[OUT]{
		attempt: seq,
		value:   value,
		err:     err,
		elapsed: time.Since(start),
	}
	select {
	case r.settled <- out:
	case <-r.done:
		if err == nil && r.o.abandonedFn != nil {
			r.o.abandonedFn(value)
		}
	}
}

func (r *run[OUT]) fire(seq int) {
	select {
	case r.fired <- seq:
	case <-r.done:
	}
}

// finish releases everything the run still holds. The winner's context is
// left alone since its value may still depend on it (a response body, say);
// it is released together with the caller's context.
func (r *run[OUT]) finish(res Result[OUT]) {
	if n := r.timers.Stop(); n > 0 {
		r.logf("cancelled %d scheduled attempt(s)", n)
	}
	close(r.done)
	for seq, cancel := range r.cancels {
		if seq != res.Attempt || res.Err != nil {
			cancel()
		}
	}
}

func (r *run[OUT]) status(ev Event, attempt int, elapsed time.Duration, err error) Status {
	return Status{
		RunID:       r.id,
		Attempt:     attempt,
		MaxAttempts: r.o.maxAttempts,
		Event:       ev,
		Err:         err,
		Elapsed:     elapsed,
	}
}

func (r *run[OUT]) emit(s Status) {
	if r.o.eachFn != nil {
		r.o.eachFn(s)
	}
}

func (r *run[OUT]) logf(format string, a ...any) {
	if r.o.logFn == nil {
		return
	}
	r.o.logFn(fmt.Sprintf("+%v %s", shortDuration(time.Since(r.start)), fmt.Sprintf(format, a...)))
}

// call converts a panicking transport into a failed attempt.
func call[OUT any](ctx context.Context, fn Transport[OUT]) (value OUT, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &PanicError{Value: p, Stack: debug.Stack()}
		}
	}()
	return fn(ctx)
}

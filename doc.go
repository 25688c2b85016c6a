/*
Package hedge runs idempotent requests with overlapping retries.

Instead of waiting for an attempt to fail before trying again, hedge launches a
new attempt every [Interval] for as long as no attempt has succeeded, up to
[MaxAttempts] attempts in total. Attempts race each other and the first one to
succeed wins. This trims the latency tail of requests that occasionally stall,
at the price of sending some requests more than once.

# Scheduling

A run proceeds as follows:
  - Attempt #0 is launched immediately, and the timer for attempt #1 is armed.
  - Whenever an attempt's timer expires, that attempt is launched and the
    timer for the one after it is armed.
  - When any attempt succeeds, its value is the result of the run. Timers of
    attempts not yet launched are cancelled.
  - When an attempt fails late, within [GuardBand] of the interval, the next
    pending attempt is launched right away instead of waiting for its timer.
    An attempt that fails early does not change the schedule, so a fast
    failing backend is not hammered with back-to-back requests.
  - When the last permitted attempt fails, its error is the result of the run,
    even if earlier attempts are still in flight. [Exhausted] reports true for
    this error.
  - If the context is cancelled first, the result is [context.Cause] of the
    context.

A transport that panics counts as a failed attempt; the panic is returned as a
[*PanicError] if it was the last attempt.

# Abandoned Attempts

Attempts that are still running when the run concludes are abandoned: they are
not waited for and their outcome is discarded. They are not cancelled unless
[CancelAbandoned] is set. Use [Abandoned] to release resources held by values
of attempts that succeed too late to matter.

Because several attempts may be in flight at once and abandoned attempts keep
running, the wrapped request MUST be safe to execute more than once.

# Supported Function Types

	|           Function Signature           |   Method    |
	|----------------------------------------|-------------|
	| func() error                           | Fn          |
	| func()(OUT, error)                     | FnOut       |
	| func(context.Context) error            | FnCtx       |
	| func(context.Context)(OUT, error)      | FnOutCtx    |
	| func(context.Context)(OUT, error)      | Run (async) |
*/
package hedge

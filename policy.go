package hedge

import "time"

// Policy allows you to predefine all of the options for a run ahead of time
// and set them using [WithPolicy].
type Policy struct {
	// Delay between attempt launches.
	// Default: (1 * time.Second) when the Interval option is not used; a
	// Policy is taken literally, so zero launches all attempts at once.
	Interval time.Duration
	// Maximum number of attempts, including the first one. Must be >= 1.
	// Default: 3
	MaxAttempts int
	// Acceleration margin -- see [GuardBand]
	// Default: (10 * time.Millisecond)
	GuardBand time.Duration
	// Cancel losing attempts when the run concludes -- see [CancelAbandoned]
	CancelAbandoned bool
	// Each allows you to observe every scheduling event -- see [Each]
	Each func(Status)
	// Log receives human-readable progress lines -- see [Log]
	Log func(string)
}

// Validate reports every problem with the policy in a single
// [*ValidationError], or nil if the policy can be used.
func (p Policy) Validate() error {
	o := newOpts([]Option{WithPolicy(p)})
	ve := &ValidationError{}
	o.validate(ve)
	return ve.Err()
}

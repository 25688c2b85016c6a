package models

import (
	"time"

	"andy.dev/hedge"
)

// Hedge holds the scheduling settings applied to every fetched URL.
type Hedge struct {
	Interval        time.Duration
	MaxAttempts     int
	GuardBand       time.Duration
	CancelAbandoned bool
}

// Policy converts the settings into a hedge.Policy.
func (h *Hedge) Policy() hedge.Policy {
	return hedge.Policy{
		Interval:        h.Interval,
		MaxAttempts:     h.MaxAttempts,
		GuardBand:       h.GuardBand,
		CancelAbandoned: h.CancelAbandoned,
	}
}

func (h *Hedge) Validate() error {
	if h == nil {
		return nil
	}

	return h.Policy().Validate()
}

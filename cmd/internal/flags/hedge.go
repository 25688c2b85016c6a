package flags

import (
	"andy.dev/hedge"
	"andy.dev/hedge/cmd/internal/models"
	"github.com/spf13/pflag"
)

type Hedge struct {
	models.Hedge
}

func NewHedge() *Hedge {
	return &Hedge{}
}

func (f *Hedge) NewFlagSet() *pflag.FlagSet {
	flagSet := &pflag.FlagSet{}

	flagSet.DurationVarP(&f.Interval, "interval", "i",
		hedge.DefaultInterval,
		"Delay before firing another request while earlier ones have not succeeded.")
	flagSet.IntVarP(&f.MaxAttempts, "max-attempts", "n",
		hedge.DefaultMaxAttempts,
		"Maximum number of requests to fire per URL, the first one included.")
	flagSet.DurationVar(&f.GuardBand, "guard-band",
		hedge.DefaultGuardBand,
		"A request failing within this margin of --interval fires the next one immediately.")
	flagSet.BoolVar(&f.CancelAbandoned, "cancel-abandoned",
		false,
		"Cancel requests still in flight once a URL has been fetched.")

	return flagSet
}

func (f *Hedge) GetHedge() *models.Hedge {
	return &f.Hedge
}

package flags

import (
	"net/http"
	"time"

	"andy.dev/hedge/cmd/internal/models"
	"github.com/spf13/pflag"
)

type HTTP struct {
	models.HTTP
}

func NewHTTP() *HTTP {
	return &HTTP{}
}

func (f *HTTP) NewFlagSet() *pflag.FlagSet {
	flagSet := &pflag.FlagSet{}

	flagSet.DurationVarP(&f.Timeout, "timeout", "t",
		30*time.Second,
		"Timeout of a single request. 0 disables it.")
	flagSet.Float64Var(&f.RatePerSecond, "rate",
		0,
		"Maximum number of requests per second across all URLs. 0 means no limit.")
	flagSet.IntVar(&f.Burst, "burst",
		1,
		"Number of requests allowed to exceed --rate at once.")
	flagSet.StringArrayVarP(&f.Headers, "header", "H",
		nil,
		"Header to send with every request, as \"Name: value\". Can be repeated.")
	flagSet.IntVar(&f.FailStatus, "fail-status",
		http.StatusInternalServerError,
		"Lowest response status treated as a failed request.")
	flagSet.IntVarP(&f.Parallel, "parallel", "p",
		4,
		"Number of URLs fetched concurrently.")
	flagSet.StringVarP(&f.Output, "output", "o",
		"",
		"Directory to write response bodies to. Bodies go to stdout when empty.")

	return flagSet
}

func (f *HTTP) GetHTTP() *models.HTTP {
	return &f.HTTP
}

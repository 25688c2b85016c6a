// Package config reads hedgefetch configuration files.
//
// A file provides defaults; flags given on the command line always win.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	yaml "go.yaml.in/yaml/v3"

	"andy.dev/hedge/cmd/internal/models"
)

// File mirrors the YAML layout. Pointers tell unset keys from zero values.
type File struct {
	App   AppSection   `yaml:"app"`
	Hedge HedgeSection `yaml:"hedge"`
	HTTP  HTTPSection  `yaml:"http"`
}

type AppSection struct {
	Verbose  *bool   `yaml:"verbose"`
	LogLevel *string `yaml:"log-level"`
	LogJSON  *bool   `yaml:"log-json"`
}

type HedgeSection struct {
	Interval        *string `yaml:"interval"`
	MaxAttempts     *int    `yaml:"max-attempts"`
	GuardBand       *string `yaml:"guard-band"`
	CancelAbandoned *bool   `yaml:"cancel-abandoned"`
}

type HTTPSection struct {
	Timeout    *string  `yaml:"timeout"`
	Rate       *float64 `yaml:"rate"`
	Burst      *int     `yaml:"burst"`
	Headers    []string `yaml:"headers"`
	FailStatus *int     `yaml:"fail-status"`
	Parallel   *int     `yaml:"parallel"`
	Output     *string  `yaml:"output"`
}

// Load decodes the YAML file at filename. Unknown keys are an error.
func Load(filename string) (*File, error) {
	if filename == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %s: %w", filename, err)
	}
	defer file.Close()

	var f File

	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)

	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", filename, err)
	}

	return &f, nil
}

// Apply copies the values set in the file into the models, skipping every
// value whose flag was set explicitly in flagSet.
func (f *File) Apply(flagSet *pflag.FlagSet, app *models.App, h *models.Hedge, hc *models.HTTP) error {
	a := applier{flagSet: flagSet}

	setValue(&a, "verbose", f.App.Verbose, &app.Verbose)
	setValue(&a, "log-level", f.App.LogLevel, &app.LogLevel)
	setValue(&a, "log-json", f.App.LogJSON, &app.LogJSON)

	a.duration("hedge.interval", "interval", f.Hedge.Interval, &h.Interval)
	setValue(&a, "max-attempts", f.Hedge.MaxAttempts, &h.MaxAttempts)
	a.duration("hedge.guard-band", "guard-band", f.Hedge.GuardBand, &h.GuardBand)
	setValue(&a, "cancel-abandoned", f.Hedge.CancelAbandoned, &h.CancelAbandoned)

	a.duration("http.timeout", "timeout", f.HTTP.Timeout, &hc.Timeout)
	setValue(&a, "rate", f.HTTP.Rate, &hc.RatePerSecond)
	setValue(&a, "burst", f.HTTP.Burst, &hc.Burst)
	setValue(&a, "fail-status", f.HTTP.FailStatus, &hc.FailStatus)
	setValue(&a, "parallel", f.HTTP.Parallel, &hc.Parallel)
	setValue(&a, "output", f.HTTP.Output, &hc.Output)
	if len(f.HTTP.Headers) > 0 && !a.changed("header") {
		hc.Headers = append([]string(nil), f.HTTP.Headers...)
	}

	return a.err
}

type applier struct {
	flagSet *pflag.FlagSet
	err     error
}

func (a *applier) changed(flag string) bool {
	return a.flagSet != nil && a.flagSet.Changed(flag)
}

func (a *applier) duration(path, flag string, raw *string, dst *time.Duration) {
	if raw == nil || a.err != nil || a.changed(flag) {
		return
	}

	d, err := ParseDurationField(path, *raw)
	if err != nil {
		a.err = err
		return
	}

	*dst = d
}

func setValue[T any](a *applier, flag string, v *T, dst *T) {
	if v == nil || a.changed(flag) {
		return
	}

	*dst = *v
}

// ParseDurationField parses a non-negative duration, naming path in errors.
func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}

	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}

	return d, nil
}

package models

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTP holds the settings of the requests sent for every fetched URL.
type HTTP struct {
	// Timeout bounds a single attempt, not the whole run.
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	Headers       []string
	// FailStatus is the lowest status code counted as a failed attempt.
	FailStatus int
	Parallel   int
	Output     string
}

func (h *HTTP) Validate() error {
	if h == nil {
		return nil
	}

	if h.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}

	if h.RatePerSecond < 0 {
		return fmt.Errorf("rate must be non-negative")
	}

	if h.RatePerSecond > 0 && h.Burst < 1 {
		return fmt.Errorf("burst must be at least 1 when rate is set")
	}

	if h.FailStatus < 100 || h.FailStatus > 999 {
		return fmt.Errorf("fail-status must be a valid HTTP status code, got %d", h.FailStatus)
	}

	if h.Parallel < 1 {
		return fmt.Errorf("parallel must be at least 1")
	}

	if _, err := h.Header(); err != nil {
		return err
	}

	return nil
}

// Header parses the "Name: value" header settings.
func (h *HTTP) Header() (http.Header, error) {
	header := make(http.Header, len(h.Headers))
	for _, raw := range h.Headers {
		name, value, ok := strings.Cut(raw, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, expected \"Name: value\"", raw)
		}
		header.Add(name, strings.TrimSpace(value))
	}

	return header, nil
}

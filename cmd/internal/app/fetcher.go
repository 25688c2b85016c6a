// Package app fetches URLs with hedged requests.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"andy.dev/hedge"
	"andy.dev/hedge/cmd/internal/logging"
	"andy.dev/hedge/cmd/internal/models"
	"andy.dev/hedge/hedgehttp"
	"andy.dev/hedge/hedgelog"
)

// Fetcher downloads a list of URLs, hedging every request.
type Fetcher struct {
	client   *hedgehttp.Client
	header   http.Header
	parallel int
	output   string

	// mu serializes writes to stdout so bodies do not interleave.
	mu     sync.Mutex
	stdout io.Writer

	logger zerolog.Logger
}

func NewFetcher(
	hedgeParams *models.Hedge,
	httpParams *models.HTTP,
	stdout io.Writer,
	logger zerolog.Logger,
) (*Fetcher, error) {
	// Validations.
	if err := hedgeParams.Validate(); err != nil {
		return nil, fmt.Errorf("invalid hedge settings: %w", err)
	}

	if err := httpParams.Validate(); err != nil {
		return nil, fmt.Errorf("invalid http settings: %w", err)
	}

	header, err := httpParams.Header()
	if err != nil {
		return nil, err
	}

	if httpParams.Output != "" {
		if err := os.MkdirAll(httpParams.Output, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory %s: %w", httpParams.Output, err)
		}
	}

	// Initializations.
	options := []hedgehttp.Option{
		hedgehttp.WithHTTPClient(&http.Client{Timeout: httpParams.Timeout}),
		hedgehttp.WithFailure(failStatus(httpParams.FailStatus)),
		hedgehttp.WithHedge(
			hedge.WithPolicy(hedgeParams.Policy()),
			hedgelog.Zerolog(logger),
		),
	}
	if httpParams.RatePerSecond > 0 {
		options = append(options, hedgehttp.WithRateLimit(rate.Limit(httpParams.RatePerSecond), httpParams.Burst))
	}

	return &Fetcher{
		client:   hedgehttp.New(options...),
		header:   header,
		parallel: httpParams.Parallel,
		output:   httpParams.Output,
		stdout:   stdout,
		logger:   logger,
	}, nil
}

func failStatus(lowest int) func(*http.Response) bool {
	return func(resp *http.Response) bool {
		return resp.StatusCode >= lowest
	}
}

// Run fetches every URL. A failed URL does not stop the others; all failures
// are returned joined.
func (f *Fetcher) Run(ctx context.Context, urls []string) error {
	if len(urls) == 0 {
		return fmt.Errorf("no urls to fetch")
	}

	for _, u := range urls {
		if err := hedgehttp.ValidateURL(u); err != nil {
			return err
		}
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)

	g.SetLimit(f.parallel)

	for i, u := range urls {
		g.Go(func() error {
			if err := f.fetch(ctx, i, u); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}

			return nil
		})
	}

	_ = g.Wait()

	return errors.Join(errs...)
}

func (f *Fetcher) fetch(ctx context.Context, index int, rawURL string) error {
	start := time.Now()

	status, size, err := f.get(ctx, index, rawURL)
	logging.Summary(f.logger, rawURL, status, size, time.Since(start), err)

	return err
}

func (f *Fetcher) get(ctx context.Context, index int, rawURL string) (int, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create request for %s: %w", rawURL, err)
	}

	for name, values := range f.header {
		req.Header[name] = values
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	size, err := f.write(index, rawURL, resp.Body)
	if err != nil {
		return resp.StatusCode, size, fmt.Errorf("failed to write body of %s: %w", rawURL, err)
	}

	return resp.StatusCode, size, nil
}

func (f *Fetcher) write(index int, rawURL string, body io.Reader) (int64, error) {
	if f.output == "" {
		f.mu.Lock()
		defer f.mu.Unlock()

		return io.Copy(f.stdout, body)
	}

	file, err := os.Create(filepath.Join(f.output, FileName(index, rawURL)))
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(file, body)
	if cerr := file.Close(); err == nil {
		err = cerr
	}

	return n, err
}

// FileName names the output file of the index-th URL.
func FileName(index int, rawURL string) string {
	name := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		name = u.Host + u.Path
	}

	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, strings.TrimSuffix(name, "/"))

	return fmt.Sprintf("%03d_%s.body", index, name)
}

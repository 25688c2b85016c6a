// Package hedgehttp sends HTTP requests through hedged runs.
//
// Every attempt sends its own clone of the request. Responses the caller will
// never see, from attempts that lost the race or failed, are drained and
// closed.
package hedgehttp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"

	"golang.org/x/time/rate"

	"andy.dev/hedge"
)

// maxDrain bounds how much of an unwanted body is read so the connection can
// be reused.
const maxDrain = 64 << 10

// Client sends hedged HTTP requests. The zero value is not usable, create
// one with [New].
type Client struct {
	send      func(*http.Request) (*http.Response, error)
	hedgeOpts []hedge.Option
	limiter   *rate.Limiter
	isFailure func(*http.Response) bool
}

// Option configures a [Client].
type Option func(c *Client)

// WithHTTPClient sets the client used to send each attempt. Defaults to
// http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.send = hc.Do
		}
	}
}

// WithHedge sets the scheduling options of every request sent by the client.
func WithHedge(options ...hedge.Option) Option {
	return func(c *Client) {
		c.hedgeOpts = append(c.hedgeOpts, options...)
	}
}

// WithRateLimit limits how fast attempts, hedges included, are sent. An
// attempt waits for the limiter before sending; if the wait cannot complete
// the attempt fails.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithFailure sets the predicate deciding whether a response counts as a
// failed attempt. Defaults to [ServerError].
func WithFailure(isFailure func(*http.Response) bool) Option {
	return func(c *Client) {
		if isFailure != nil {
			c.isFailure = isFailure
		}
	}
}

// ServerError reports whether the response has a 5xx status.
func ServerError(resp *http.Response) bool {
	return resp.StatusCode >= http.StatusInternalServerError
}

// New creates a Client.
func New(options ...Option) *Client {
	c := &Client{
		send:      http.DefaultClient.Do,
		isFailure: ServerError,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// StatusError is the failure of an attempt whose response was classified as
// failed. The response body has already been closed.
type StatusError struct {
	StatusCode int
	Status     string
	URL        string
}

// Error implements the error interface.
func (se *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %s", se.URL, se.Status)
}

// Get hedges a GET request for rawURL.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return c.Do(req)
}

// Do hedges req. The request must be safe to send more than once; if it has a
// body, req.GetBody must be set so each attempt can send its own copy.
// Requests built with http.NewRequest from a bytes.Buffer, bytes.Reader or
// strings.Reader satisfy this.
//
// The returned response belongs to the winning attempt. Its body must be
// closed by the caller as usual. Hooks set with [hedge.Abandoned] in
// [WithHedge] receive late responses before their bodies are drained and
// closed.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	// discard goes last so caller hooks see the response before it is closed
	options := append(slices.Clip(c.hedgeOpts), hedge.Abandoned(discard))
	return hedge.FnOutCtx(req.Context(), func(ctx context.Context) (*http.Response, error) {
		return c.attempt(ctx, req)
	}, options...)
}

func (c *Client) attempt(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}
	areq := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewinding request body: %w", err)
		}
		areq.Body = body
	}
	resp, err := c.send(areq)
	if err != nil {
		return nil, err
	}
	if c.isFailure(resp) {
		discard(resp)
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        req.URL.Redacted(),
		}
	}
	return resp, nil
}

func discard(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.CopyN(io.Discard, resp.Body, maxDrain)
	_ = resp.Body.Close()
}

// ValidateURL checks that rawURL can be used as the destination of a hedged
// request: an absolute http or https URL with a host.
func ValidateURL(rawURL string) error {
	ve := &hedge.ValidationError{}
	checkURL(ve, rawURL)
	return ve.Err()
}

func checkURL(ve *hedge.ValidationError, rawURL string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		ve.Add("url must be a valid URL: %v", err)
		return
	}
	checkParsedURL(ve, u)
}

func checkParsedURL(ve *hedge.ValidationError, u *url.URL) {
	if u.Scheme != "http" && u.Scheme != "https" {
		ve.Add("url %q must use the http or https scheme", u.Redacted())
	}
	if u.Host == "" {
		ve.Add("url %q must include a host", u.Redacted())
	}
}

func validateRequest(req *http.Request) error {
	ve := &hedge.ValidationError{}
	switch {
	case req == nil:
		ve.Add("request must not be nil")
		return ve
	case req.URL == nil:
		ve.Add("request must have a URL")
	default:
		checkParsedURL(ve, req.URL)
	}
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		ve.Add("request body cannot be replayed, set GetBody")
	}
	return ve.Err()
}

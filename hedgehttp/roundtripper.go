package hedgehttp

import (
	"net/http"

	"andy.dev/hedge"
)

// RoundTripper hedges idempotent requests sent through an http.Client.
// Requests that are not idempotent, or whose body cannot be replayed, are sent
// once through Base. If every attempt gets a response that IsFailure rejects,
// the round trip fails with a [*StatusError] instead of returning the last
// response.
type RoundTripper struct {
	// Base sends each attempt. Defaults to http.DefaultTransport.
	Base http.RoundTripper
	// Options configure the hedged runs.
	Options []hedge.Option
	// IsFailure decides whether a response counts as a failed attempt.
	// Defaults to ServerError.
	IsFailure func(*http.Response) bool
}

// RoundTrip implements http.RoundTripper.
func (rt *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	base := rt.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if !Idempotent(req) || (req.Body != nil && req.Body != http.NoBody && req.GetBody == nil) {
		return base.RoundTrip(req)
	}
	c := New(WithFailure(rt.IsFailure), WithHedge(rt.Options...))
	c.send = base.RoundTrip
	if req.Body != nil {
		// attempts send copies from GetBody
		defer req.Body.Close()
	}
	return c.Do(req)
}

// Idempotent reports whether req may be sent more than once: its method is
// idempotent, or it carries an idempotency key.
func Idempotent(req *http.Request) bool {
	switch req.Method {
	case "", http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace,
		http.MethodPut, http.MethodDelete:
		return true
	}
	_, hasKey := req.Header["Idempotency-Key"]
	if !hasKey {
		_, hasKey = req.Header["X-Idempotency-Key"]
	}
	return hasKey
}

// NewHTTPClient returns an http.Client whose idempotent requests are hedged
// with options.
func NewHTTPClient(base *http.Client, options ...hedge.Option) *http.Client {
	hc := &http.Client{}
	if base != nil {
		*hc = *base
	}
	hc.Transport = &RoundTripper{Base: hc.Transport, Options: options}
	return hc
}

var _ http.RoundTripper = (*RoundTripper)(nil)

package hedgehttp_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"andy.dev/hedge"
	"andy.dev/hedge/hedgehttp"
)

func TestIdempotent(t *testing.T) {
	t.Parallel()

	for method, want := range map[string]bool{
		http.MethodGet:     true,
		http.MethodHead:    true,
		http.MethodPut:     true,
		http.MethodDelete:  true,
		http.MethodOptions: true,
		http.MethodPost:    false,
		http.MethodPatch:   false,
	} {
		req, err := http.NewRequest(method, "http://example.com", nil)
		require.NoError(t, err)
		require.Equal(t, want, hedgehttp.Idempotent(req), method)
	}

	req, err := http.NewRequest(http.MethodPost, "http://example.com", nil)
	require.NoError(t, err)
	req.Header.Set("Idempotency-Key", "k1")
	require.True(t, hedgehttp.Idempotent(req))
}

func TestRoundTripperHedgesGet(t *testing.T) {
	t.Parallel()

	srv, count := server(t, func(n int32, w http.ResponseWriter, r *http.Request) {
		if n == 1 {
			select {
			case <-time.After(300 * time.Millisecond):
			case <-r.Context().Done():
				return
			}
		}
		fmt.Fprintf(w, "request %d", n)
	})
	hc := hedgehttp.NewHTTPClient(nil, hedge.Interval(30*time.Millisecond), hedge.MaxAttempts(2))
	resp, err := hc.Get(srv.URL)
	require.NoError(t, err)
	require.Equal(t, "request 2", readBody(t, resp))
	require.Equal(t, int32(2), count.Load())
}

func TestRoundTripperPassesPostThrough(t *testing.T) {
	t.Parallel()

	srv, count := server(t, func(n int32, w http.ResponseWriter, _ *http.Request) {
		time.Sleep(80 * time.Millisecond)
		fmt.Fprintf(w, "request %d", n)
	})
	hc := &http.Client{Transport: &hedgehttp.RoundTripper{
		Options: []hedge.Option{hedge.Interval(10 * time.Millisecond), hedge.MaxAttempts(3)},
	}}
	resp, err := hc.Post(srv.URL, "text/plain", strings.NewReader("create me"))
	require.NoError(t, err)
	require.Equal(t, "request 1", readBody(t, resp))
	require.Equal(t, int32(1), count.Load())
}

func TestRoundTripperIdempotencyKey(t *testing.T) {
	t.Parallel()

	srv, count := server(t, func(n int32, w http.ResponseWriter, r *http.Request) {
		if n == 1 {
			select {
			case <-time.After(300 * time.Millisecond):
			case <-r.Context().Done():
				return
			}
		}
		fmt.Fprintf(w, "request %d", n)
	})
	hc := hedgehttp.NewHTTPClient(nil, hedge.Interval(30*time.Millisecond), hedge.MaxAttempts(2))
	req, err := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader("once"))
	require.NoError(t, err)
	req.Header.Set("Idempotency-Key", "abc")
	resp, err := hc.Do(req)
	require.NoError(t, err)
	require.Equal(t, "request 2", readBody(t, resp))
	require.Equal(t, int32(2), count.Load())
}

// Package httpkit builds the outbound HTTP clients used across the
// codebase. The LLM connectors, web search providers, page fetcher,
// embedding client, and MCP HTTP transport all get their clients here
// so timeouts, connection pooling, and the User-Agent header stay
// consistent.
package httpkit

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/ArtyomZemlyak/tg-note/internal/buildinfo"
)

const (
	defaultTimeout        = 30 * time.Second
	dialTimeout           = 10 * time.Second
	tlsHandshakeTimeout   = 10 * time.Second
	responseHeaderTimeout = 15 * time.Second
	idleConnTimeout       = 90 * time.Second
)

// Option adjusts one client built by NewClient.
type Option func(*http.Client)

// WithTimeout sets the whole-request timeout. Zero disables it, which
// streaming LLM responses need.
func WithTimeout(d time.Duration) Option {
	return func(c *http.Client) { c.Timeout = d }
}

// NewClient returns an *http.Client with pooled connections, sensible
// timeouts, and a default User-Agent. Outbound subsystems call this
// instead of reaching for http.DefaultClient.
func NewClient(opts ...Option) *http.Client {
	c := &http.Client{
		Timeout:   defaultTimeout,
		Transport: &identifyingTransport{base: newTransport()},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func newTransport() *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ResponseHeaderTimeout: responseHeaderTimeout,
		IdleConnTimeout:       idleConnTimeout,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		ForceAttemptHTTP2:     true,
	}
}

// identifyingTransport sets the User-Agent on requests that did not
// choose their own.
type identifyingTransport struct {
	base http.RoundTripper
}

func (t *identifyingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		// RoundTrippers must not mutate the caller's request.
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", buildinfo.UserAgent())
	}
	return t.base.RoundTrip(req)
}

// DrainAndClose consumes up to limit bytes of rc and closes it so the
// underlying connection can return to the pool.
func DrainAndClose(rc io.ReadCloser, limit int64) {
	if rc == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, limit))
	rc.Close()
}

// ReadErrorBody returns up to limit bytes of an error response body
// for inclusion in error messages, draining and closing the rest.
func ReadErrorBody(rc io.ReadCloser, limit int64) string {
	if rc == nil {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(rc, limit))
	DrainAndClose(rc, 1024)
	if err != nil {
		return fmt.Sprintf("(failed to read error body: %v)", err)
	}
	return string(body)
}

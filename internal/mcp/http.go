package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ArtyomZemlyak/tg-note/internal/httpkit"
)

// maxResponseBytes bounds how much of an HTTP response body we accept.
const maxResponseBytes = 10 << 20

// HTTPConfig describes an MCP server reached over streamable HTTP.
type HTTPConfig struct {
	// URL is the server endpoint. Every JSON-RPC message is POSTed to it.
	URL string

	// Headers are added to every request (typically Authorization).
	Headers map[string]string

	Logger *slog.Logger
}

// HTTPTransport posts each JSON-RPC message to the endpoint and reads
// the answer from the response body. The Mcp-Session header, once
// issued by the server, pins follow-up requests to the same session.
type HTTPTransport struct {
	url     string
	headers map[string]string
	client  *http.Client
	logger  *slog.Logger

	mu      sync.RWMutex
	session string
}

// NewHTTPTransport builds the transport around the shared httpkit client.
func NewHTTPTransport(cfg HTTPConfig) *HTTPTransport {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPTransport{
		url:     cfg.URL,
		headers: cfg.Headers,
		client:  httpkit.NewClient(),
		logger:  logger,
	}
}

// Send posts a request and decodes the JSON-RPC response from the body.
func (t *HTTPTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	httpResp, err := t.post(ctx, req)
	if err != nil {
		return nil, err
	}
	defer httpkit.DrainAndClose(httpResp.Body, maxResponseBytes)

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mcp server returned %d: %s",
			httpResp.StatusCode, httpkit.ReadErrorBody(httpResp.Body, 1<<20))
	}

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read mcp response: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode mcp response: %w", err)
	}
	return &resp, nil
}

// Notify posts a notification. Servers answer with 200 or 202 and an
// empty body.
func (t *HTTPTransport) Notify(ctx context.Context, notif *Notification) error {
	httpResp, err := t.post(ctx, notif)
	if err != nil {
		return err
	}
	defer httpkit.DrainAndClose(httpResp.Body, maxResponseBytes)

	if httpResp.StatusCode != http.StatusOK && httpResp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("mcp server returned %d for notification: %s",
			httpResp.StatusCode, httpkit.ReadErrorBody(httpResp.Body, 1<<20))
	}
	return nil
}

// Close is a no-op; the pooled HTTP client needs no per-server teardown.
func (t *HTTPTransport) Close() error {
	return nil
}

// post sends one JSON-RPC payload and captures any session header the
// server hands back.
func (t *HTTPTransport) post(ctx context.Context, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal mcp message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build mcp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	t.mu.RLock()
	if t.session != "" {
		req.Header.Set("Mcp-Session", t.session)
	}
	t.mu.RUnlock()

	t.logger.Log(ctx, levelTrace, "mcp http post", "url", t.url, "bytes", len(body))

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post to mcp server %s: %w", t.url, err)
	}

	if sid := resp.Header.Get("Mcp-Session"); sid != "" {
		t.mu.Lock()
		t.session = sid
		t.mu.Unlock()
	}
	return resp, nil
}

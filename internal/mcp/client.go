package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ArtyomZemlyak/tg-note/internal/buildinfo"
)

// protocolVersion is the MCP revision advertised during the handshake.
const protocolVersion = "2024-11-05"

// levelTrace matches config.LevelTrace; importing config here would
// create an import cycle.
const levelTrace = slog.Level(-8)

// ToolDefinition is one entry of a server's tools/list catalog.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ContentBlock is one item of a tools/call result.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type callToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

type toolsListResult struct {
	Tools []ToolDefinition `json:"tools"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type initializeResult struct {
	ProtocolVersion string     `json:"protocolVersion"`
	ServerInfo      serverInfo `json:"serverInfo"`
}

// Client speaks the MCP protocol to a single server: the initialize
// handshake, tools/list discovery, and tools/call invocations.
type Client struct {
	name      string
	transport Transport
	logger    *slog.Logger
	seq       atomic.Int64

	mu      sync.RWMutex
	ready   bool
	server  serverInfo
	catalog []ToolDefinition
}

// NewClient wraps a transport in a protocol client. The server name is
// only used for logging and tool namespacing.
func NewClient(name string, transport Transport, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		name:      name,
		transport: transport,
		logger:    logger.With("mcp_server", name),
	}
}

// Name returns the configured server name.
func (c *Client) Name() string {
	return c.name
}

// Initialize runs the MCP handshake: an initialize request followed by
// the notifications/initialized notification.
func (c *Client) Initialize(ctx context.Context) error {
	var res initializeResult
	err := c.call(ctx, "initialize", map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]any{},
		"clientInfo": map[string]any{
			"name":    "tg-note",
			"version": buildinfo.Version,
		},
	}, &res)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	c.mu.Lock()
	c.ready = true
	c.server = res.ServerInfo
	c.mu.Unlock()

	c.logger.Info("mcp session established",
		"server", res.ServerInfo.Name,
		"server_version", res.ServerInfo.Version,
		"protocol", res.ProtocolVersion,
	)

	notif := &Notification{JSONRPC: rpcVersion, Method: "notifications/initialized"}
	if err := c.transport.Notify(ctx, notif); err != nil {
		return fmt.Errorf("initialized notification: %w", err)
	}
	return nil
}

// ListTools returns the server's tool catalog. The first call hits the
// wire; the catalog is cached for the life of the client.
func (c *Client) ListTools(ctx context.Context) ([]ToolDefinition, error) {
	c.mu.RLock()
	if c.catalog != nil {
		defer c.mu.RUnlock()
		return c.catalog, nil
	}
	c.mu.RUnlock()

	var res toolsListResult
	if err := c.call(ctx, "tools/list", nil, &res); err != nil {
		return nil, fmt.Errorf("tools/list: %w", err)
	}

	c.mu.Lock()
	c.catalog = res.Tools
	c.mu.Unlock()

	c.logger.Info("mcp tools discovered", "count", len(res.Tools))
	return res.Tools, nil
}

// CallTool invokes one remote tool and flattens the response content
// into a single string. Non-text blocks become inline markers such as
// "[image]".
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	var res callToolResult
	err := c.call(ctx, "tools/call", map[string]any{
		"name":      name,
		"arguments": args,
	}, &res)
	if err != nil {
		return "", fmt.Errorf("tools/call %s: %w", name, err)
	}

	text := joinContent(res.Content)
	if res.IsError {
		return "", fmt.Errorf("mcp tool %s failed: %s", name, text)
	}
	return text, nil
}

// Ping checks that the server still answers.
func (c *Client) Ping(ctx context.Context) error {
	return c.call(ctx, "ping", nil, nil)
}

// Close shuts down the transport.
func (c *Client) Close() error {
	c.logger.Debug("closing mcp client")
	return c.transport.Close()
}

// call issues one request, surfaces protocol errors, and unmarshals
// the result into out when out is non-nil.
func (c *Client) call(ctx context.Context, method string, params, out any) error {
	id := c.seq.Add(1)
	c.logger.Log(ctx, levelTrace, "mcp request", "method", method, "id", id)

	resp, err := c.transport.Send(ctx, &Request{
		JSONRPC: rpcVersion,
		ID:      id,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error
	}

	c.logger.Log(ctx, levelTrace, "mcp response", "method", method, "id", id, "bytes", len(resp.Result))
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

// joinContent renders content blocks as one newline-joined string.
func joinContent(blocks []ContentBlock) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.Type == "text" {
			parts = append(parts, b.Text)
			continue
		}
		parts = append(parts, "["+b.Type+"]")
	}
	return strings.Join(parts, "\n")
}

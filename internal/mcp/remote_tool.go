package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ArtyomZemlyak/tg-note/internal/tools"
)

// ServerConfig declares how to reach one MCP server. Exactly one of
// Command (stdio subprocess) or URL (streamable HTTP) must be set.
type ServerConfig struct {
	Name    string            `yaml:"name"`
	Command string            `yaml:"command,omitempty"`
	Args    []string          `yaml:"args,omitempty"`
	Env     []string          `yaml:"env,omitempty"`
	URL     string            `yaml:"url,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

// RemoteTool adapts a single named tool on a remote MCP server into the
// local Tool interface. Unlike BridgeTools, which discovers a server's
// whole catalog eagerly, a RemoteTool is declared up front and connects
// lazily on first use — the subprocess or HTTP session is not touched
// until the agent actually calls the tool.
type RemoteTool struct {
	// Name is the local tool name exposed to the registry.
	Name string
	// Description is the local description offered to the LLM.
	Description string
	// Parameters is the local parameter schema.
	Parameters map[string]any
	// RemoteName is the tool name on the MCP server.
	RemoteName string
	// Server declares the target MCP server.
	Server ServerConfig

	logger *slog.Logger

	// dial overrides connection establishment in tests.
	dial func(ctx context.Context) (*Client, error)

	mu      sync.Mutex
	enabled bool
	client  *Client
}

// NewRemoteTool creates a RemoteTool, enabled by default.
func NewRemoteTool(name, description string, parameters map[string]any, remoteName string, server ServerConfig, logger *slog.Logger) *RemoteTool {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteTool{
		Name:        name,
		Description: description,
		Parameters:  parameters,
		RemoteName:  remoteName,
		Server:      server,
		logger:      logger,
		enabled:     true,
	}
}

// Enable allows calls through this tool.
func (t *RemoteTool) Enable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = true
}

// Disable blocks calls and tears down any live connection.
func (t *RemoteTool) Disable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = false
	if t.client != nil {
		_ = t.client.Close()
		t.client = nil
	}
}

// Connect builds the transport for a server declaration and
// initializes an MCP session against it.
func Connect(ctx context.Context, server ServerConfig, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var transport Transport
	switch {
	case server.Command != "":
		transport = NewStdioTransport(StdioConfig{
			Command: server.Command,
			Args:    server.Args,
			Env:     server.Env,
			Logger:  logger,
		})
	case server.URL != "":
		transport = NewHTTPTransport(HTTPConfig{
			URL:     server.URL,
			Headers: server.Headers,
			Logger:  logger,
		})
	default:
		return nil, fmt.Errorf("mcp server %q has neither command nor url", server.Name)
	}

	client := NewClient(server.Name, transport, logger)
	if err := client.Initialize(ctx); err != nil {
		_ = transport.Close()
		return nil, fmt.Errorf("connect to mcp server %s: %w", server.Name, err)
	}
	return client, nil
}

// connect establishes the MCP session if needed. Idempotent: a live
// client is reused. Caller must hold t.mu.
func (t *RemoteTool) connect(ctx context.Context) error {
	if t.client != nil {
		return nil
	}

	dial := t.dial
	if dial == nil {
		dial = func(ctx context.Context) (*Client, error) {
			return Connect(ctx, t.Server, t.logger)
		}
	}
	client, err := dial(ctx)
	if err != nil {
		return err
	}

	// The remote tool must exist in the server's advertised catalog.
	available, err := client.ListTools(ctx)
	if err != nil {
		_ = client.Close()
		return err
	}
	found := false
	names := make([]string, 0, len(available))
	for _, td := range available {
		names = append(names, td.Name)
		if td.Name == t.RemoteName {
			found = true
		}
	}
	if !found {
		_ = client.Close()
		return fmt.Errorf("tool %q not found on mcp server %s (available: %s)",
			t.RemoteName, t.Server.Name, strings.Join(names, ", "))
	}

	t.client = client
	return nil
}

// Execute forwards one call to the remote tool, connecting first if
// needed.
func (t *RemoteTool) Execute(ctx context.Context, args map[string]any) (map[string]any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.enabled {
		return nil, &tools.ErrToolUnavailable{ToolName: t.Name}
	}
	if err := t.connect(ctx); err != nil {
		return nil, err
	}

	text, err := t.client.CallTool(ctx, t.RemoteName, args)
	if err != nil {
		return nil, err
	}
	return tools.Ok(map[string]any{"result": text}), nil
}

// Close tears down the connection if one is live.
func (t *RemoteTool) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}

// Tool wraps the RemoteTool for registry registration. Local and
// remote capabilities look identical to the agent.
func (t *RemoteTool) Tool() *tools.Tool {
	return &tools.Tool{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Parameters,
		Handler: func(ctx context.Context, args map[string]any, _ *tools.Context) (map[string]any, error) {
			return t.Execute(ctx, args)
		},
	}
}

// MemoryTools builds the MCP-backed long-term memory tool pair against
// a mem-agent server: store_memory and retrieve_memory, forwarded to
// the remote server's tools of the same names.
func MemoryTools(server ServerConfig, logger *slog.Logger) []*tools.Tool {
	store := NewRemoteTool(
		"store_memory",
		"Store a fact or note in long-term memory for later retrieval.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"content":  map[string]any{"type": "string", "description": "The content to remember"},
				"category": map[string]any{"type": "string", "description": "Memory category"},
				"tags":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
			"required": []string{"content"},
		},
		"store_memory", server, logger,
	)
	retrieve := NewRemoteTool(
		"retrieve_memory",
		"Retrieve previously stored memories matching a query, category, or tags.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query":    map[string]any{"type": "string", "description": "Text to match"},
				"category": map[string]any{"type": "string", "description": "Restrict to one category"},
				"tags":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"limit":    map[string]any{"type": "integer", "description": "Maximum memories to return"},
			},
		},
		"retrieve_memory", server, logger,
	)
	return []*tools.Tool{store.Tool(), retrieve.Tool()}
}

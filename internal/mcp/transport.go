package mcp

import "context"

// Transport carries JSON-RPC frames to one MCP server. The two
// implementations are StdioTransport (subprocess over pipes) and
// HTTPTransport (streamable HTTP).
type Transport interface {
	// Send delivers a request and blocks until its response arrives.
	Send(ctx context.Context, req *Request) (*Response, error)

	// Notify delivers a fire-and-forget notification.
	Notify(ctx context.Context, notif *Notification) error

	// Close releases the transport. For stdio this stops the subprocess.
	Close() error
}

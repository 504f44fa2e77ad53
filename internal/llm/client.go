package llm

import "context"

// Connector is the interface all chat-completion providers implement.
// The agent's LLM decision source depends only on this.
type Connector interface {
	// ChatCompletion sends one chat-completion request. The response
	// carries either free text or tool calls (or both, for providers
	// that interleave them).
	ChatCompletion(ctx context.Context, req *Request) (*Response, error)

	// Model returns the model identifier requests are sent to.
	Model() string
}

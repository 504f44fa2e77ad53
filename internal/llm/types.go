// Package llm provides the chat-completion connector abstraction and
// its provider implementations (OpenAI-compatible APIs and Ollama).
package llm

import (
	"github.com/ArtyomZemlyak/tg-note/internal/config"
)

// LevelTrace aliases the project-wide trace level for wire-level
// payload logging.
const LevelTrace = config.LevelTrace

// Message represents a chat message for the LLM.
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// ToolCall represents a tool call requested by the model. Arguments
// arrive as wire-format JSON from the provider and are decoded into a
// map at the provider boundary.
type ToolCall struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Request is a provider-neutral chat-completion request.
type Request struct {
	Messages    []Message
	Tools       []map[string]any // function-calling schema, or nil
	Temperature float64
	MaxTokens   int // 0 means provider default
}

// Response is the unified response from any provider. Wire format
// conversion happens inside each provider.
type Response struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
	Model        string

	InputTokens  int
	OutputTokens int
}

// HasToolCall reports whether the model asked for a tool invocation.
func (r *Response) HasToolCall() bool {
	return r != nil && len(r.ToolCalls) > 0
}

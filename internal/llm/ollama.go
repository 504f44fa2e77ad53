package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ArtyomZemlyak/tg-note/internal/httpkit"
)

// OllamaConnector implements Connector against a local Ollama server's
// /api/chat endpoint.
type OllamaConnector struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOllamaConnector creates an Ollama connector. An empty baseURL
// defaults to the standard local port.
func NewOllamaConnector(baseURL, model string, logger *slog.Logger) *OllamaConnector {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OllamaConnector{
		baseURL: baseURL,
		model:   model,
		httpClient: httpkit.NewClient(
			// Large models with tools need time.
			httpkit.WithTimeout(5 * time.Minute),
		),
		logger: logger,
	}
}

// Model returns the configured model identifier.
func (c *OllamaConnector) Model() string {
	return c.model
}

// ollamaMessage is the Ollama chat wire format.
type ollamaMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
}

// ollamaToolCall is a tool call in the Ollama response. Arguments come
// back as an object, not a string.
type ollamaToolCall struct {
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"function"`
}

type ollamaChatRequest struct {
	Model    string           `json:"model"`
	Messages []ollamaMessage  `json:"messages"`
	Stream   bool             `json:"stream"`
	Tools    []map[string]any `json:"tools,omitempty"`
	Options  *ollamaOptions   `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	DoneReason      string        `json:"done_reason,omitempty"`
	PromptEvalCount int           `json:"prompt_eval_count,omitempty"`
	EvalCount       int           `json:"eval_count,omitempty"`
}

// ChatCompletion sends one non-streaming chat request to Ollama.
func (c *OllamaConnector) ChatCompletion(ctx context.Context, req *Request) (*Response, error) {
	msgs := make([]ollamaMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, ollamaMessage{Role: m.Role, Content: m.Content})
	}

	wireReq := ollamaChatRequest{
		Model:    c.model,
		Messages: msgs,
		Stream:   false,
		Tools:    req.Tools,
	}
	if req.Temperature > 0 || req.MaxTokens > 0 {
		wireReq.Options = &ollamaOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		}
	}

	body, err := json.Marshal(wireReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	c.logger.Log(ctx, LevelTrace, "ollama request", "model", c.model, "bytes", len(body))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ollama API error %d: %s", resp.StatusCode, string(errBody))
	}

	var wireResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&wireResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	out := &Response{
		Content:      wireResp.Message.Content,
		FinishReason: wireResp.DoneReason,
		Model:        wireResp.Model,
		InputTokens:  wireResp.PromptEvalCount,
		OutputTokens: wireResp.EvalCount,
	}
	for _, tc := range wireResp.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	if out.HasToolCall() {
		// Some models echo commentary alongside a tool call; the tool
		// call wins.
		out.Content = ""
	}

	return out, nil
}

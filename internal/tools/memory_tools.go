package tools

import (
	"context"
	"fmt"
)

// MemoryTools returns the long-term memory tool set, backed by
// whatever MemoryStore the Context carries (local SQLite or a remote
// mem-agent reached through the MCP bridge).
func MemoryTools() []*Tool {
	return []*Tool{
		{
			Name:        "store_memory",
			Description: "Store a fact or note in long-term memory for later retrieval.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"content": map[string]any{
						"type":        "string",
						"description": "The content to remember",
					},
					"category": map[string]any{
						"type":        "string",
						"description": "Memory category (default 'general')",
					},
					"tags": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "Optional tags",
					},
				},
				"required": []string{"content"},
			},
			Handler: handleStoreMemory,
		},
		{
			Name:        "retrieve_memory",
			Description: "Retrieve previously stored memories matching a query, category, or tags.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "Text to match against memory content",
					},
					"category": map[string]any{
						"type":        "string",
						"description": "Restrict to one category",
					},
					"tags": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "Restrict to memories carrying all of these tags",
					},
					"limit": map[string]any{
						"type":        "integer",
						"description": "Maximum memories to return (default 10)",
					},
				},
			},
			Handler: handleRetrieveMemory,
		},
	}
}

func handleStoreMemory(ctx context.Context, args map[string]any, tc *Context) (map[string]any, error) {
	if tc.Memory == nil {
		return nil, fmt.Errorf("memory storage is not configured")
	}

	content, err := stringArg(args, "content")
	if err != nil {
		return nil, err
	}
	category := optString(args, "category")
	if category == "" {
		category = "general"
	}

	id, err := tc.Memory.Store(ctx, content, category, stringSlice(args, "tags"))
	if err != nil {
		return nil, fmt.Errorf("store memory: %w", err)
	}

	return Ok(map[string]any{"id": id, "category": category}), nil
}

func handleRetrieveMemory(ctx context.Context, args map[string]any, tc *Context) (map[string]any, error) {
	if tc.Memory == nil {
		return nil, fmt.Errorf("memory storage is not configured")
	}

	records, err := tc.Memory.Retrieve(ctx,
		optString(args, "query"),
		optString(args, "category"),
		stringSlice(args, "tags"),
		optInt(args, "limit", 10),
	)
	if err != nil {
		return nil, fmt.Errorf("retrieve memory: %w", err)
	}

	return Ok(map[string]any{"count": len(records), "memories": records}), nil
}

// stringSlice extracts an optional []string argument from decoded JSON.
func stringSlice(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

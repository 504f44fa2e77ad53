package tools

import (
	"context"
	"fmt"
)

// VectorTools returns the semantic search tool set, backed by the
// Context's VectorSearcher.
func VectorTools() []*Tool {
	return []*Tool{
		{
			Name:        "kb_vector_search",
			Description: "Semantic search over the knowledge base. Finds notes related in meaning, not just matching keywords.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "What to search for",
					},
					"top_k": map[string]any{
						"type":        "integer",
						"description": "Number of results (default 5)",
					},
				},
				"required": []string{"query"},
			},
			Handler: handleVectorSearch,
		},
		{
			Name:        "kb_reindex_vector",
			Description: "Rebuild the semantic index over the knowledge base. Use after many files changed outside the agent.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"force": map[string]any{
						"type":        "boolean",
						"description": "Reindex every file even if unchanged (default false)",
					},
				},
			},
			Handler: handleVectorReindex,
		},
	}
}

func handleVectorSearch(ctx context.Context, args map[string]any, tc *Context) (map[string]any, error) {
	if tc.Vector == nil {
		return nil, fmt.Errorf("vector search is not configured")
	}

	query, err := stringArg(args, "query")
	if err != nil {
		return nil, err
	}

	results, err := tc.Vector.Search(ctx, query, optInt(args, "top_k", 5))
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	return Ok(map[string]any{"query": query, "results": results, "count": len(results)}), nil
}

func handleVectorReindex(ctx context.Context, args map[string]any, tc *Context) (map[string]any, error) {
	if tc.Vector == nil {
		return nil, fmt.Errorf("vector search is not configured")
	}

	added, removed, err := tc.Vector.Reindex(ctx, optBool(args, "force", false))
	if err != nil {
		return nil, fmt.Errorf("reindex: %w", err)
	}

	return Ok(map[string]any{"added": added, "removed": removed}), nil
}

package tools

import (
	"context"
	"fmt"

	"github.com/ArtyomZemlyak/tg-note/internal/search"
)

// WebTools returns the networking tool set: web search and page fetch.
func WebTools() []*Tool {
	return []*Tool{
		{
			Name:        "web_search",
			Description: "Search the web. Returns result titles, URLs, and snippets.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "The search query string",
					},
					"count": map[string]any{
						"type":        "integer",
						"description": "Maximum number of results (1-10, default 5)",
					},
				},
				"required": []string{"query"},
			},
			Handler: handleWebSearch,
		},
		{
			Name:        "web_fetch",
			Description: "Download a web page and extract its readable text content.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"url": map[string]any{
						"type":        "string",
						"description": "The URL to fetch",
					},
					"max_chars": map[string]any{
						"type":        "integer",
						"description": "Character limit for extracted text (default 50000)",
					},
				},
				"required": []string{"url"},
			},
			Handler: handleWebFetch,
		},
	}
}

func handleWebSearch(ctx context.Context, args map[string]any, tc *Context) (map[string]any, error) {
	query, err := stringArg(args, "query")
	if err != nil {
		return nil, err
	}
	if tc.Search == nil {
		return nil, fmt.Errorf("web search is not configured")
	}

	opts := search.Options{Count: optInt(args, "count", 5)}
	results, err := tc.Search.Search(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}

	out := make([]map[string]any, 0, len(results))
	for _, r := range results {
		out = append(out, map[string]any{
			"title":   r.Title,
			"url":     r.URL,
			"snippet": r.Snippet,
		})
	}
	return Ok(map[string]any{"query": query, "results": out, "count": len(out)}), nil
}

func handleWebFetch(ctx context.Context, args map[string]any, tc *Context) (map[string]any, error) {
	rawURL, err := stringArg(args, "url")
	if err != nil {
		return nil, err
	}
	if tc.Fetcher == nil {
		return nil, fmt.Errorf("web fetch is not configured")
	}

	page, err := tc.Fetcher.Fetch(ctx, rawURL, optInt(args, "max_chars", 0))
	if err != nil {
		return nil, err
	}

	return Ok(map[string]any{
		"url":       page.URL,
		"title":     page.Title,
		"content":   page.Content,
		"truncated": page.Truncated,
	}), nil
}

package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/ArtyomZemlyak/tg-note/internal/kb"
)

// PlanningTools returns the planning tool set (always registered).
func PlanningTools() []*Tool {
	return []*Tool{
		{
			Name:        "plan_todo",
			Description: "Create a TODO plan for the current task. Call this first to break the work into steps.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"tasks": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "Ordered list of task descriptions",
					},
				},
				"required": []string{"tasks"},
			},
			Handler: handlePlanTodo,
		},
		{
			Name:        "analyze_content",
			Description: "Analyze the input content: extract keywords, detect a knowledge base category, and summarize. Fetches and analyzes any URLs present.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"content": map[string]any{
						"type":        "string",
						"description": "Text to analyze. Defaults to the original task text.",
					},
				},
			},
			Handler: handleAnalyzeContent,
		},
	}
}

func handlePlanTodo(_ context.Context, args map[string]any, tc *Context) (map[string]any, error) {
	raw, ok := args["tasks"].([]any)
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("tasks is required")
	}

	taskList := make([]string, 0, len(raw))
	for _, r := range raw {
		task, ok := r.(string)
		if !ok || strings.TrimSpace(task) == "" {
			return nil, fmt.Errorf("tasks must be non-empty strings")
		}
		taskList = append(taskList, task)
	}

	plan := NewTodoPlan(taskList)
	if tc.SetPlan != nil {
		tc.SetPlan(plan)
	}

	tc.Log().Info("todo plan created", "tasks", len(taskList))
	return Ok(map[string]any{"plan": plan, "task_count": len(taskList)}), nil
}

func handleAnalyzeContent(ctx context.Context, args map[string]any, tc *Context) (map[string]any, error) {
	content := optString(args, "content")
	if content == "" {
		return nil, fmt.Errorf("content is required")
	}

	// Fold readable text from any URLs into the analysis. Fetch
	// failures degrade to analyzing the raw text only.
	var fetched []map[string]any
	if tc.Fetcher != nil {
		for _, u := range kb.ExtractURLs(content) {
			page, err := tc.Fetcher.Fetch(ctx, u, 0)
			if err != nil {
				tc.Log().Warn("url fetch failed during analysis", "url", u, "error", err)
				fetched = append(fetched, map[string]any{"url": u, "error": err.Error()})
				continue
			}
			content += "\n\n" + page.Content
			fetched = append(fetched, map[string]any{"url": u, "title": page.Title, "chars": page.Length})
		}
	}

	structure := kb.DetectStructure(content)

	result := map[string]any{
		"keywords": kb.ExtractKeywords(content, 10),
		"category": structure.Category,
		"tags":     structure.Tags,
		"summary":  kb.Summarize(content, 300),
	}
	if len(fetched) > 0 {
		result["urls"] = fetched
	}
	return Ok(result), nil
}

package tools

import (
	"context"
	"fmt"

	"github.com/ArtyomZemlyak/tg-note/internal/ghapi"
)

// GitHubTool returns the GitHub API tool. Authentication comes from the
// bound Context's token; without one the tool still works against
// public data.
func GitHubTool() *Tool {
	return &Tool{
		Name:        "github_api",
		Description: "Query the GitHub API: repository info, open issues, or create an issue.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"action": map[string]any{
					"type":        "string",
					"enum":        []string{"get_repo", "list_issues", "create_issue"},
					"description": "Which API operation to perform",
				},
				"repo": map[string]any{
					"type":        "string",
					"description": "Repository as owner/repo (e.g., golang/go)",
				},
				"title": map[string]any{
					"type":        "string",
					"description": "Issue title (create_issue only)",
				},
				"body": map[string]any{
					"type":        "string",
					"description": "Issue body (create_issue only)",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum issues to list (list_issues only, default 10)",
				},
			},
			"required": []string{"action", "repo"},
		},
		Handler: handleGitHubAPI,
	}
}

func handleGitHubAPI(ctx context.Context, args map[string]any, tc *Context) (map[string]any, error) {
	action, err := stringArg(args, "action")
	if err != nil {
		return nil, err
	}
	repo, err := stringArg(args, "repo")
	if err != nil {
		return nil, err
	}

	client := ghapi.New(tc.GitHubToken, tc.Logger)

	switch action {
	case "get_repo":
		r, err := client.GetRepo(ctx, repo)
		if err != nil {
			return nil, err
		}
		return Ok(map[string]any{"repo": r}), nil

	case "list_issues":
		issues, err := client.ListIssues(ctx, repo, optInt(args, "limit", 10))
		if err != nil {
			return nil, err
		}
		return Ok(map[string]any{"issues": issues, "count": len(issues)}), nil

	case "create_issue":
		title, err := stringArg(args, "title")
		if err != nil {
			return nil, err
		}
		issue, err := client.CreateIssue(ctx, repo, title, optString(args, "body"))
		if err != nil {
			return nil, err
		}
		return Ok(map[string]any{"issue": issue}), nil

	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}
}

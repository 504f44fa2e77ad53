// Package ghapi wraps the GitHub API surface exposed to the agent
// through the github_api tool: repository metadata and issue
// read/write, built on the official go-github SDK.
package ghapi

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	gogithub "github.com/google/go-github/v68/github"
)

// Client is a thin wrapper over the go-github SDK.
type Client struct {
	gh     *gogithub.Client
	logger *slog.Logger
}

// New creates a Client. An empty token yields an unauthenticated client
// (public data only, low rate limits).
func New(token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	gh := gogithub.NewClient(nil)
	if token != "" {
		gh = gh.WithAuthToken(token)
	}
	return &Client{gh: gh, logger: logger}
}

// Repo holds the repository fields surfaced to the agent.
type Repo struct {
	FullName    string `json:"full_name"`
	Description string `json:"description,omitempty"`
	Stars       int    `json:"stars"`
	Forks       int    `json:"forks"`
	Language    string `json:"language,omitempty"`
	URL         string `json:"url"`
}

// Issue holds the issue fields surfaced to the agent.
type Issue struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"`
	Body   string `json:"body,omitempty"`
	URL    string `json:"url"`
}

// splitRepo splits an "owner/repo" string into its two parts.
func splitRepo(repo string) (string, string, error) {
	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo %q: expected owner/repo", repo)
	}
	return parts[0], parts[1], nil
}

// checkRateLimit logs a warning when remaining API calls run low.
func (c *Client) checkRateLimit(resp *gogithub.Response) {
	if resp == nil {
		return
	}
	if resp.Rate.Remaining < 100 {
		c.logger.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset", resp.Rate.Reset.Time,
		)
	}
}

// GetRepo fetches repository metadata.
func (c *Client) GetRepo(ctx context.Context, repo string) (*Repo, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	r, resp, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("get repo %s: %w", repo, err)
	}
	c.checkRateLimit(resp)

	return &Repo{
		FullName:    r.GetFullName(),
		Description: r.GetDescription(),
		Stars:       r.GetStargazersCount(),
		Forks:       r.GetForksCount(),
		Language:    r.GetLanguage(),
		URL:         r.GetHTMLURL(),
	}, nil
}

// ListIssues returns open issues for a repository.
func (c *Client) ListIssues(ctx context.Context, repo string, limit int) ([]Issue, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	opts := &gogithub.IssueListByRepoOptions{
		State:       "open",
		ListOptions: gogithub.ListOptions{PerPage: limit},
	}
	issues, resp, err := c.gh.Issues.ListByRepo(ctx, owner, name, opts)
	if err != nil {
		return nil, fmt.Errorf("list issues for %s: %w", repo, err)
	}
	c.checkRateLimit(resp)

	out := make([]Issue, 0, len(issues))
	for _, i := range issues {
		if i.IsPullRequest() {
			continue
		}
		out = append(out, Issue{
			Number: i.GetNumber(),
			Title:  i.GetTitle(),
			State:  i.GetState(),
			URL:    i.GetHTMLURL(),
		})
	}
	return out, nil
}

// CreateIssue opens a new issue.
func (c *Client) CreateIssue(ctx context.Context, repo, title, body string) (*Issue, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	req := &gogithub.IssueRequest{Title: &title, Body: &body}
	created, resp, err := c.gh.Issues.Create(ctx, owner, name, req)
	if err != nil {
		return nil, fmt.Errorf("create issue in %s: %w", repo, err)
	}
	c.checkRateLimit(resp)

	return &Issue{
		Number: created.GetNumber(),
		Title:  created.GetTitle(),
		State:  created.GetState(),
		URL:    created.GetHTMLURL(),
	}, nil
}

package tools

import (
	"context"
	"log/slog"

	"github.com/ArtyomZemlyak/tg-note/internal/events"
	"github.com/ArtyomZemlyak/tg-note/internal/fetch"
	"github.com/ArtyomZemlyak/tg-note/internal/search"
)

// VectorSearcher is the slice of the vector subsystem tools need:
// semantic search over the KB plus on-demand reindexing. The concrete
// implementation lives in internal/vector.
type VectorSearcher interface {
	Search(ctx context.Context, query string, topK int) ([]VectorResult, error)
	Reindex(ctx context.Context, force bool) (added, removed int, err error)
}

// VectorResult is one semantic search hit.
type VectorResult struct {
	Path    string  `json:"path"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// MemoryStore is the slice of the long-term memory subsystem the memory
// tools need. Implemented locally by internal/memory and remotely via
// the MCP bridge.
type MemoryStore interface {
	Store(ctx context.Context, content, category string, tags []string) (id string, err error)
	Retrieve(ctx context.Context, query, category string, tags []string, limit int) ([]MemoryRecord, error)
}

// MemoryRecord is one stored memory.
type MemoryRecord struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags,omitempty"`
	Created  string   `json:"created_at"`
}

// Context is the dependency bundle injected into every tool execution.
// It is constructed once per agent instance and shared by reference.
// The only mutable state it exposes is the TODO-plan callback pair.
type Context struct {
	// KBRoot is the knowledge-base root directory. Every filesystem
	// tool resolves its paths under this root via the sandbox.
	KBRoot string

	// GitHubToken authenticates github_api calls. Empty means
	// unauthenticated (public data, low rate limits).
	GitHubToken string

	// ShellEnabled gates the shell_command tool. The tool re-checks
	// this flag itself as defense in depth — registration flags and
	// execution policy can drift in tests.
	ShellEnabled bool

	// ShellAllowedPrefixes and ShellDeniedPatterns are the shell policy
	// lists. Configuration data, not code; substring denial is a known
	// incomplete defense.
	ShellAllowedPrefixes []string
	ShellDeniedPatterns  []string

	// GitAllowedSubcommands is the allow-list for the git_command tool.
	GitAllowedSubcommands []string

	// Vector is the optional semantic search bridge. Nil disables the
	// kb_vector_search and kb_reindex_vector tools at execution time.
	Vector VectorSearcher

	// Memory is the optional long-term memory store.
	Memory MemoryStore

	// Search is the optional web search manager.
	Search *search.Manager

	// Fetcher downloads and extracts URL content for analyze_content.
	Fetcher *fetch.Fetcher

	// GetPlan and SetPlan are the TODO-plan accessors. Only the
	// plan_todo tool and the rule-based decision source touch the plan.
	GetPlan func() *TodoPlan
	SetPlan func(*TodoPlan)

	// Bus receives note lifecycle events (nil-safe).
	Bus *events.Bus

	// UserID identifies the requesting user, when known.
	UserID string

	Logger *slog.Logger
}

// Log returns the bundle's logger, falling back to slog.Default.
func (tc *Context) Log() *slog.Logger {
	if tc == nil || tc.Logger == nil {
		return slog.Default()
	}
	return tc.Logger
}

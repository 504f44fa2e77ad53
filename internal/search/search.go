// Package search provides pluggable web search for the agent's
// research tools. Providers register by name with a Manager; the
// manager routes queries to the configured primary provider and falls
// back through the remaining providers when the primary fails.
package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Result is a single search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// Options tune a single query.
type Options struct {
	// Count caps the number of results. Zero means provider default.
	Count int `json:"count,omitempty"`

	// Language is an ISO 639-1 code ("en", "ru"). Empty lets the
	// provider decide.
	Language string `json:"language,omitempty"`
}

// Provider is a search backend.
type Provider interface {
	// Name returns the provider identifier ("searxng", "brave").
	Name() string

	// Search executes a query.
	Search(ctx context.Context, query string, opts Options) ([]Result, error)
}

// Manager routes queries to a primary provider with ordered fallback.
type Manager struct {
	providers map[string]Provider
	order     []string
	primary   string
}

// NewManager creates a search manager routing to the named primary
// provider first.
func NewManager(primary string) *Manager {
	return &Manager{
		providers: make(map[string]Provider),
		primary:   primary,
	}
}

// Register adds a provider. Registration order defines the fallback
// order when the primary fails.
func (m *Manager) Register(p Provider) {
	if _, ok := m.providers[p.Name()]; !ok {
		m.order = append(m.order, p.Name())
	}
	m.providers[p.Name()] = p
}

// Search runs a query against the primary provider, falling back to
// the other registered providers in registration order. The combined
// error carries every provider failure when all of them fail.
func (m *Manager) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	if len(m.providers) == 0 {
		return nil, fmt.Errorf("search provider %q not configured", m.primary)
	}

	tried := make(map[string]bool, len(m.providers))
	var errs []error

	try := func(name string) ([]Result, bool) {
		p, ok := m.providers[name]
		if !ok || tried[name] {
			return nil, false
		}
		tried[name] = true
		results, err := p.Search(ctx, query, opts)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return nil, false
		}
		return results, true
	}

	if results, ok := try(m.primary); ok {
		return results, nil
	}
	for _, name := range m.order {
		if results, ok := try(name); ok {
			return results, nil
		}
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("search provider %q not configured", m.primary)
	}
	return nil, errors.Join(errs...)
}

// SearchWith runs a query against one named provider, no fallback.
func (m *Manager) SearchWith(ctx context.Context, provider, query string, opts Options) ([]Result, error) {
	p, ok := m.providers[provider]
	if !ok {
		return nil, fmt.Errorf("search provider %q not configured", provider)
	}
	return p.Search(ctx, query, opts)
}

// Providers returns the names of all registered providers.
func (m *Manager) Providers() []string {
	names := make([]string, 0, len(m.order))
	names = append(names, m.order...)
	return names
}

// Configured reports whether at least one provider is registered.
func (m *Manager) Configured() bool {
	return len(m.providers) > 0
}

// FormatResults renders results as a numbered plain-text list for
// feeding back into the agent's conversation history.
func FormatResults(results []Result) string {
	if len(results) == 0 {
		return "No results found."
	}
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(r.Title)
		b.WriteString("\n   ")
		b.WriteString(r.URL)
		if r.Snippet != "" {
			b.WriteString("\n   ")
			b.WriteString(r.Snippet)
		}
	}
	return b.String()
}

package search

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type mockProvider struct {
	name    string
	results []Result
	err     error
	calls   int
}

func (m *mockProvider) Name() string { return m.name }
func (m *mockProvider) Search(_ context.Context, _ string, _ Options) ([]Result, error) {
	m.calls++
	return m.results, m.err
}

func TestManagerSearch(t *testing.T) {
	mgr := NewManager("mock")
	mgr.Register(&mockProvider{
		name: "mock",
		results: []Result{
			{Title: "Test", URL: "https://example.com", Snippet: "A test result"},
		},
	})

	results, err := mgr.Search(context.Background(), "test", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Title != "Test" {
		t.Errorf("expected title 'Test', got %q", results[0].Title)
	}
}

func TestManagerFallback(t *testing.T) {
	primary := &mockProvider{name: "primary", err: errors.New("boom")}
	backup := &mockProvider{name: "backup", results: []Result{{Title: "Backup"}}}

	mgr := NewManager("primary")
	mgr.Register(primary)
	mgr.Register(backup)

	results, err := mgr.Search(context.Background(), "test", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Title != "Backup" {
		t.Errorf("expected fallback result, got %q", results[0].Title)
	}
	if primary.calls != 1 {
		t.Errorf("primary should be tried exactly once, got %d", primary.calls)
	}
}

func TestManagerAllFail(t *testing.T) {
	mgr := NewManager("a")
	mgr.Register(&mockProvider{name: "a", err: errors.New("a down")})
	mgr.Register(&mockProvider{name: "b", err: errors.New("b down")})

	_, err := mgr.Search(context.Background(), "test", Options{})
	if err == nil {
		t.Fatal("expected combined error")
	}
	if !strings.Contains(err.Error(), "a down") || !strings.Contains(err.Error(), "b down") {
		t.Errorf("error should name both providers: %v", err)
	}
}

func TestManagerSearchWith(t *testing.T) {
	mgr := NewManager("primary")
	mgr.Register(&mockProvider{name: "primary", results: []Result{{Title: "Primary"}}})
	mgr.Register(&mockProvider{name: "secondary", results: []Result{{Title: "Secondary"}}})

	results, err := mgr.SearchWith(context.Background(), "secondary", "test", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Title != "Secondary" {
		t.Errorf("expected 'Secondary', got %q", results[0].Title)
	}
}

func TestManagerUnconfigured(t *testing.T) {
	mgr := NewManager("missing")
	if _, err := mgr.Search(context.Background(), "test", Options{}); err == nil {
		t.Fatal("expected error for missing provider")
	}
	if mgr.Configured() {
		t.Error("empty manager should not report configured")
	}
}

func TestFormatResults(t *testing.T) {
	out := FormatResults([]Result{
		{Title: "One", URL: "https://one.test", Snippet: "first"},
		{Title: "Two", URL: "https://two.test"},
	})
	if !strings.Contains(out, "1. One") || !strings.Contains(out, "2. Two") {
		t.Errorf("numbered list expected, got:\n%s", out)
	}
	if !strings.Contains(out, "first") {
		t.Errorf("snippet missing:\n%s", out)
	}

	if got := FormatResults(nil); got != "No results found." {
		t.Errorf("empty list: got %q", got)
	}
}

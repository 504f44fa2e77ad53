package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func seedKB(t *testing.T, tc *Context) {
	t.Helper()
	files := map[string]string{
		"topics/ai/transformers.md": "# Transformers\nAttention is all you need.\n",
		"topics/ai/rnn.md":          "# RNN\nRecurrent networks came first.\n",
		"topics/tech/go.md":         "# Go\nGoroutines and channels.\n",
		"README.md":                 "# KB\nIndex file.\n",
	}
	for rel, content := range files {
		abs := filepath.Join(tc.KBRoot, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestReadFile(t *testing.T) {
	tc := testContext(t)
	seedKB(t, tc)
	r := BuildDefaultRegistry(tc, Flags{}, discardLogger())
	ctx := context.Background()

	result := mustSucceed(t, r.Execute(ctx, "kb_read_file", map[string]any{
		"paths": []any{"topics/ai/transformers.md", "README.md"},
	}))
	files := result["files"].([]map[string]any)
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	if files[0]["path"] != "topics/ai/transformers.md" {
		t.Errorf("path: %v", files[0]["path"])
	}

	mustFail(t, r.Execute(ctx, "kb_read_file", map[string]any{
		"paths": []any{"nope.md"},
	}), "file not found")
}

func TestReadFileRejectsTraversal(t *testing.T) {
	tc := testContext(t)
	seedKB(t, tc)
	r := BuildDefaultRegistry(tc, Flags{}, discardLogger())

	// A traversal among valid paths fails the whole call with a
	// structured error, never a panic.
	result := r.Execute(context.Background(), "kb_read_file", map[string]any{
		"paths": []any{"README.md", "../../etc/passwd"},
	})
	mustFail(t, result, "traversal")
}

func TestListDirectory(t *testing.T) {
	tc := testContext(t)
	seedKB(t, tc)
	r := BuildDefaultRegistry(tc, Flags{}, discardLogger())
	ctx := context.Background()

	flat := mustSucceed(t, r.Execute(ctx, "kb_list_directory", map[string]any{"path": "topics"}))
	if flat["count"] != 2 {
		t.Errorf("flat listing of topics: count=%v", flat["count"])
	}

	deep := mustSucceed(t, r.Execute(ctx, "kb_list_directory", map[string]any{
		"path":      "topics",
		"recursive": true,
	}))
	// 2 dirs + 3 files.
	if deep["count"] != 5 {
		t.Errorf("recursive listing: count=%v", deep["count"])
	}

	mustFail(t, r.Execute(ctx, "kb_list_directory", map[string]any{"path": "missing"}), "directory not found")
}

func TestSearchFiles(t *testing.T) {
	tc := testContext(t)
	seedKB(t, tc)
	r := BuildDefaultRegistry(tc, Flags{}, discardLogger())
	ctx := context.Background()

	// Basename matching finds nested markdown.
	result := mustSucceed(t, r.Execute(ctx, "kb_search_files", map[string]any{"pattern": "*.md"}))
	if result["count"] != 4 {
		t.Errorf("*.md should match all 4 files, got %v", result["count"])
	}

	// Full-path pattern narrows to one directory.
	result = mustSucceed(t, r.Execute(ctx, "kb_search_files", map[string]any{"pattern": "topics/ai/*"}))
	if result["count"] != 2 {
		t.Errorf("topics/ai/* should match 2, got %v", result["count"])
	}

	// Case-insensitive by default.
	result = mustSucceed(t, r.Execute(ctx, "kb_search_files", map[string]any{"pattern": "readme.md"}))
	if result["count"] != 1 {
		t.Errorf("case-insensitive match failed: %v", result["count"])
	}
	result = mustSucceed(t, r.Execute(ctx, "kb_search_files", map[string]any{
		"pattern":        "readme.md",
		"case_sensitive": true,
	}))
	if result["count"] != 0 {
		t.Errorf("case-sensitive match should miss: %v", result["count"])
	}
}

func TestSearchContent(t *testing.T) {
	tc := testContext(t)
	seedKB(t, tc)
	r := BuildDefaultRegistry(tc, Flags{}, discardLogger())
	ctx := context.Background()

	result := mustSucceed(t, r.Execute(ctx, "kb_search_content", map[string]any{"query": "attention"}))
	hits := result["matches"].([]map[string]any)
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0]["path"] != "topics/ai/transformers.md" {
		t.Errorf("hit path: %v", hits[0]["path"])
	}
	if hits[0]["line"] != 2 {
		t.Errorf("hit line: %v", hits[0]["line"])
	}

	// file_pattern limits the searched set.
	result = mustSucceed(t, r.Execute(ctx, "kb_search_content", map[string]any{
		"query":        "#",
		"file_pattern": "go.md",
	}))
	hits = result["matches"].([]map[string]any)
	for _, h := range hits {
		if h["path"] != "topics/tech/go.md" {
			t.Errorf("pattern leak: %v", h["path"])
		}
	}
}

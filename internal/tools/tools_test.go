package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testContext(t *testing.T) *Context {
	t.Helper()
	return &Context{
		KBRoot: t.TempDir(),
		Logger: discardLogger(),
	}
}

func stubTool(name string, result map[string]any, err error) *Tool {
	return &Tool{
		Name:        name,
		Description: "stub",
		Parameters:  map[string]any{"type": "object"},
		Handler: func(context.Context, map[string]any, *Context) (map[string]any, error) {
			return result, err
		},
	}
}

func TestRegistryLastWins(t *testing.T) {
	r := NewRegistry(testContext(t), discardLogger())
	r.Register(stubTool("dup", map[string]any{"v": 1}, nil))
	r.Register(stubTool("dup", map[string]any{"v": 2}, nil))

	if got := len(r.Names()); got != 1 {
		t.Fatalf("duplicate registration must replace, got %d tools", got)
	}
	result := r.Execute(context.Background(), "dup", nil)
	if result["v"] != 2 {
		t.Errorf("expected last registration to win, got %v", result["v"])
	}
}

func TestRegistryUnknownTool(t *testing.T) {
	r := NewRegistry(testContext(t), discardLogger())

	result := r.Execute(context.Background(), "does_not_exist", nil)
	if ok, _ := result["success"].(bool); ok {
		t.Fatal("unknown tool must fail")
	}
	errMsg, _ := result["error"].(string)
	if errMsg != "Tool not found: does_not_exist" {
		t.Errorf("got error %q", errMsg)
	}
}

func TestRegistryHandlerError(t *testing.T) {
	r := NewRegistry(testContext(t), discardLogger())
	r.Register(stubTool("boom", nil, errors.New("kaboom")))

	result := r.Execute(context.Background(), "boom", nil)
	if ok, _ := result["success"].(bool); ok {
		t.Fatal("handler error must become a structured failure")
	}
	if result["error"] != "kaboom" {
		t.Errorf("got %v", result["error"])
	}
}

func TestRegistrySuccessDefault(t *testing.T) {
	r := NewRegistry(testContext(t), discardLogger())
	r.Register(stubTool("bare", map[string]any{"data": "x"}, nil))
	r.Register(stubTool("nilmap", nil, nil))

	for _, name := range []string{"bare", "nilmap"} {
		result := r.Execute(context.Background(), name, nil)
		if ok, _ := result["success"].(bool); !ok {
			t.Errorf("%s: success should default to true, got %v", name, result)
		}
	}

	// An explicit success=false survives untouched.
	r.Register(stubTool("failed", map[string]any{"success": false, "error": "no"}, nil))
	result := r.Execute(context.Background(), "failed", nil)
	if ok, _ := result["success"].(bool); ok {
		t.Error("explicit success=false must be preserved")
	}
}

func TestLLMSchemaStableOrder(t *testing.T) {
	r := NewRegistry(testContext(t), discardLogger())
	for _, name := range []string{"zeta", "alpha", "mid"} {
		r.Register(stubTool(name, nil, nil))
	}

	schema := r.LLMSchema()
	if len(schema) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(schema))
	}
	var names []string
	for _, s := range schema {
		fn := s["function"].(map[string]any)
		names = append(names, fn["name"].(string))
	}
	want := []string{"alpha", "mid", "zeta"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("schema order %v, want %v", names, want)
		}
	}
}

func TestOptIntDecodesFloats(t *testing.T) {
	args := map[string]any{"n": float64(7)}
	if got := optInt(args, "n", 3); got != 7 {
		t.Errorf("float64 arg: got %d", got)
	}
	if got := optInt(args, "missing", 3); got != 3 {
		t.Errorf("default: got %d", got)
	}
}

func TestBuildDefaultRegistryFlags(t *testing.T) {
	tc := testContext(t)

	minimal := BuildDefaultRegistry(tc, Flags{}, discardLogger())
	for _, name := range []string{"plan_todo", "analyze_content", "kb_read_file", "kb_list_directory", "kb_search_files", "kb_search_content"} {
		if !minimal.Has(name) {
			t.Errorf("%s must always be registered", name)
		}
	}
	for _, name := range []string{"file_create", "web_search", "git_command", "github_api", "shell_command", "kb_vector_search", "store_memory"} {
		if minimal.Has(name) {
			t.Errorf("%s should be absent with all flags off", name)
		}
	}

	full := BuildDefaultRegistry(tc, Flags{
		FileManagement: true,
		Web:            true,
		Git:            true,
		GitHub:         true,
		Shell:          true,
		VectorSearch:   true,
		Memory:         true,
	}, discardLogger())
	for _, name := range []string{"file_create", "file_move", "folder_delete", "web_search", "web_fetch", "git_command", "github_api", "shell_command", "kb_vector_search", "kb_reindex_vector", "store_memory", "retrieve_memory"} {
		if !full.Has(name) {
			t.Errorf("%s missing with all flags on", name)
		}
	}
}

func TestBuildRegistryIdempotent(t *testing.T) {
	tc := testContext(t)
	flags := Flags{FileManagement: true, Web: true}

	a := BuildDefaultRegistry(tc, flags, discardLogger())
	b := BuildDefaultRegistry(tc, flags, discardLogger())

	an, bn := a.Names(), b.Names()
	if len(an) != len(bn) {
		t.Fatalf("registry size differs across builds: %d vs %d", len(an), len(bn))
	}
	for i := range an {
		if an[i] != bn[i] {
			t.Fatalf("registry contents differ: %v vs %v", an, bn)
		}
	}
}

func TestTodoPlan(t *testing.T) {
	plan := NewTodoPlan([]string{"one", "two"})
	if len(plan.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(plan.Items))
	}

	next := plan.NextPending()
	if next == nil || next.Task != "one" {
		t.Fatalf("first pending should be 'one', got %v", next)
	}
	next.Status = TodoCompleted

	next = plan.NextPending()
	if next == nil || next.Task != "two" {
		t.Fatalf("second pending should be 'two', got %v", next)
	}
	next.Status = TodoCompleted

	if plan.NextPending() != nil {
		t.Error("no pending items expected")
	}

	pending, inProgress, completed := plan.Counts()
	if pending != 0 || inProgress != 0 || completed != 2 {
		t.Errorf("counts: pending=%d in_progress=%d completed=%d", pending, inProgress, completed)
	}
}

func ExampleFail() {
	fmt.Println(Fail("bad input")["success"])
	// Output: false
}

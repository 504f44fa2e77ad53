package memory

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreAndRetrieve(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Store(ctx, "Transformers use self-attention", "ai", []string{"ml", "paper"})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated id")
	}

	records, err := store.Retrieve(ctx, "attention", "", nil, 0)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].ID != id {
		t.Errorf("id mismatch: %q vs %q", records[0].ID, id)
	}
	if records[0].Category != "ai" {
		t.Errorf("category: got %q", records[0].Category)
	}
	if len(records[0].Tags) != 2 {
		t.Errorf("tags: got %v", records[0].Tags)
	}
	if records[0].Created == "" {
		t.Error("created_at should be set")
	}
}

func TestStoreRejectsEmptyContent(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Store(context.Background(), "   ", "", nil); err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestRetrieveFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seed := []struct {
		content  string
		category string
		tags     []string
	}{
		{"Go generics landed in 1.18", "tech", []string{"go"}},
		{"SQLite WAL mode allows concurrent readers", "tech", []string{"db", "sqlite"}},
		{"Daily standup moved to 10am", "work", nil},
	}
	for _, m := range seed {
		if _, err := store.Store(ctx, m.content, m.category, m.tags); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	byCategory, err := store.Retrieve(ctx, "", "tech", nil, 0)
	if err != nil {
		t.Fatalf("retrieve by category: %v", err)
	}
	if len(byCategory) != 2 {
		t.Errorf("category filter: expected 2, got %d", len(byCategory))
	}

	byTag, err := store.Retrieve(ctx, "", "", []string{"sqlite"}, 0)
	if err != nil {
		t.Fatalf("retrieve by tag: %v", err)
	}
	if len(byTag) != 1 || byTag[0].Content != "SQLite WAL mode allows concurrent readers" {
		t.Errorf("tag filter: got %v", byTag)
	}

	byQuery, err := store.Retrieve(ctx, "GENERICS", "", nil, 0)
	if err != nil {
		t.Fatalf("retrieve by query: %v", err)
	}
	if len(byQuery) != 1 {
		t.Errorf("query should match case-insensitively, got %d records", len(byQuery))
	}

	limited, err := store.Retrieve(ctx, "", "", nil, 2)
	if err != nil {
		t.Fatalf("retrieve limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limit: expected 2, got %d", len(limited))
	}
}

func TestDeleteAndCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Store(ctx, "ephemeral note", "", nil)
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	n, err := store.Count(ctx)
	if err != nil || n != 1 {
		t.Fatalf("count before delete: n=%d err=%v", n, err)
	}

	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "missing-id"); err != nil {
		t.Errorf("deleting a missing id should not error: %v", err)
	}

	n, err = store.Count(ctx)
	if err != nil || n != 0 {
		t.Fatalf("count after delete: n=%d err=%v", n, err)
	}
}

package vector

import (
	"context"
	"hash/fnv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeEmbedder produces deterministic vectors: a crude bag-of-words
// hash so related texts land near each other without a model.
type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) Generate(_ context.Context, text string) ([]float32, error) {
	f.calls++
	vec := make([]float32, 32)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%32]++
	}
	return vec, nil
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{1, 0, 0}
	c := []float32{0, 1, 0}

	if got := CosineSimilarity(a, b); math.Abs(float64(got)-1) > 1e-6 {
		t.Errorf("identical vectors: got %f, want 1", got)
	}
	if got := CosineSimilarity(a, c); got != 0 {
		t.Errorf("orthogonal vectors: got %f, want 0", got)
	}
	if got := CosineSimilarity(a, []float32{1, 2}); got != 0 {
		t.Errorf("mismatched lengths should score 0, got %f", got)
	}
	if got := CosineSimilarity(a, []float32{0, 0, 0}); got != 0 {
		t.Errorf("zero vector should score 0, got %f", got)
	}
}

func TestSplitMarkdown(t *testing.T) {
	content := "# Title\n\nThis is the introduction paragraph with enough text.\n\n## Section A\n\nSection A content goes here, also long enough to keep.\n"
	chunks := SplitMarkdown(content)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks (one per heading), got %d", len(chunks))
	}
	if !strings.Contains(chunks[0].Text, "introduction") {
		t.Errorf("first chunk should hold the intro: %q", chunks[0].Text)
	}
	if chunks[1].Ord != 1 {
		t.Errorf("ord should follow chunk order, got %d", chunks[1].Ord)
	}
}

func TestSplitMarkdownDropsTinyChunks(t *testing.T) {
	chunks := SplitMarkdown("# A\n\nhi\n")
	if len(chunks) != 0 {
		t.Errorf("tiny sections should be dropped, got %d chunks", len(chunks))
	}
}

func TestSplitMarkdownLongSection(t *testing.T) {
	var b strings.Builder
	b.WriteString("# Long\n\n")
	for i := 0; i < 40; i++ {
		b.WriteString(strings.Repeat("lorem ipsum dolor sit amet ", 4))
		b.WriteString("\n\n")
	}
	chunks := SplitMarkdown(b.String())
	if len(chunks) < 2 {
		t.Fatalf("long section should split into multiple chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if len([]rune(c.Text)) > maxChunkRunes+maxChunkRunes/2 {
			t.Errorf("chunk far over limit: %d runes", len([]rune(c.Text)))
		}
	}
}

func TestEncodeDecodeVector(t *testing.T) {
	v := []float32{0.5, -1.25, 3.75, 0}
	got := decodeVector(encodeVector(v))
	if len(got) != len(v) {
		t.Fatalf("length mismatch: %d vs %d", len(got), len(v))
	}
	for i := range v {
		if got[i] != v[i] {
			t.Errorf("index %d: got %f, want %f", i, got[i], v[i])
		}
	}
}

func newTestIndex(t *testing.T, kbRoot string) (*Index, *fakeEmbedder) {
	t.Helper()
	emb := &fakeEmbedder{}
	idx, err := NewIndex(filepath.Join(t.TempDir(), "index.db"), kbRoot, emb, nil)
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx, emb
}

func writeNote(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReindexAndSearch(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "topics/ai/transformers.md",
		"# Transformers\n\nTransformers use self attention layers for sequence modeling tasks.\n")
	writeNote(t, root, "topics/cooking/pasta.md",
		"# Pasta\n\nBoil the pasta in salted water and finish in the sauce pan.\n")

	idx, _ := newTestIndex(t, root)
	ctx := context.Background()

	added, removed, err := idx.Reindex(ctx, false)
	if err != nil {
		t.Fatalf("reindex: %v", err)
	}
	if added != 2 || removed != 0 {
		t.Fatalf("expected 2 added, 0 removed; got %d, %d", added, removed)
	}

	results, err := idx.Search(ctx, "self attention sequence modeling", 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Path != "topics/ai/transformers.md" {
		t.Errorf("expected the transformers note on top, got %q", results[0].Path)
	}
	if results[0].Score <= 0 {
		t.Errorf("expected positive score, got %f", results[0].Score)
	}
}

func TestReindexSkipsUnchanged(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "note.md", "# Note\n\nStable content that does not change between runs.\n")

	idx, emb := newTestIndex(t, root)
	ctx := context.Background()

	if _, _, err := idx.Reindex(ctx, false); err != nil {
		t.Fatalf("first reindex: %v", err)
	}
	callsAfterFirst := emb.calls

	added, _, err := idx.Reindex(ctx, false)
	if err != nil {
		t.Fatalf("second reindex: %v", err)
	}
	if added != 0 {
		t.Errorf("unchanged file should be skipped, got added=%d", added)
	}
	if emb.calls != callsAfterFirst {
		t.Errorf("no new embeddings expected, calls %d -> %d", callsAfterFirst, emb.calls)
	}

	// force re-embeds everything.
	added, _, err = idx.Reindex(ctx, true)
	if err != nil {
		t.Fatalf("forced reindex: %v", err)
	}
	if added != 1 {
		t.Errorf("force should reindex the file, got added=%d", added)
	}
}

func TestReindexRemovesVanished(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "keep.md", "# Keep\n\nThis note stays in the knowledge base forever.\n")
	writeNote(t, root, "gone.md", "# Gone\n\nThis note is about to be deleted from disk.\n")

	idx, _ := newTestIndex(t, root)
	ctx := context.Background()

	if _, _, err := idx.Reindex(ctx, false); err != nil {
		t.Fatalf("reindex: %v", err)
	}
	if err := os.Remove(filepath.Join(root, "gone.md")); err != nil {
		t.Fatal(err)
	}

	_, removed, err := idx.Reindex(ctx, false)
	if err != nil {
		t.Fatalf("reindex after delete: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 removal, got %d", removed)
	}

	results, err := idx.Search(ctx, "deleted from disk", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, r := range results {
		if r.Path == "gone.md" {
			t.Error("vanished note still in index")
		}
	}
}

package kb

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestRelativePath(t *testing.T) {
	cases := []struct {
		name string
		s    Structure
		want string
	}{
		{"category only", Structure{Category: "ai"}, "topics/ai"},
		{"with subcategory", Structure{Category: "ai", Subcategory: "llm"}, "topics/ai/llm"},
		{"empty falls back to general", Structure{}, "topics/general"},
		{"whitespace category", Structure{Category: "  "}, "topics/general"},
		{"empty subcategory omitted", Structure{Category: "tech", Subcategory: " "}, "topics/tech"},
		{"custom path wins", Structure{Category: "ai", CustomPath: "projects/notes"}, "projects/notes"},
		{"custom path trimmed", Structure{CustomPath: "/projects/notes/"}, "projects/notes"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.s.RelativePath()
			if got != tc.want {
				t.Errorf("RelativePath() = %q, want %q", got, tc.want)
			}
			if strings.Contains(got, "//") || strings.Contains(got, "None") {
				t.Errorf("malformed path %q", got)
			}
		})
	}
}

func TestDetectStructure(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"A paper about neural networks and attention", "ai"},
		{"Deploying with docker and kubernetes", "tech"},
		{"Quantum entanglement experiment results", "science"},
		{"Startup revenue projections for Q3", "business"},
		{"New clinical therapy guidelines", "health"},
		{"Grocery list for the weekend", "general"},
	}
	for _, tc := range cases {
		got := DetectStructure(tc.text)
		if got.Category != tc.want {
			t.Errorf("DetectStructure(%q).Category = %q, want %q", tc.text, got.Category, tc.want)
		}
		if got.Category == "" {
			t.Errorf("category must never be empty for %q", tc.text)
		}
	}
}

func TestDetectStructureTags(t *testing.T) {
	s := DetectStructure("A golang tutorial about networking")
	want := map[string]bool{"golang": true, "tutorial": true, "networking": true}
	for _, tag := range s.Tags {
		if !want[tag] {
			t.Errorf("unexpected tag %q", tag)
		}
		delete(want, tag)
	}
	if len(want) != 0 {
		t.Errorf("missing tags: %v", want)
	}
}

func TestExtractTitle(t *testing.T) {
	cases := []struct {
		name     string
		markdown string
		want     string
	}{
		{"atx heading", "# Attention Is All You Need\n\nBody.", "Attention Is All You Need"},
		{"setext heading", "Big Title\n=========\n\nBody.", "Big Title"},
		{"skips h2", "## Section\n\n# Real Title\n", "Real Title"},
		{"no heading", "Just a paragraph.", "Untitled Note"},
		{"empty", "", "Untitled Note"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractTitle(tc.markdown); got != tc.want {
				t.Errorf("ExtractTitle() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractURLs(t *testing.T) {
	text := "See https://arxiv.org/abs/1706.03762 and http://example.com, plus https://arxiv.org/abs/1706.03762 again."
	urls := ExtractURLs(text)
	if len(urls) != 2 {
		t.Fatalf("expected 2 deduplicated URLs, got %d: %v", len(urls), urls)
	}
	if urls[0] != "https://arxiv.org/abs/1706.03762" {
		t.Errorf("order not preserved: %v", urls)
	}
}

func TestExtractKeywords(t *testing.T) {
	text := "transformer transformer transformer attention attention the the the and"
	kws := ExtractKeywords(text, 2)
	if len(kws) != 2 {
		t.Fatalf("expected 2 keywords, got %v", kws)
	}
	if kws[0] != "transformer" || kws[1] != "attention" {
		t.Errorf("frequency order wrong: %v", kws)
	}
}

func TestSummarize(t *testing.T) {
	long := strings.Repeat("word ", 100)
	sum := Summarize(long, 50)
	if len(sum) > 60 {
		t.Errorf("summary too long: %d chars", len(sum))
	}
	if !strings.HasSuffix(sum, "…") {
		t.Errorf("truncated summary should end with ellipsis: %q", sum)
	}

	short := "already short"
	if got := Summarize(short, 50); got != short {
		t.Errorf("short text should pass through, got %q", got)
	}
}

func TestSummarizeCyrillic(t *testing.T) {
	// Truncation must cut between runes, never inside one. A limit that
	// lands mid-encoding in byte terms must still yield valid UTF-8.
	long := "a" + strings.Repeat("ж", 60)

	whole := Summarize(long, 80)
	if whole != long {
		t.Errorf("61 runes fit in an 80-rune limit, got %q", whole)
	}

	cut := Summarize(long, 40)
	if !utf8.ValidString(cut) {
		t.Errorf("summary is not valid UTF-8: %q", cut)
	}
	if n := len([]rune(cut)); n > 41 {
		t.Errorf("summary too long: %d runes", n)
	}
	if !strings.HasSuffix(cut, "…") {
		t.Errorf("truncated summary should end with ellipsis: %q", cut)
	}
}

func TestSaveNote(t *testing.T) {
	root := t.TempDir()
	s := Structure{Category: "ai"}

	rel, err := SaveNote(root, "Attention Is All You Need", "# Attention Is All You Need\n", s)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if rel != "topics/ai/attention-is-all-you-need.md" {
		t.Errorf("path: got %q", rel)
	}

	// Same title again must not overwrite.
	rel2, err := SaveNote(root, "Attention Is All You Need", "# Second\n", s)
	if err != nil {
		t.Fatalf("save duplicate: %v", err)
	}
	if rel2 == rel {
		t.Errorf("duplicate title overwrote existing note: %q", rel2)
	}
	if !strings.Contains(rel2, "-1.md") {
		t.Errorf("expected numeric suffix, got %q", rel2)
	}
}

func TestSlugifyTitle(t *testing.T) {
	cases := map[string]string{
		"Hello, World!":       "hello-world",
		"  spaced   out  ":    "spaced-out",
		"":                    "note",
		"###":                 "note",
		"CamelCase & Symbols": "camelcase-symbols",
	}
	for in, want := range cases {
		if got := SlugifyTitle(in); got != want {
			t.Errorf("SlugifyTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSlugifyTitleCyrillic(t *testing.T) {
	slug := SlugifyTitle("Заметка о " + strings.Repeat("ж", 100))
	if !utf8.ValidString(slug) {
		t.Errorf("slug is not valid UTF-8: %q", slug)
	}
	if n := len([]rune(slug)); n > 80 {
		t.Errorf("slug exceeds 80 runes: %d", n)
	}
	if !strings.HasPrefix(slug, "заметка-о-") {
		t.Errorf("lowercasing or joining broke: %q", slug)
	}
}

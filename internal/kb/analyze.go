package kb

import (
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ExtractTitle returns the text of the first level-1 heading in a
// markdown document, or "Untitled Note" when none exists. The document
// is parsed with goldmark so setext headings and inline markup inside
// the heading are handled correctly.
func ExtractTitle(markdown string) string {
	source := []byte(markdown)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 {
			title = strings.TrimSpace(headingText(h, source))
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})

	if title == "" {
		return "Untitled Note"
	}
	return title
}

// headingText concatenates the raw text of all text children of a heading.
func headingText(h *ast.Heading, source []byte) string {
	var sb strings.Builder
	for c := h.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
		}
	}
	return sb.String()
}

// urlRe matches http/https URLs in free text.
var urlRe = regexp.MustCompile(`https?://[^\s<>"')\]]+`)

// ExtractURLs returns all http(s) URLs found in text, in order,
// deduplicated.
func ExtractURLs(s string) []string {
	seen := make(map[string]bool)
	var urls []string
	for _, u := range urlRe.FindAllString(s, -1) {
		if !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}
	return urls
}

// stopWords are excluded from keyword extraction.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "with": true, "this": true,
	"that": true, "from": true, "have": true, "was": true, "were": true,
	"they": true, "their": true, "its": true, "has": true, "had": true,
	"can": true, "will": true, "into": true, "about": true, "when": true,
	"what": true, "which": true, "also": true, "more": true, "some": true,
}

var wordRe = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9_-]{2,}`)

// ExtractKeywords returns up to limit of the most frequent non-stopword
// terms in text, most frequent first. Ties break alphabetically so the
// output is stable.
func ExtractKeywords(s string, limit int) []string {
	if limit <= 0 {
		limit = 10
	}

	counts := make(map[string]int)
	for _, w := range wordRe.FindAllString(strings.ToLower(s), -1) {
		if stopWords[w] {
			continue
		}
		counts[w]++
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > limit {
		words = words[:limit]
	}
	return words
}

// Summarize returns the first maxChars characters of text, cut at a
// word boundary with an ellipsis when truncated.
func Summarize(s string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = 200
	}
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}

	// Cut on rune boundaries so multi-byte text (Cyrillic titles are
	// common here) never ends in a partial encoding.
	cut := string(runes[:maxChars])
	if idx := strings.LastIndexByte(cut, ' '); idx > len(cut)/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}

package kb

import (
	"path"
	"strings"
)

// Structure describes where a generated note is filed inside the
// knowledge base: topics/<category>[/<subcategory>], plus free-form tags.
type Structure struct {
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	// CustomPath, when set, overrides the category-derived location
	// entirely. Relative to the KB root.
	CustomPath string `json:"custom_path,omitempty"`
}

// RelativePath returns the directory (relative to the KB root) a note
// with this structure belongs in. An empty category falls back to
// "general" and an empty subcategory is omitted — the output never
// contains an empty path element.
func (s Structure) RelativePath() string {
	if s.CustomPath != "" {
		return strings.Trim(s.CustomPath, "/")
	}

	category := strings.TrimSpace(s.Category)
	if category == "" {
		category = "general"
	}

	sub := strings.TrimSpace(s.Subcategory)
	if sub == "" {
		return path.Join("topics", category)
	}
	return path.Join("topics", category, sub)
}

// categoryKeywords maps category names to the keywords that select them.
// Checked in a fixed order so detection is deterministic.
var categoryKeywords = []struct {
	category string
	words    []string
}{
	{"ai", []string{"neural", "machine learning", "deep learning", "llm", "artificial intelligence", " ai ", "transformer", "gpt"}},
	{"tech", []string{"programming", "software", "code", "golang", "python", "database", "api", "server", "kubernetes", "docker"}},
	{"science", []string{"physics", "chemistry", "biology", "research", "experiment", "quantum"}},
	{"business", []string{"startup", "market", "finance", "investment", "revenue", "product"}},
	{"health", []string{"medicine", "health", "disease", "therapy", "clinical"}},
}

// DetectStructure derives a Structure from free text using keyword
// matching. Used for rule-based runs and as the fallback when the LLM
// path fails. The result always has a non-empty category.
func DetectStructure(text string) Structure {
	lower := " " + strings.ToLower(text) + " "

	for _, ck := range categoryKeywords {
		for _, w := range ck.words {
			if strings.Contains(lower, w) {
				return Structure{
					Category: ck.category,
					Tags:     detectTags(lower),
				}
			}
		}
	}

	return Structure{Category: "general", Tags: detectTags(lower)}
}

// tagKeywords are standalone words promoted to tags when present.
var tagKeywords = []string{
	"golang", "python", "rust", "linux", "security", "networking",
	"tutorial", "reference", "paper", "book", "video",
}

func detectTags(lowerText string) []string {
	var tags []string
	for _, w := range tagKeywords {
		if strings.Contains(lowerText, w) {
			tags = append(tags, w)
		}
	}
	return tags
}

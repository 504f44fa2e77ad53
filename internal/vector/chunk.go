package vector

import "strings"

// Chunking limits. Notes are split on markdown headings first; any
// section still longer than maxChunkRunes is split on paragraph
// boundaries.
const (
	maxChunkRunes = 1500
	minChunkRunes = 20
)

// Chunk is one indexable slice of a note.
type Chunk struct {
	// Ord is the chunk's position within its file.
	Ord int
	// Text is the chunk content.
	Text string
}

// SplitMarkdown splits note content into chunks along heading and
// paragraph boundaries. Chunks shorter than minChunkRunes are dropped.
func SplitMarkdown(content string) []Chunk {
	var sections []string
	var current strings.Builder

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "#") && current.Len() > 0 {
			sections = append(sections, current.String())
			current.Reset()
		}
		current.WriteString(line)
		current.WriteByte('\n')
	}
	if current.Len() > 0 {
		sections = append(sections, current.String())
	}

	var chunks []Chunk
	for _, sec := range sections {
		for _, piece := range splitLong(sec) {
			piece = strings.TrimSpace(piece)
			if len([]rune(piece)) < minChunkRunes {
				continue
			}
			chunks = append(chunks, Chunk{Ord: len(chunks), Text: piece})
		}
	}
	return chunks
}

// splitLong breaks an over-long section on paragraph boundaries,
// packing paragraphs greedily up to the chunk limit.
func splitLong(section string) []string {
	if len([]rune(section)) <= maxChunkRunes {
		return []string{section}
	}

	paragraphs := strings.Split(section, "\n\n")
	var (
		out     []string
		current strings.Builder
	)
	flush := func() {
		if current.Len() > 0 {
			out = append(out, current.String())
			current.Reset()
		}
	}
	for _, p := range paragraphs {
		if current.Len() > 0 && len([]rune(current.String()))+len([]rune(p)) > maxChunkRunes {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)
		// A single paragraph over the limit becomes its own chunk.
		if len([]rune(current.String())) > maxChunkRunes {
			flush()
		}
	}
	flush()
	return out
}

package kb

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// SaveNote writes note markdown into the knowledge base under the
// structure's relative path, deriving the filename from the title. If
// the target filename is taken, a numeric suffix is appended rather
// than overwriting. Returns the note's root-relative path.
func SaveNote(root, title, markdown string, structure Structure) (string, error) {
	dirRel := structure.RelativePath()
	dirAbs, err := ValidateSafePath(root, dirRel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dirAbs, 0o755); err != nil {
		return "", fmt.Errorf("create note directory: %w", err)
	}

	base := SlugifyTitle(title)
	rel := filepath.ToSlash(filepath.Join(dirRel, base+".md"))
	abs, err := ValidateSafePath(root, rel)
	if err != nil {
		return "", err
	}

	for i := 1; ; i++ {
		if _, err := os.Stat(abs); os.IsNotExist(err) {
			break
		}
		rel = filepath.ToSlash(filepath.Join(dirRel, fmt.Sprintf("%s-%d.md", base, i)))
		abs, err = ValidateSafePath(root, rel)
		if err != nil {
			return "", err
		}
	}

	if err := os.WriteFile(abs, []byte(markdown), 0o644); err != nil {
		return "", fmt.Errorf("write note: %w", err)
	}
	return rel, nil
}

// SlugifyTitle converts a note title into a safe filename stem:
// lowercase, words joined by hyphens, everything else dropped.
func SlugifyTitle(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	s := strings.Trim(b.String(), "-")
	if s == "" {
		return "note"
	}
	const maxLen = 80
	if runes := []rune(s); len(runes) > maxLen {
		s = strings.Trim(string(runes[:maxLen]), "-")
	}
	return s
}

// Package kb provides knowledge-base primitives shared by the agent and
// its tools: the path sandbox every filesystem tool must pass through,
// the KBStructure descriptor that decides where a note is filed, and
// lightweight content analysis used when no LLM is available.
package kb

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// ValidateSafePath checks that relPath stays inside root and returns the
// resolved absolute path. The input is always treated as relative:
// leading slashes and backslashes are stripped before resolution.
//
// Any input containing the literal substring ".." is rejected outright.
// This is deliberately a substring test, not a canonicalization check —
// it is the first line of defense and runs before any path resolution.
// The resolved path is then re-verified to be a descendant of root,
// which also catches escapes the substring test cannot express.
func ValidateSafePath(root, relPath string) (string, error) {
	cleaned := strings.TrimLeft(relPath, "/\\")

	if strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("path traversal attempt detected in %q", relPath)
	}

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve kb root: %w", err)
	}

	resolved := filepath.Clean(filepath.Join(rootAbs, filepath.FromSlash(cleaned)))

	// Defense in depth: the joined path must still be root or below it,
	// even after cleaning.
	if resolved != rootAbs && !strings.HasPrefix(resolved, rootAbs+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes knowledge base root", relPath)
	}

	return resolved, nil
}

// IsRoot reports whether resolved is the KB root itself. Tools use this
// to refuse deleting or moving the root directory.
func IsRoot(root, resolved string) bool {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	return filepath.Clean(resolved) == rootAbs
}

// RootLocks serializes agent runs against the same knowledge-base root.
// Two concurrent runs writing to one root would otherwise race on file
// paths; the sandbox itself holds no locks. Keyed by resolved root path.
type RootLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRootLocks creates an empty lock table.
func NewRootLocks() *RootLocks {
	return &RootLocks{locks: make(map[string]*sync.Mutex)}
}

// Acquire locks the mutex for root, creating it on first use. The
// returned function releases the lock. Nil-safe: a nil *RootLocks
// returns a no-op release.
func (l *RootLocks) Acquire(root string) func() {
	if l == nil {
		return func() {}
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}

	l.mu.Lock()
	m, ok := l.locks[abs]
	if !ok {
		m = &sync.Mutex{}
		l.locks[abs] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

package tools

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ArtyomZemlyak/tg-note/internal/kb"
)

// maxReadBytes caps a single kb_read_file payload so a huge note cannot
// blow up the decision prompt.
const maxReadBytes = 100 * 1024

// ReadTools returns the read-only knowledge-base inspection tool set.
// These are always registered — the agent cannot reason about a KB it
// cannot see.
func ReadTools() []*Tool {
	return []*Tool{
		{
			Name:        "kb_read_file",
			Description: "Read the contents of one or more files from the knowledge base.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"paths": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "File paths relative to the knowledge base root",
					},
				},
				"required": []string{"paths"},
			},
			Handler: handleReadFile,
		},
		{
			Name:        "kb_list_directory",
			Description: "List files and folders in a knowledge base directory.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": map[string]any{
						"type":        "string",
						"description": "Directory path relative to the knowledge base root. Empty for the root.",
					},
					"recursive": map[string]any{
						"type":        "boolean",
						"description": "Descend into subdirectories (default false)",
					},
				},
			},
			Handler: handleListDirectory,
		},
		{
			Name:        "kb_search_files",
			Description: "Find knowledge base files whose names match a glob pattern (e.g., '*.md', 'topics/ai/*').",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"pattern": map[string]any{
						"type":        "string",
						"description": "Glob pattern matched against paths relative to the root",
					},
					"case_sensitive": map[string]any{
						"type":        "boolean",
						"description": "Match case-sensitively (default false)",
					},
				},
				"required": []string{"pattern"},
			},
			Handler: handleSearchFiles,
		},
		{
			Name:        "kb_search_content",
			Description: "Search file contents in the knowledge base for a query string.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "Text to search for",
					},
					"case_sensitive": map[string]any{
						"type":        "boolean",
						"description": "Match case-sensitively (default false)",
					},
					"file_pattern": map[string]any{
						"type":        "string",
						"description": "Glob limiting which files are searched (default '*.md')",
					},
				},
				"required": []string{"query"},
			},
			Handler: handleSearchContent,
		},
	}
}

func handleReadFile(_ context.Context, args map[string]any, tc *Context) (map[string]any, error) {
	raw, ok := args["paths"].([]any)
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("paths is required")
	}

	files := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		relPath, ok := r.(string)
		if !ok {
			return nil, fmt.Errorf("paths must be strings")
		}

		abs, err := kb.ValidateSafePath(tc.KBRoot, relPath)
		if err != nil {
			return nil, err
		}

		data, err := os.ReadFile(abs)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("file not found: %s", relPath)
			}
			return nil, fmt.Errorf("read %s: %w", relPath, err)
		}

		content := string(data)
		truncated := false
		if len(content) > maxReadBytes {
			content = content[:maxReadBytes]
			truncated = true
		}

		files = append(files, map[string]any{
			"path":      relPath,
			"content":   content,
			"truncated": truncated,
		})
	}

	return Ok(map[string]any{"files": files}), nil
}

func handleListDirectory(_ context.Context, args map[string]any, tc *Context) (map[string]any, error) {
	relPath := optString(args, "path")
	recursive := optBool(args, "recursive", false)

	abs, err := kb.ValidateSafePath(tc.KBRoot, relPath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("directory not found: %s", relPath)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", relPath)
	}

	var entries []map[string]any
	if recursive {
		err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if p == abs {
				return nil
			}
			rel, relErr := filepath.Rel(abs, p)
			if relErr != nil {
				return relErr
			}
			entries = append(entries, map[string]any{
				"name": filepath.ToSlash(rel),
				"dir":  d.IsDir(),
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk directory: %w", err)
		}
	} else {
		dirEntries, readErr := os.ReadDir(abs)
		if readErr != nil {
			return nil, fmt.Errorf("read directory: %w", readErr)
		}
		for _, e := range dirEntries {
			entries = append(entries, map[string]any{
				"name": e.Name(),
				"dir":  e.IsDir(),
			})
		}
	}

	return Ok(map[string]any{"path": relPath, "entries": entries, "count": len(entries)}), nil
}

func handleSearchFiles(_ context.Context, args map[string]any, tc *Context) (map[string]any, error) {
	pattern, err := stringArg(args, "pattern")
	if err != nil {
		return nil, err
	}
	caseSensitive := optBool(args, "case_sensitive", false)

	matchPattern := pattern
	if !caseSensitive {
		matchPattern = strings.ToLower(pattern)
	}

	rootAbs, err := filepath.Abs(tc.KBRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve kb root: %w", err)
	}

	var matches []string
	err = filepath.WalkDir(rootAbs, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(rootAbs, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		candidate := rel
		if !caseSensitive {
			candidate = strings.ToLower(rel)
		}

		// Match against both the full relative path and the basename so
		// '*.md' finds nested files.
		if ok, _ := filepath.Match(matchPattern, candidate); ok {
			matches = append(matches, rel)
			return nil
		}
		if ok, _ := filepath.Match(matchPattern, filepath.Base(candidate)); ok {
			matches = append(matches, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("search files: %w", err)
	}

	return Ok(map[string]any{"pattern": pattern, "matches": matches, "count": len(matches)}), nil
}

func handleSearchContent(_ context.Context, args map[string]any, tc *Context) (map[string]any, error) {
	query, err := stringArg(args, "query")
	if err != nil {
		return nil, err
	}
	caseSensitive := optBool(args, "case_sensitive", false)
	filePattern := optString(args, "file_pattern")
	if filePattern == "" {
		filePattern = "*.md"
	}

	needle := query
	if !caseSensitive {
		needle = strings.ToLower(query)
	}

	rootAbs, err := filepath.Abs(tc.KBRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve kb root: %w", err)
	}

	var hits []map[string]any
	err = filepath.WalkDir(rootAbs, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		if ok, _ := filepath.Match(filePattern, d.Name()); !ok {
			return nil
		}

		data, readErr := os.ReadFile(p)
		if readErr != nil {
			return nil // unreadable files are skipped, not fatal
		}

		rel, relErr := filepath.Rel(rootAbs, p)
		if relErr != nil {
			return relErr
		}

		for lineNo, line := range strings.Split(string(data), "\n") {
			haystack := line
			if !caseSensitive {
				haystack = strings.ToLower(line)
			}
			if strings.Contains(haystack, needle) {
				hits = append(hits, map[string]any{
					"path": filepath.ToSlash(rel),
					"line": lineNo + 1,
					"text": strings.TrimSpace(line),
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("search content: %w", err)
	}

	return Ok(map[string]any{"query": query, "matches": hits, "count": len(hits)}), nil
}

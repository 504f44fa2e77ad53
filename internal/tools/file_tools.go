package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ArtyomZemlyak/tg-note/internal/kb"
)

// pathParam is the common single-path parameter schema.
func pathParam(desc string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": desc,
			},
		},
		"required": []string{"path"},
	}
}

// moveParams is the source/destination parameter schema.
func moveParams() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"source": map[string]any{
				"type":        "string",
				"description": "Current path, relative to the knowledge base root",
			},
			"destination": map[string]any{
				"type":        "string",
				"description": "New path, relative to the knowledge base root",
			},
		},
		"required": []string{"source", "destination"},
	}
}

// FileTools returns the file and folder management tool set. Every
// handler resolves its paths through the sandbox before touching the
// filesystem and reports violations as structured failures.
func FileTools() []*Tool {
	return []*Tool{
		{
			Name:        "file_create",
			Description: "Create a new markdown file in the knowledge base. Fails if the file already exists.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": map[string]any{
						"type":        "string",
						"description": "File path relative to the knowledge base root (e.g., topics/ai/note.md)",
					},
					"content": map[string]any{
						"type":        "string",
						"description": "Full file content",
					},
				},
				"required": []string{"path", "content"},
			},
			Handler: handleFileCreate,
		},
		{
			Name:        "file_edit",
			Description: "Replace the content of an existing file in the knowledge base.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": map[string]any{
						"type":        "string",
						"description": "File path relative to the knowledge base root",
					},
					"content": map[string]any{
						"type":        "string",
						"description": "New full file content",
					},
				},
				"required": []string{"path", "content"},
			},
			Handler: handleFileEdit,
		},
		{
			Name:        "file_delete",
			Description: "Delete a file from the knowledge base.",
			Parameters:  pathParam("File path relative to the knowledge base root"),
			Handler:     handleFileDelete,
		},
		{
			Name:        "file_move",
			Description: "Move or rename a file within the knowledge base. Fails if the destination already exists.",
			Parameters:  moveParams(),
			Handler:     handleFileMove,
		},
		{
			Name:        "folder_create",
			Description: "Create a folder (and any missing parents) in the knowledge base.",
			Parameters:  pathParam("Folder path relative to the knowledge base root"),
			Handler:     handleFolderCreate,
		},
		{
			Name:        "folder_delete",
			Description: "Delete a folder and its contents from the knowledge base.",
			Parameters:  pathParam("Folder path relative to the knowledge base root"),
			Handler:     handleFolderDelete,
		},
		{
			Name:        "folder_move",
			Description: "Move or rename a folder within the knowledge base. Fails if the destination already exists.",
			Parameters:  moveParams(),
			Handler:     handleFolderMove,
		},
	}
}

func handleFileCreate(_ context.Context, args map[string]any, tc *Context) (map[string]any, error) {
	relPath, err := stringArg(args, "path")
	if err != nil {
		return nil, err
	}
	content, ok := args["content"].(string)
	if !ok {
		return nil, fmt.Errorf("content is required")
	}

	abs, err := kb.ValidateSafePath(tc.KBRoot, relPath)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(abs); err == nil {
		return nil, fmt.Errorf("file already exists: %s", relPath)
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("create parent directory: %w", err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("write file: %w", err)
	}

	tc.Log().Info("file created", "path", relPath, "bytes", len(content))
	return Ok(map[string]any{"path": relPath, "action": "created"}), nil
}

func handleFileEdit(_ context.Context, args map[string]any, tc *Context) (map[string]any, error) {
	relPath, err := stringArg(args, "path")
	if err != nil {
		return nil, err
	}
	content, ok := args["content"].(string)
	if !ok {
		return nil, fmt.Errorf("content is required")
	}

	abs, err := kb.ValidateSafePath(tc.KBRoot, relPath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("file not found: %s", relPath)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("not a file: %s", relPath)
	}

	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("write file: %w", err)
	}

	tc.Log().Info("file edited", "path", relPath, "bytes", len(content))
	return Ok(map[string]any{"path": relPath, "action": "edited"}), nil
}

func handleFileDelete(_ context.Context, args map[string]any, tc *Context) (map[string]any, error) {
	relPath, err := stringArg(args, "path")
	if err != nil {
		return nil, err
	}

	abs, err := kb.ValidateSafePath(tc.KBRoot, relPath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("file not found: %s", relPath)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("not a file: %s (use folder_delete)", relPath)
	}

	if err := os.Remove(abs); err != nil {
		return nil, fmt.Errorf("delete file: %w", err)
	}

	tc.Log().Info("file deleted", "path", relPath)
	return Ok(map[string]any{"path": relPath, "action": "deleted"}), nil
}

func handleFileMove(_ context.Context, args map[string]any, tc *Context) (map[string]any, error) {
	src, dst, err := resolveMove(args, tc)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("source file not found: %s", optString(args, "source"))
	}
	if info.IsDir() {
		return nil, fmt.Errorf("source is a folder: %s (use folder_move)", optString(args, "source"))
	}

	// Destination-exists check precedes the rename so a move can never
	// silently overwrite.
	if _, err := os.Stat(dst); err == nil {
		return nil, fmt.Errorf("destination already exists: %s", optString(args, "destination"))
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("create destination directory: %w", err)
	}
	if err := os.Rename(src, dst); err != nil {
		return nil, fmt.Errorf("move file: %w", err)
	}

	tc.Log().Info("file moved", "from", optString(args, "source"), "to", optString(args, "destination"))
	return Ok(map[string]any{"source": optString(args, "source"), "destination": optString(args, "destination"), "action": "moved"}), nil
}

func handleFolderCreate(_ context.Context, args map[string]any, tc *Context) (map[string]any, error) {
	relPath, err := stringArg(args, "path")
	if err != nil {
		return nil, err
	}

	abs, err := kb.ValidateSafePath(tc.KBRoot, relPath)
	if err != nil {
		return nil, err
	}

	if info, err := os.Stat(abs); err == nil {
		if info.IsDir() {
			return nil, fmt.Errorf("folder already exists: %s", relPath)
		}
		return nil, fmt.Errorf("a file exists at %s", relPath)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create folder: %w", err)
	}

	tc.Log().Info("folder created", "path", relPath)
	return Ok(map[string]any{"path": relPath, "action": "created"}), nil
}

func handleFolderDelete(_ context.Context, args map[string]any, tc *Context) (map[string]any, error) {
	relPath, err := stringArg(args, "path")
	if err != nil {
		return nil, err
	}

	abs, err := kb.ValidateSafePath(tc.KBRoot, relPath)
	if err != nil {
		return nil, err
	}

	if kb.IsRoot(tc.KBRoot, abs) {
		return nil, fmt.Errorf("Cannot delete knowledge base root folder")
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("folder not found: %s", relPath)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a folder: %s (use file_delete)", relPath)
	}

	if err := os.RemoveAll(abs); err != nil {
		return nil, fmt.Errorf("delete folder: %w", err)
	}

	tc.Log().Info("folder deleted", "path", relPath)
	return Ok(map[string]any{"path": relPath, "action": "deleted"}), nil
}

func handleFolderMove(_ context.Context, args map[string]any, tc *Context) (map[string]any, error) {
	src, dst, err := resolveMove(args, tc)
	if err != nil {
		return nil, err
	}

	if kb.IsRoot(tc.KBRoot, src) {
		return nil, fmt.Errorf("Cannot move knowledge base root folder")
	}

	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("source folder not found: %s", optString(args, "source"))
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source is a file: %s (use file_move)", optString(args, "source"))
	}

	if _, err := os.Stat(dst); err == nil {
		return nil, fmt.Errorf("destination already exists: %s", optString(args, "destination"))
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("create destination directory: %w", err)
	}
	if err := os.Rename(src, dst); err != nil {
		return nil, fmt.Errorf("move folder: %w", err)
	}

	tc.Log().Info("folder moved", "from", optString(args, "source"), "to", optString(args, "destination"))
	return Ok(map[string]any{"source": optString(args, "source"), "destination": optString(args, "destination"), "action": "moved"}), nil
}

// resolveMove validates both ends of a move through the sandbox.
func resolveMove(args map[string]any, tc *Context) (src, dst string, err error) {
	srcRel, err := stringArg(args, "source")
	if err != nil {
		return "", "", err
	}
	dstRel, err := stringArg(args, "destination")
	if err != nil {
		return "", "", err
	}

	src, err = kb.ValidateSafePath(tc.KBRoot, srcRel)
	if err != nil {
		return "", "", err
	}
	dst, err = kb.ValidateSafePath(tc.KBRoot, dstRel)
	if err != nil {
		return "", "", err
	}
	return src, dst, nil
}

package vector

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/ArtyomZemlyak/tg-note/internal/tools"
)

// DefaultTopK is the result count when the caller does not choose.
const DefaultTopK = 5

// Index is a SQLite-backed semantic index over the markdown notes
// under a knowledge-base root. It implements tools.VectorSearcher.
type Index struct {
	db       *sql.DB
	embedder Embedder
	kbRoot   string
	logger   *slog.Logger
}

// NewIndex opens (creating if needed) the index database at dbPath.
func NewIndex(dbPath, kbRoot string, embedder Embedder, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open index database: %w", err)
	}

	idx := &Index{db: db, embedder: embedder, kbRoot: kbRoot, logger: logger}
	if err := idx.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return idx, nil
}

func (idx *Index) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS files (
		path TEXT PRIMARY KEY,
		mtime INTEGER NOT NULL,
		size INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS chunks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL,
		ord INTEGER NOT NULL,
		text TEXT NOT NULL,
		embedding BLOB NOT NULL,
		FOREIGN KEY (path) REFERENCES files(path) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_path ON chunks(path);
	`
	_, err := idx.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// Search embeds the query and returns the topK most similar chunks.
func (idx *Index) Search(ctx context.Context, query string, topK int) ([]tools.VectorResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required")
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	qv, err := idx.embedder.Generate(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := idx.db.QueryContext(ctx, `SELECT path, text, embedding FROM chunks`)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var results []tools.VectorResult
	for rows.Next() {
		var (
			path, text string
			blob       []byte
		)
		if err := rows.Scan(&path, &text, &blob); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		score := CosineSimilarity(qv, decodeVector(blob))
		results = append(results, tools.VectorResult{
			Path:    path,
			Snippet: snippet(text, 300),
			Score:   float64(score),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Reindex scans the KB for markdown notes and brings the index up to
// date: changed files are re-embedded, vanished files are removed.
// force re-embeds everything regardless of modification state. It
// returns how many files were (re)indexed and removed.
func (idx *Index) Reindex(ctx context.Context, force bool) (added, removed int, err error) {
	seen := make(map[string]bool)

	walkErr := filepath.WalkDir(idx.kbRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		rel, err := filepath.Rel(idx.kbRoot, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		seen[rel] = true

		info, err := d.Info()
		if err != nil {
			return err
		}

		if !force && idx.upToDate(ctx, rel, info.ModTime().Unix(), info.Size()) {
			return nil
		}
		if err := idx.indexFile(ctx, path, rel, info.ModTime().Unix(), info.Size()); err != nil {
			return fmt.Errorf("index %s: %w", rel, err)
		}
		added++
		return nil
	})
	if walkErr != nil {
		return added, removed, walkErr
	}

	removed, err = idx.removeVanished(ctx, seen)
	if err != nil {
		return added, removed, err
	}

	idx.logger.Info("vector reindex complete", "indexed", added, "removed", removed)
	return added, removed, nil
}

// upToDate reports whether the stored file record matches mtime/size.
func (idx *Index) upToDate(ctx context.Context, rel string, mtime, size int64) bool {
	var m, s int64
	err := idx.db.QueryRowContext(ctx,
		`SELECT mtime, size FROM files WHERE path = ?`, rel).Scan(&m, &s)
	return err == nil && m == mtime && s == size
}

// indexFile re-embeds one file inside a transaction.
func (idx *Index) indexFile(ctx context.Context, absPath, rel string, mtime, size int64) error {
	content, err := os.ReadFile(absPath)
	if err != nil {
		return err
	}
	chunks := SplitMarkdown(string(content))

	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE path = ?`, rel); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO files (path, mtime, size) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET mtime = excluded.mtime, size = excluded.size`,
		rel, mtime, size); err != nil {
		return err
	}

	for _, c := range chunks {
		vec, err := idx.embedder.Generate(ctx, c.Text)
		if err != nil {
			return fmt.Errorf("embed chunk %d: %w", c.Ord, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chunks (path, ord, text, embedding) VALUES (?, ?, ?, ?)`,
			rel, c.Ord, c.Text, encodeVector(vec)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// removeVanished deletes index entries for files no longer on disk.
func (idx *Index) removeVanished(ctx context.Context, seen map[string]bool) (int, error) {
	rows, err := idx.db.QueryContext(ctx, `SELECT path FROM files`)
	if err != nil {
		return 0, err
	}
	var stale []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return 0, err
		}
		if !seen[p] {
			stale = append(stale, p)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, p := range stale {
		if _, err := idx.db.ExecContext(ctx, `DELETE FROM chunks WHERE path = ?`, p); err != nil {
			return 0, err
		}
		if _, err := idx.db.ExecContext(ctx, `DELETE FROM files WHERE path = ?`, p); err != nil {
			return 0, err
		}
	}
	return len(stale), nil
}

// encodeVector packs float32s as little-endian bytes.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeVector unpacks little-endian bytes into float32s.
func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

// snippet trims chunk text for display.
func snippet(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}

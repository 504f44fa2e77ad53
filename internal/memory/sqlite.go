// Package memory provides persistent long-term memory for the agent:
// small standalone facts the agent decides to keep across runs, stored
// in SQLite and retrieved by substring match, category, or tags.
package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ArtyomZemlyak/tg-note/internal/tools"
)

// DefaultLimit caps Retrieve results when the caller does not choose.
const DefaultLimit = 10

// SQLiteStore is a SQLite-backed memory store implementing
// tools.MemoryStore.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the memory database at
// dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

// migrate creates the database schema.
func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_memories_category ON memories(category, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Store saves one memory and returns its generated ID.
func (s *SQLiteStore) Store(ctx context.Context, content, category string, tags []string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("memory content is required")
	}

	id := uuid.NewString()
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO memories (id, content, category, tags, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, content, category, string(tagsJSON), time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert memory: %w", err)
	}
	return id, nil
}

// Retrieve returns memories matching the query (substring,
// case-insensitive), optionally restricted to a category. Tag filters
// are applied after the SQL query because tags are stored as JSON.
// Results come back newest first.
func (s *SQLiteStore) Retrieve(ctx context.Context, query, category string, tags []string, limit int) ([]tools.MemoryRecord, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	var (
		conds []string
		args  []any
	)
	if query != "" {
		conds = append(conds, "content LIKE ? COLLATE NOCASE")
		args = append(args, "%"+query+"%")
	}
	if category != "" {
		conds = append(conds, "category = ?")
		args = append(args, category)
	}

	q := "SELECT id, content, category, tags, created_at FROM memories"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()

	var records []tools.MemoryRecord
	for rows.Next() {
		var (
			rec      tools.MemoryRecord
			tagsJSON string
			created  time.Time
		)
		if err := rows.Scan(&rec.ID, &rec.Content, &rec.Category, &tagsJSON, &created); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		if err := json.Unmarshal([]byte(tagsJSON), &rec.Tags); err != nil {
			rec.Tags = nil
		}
		rec.Created = created.Format(time.RFC3339)

		if !hasAllTags(rec.Tags, tags) {
			continue
		}
		records = append(records, rec)
		if len(records) >= limit {
			break
		}
	}
	return records, rows.Err()
}

// Delete removes one memory by ID. Deleting a missing ID is not an
// error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	return err
}

// Count returns the number of stored memories.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&n)
	return n, err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// hasAllTags reports whether have contains every tag in want.
func hasAllTags(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := make(map[string]bool, len(have))
	for _, t := range have {
		set[t] = true
	}
	for _, t := range want {
		if !set[t] {
			return false
		}
	}
	return true
}

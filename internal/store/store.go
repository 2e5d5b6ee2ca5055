// Package store persists extracted types and relationships in SQLite so they
// can be queried across files.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"classmap/internal/graph"
	"classmap/util"
)

// Store is a SQLite-backed relationship index.
type Store struct {
	db *sql.DB
}

// Edge is a relationship together with the file it was extracted from.
type Edge struct {
	graph.Relationship
	FilePath string `json:"file_path"`
}

// Stats summarises the index contents.
type Stats struct {
	Files         int `json:"files"`
	Types         int `json:"types"`
	Relationships int `json:"relationships"`
}

// Open opens (creating if needed) the index at path and applies pending
// migrations. Use ":memory:" for a throwaway index.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection: also keeps a ":memory:" database alive.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for i, stmts := range migrations {
		version := i + 1

		var exists int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", version, err)
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d: %w", version, err)
			}
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", version, err)
		}
	}
	return nil
}

// lookupKey strips the quoting added for nested names.
func lookupKey(name string) string {
	return strings.Trim(name, `"`)
}

// ReplaceFile stores the types and relationships of one file, replacing
// anything previously recorded for it. Type IDs are derived from the file
// path and name.
func (s *Store) ReplaceFile(ctx context.Context, filePath, hash string, types []graph.Node, rels []graph.Relationship) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace %s: %w", filePath, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM files WHERE path = ?", filePath); err != nil {
		return fmt.Errorf("delete %s: %w", filePath, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO files (path, hash) VALUES (?, ?)", filePath, hash); err != nil {
		return fmt.Errorf("insert file %s: %w", filePath, err)
	}

	for _, t := range types {
		id := t.ID
		if id == "" {
			id = util.GenerateNodeID(filePath, t.Name)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO types (id, name, kind, file_path, line_start, line_end) VALUES (?, ?, ?, ?, ?, ?)`,
			id, t.Name, t.Kind, filePath, t.LineStart, t.LineEnd); err != nil {
			return fmt.Errorf("insert type %s: %w", t.Name, err)
		}
	}

	for i, r := range rels {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO relationships (file_path, seq, source, target, symbol, label, source_key, target_key)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			filePath, i, r.Source, r.Target, r.Symbol.String(), r.Label,
			lookupKey(r.Source), lookupKey(r.Target)); err != nil {
			return fmt.Errorf("insert relationship %d of %s: %w", i, filePath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", filePath, err)
	}
	return nil
}

// FileHash returns the content hash recorded for filePath, or "" if the file
// has not been indexed.
func (s *Store) FileHash(ctx context.Context, filePath string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, "SELECT hash FROM files WHERE path = ?", filePath).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query hash of %s: %w", filePath, err)
	}
	return hash, nil
}

// PruneStaleFiles removes every indexed file not in valid and returns how
// many were removed.
func (s *Store) PruneStaleFiles(ctx context.Context, valid []string) (int, error) {
	keep := make(map[string]bool, len(valid))
	for _, v := range valid {
		keep[v] = true
	}

	rows, err := s.db.QueryContext(ctx, "SELECT path FROM files")
	if err != nil {
		return 0, fmt.Errorf("list files: %w", err)
	}
	var stale []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan file: %w", err)
		}
		if !keep[p] {
			stale = append(stale, p)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("list files: %w", err)
	}

	for _, p := range stale {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM files WHERE path = ?", p); err != nil {
			return 0, fmt.Errorf("delete %s: %w", p, err)
		}
	}
	return len(stale), nil
}

// FindRelationships returns every edge with typeName at either end. Quotes
// around nested names are ignored on both sides.
func (s *Store) FindRelationships(ctx context.Context, typeName string) ([]Edge, error) {
	key := lookupKey(typeName)
	rows, err := s.db.QueryContext(ctx,
		`SELECT file_path, source, target, symbol, label FROM relationships
		 WHERE source_key = ? OR target_key = ?
		 ORDER BY file_path, seq`, key, key)
	if err != nil {
		return nil, fmt.Errorf("query relationships of %s: %w", typeName, err)
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		var e Edge
		var symbol string
		if err := rows.Scan(&e.FilePath, &e.Source, &e.Target, &symbol, &e.Label); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		if err := e.Symbol.UnmarshalText([]byte(symbol)); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// ListTypes returns the types declared in filePath, or in every file when
// filePath is empty, ordered by file and line.
func (s *Store) ListTypes(ctx context.Context, filePath string) ([]graph.Node, error) {
	query := `SELECT id, name, kind, file_path, line_start, line_end FROM types`
	var args []any
	if filePath != "" {
		query += ` WHERE file_path = ?`
		args = append(args, filePath)
	}
	query += ` ORDER BY file_path, line_start, name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query types: %w", err)
	}
	defer rows.Close()

	var nodes []graph.Node
	for rows.Next() {
		var n graph.Node
		if err := rows.Scan(&n.ID, &n.Name, &n.Kind, &n.FilePath, &n.LineStart, &n.LineEnd); err != nil {
			return nil, fmt.Errorf("scan type: %w", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// Stats counts indexed files, types and relationships.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM files),
		(SELECT COUNT(*) FROM types),
		(SELECT COUNT(*) FROM relationships)`).Scan(&st.Files, &st.Types, &st.Relationships)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	return st, nil
}

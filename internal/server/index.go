package server

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"classmap/internal/diagram"
)

// IndexSummary reports what one index run did.
type IndexSummary struct {
	Files         int     `json:"files"`
	Unchanged     int     `json:"unchanged"`
	Types         int     `json:"types"`
	Relationships int     `json:"relationships"`
	Pruned        int     `json:"pruned"`
	Seconds       float64 `json:"duration_seconds"`
}

// Index scans the workspace and stores every changed file's types and
// relationships. Files whose content hash is unchanged are skipped unless
// force is set.
func (s *Server) Index(ctx context.Context, force bool) (IndexSummary, error) {
	if err := s.beginIndex(); err != nil {
		return IndexSummary{}, err
	}
	start := time.Now()
	summary, err := s.index(ctx, force)
	duration := time.Since(start)
	summary.Seconds = duration.Seconds()
	s.finishIndex(err, duration)
	if err == nil {
		log.Printf("[server] Indexed %d files (%d unchanged), %d types, %d relationships in %.2fs",
			summary.Files, summary.Unchanged, summary.Types, summary.Relationships, summary.Seconds)
	}
	return summary, err
}

func (s *Server) index(ctx context.Context, force bool) (IndexSummary, error) {
	var summary IndexSummary

	results, err := s.scanner.Scan(ctx, s.root)
	if err != nil {
		return summary, fmt.Errorf("scan failed: %w", err)
	}

	valid := make([]string, 0, len(results))
	for _, res := range results {
		rel := s.relPath(res.FilePath)
		valid = append(valid, rel)
		summary.Files++

		if !force {
			hash, err := s.store.FileHash(ctx, rel)
			if err != nil {
				return summary, err
			}
			if hash == res.Hash {
				summary.Unchanged++
				continue
			}
		}

		d, err := diagram.Build(rel, res.Unit, s.options)
		if err != nil {
			return summary, fmt.Errorf("extract %s: %w", rel, err)
		}
		nodes := d.Nodes(rel)
		rels := d.Relationships.Items()
		if err := s.store.ReplaceFile(ctx, rel, res.Hash, nodes, rels); err != nil {
			return summary, fmt.Errorf("failed to store %s: %w", rel, err)
		}
		summary.Types += len(nodes)
		summary.Relationships += len(rels)
	}

	pruned, err := s.store.PruneStaleFiles(ctx, valid)
	if err != nil {
		log.Printf("[server] Warning: failed to prune stale files: %v", err)
	}
	summary.Pruned = pruned
	return summary, nil
}

// relPath returns path relative to the workspace root with forward slashes.
func (s *Server) relPath(path string) string {
	rel, err := filepath.Rel(s.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// absPath resolves a path given by a client against the workspace root.
func (s *Server) absPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.root, filepath.FromSlash(path))
}

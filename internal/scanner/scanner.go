package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"
)

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	".git": true,
	".vs":  true,
	"bin":  true,
	"obj":  true,
}

// Scanner finds C# files below a directory and parses them.
type Scanner struct {
	parser      *Parser
	exclude     []string
	concurrency int
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithExclude adds glob patterns, matched against slash-separated paths
// relative to the scan root and against base names, whose files are skipped.
func WithExclude(patterns ...string) ScannerOption {
	return func(s *Scanner) {
		s.exclude = append(s.exclude, patterns...)
	}
}

// WithConcurrency bounds the number of files parsed at once.
func WithConcurrency(n int) ScannerOption {
	return func(s *Scanner) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewScanner creates a Scanner that parses with p.
func NewScanner(p *Parser, opts ...ScannerOption) *Scanner {
	s := &Scanner{parser: p, concurrency: runtime.NumCPU()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Parser returns the parser used for each file.
func (s *Scanner) Parser() *Parser {
	return s.parser
}

// Files returns the C# files below root in lexical order, honouring
// .gitignore and the exclude patterns.
func (s *Scanner) Files(root string) ([]string, error) {
	gi := loadGitIgnore(root)

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path != root && skipDir(gi, rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".cs") {
			return nil
		}
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		if s.excluded(rel) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return files, nil
}

// Accepts reports whether path, a file below root, would be part of a scan
// of root.
func (s *Scanner) Accepts(root, path string) bool {
	if !strings.EqualFold(filepath.Ext(path), ".cs") {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)

	dirs := strings.Split(rel, "/")
	for _, dir := range dirs[:len(dirs)-1] {
		if skipDirs[dir] {
			return false
		}
	}
	if gi := loadGitIgnore(root); gi != nil && gi.MatchesPath(rel) {
		return false
	}
	return !s.excluded(rel)
}

// SkipsDir reports whether a scan of root leaves out dir and everything
// below it.
func (s *Scanner) SkipsDir(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return true
	}
	if rel == "." {
		return false
	}
	return skipDir(loadGitIgnore(root), filepath.ToSlash(rel))
}

// skipDir applies the built-in directory list and .gitignore to a
// slash-separated path relative to the scan root.
func skipDir(gi *ignore.GitIgnore, rel string) bool {
	if skipDirs[filepath.Base(rel)] {
		return true
	}
	return gi != nil && gi.MatchesPath(rel+"/")
}

func loadGitIgnore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		log.Printf("[scanner] Warning: failed to read .gitignore: %v", err)
		return nil
	}
	return gi
}

func (s *Scanner) excluded(rel string) bool {
	base := filepath.Base(rel)
	for _, pattern := range s.exclude {
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
		if strings.HasSuffix(pattern, "/") && strings.HasPrefix(rel, pattern) {
			return true
		}
	}
	return false
}

// Scan parses every C# file below root. Each file gets its own tree; files
// that cannot be read or parsed are logged and left out. Results are sorted
// by path.
func (s *Scanner) Scan(ctx context.Context, root string) ([]*Result, error) {
	files, err := s.Files(root)
	if err != nil {
		return nil, err
	}

	results := make([]*Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, path := range files {
		g.Go(func() error {
			res, err := s.ParseFile(gctx, path)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				log.Printf("[scanner] Skipping %s: %v", path, err)
				return nil
			}
			if res.HasErrors {
				log.Printf("[scanner] %s has syntax errors, using partial tree", path)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan of %s interrupted: %w", root, err)
	}

	results = slices.DeleteFunc(results, func(r *Result) bool { return r == nil })
	slices.SortFunc(results, func(a, b *Result) int { return strings.Compare(a.FilePath, b.FilePath) })
	return results, nil
}

// ParseFile reads and parses a single file.
func (s *Scanner) ParseFile(ctx context.Context, path string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > s.parser.maxFileSize {
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, info.Size(), s.parser.maxFileSize)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.parser.Parse(ctx, path, content)
}

package scanner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"unicode/utf8"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"

	"classmap/internal/syntax"
	"classmap/util"
)

const (
	// DefaultMaxFileSize is the largest source file Parse accepts.
	DefaultMaxFileSize = 10 * 1024 * 1024
	// WarnFileSize triggers a log line for unusually large files.
	WarnFileSize = 1024 * 1024
)

var (
	// ErrFileTooLarge is returned for content above the configured size limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrInvalidContent is returned for content that is not valid UTF-8.
	ErrInvalidContent = errors.New("invalid content")
)

// Result is the declaration tree of one C# file.
type Result struct {
	FilePath string
	Hash     string
	Unit     *syntax.Node
	// HasErrors is set when tree-sitter recovered from syntax errors. Unit
	// then holds whatever could be recognized.
	HasErrors bool
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithMaxFileSize sets the maximum file size in bytes. Non-positive values
// are ignored.
func WithMaxFileSize(bytes int64) ParserOption {
	return func(p *Parser) {
		if bytes > 0 {
			p.maxFileSize = bytes
		}
	}
}

// Parser turns C# source into a syntax tree. It is safe for concurrent use:
// every Parse call creates its own tree-sitter parser.
type Parser struct {
	maxFileSize int64
	language    *tree_sitter.Language
}

// NewParser creates a Parser for C#.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		maxFileSize: DefaultMaxFileSize,
		language:    tree_sitter.NewLanguage(tree_sitter_csharp.Language()),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse builds the declaration tree for content. filePath is only recorded
// in the result and in log lines.
func (p *Parser) Parse(ctx context.Context, filePath string, content []byte) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}
	if int64(len(content)) > p.maxFileSize {
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize)
	}
	if len(content) > WarnFileSize {
		log.Printf("[scanner] Parsing large file %s (%d bytes)", filePath, len(content))
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(p.language); err != nil {
		return nil, fmt.Errorf("failed to set C# language: %w", err)
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter returned no tree for %s", filePath)
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled after tree-sitter: %w", err)
	}

	root := tree.RootNode()
	conv := &converter{src: content}
	return &Result{
		FilePath:  filePath,
		Hash:      util.HashContent(content),
		Unit:      conv.unit(root),
		HasErrors: root.HasError(),
	}, nil
}

package scanner

import (
	"context"
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Declaration is one type declaration found by the outline query.
type Declaration struct {
	Name      string
	Kind      string // tree-sitter node kind, e.g. class_declaration
	LineStart int
	LineEnd   int
}

// Outline lists the type declarations of content in source order without
// building a full syntax tree.
func (p *Parser) Outline(ctx context.Context, content []byte) ([]Declaration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(p.language); err != nil {
		return nil, fmt.Errorf("failed to set C# language: %w", err)
	}
	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter returned no tree")
	}
	defer tree.Close()

	query, qerr := tree_sitter.NewQuery(p.language, Queries["csharp"])
	if qerr != nil {
		return nil, fmt.Errorf("failed to compile outline query: %w", qerr)
	}
	defer query.Close()

	cursor := tree_sitter.NewQueryCursor()
	defer cursor.Close()

	names := query.CaptureNames()
	var decls []Declaration
	matches := cursor.Matches(query, tree.RootNode(), content)
	for m := matches.Next(); m != nil; m = matches.Next() {
		var d Declaration
		for _, capture := range m.Captures {
			node := capture.Node
			switch names[capture.Index] {
			case "name":
				d.Name = node.Utf8Text(content)
			case "def":
				d.Kind = node.Kind()
				d.LineStart = int(node.StartPosition().Row) + 1
				d.LineEnd = int(node.EndPosition().Row) + 1
			}
		}
		if d.Name != "" {
			decls = append(decls, d)
		}
	}
	return decls, nil
}

// Package typename resolves declarations to canonical display names.
package typename

import (
	"strconv"
	"strings"

	"classmap/internal/syntax"
)

const (
	// NamespaceDelimiter joins a namespace to what it contains.
	NamespaceDelimiter = "."
	// NestedDelimiter joins an outer type to a type declared inside it.
	NestedDelimiter = "+"
	// ArityMarker precedes the type-parameter count of a generic declaration.
	ArityMarker = '`'
)

// TypeName is a resolved, display-ready type identifier.
type TypeName struct {
	// Identifier is the namespace and nesting qualified name, e.g. App.Outer+Inner`1.
	Identifier string
	// TypeArguments holds use-site generic arguments, e.g. <Bar>. Empty when none.
	TypeArguments string
}

// Resolve returns the canonical name of a declaration or type reference.
//
// Declarations are qualified by every enclosing namespace and type
// declaration; other ancestors are skipped. Type references resolve lexically
// to their own identifier, plus TypeArguments for generic names. Shapes other
// than declarations and simple or generic names are not qualified; their raw
// text is returned and callers are expected to filter them out beforehand.
func Resolve(n *syntax.Node) TypeName {
	if n == nil {
		return TypeName{}
	}

	switch n.Kind {
	case syntax.KindIdentifierName:
		return TypeName{Identifier: n.Name}
	case syntax.KindGenericName:
		return TypeName{Identifier: n.Name, TypeArguments: typeArguments(n)}
	}

	if !n.IsTypeReference() {
		return TypeName{Identifier: fullName(n)}
	}
	return TypeName{Identifier: n.Name}
}

// fullName walks the ancestor chain of a declaration.
func fullName(n *syntax.Node) string {
	var namespaces, types []*syntax.Node
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Kind {
		case syntax.KindNamespace:
			namespaces = append(namespaces, p)
		case syntax.KindTypeDecl:
			types = append(types, p)
		}
	}

	var b strings.Builder
	for i := len(namespaces) - 1; i >= 0; i-- {
		b.WriteString(namespaces[i].Name)
		b.WriteString(NamespaceDelimiter)
	}
	for i := len(types) - 1; i >= 0; i-- {
		appendName(&b, types[i])
		b.WriteString(NestedDelimiter)
	}
	appendName(&b, n)
	return b.String()
}

// appendName writes the simple name plus the arity suffix. Arity comes only
// from the declaration's own parameter list, never from enclosing types.
func appendName(b *strings.Builder, n *syntax.Node) {
	b.WriteString(n.Name)
	if n.Kind != syntax.KindTypeDecl || len(n.TypeParameters) == 0 {
		return
	}
	b.WriteRune(ArityMarker)
	b.WriteString(strconv.Itoa(len(n.TypeParameters)))
}

func typeArguments(n *syntax.Node) string {
	if len(n.TypeArguments) == 0 {
		return ""
	}
	args := make([]string, len(n.TypeArguments))
	for i, a := range n.TypeArguments {
		args[i] = a.TypeText()
	}
	return "<" + strings.Join(args, ",") + ">"
}

// Escape quotes identifiers containing NestedDelimiter, which the diagram
// notation would otherwise misread. It is not idempotent: escape once, when
// the name is placed into a relationship.
func Escape(identifier string) string {
	if !strings.Contains(identifier, NestedDelimiter) {
		return identifier
	}
	return `"` + identifier + `"`
}

package graph

import (
	"errors"
	"fmt"

	"classmap/internal/syntax"
	"classmap/internal/typename"
)

var (
	// ErrNilNode is returned when an extraction is invoked without a node.
	ErrNilNode = errors.New("nil syntax node")
	// ErrUnexpectedKind is returned when an extraction receives a node of the
	// wrong fundamental kind. It signals a broken traversal, not bad source.
	ErrUnexpectedKind = errors.New("unexpected syntax node kind")
)

// AddInheritance records one edge per simple-name entry of decl's base list,
// in base-list order. Qualified, generic and other base shapes are skipped.
func (c *Collection) AddInheritance(decl *syntax.Node) error {
	if decl == nil {
		return ErrNilNode
	}
	if decl.Kind != syntax.KindTypeDecl {
		return fmt.Errorf("%w: inheritance needs a type declaration, got %s", ErrUnexpectedKind, decl.Kind)
	}
	if decl.BaseList == nil {
		return nil
	}

	sub := typename.Escape(typename.Resolve(decl).Identifier)
	for _, base := range decl.BaseList {
		if base.Kind != syntax.KindIdentifierName {
			continue
		}
		baseName := typename.Resolve(base)
		c.add(Relationship{
			Source: typename.Escape(baseName.Identifier),
			Target: sub,
			Symbol: SymbolInheritance,
		})
	}
	return nil
}

// AddContainment records an outer/inner edge when node is a type declared
// directly inside another type. Deeper nesting is covered by calling it on
// every declaration of the tree.
func (c *Collection) AddContainment(node *syntax.Node) error {
	if node == nil {
		return ErrNilNode
	}
	outer := node.Parent()
	if !node.IsBaseTypeDeclaration() || !outer.IsBaseTypeDeclaration() {
		return nil
	}

	c.add(Relationship{
		Source: typename.Escape(typename.Resolve(outer).Identifier),
		Target: typename.Escape(typename.Resolve(node).Identifier),
		Symbol: SymbolContainment,
	})
	return nil
}

// AddAssociation records an edge from the declaring type to the type of a
// field variable or property. Members with an initializer own the referenced
// instance. Only simple-name member types are recognized.
func (c *Collection) AddAssociation(member *syntax.Node) error {
	if member == nil {
		return ErrNilNode
	}

	var decl, typ *syntax.Node
	switch member.Kind {
	case syntax.KindVariable:
		field := member.Parent()
		if field == nil || field.Kind != syntax.KindField {
			return fmt.Errorf("%w: variable %q is not inside a field declaration", ErrUnexpectedKind, member.Name)
		}
		decl, typ = field.Parent(), field.Type
	case syntax.KindProperty:
		decl, typ = member.Parent(), member.Type
	default:
		return fmt.Errorf("%w: association needs a field variable or property, got %s", ErrUnexpectedKind, member.Kind)
	}

	if typ == nil || typ.Kind != syntax.KindIdentifierName || !decl.IsBaseTypeDeclaration() {
		return nil
	}

	symbol := SymbolAssociation
	if member.HasInitializer() {
		symbol = SymbolOwningAssociation
	}

	target := typename.Resolve(typ)
	c.add(Relationship{
		Source: typename.Escape(typename.Resolve(decl).Identifier),
		Target: typename.Escape(target.Identifier),
		Symbol: symbol,
		Label:  member.Name + target.TypeArguments,
	})
	return nil
}

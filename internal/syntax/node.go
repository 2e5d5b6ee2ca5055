// Package syntax models a parsed C# file as a declaration tree.
//
// Every node carries a closed Kind tag. Consumers classify nodes by switching
// on the tag: namespaces, type declarations, members and type references are
// all *Node values distinguished only by Kind.
package syntax

import "strings"

// Kind tags a node in the declaration tree.
type Kind int

const (
	KindUnknown Kind = iota
	KindCompilationUnit
	KindNamespace
	KindTypeDecl // class, struct, interface, record
	KindEnumDecl
	KindField
	KindVariable // one declarator inside a field declaration
	KindProperty
	KindMethod
	KindConstructor
	KindEnumMember

	// Type references.
	KindIdentifierName // Foo
	KindGenericName    // Foo<Bar>
	KindQualifiedName  // A.B, global::A.B
	KindPredefinedType // int, string
	KindArrayType
	KindNullableType
	KindPointerType
	KindTupleType
	KindOtherType
)

// String returns a human-readable representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindCompilationUnit:
		return "compilation_unit"
	case KindNamespace:
		return "namespace"
	case KindTypeDecl:
		return "type"
	case KindEnumDecl:
		return "enum"
	case KindField:
		return "field"
	case KindVariable:
		return "variable"
	case KindProperty:
		return "property"
	case KindMethod:
		return "method"
	case KindConstructor:
		return "constructor"
	case KindEnumMember:
		return "enum_member"
	case KindIdentifierName:
		return "identifier_name"
	case KindGenericName:
		return "generic_name"
	case KindQualifiedName:
		return "qualified_name"
	case KindPredefinedType:
		return "predefined_type"
	case KindArrayType:
		return "array_type"
	case KindNullableType:
		return "nullable_type"
	case KindPointerType:
		return "pointer_type"
	case KindTupleType:
		return "tuple_type"
	case KindOtherType:
		return "other_type"
	default:
		return "unknown"
	}
}

// Parameter is one formal parameter of a method or constructor.
type Parameter struct {
	Name string
	Type *Node
}

// Node is one element of the declaration tree.
//
// Which fields are meaningful depends on Kind. Declarations use Name for their
// identifier token; simple and generic type references use Name for the
// identifier token; every other type reference keeps its source text in Name.
type Node struct {
	Kind Kind
	Name string

	// Keyword is class, struct, interface, record or enum for declarations.
	Keyword   string
	Modifiers []string

	// TypeParameters lists the declared type parameters of a type declaration.
	TypeParameters []string
	// BaseList is nil when the declaration has no base list.
	BaseList []*Node

	// Type is the declared type of a field, property or method return.
	Type *Node
	// TypeArguments holds use-site arguments of a generic name.
	TypeArguments []*Node

	// Initializer is the source text after '=' for variables, properties and
	// enum members. Empty when there is none.
	Initializer string
	Accessors   []string
	Parameters  []Parameter

	LineStart int
	LineEnd   int

	Children []*Node
	parent   *Node
}

// Parent returns the enclosing node, or nil for a root.
func (n *Node) Parent() *Node {
	if n == nil {
		return nil
	}
	return n.parent
}

// Add appends children and links them to n.
func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		if c == nil {
			continue
		}
		c.parent = n
		n.Children = append(n.Children, c)
	}
	return n
}

// WithBases sets the base list of a declaration.
func (n *Node) WithBases(bases ...*Node) *Node {
	n.BaseList = make([]*Node, 0, len(bases))
	for _, b := range bases {
		if b == nil {
			continue
		}
		b.parent = n
		n.BaseList = append(n.BaseList, b)
	}
	return n
}

// WithModifiers sets the declaration modifiers (public, static, ...).
func (n *Node) WithModifiers(mods ...string) *Node {
	n.Modifiers = append(n.Modifiers[:0:0], mods...)
	return n
}

// WithLines records the 1-based source line range.
func (n *Node) WithLines(start, end int) *Node {
	n.LineStart = start
	n.LineEnd = end
	return n
}

// IsTypeDeclaration reports whether n declares a class, struct, interface or
// record, i.e. a type that may own type parameters.
func (n *Node) IsTypeDeclaration() bool {
	return n != nil && n.Kind == KindTypeDecl
}

// IsBaseTypeDeclaration reports whether n declares any type, enums included.
func (n *Node) IsBaseTypeDeclaration() bool {
	return n != nil && (n.Kind == KindTypeDecl || n.Kind == KindEnumDecl)
}

// IsTypeReference reports whether n is a type used at a reference site.
func (n *Node) IsTypeReference() bool {
	if n == nil {
		return false
	}
	switch n.Kind {
	case KindIdentifierName, KindGenericName, KindQualifiedName, KindPredefinedType,
		KindArrayType, KindNullableType, KindPointerType, KindTupleType, KindOtherType:
		return true
	default:
		return false
	}
}

// HasInitializer reports whether the member was declared with '= expr'.
func (n *Node) HasInitializer() bool {
	return n != nil && n.Initializer != ""
}

// HasModifier reports whether mod appears among the node's modifiers.
func (n *Node) HasModifier(mod string) bool {
	for _, m := range n.Modifiers {
		if m == mod {
			return true
		}
	}
	return false
}

// TypeText renders a type reference back to C#-like text.
func (n *Node) TypeText() string {
	if n == nil {
		return ""
	}
	if n.Kind != KindGenericName {
		return n.Name
	}
	args := make([]string, len(n.TypeArguments))
	for i, a := range n.TypeArguments {
		args[i] = a.TypeText()
	}
	return n.Name + "<" + strings.Join(args, ",") + ">"
}

// Walk visits n and its children in pre-order. Returning false from fn skips
// the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

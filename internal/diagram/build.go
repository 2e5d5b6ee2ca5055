package diagram

import (
	"fmt"
	"strings"

	"classmap/internal/graph"
	"classmap/internal/syntax"
	"classmap/internal/typename"
)

type builder struct {
	opts Options
	d    *Diagram
}

// Build traverses unit top to bottom and returns its type blocks and
// relationships in declaration order.
func Build(title string, unit *syntax.Node, opts Options) (*Diagram, error) {
	b := &builder{
		opts: opts,
		d:    &Diagram{Title: title, Relationships: graph.NewCollection()},
	}
	if unit == nil {
		return b.d, nil
	}
	if err := b.scope(unit); err != nil {
		return nil, err
	}
	return b.d, nil
}

// scope visits the declarations directly inside a compilation unit or
// namespace.
func (b *builder) scope(n *syntax.Node) error {
	for _, child := range n.Children {
		switch child.Kind {
		case syntax.KindNamespace:
			if err := b.scope(child); err != nil {
				return err
			}
		case syntax.KindTypeDecl, syntax.KindEnumDecl:
			if err := b.declaration(child); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *builder) declaration(decl *syntax.Node) error {
	rels := b.d.Relationships
	if err := rels.AddContainment(decl); err != nil {
		return fmt.Errorf("containment of %s: %w", decl.Name, err)
	}
	if decl.Kind == syntax.KindTypeDecl {
		if err := rels.AddInheritance(decl); err != nil {
			return fmt.Errorf("inheritance of %s: %w", decl.Name, err)
		}
	}

	block := TypeBlock{
		Name:           typename.Escape(typename.Resolve(decl).Identifier),
		Keyword:        decl.Keyword,
		TypeParameters: decl.TypeParameters,
		Abstract:       decl.HasModifier("abstract"),
		Static:         decl.HasModifier("static"),
		LineStart:      decl.LineStart,
		LineEnd:        decl.LineEnd,
	}

	var nested []*syntax.Node
	for _, m := range decl.Children {
		switch m.Kind {
		case syntax.KindTypeDecl, syntax.KindEnumDecl:
			nested = append(nested, m)
		case syntax.KindField:
			for _, v := range m.Children {
				if v.Kind != syntax.KindVariable {
					continue
				}
				associated, err := b.associate(v)
				if err != nil {
					return err
				}
				if !associated && b.visible(decl, m) {
					block.Members = append(block.Members, fieldLine(decl, m, v))
				}
			}
		case syntax.KindProperty:
			associated, err := b.associate(m)
			if err != nil {
				return err
			}
			if !associated && b.visible(decl, m) {
				block.Members = append(block.Members, propertyLine(decl, m))
			}
		case syntax.KindMethod, syntax.KindConstructor:
			if b.visible(decl, m) {
				block.Members = append(block.Members, methodLine(decl, m))
			}
		case syntax.KindEnumMember:
			line := m.Name
			if m.HasInitializer() {
				line += " = " + m.Initializer
			}
			block.Members = append(block.Members, line)
		}
	}
	b.d.Types = append(b.d.Types, block)

	for _, n := range nested {
		if err := b.declaration(n); err != nil {
			return err
		}
	}
	return nil
}

// associate records an association for member when enabled and reports
// whether an edge was added.
func (b *builder) associate(member *syntax.Node) (bool, error) {
	if !b.opts.CreateAssociation {
		return false, nil
	}
	before := b.d.Relationships.Len()
	if err := b.d.Relationships.AddAssociation(member); err != nil {
		return false, fmt.Errorf("association of %s: %w", member.Name, err)
	}
	return b.d.Relationships.Len() > before, nil
}

func (b *builder) visible(decl, member *syntax.Node) bool {
	return accessibilityOf(decl, member)&b.opts.IgnoreAccessibilities == 0
}

// accessibilityOf derives a member's access level from its modifiers.
// Members without one are public in interfaces and private elsewhere.
func accessibilityOf(decl, member *syntax.Node) Accessibility {
	protected := member.HasModifier("protected")
	switch {
	case protected && member.HasModifier("internal"):
		return AccessProtectedInternal
	case protected && member.HasModifier("private"):
		return AccessPrivateProtected
	case member.HasModifier("public"):
		return AccessPublic
	case protected:
		return AccessProtected
	case member.HasModifier("internal"):
		return AccessInternal
	case member.HasModifier("private"):
		return AccessPrivate
	}
	if decl.Keyword == "interface" || decl.Kind == syntax.KindEnumDecl {
		return AccessPublic
	}
	return AccessPrivate
}

func visibilitySymbol(a Accessibility) string {
	switch a {
	case AccessPublic:
		return "+"
	case AccessProtected, AccessProtectedInternal:
		return "#"
	case AccessInternal:
		return "~"
	default:
		return "-"
	}
}

func memberPrefix(decl, m *syntax.Node) string {
	var b strings.Builder
	b.WriteString(visibilitySymbol(accessibilityOf(decl, m)))
	b.WriteByte(' ')
	if m.HasModifier("static") || m.HasModifier("const") {
		b.WriteString("{static} ")
	}
	if m.HasModifier("abstract") {
		b.WriteString("{abstract} ")
	}
	return b.String()
}

func fieldLine(decl, field, v *syntax.Node) string {
	line := memberPrefix(decl, field) + v.Name + " : " + field.Type.TypeText()
	if v.HasInitializer() {
		line += " = " + v.Initializer
	}
	return line
}

func propertyLine(decl, p *syntax.Node) string {
	line := memberPrefix(decl, p) + p.Name + " : " + p.Type.TypeText()
	for _, a := range p.Accessors {
		line += " <<" + a + ">>"
	}
	if p.HasInitializer() {
		line += " = " + p.Initializer
	}
	return line
}

func methodLine(decl, m *syntax.Node) string {
	params := make([]string, len(m.Parameters))
	for i, p := range m.Parameters {
		params[i] = p.Name + ":" + p.Type.TypeText()
	}
	line := memberPrefix(decl, m) + m.Name
	if len(m.TypeParameters) > 0 {
		line += "<" + strings.Join(m.TypeParameters, ",") + ">"
	}
	line += "(" + strings.Join(params, ", ") + ")"
	if m.Kind == syntax.KindMethod && m.Type != nil {
		line += " : " + m.Type.TypeText()
	}
	return line
}

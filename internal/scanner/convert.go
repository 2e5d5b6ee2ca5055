package scanner

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"classmap/internal/syntax"
)

// converter maps the tree-sitter C# concrete syntax tree onto syntax nodes.
// Unknown node kinds are skipped.
type converter struct {
	src []byte
}

func (c *converter) text(n *tree_sitter.Node) string {
	return n.Utf8Text(c.src)
}

func (c *converter) unit(root *tree_sitter.Node) *syntax.Node {
	unit := syntax.NewCompilationUnit()
	setLines(unit, root)
	c.members(unit, root)
	return unit
}

// members converts the declarations found directly under container into
// children of parent.
func (c *converter) members(parent *syntax.Node, container *tree_sitter.Node) {
	scope := parent
	for i := uint(0); i < container.NamedChildCount(); i++ {
		child := container.NamedChild(i)
		if child == nil {
			continue
		}

		switch child.Kind() {
		case "namespace_declaration":
			ns := c.namespace(child)
			scope.Add(ns)
			if body := c.childOfKind(child, "declaration_list"); body != nil {
				c.members(ns, body)
			}
		case "file_scoped_namespace_declaration":
			ns := c.namespace(child)
			parent.Add(ns)
			c.members(ns, child)
			// Declarations following a file-scoped namespace belong to it.
			scope = ns
		case "class_declaration", "struct_declaration", "interface_declaration",
			"record_declaration", "record_struct_declaration":
			scope.Add(c.typeDecl(child))
		case "enum_declaration":
			scope.Add(c.enumDecl(child))
		case "field_declaration":
			scope.Add(c.field(child))
		case "property_declaration":
			scope.Add(c.property(child))
		case "method_declaration":
			scope.Add(c.method(child))
		case "constructor_declaration":
			ctor := syntax.NewConstructor(c.name(child), c.parameters(child)...)
			ctor.WithModifiers(c.modifiers(child)...)
			setLines(ctor, child)
			scope.Add(ctor)
		}
	}
}

func (c *converter) namespace(n *tree_sitter.Node) *syntax.Node {
	name := ""
	if nm := n.ChildByFieldName("name"); nm != nil {
		name = c.text(nm)
	} else if nm := c.firstOfKinds(n, "qualified_name", "identifier"); nm != nil {
		name = c.text(nm)
	}
	ns := syntax.NewNamespace(name)
	setLines(ns, n)
	return ns
}

func (c *converter) typeDecl(n *tree_sitter.Node) *syntax.Node {
	keyword := strings.TrimSuffix(n.Kind(), "_declaration")
	if keyword == "record_struct" {
		keyword = "record"
	}

	decl := syntax.NewType(keyword, c.name(n), c.typeParameters(n)...)
	decl.WithModifiers(c.modifiers(n)...)
	setLines(decl, n)

	if bl := c.childOfKind(n, "base_list"); bl != nil {
		decl.WithBases(c.bases(bl)...)
	}
	if body := c.childOfKind(n, "declaration_list"); body != nil {
		c.members(decl, body)
	}
	return decl
}

func (c *converter) enumDecl(n *tree_sitter.Node) *syntax.Node {
	decl := syntax.NewEnum(c.name(n))
	decl.WithModifiers(c.modifiers(n)...)
	setLines(decl, n)

	body := c.childOfKind(n, "enum_member_declaration_list")
	if body == nil {
		return decl
	}
	for i := uint(0); i < body.NamedChildCount(); i++ {
		m := body.NamedChild(i)
		if m == nil || m.Kind() != "enum_member_declaration" {
			continue
		}
		member := syntax.NewEnumMember(c.name(m), c.initializer(m))
		setLines(member, m)
		decl.Add(member)
	}
	return decl
}

func (c *converter) field(n *tree_sitter.Node) *syntax.Node {
	vd := c.childOfKind(n, "variable_declaration")
	if vd == nil {
		return nil
	}

	typ := vd.ChildByFieldName("type")
	if typ == nil {
		typ = c.firstType(vd)
	}

	var vars []*syntax.Node
	for i := uint(0); i < vd.NamedChildCount(); i++ {
		d := vd.NamedChild(i)
		if d == nil || d.Kind() != "variable_declarator" {
			continue
		}
		v := syntax.NewVariable(c.name(d), c.initializer(d))
		setLines(v, d)
		vars = append(vars, v)
	}

	f := syntax.NewField(c.typeRef(typ), vars...)
	f.WithModifiers(c.modifiers(n)...)
	setLines(f, n)
	return f
}

func (c *converter) property(n *tree_sitter.Node) *syntax.Node {
	typ := n.ChildByFieldName("type")
	if typ == nil {
		typ = c.firstType(n)
	}

	var accessors []string
	if list := c.childOfKind(n, "accessor_list"); list != nil {
		for i := uint(0); i < list.NamedChildCount(); i++ {
			if a := list.NamedChild(i); a != nil && a.Kind() == "accessor_declaration" {
				if kw := c.accessorKeyword(a); kw != "" {
					accessors = append(accessors, kw)
				}
			}
		}
	}

	p := syntax.NewProperty(c.typeRef(typ), c.name(n), c.initializer(n), accessors...)
	p.WithModifiers(c.modifiers(n)...)
	setLines(p, n)
	return p
}

func (c *converter) method(n *tree_sitter.Node) *syntax.Node {
	ret := n.ChildByFieldName("returns")
	if ret == nil {
		ret = n.ChildByFieldName("type")
	}
	if ret == nil {
		ret = c.firstType(n)
	}

	m := syntax.NewMethod(c.typeRef(ret), c.name(n), c.parameters(n)...)
	m.WithModifiers(c.modifiers(n)...)
	m.TypeParameters = c.typeParameters(n)
	setLines(m, n)
	return m
}

func (c *converter) parameters(n *tree_sitter.Node) []syntax.Parameter {
	list := n.ChildByFieldName("parameters")
	if list == nil {
		list = c.childOfKind(n, "parameter_list")
	}
	if list == nil {
		return nil
	}

	var params []syntax.Parameter
	for i := uint(0); i < list.NamedChildCount(); i++ {
		p := list.NamedChild(i)
		if p == nil || p.Kind() != "parameter" {
			continue
		}
		typ := p.ChildByFieldName("type")
		if typ == nil {
			typ = c.firstType(p)
		}
		params = append(params, syntax.Parameter{Name: c.name(p), Type: c.typeRef(typ)})
	}
	return params
}

func (c *converter) bases(bl *tree_sitter.Node) []*syntax.Node {
	var bases []*syntax.Node
	for i := uint(0); i < bl.NamedChildCount(); i++ {
		b := bl.NamedChild(i)
		if b == nil {
			continue
		}
		switch b.Kind() {
		case "primary_constructor_base_type":
			// record R(int X) : Base(X)
			if inner := b.NamedChild(0); inner != nil {
				bases = append(bases, c.typeRef(inner))
			}
		case "argument_list":
		default:
			bases = append(bases, c.typeRef(b))
		}
	}
	return bases
}

// typeRef converts a type node. Shapes other than simple and generic names
// keep their source text.
func (c *converter) typeRef(n *tree_sitter.Node) *syntax.Node {
	if n == nil {
		return nil
	}

	text := c.text(n)
	switch n.Kind() {
	case "identifier":
		return syntax.Ident(text)
	case "generic_name":
		name := text
		if id := c.childOfKind(n, "identifier"); id != nil {
			name = c.text(id)
		}
		var args []*syntax.Node
		if list := c.childOfKind(n, "type_argument_list"); list != nil {
			for i := uint(0); i < list.NamedChildCount(); i++ {
				if a := list.NamedChild(i); a != nil {
					args = append(args, c.typeRef(a))
				}
			}
		}
		return syntax.Generic(name, args...)
	case "qualified_name", "alias_qualified_name":
		return syntax.Qualified(text)
	case "predefined_type":
		return syntax.Predefined(text)
	case "array_type":
		return syntax.Array(text)
	case "nullable_type":
		return syntax.Nullable(text)
	case "pointer_type":
		return syntax.Pointer(text)
	case "tuple_type":
		return syntax.Tuple(text)
	default:
		return syntax.OtherType(text)
	}
}

// initializer returns the expression text after '=' in a declarator,
// property or enum member, or "" when there is none.
func (c *converter) initializer(n *tree_sitter.Node) string {
	count := n.ChildCount()
	for i := uint(0); i < count; i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "equals_value_clause":
			if expr := child.NamedChild(0); expr != nil {
				return c.text(expr)
			}
			return strings.TrimSpace(strings.TrimPrefix(c.text(child), "="))
		case "=":
			for j := i + 1; j < count; j++ {
				if next := n.Child(j); next != nil && next.IsNamed() {
					return c.text(next)
				}
			}
		}
	}
	return ""
}

func (c *converter) accessorKeyword(a *tree_sitter.Node) string {
	for i := uint(0); i < a.ChildCount(); i++ {
		if child := a.Child(i); child != nil {
			switch child.Kind() {
			case "get", "set", "init":
				return child.Kind()
			}
		}
	}
	for _, tok := range strings.FieldsFunc(c.text(a), func(r rune) bool {
		return r == ' ' || r == ';' || r == '{' || r == '\t' || r == '\n'
	}) {
		switch tok {
		case "get", "set", "init":
			return tok
		}
	}
	return ""
}

func (c *converter) name(n *tree_sitter.Node) string {
	if nm := n.ChildByFieldName("name"); nm != nil {
		return c.text(nm)
	}
	if id := c.childOfKind(n, "identifier"); id != nil {
		return c.text(id)
	}
	return ""
}

func (c *converter) typeParameters(n *tree_sitter.Node) []string {
	list := n.ChildByFieldName("type_parameters")
	if list == nil {
		list = c.childOfKind(n, "type_parameter_list")
	}
	if list == nil {
		return nil
	}

	var params []string
	for i := uint(0); i < list.NamedChildCount(); i++ {
		tp := list.NamedChild(i)
		if tp == nil || tp.Kind() != "type_parameter" {
			continue
		}
		name := c.name(tp)
		if name == "" {
			name = c.text(tp)
		}
		params = append(params, name)
	}
	return params
}

func (c *converter) modifiers(n *tree_sitter.Node) []string {
	var mods []string
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if m := n.NamedChild(i); m != nil && m.Kind() == "modifier" {
			mods = append(mods, c.text(m))
		}
	}
	return mods
}

// firstType returns the first named child that is a type node.
func (c *converter) firstType(n *tree_sitter.Node) *tree_sitter.Node {
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child != nil && typeKinds[child.Kind()] {
			return child
		}
	}
	return nil
}

func (c *converter) childOfKind(n *tree_sitter.Node, kind string) *tree_sitter.Node {
	return c.firstOfKinds(n, kind)
}

func (c *converter) firstOfKinds(n *tree_sitter.Node, kinds ...string) *tree_sitter.Node {
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		for _, k := range kinds {
			if child.Kind() == k {
				return child
			}
		}
	}
	return nil
}

var typeKinds = map[string]bool{
	"identifier":            true,
	"generic_name":          true,
	"qualified_name":        true,
	"alias_qualified_name":  true,
	"predefined_type":       true,
	"array_type":            true,
	"nullable_type":         true,
	"pointer_type":          true,
	"tuple_type":            true,
	"implicit_type":         true,
	"ref_type":              true,
	"function_pointer_type": true,
}

func setLines(dst *syntax.Node, n *tree_sitter.Node) {
	dst.WithLines(int(n.StartPosition().Row)+1, int(n.EndPosition().Row)+1)
}

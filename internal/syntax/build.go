package syntax

// NewCompilationUnit creates the root of a file's tree.
func NewCompilationUnit() *Node {
	return &Node{Kind: KindCompilationUnit}
}

// NewNamespace creates a namespace; name may be dotted.
func NewNamespace(name string) *Node {
	return &Node{Kind: KindNamespace, Name: name}
}

// NewType creates a class, struct, interface or record declaration.
func NewType(keyword, name string, typeParams ...string) *Node {
	return &Node{
		Kind:           KindTypeDecl,
		Keyword:        keyword,
		Name:           name,
		TypeParameters: typeParams,
	}
}

// NewEnum creates an enum declaration.
func NewEnum(name string) *Node {
	return &Node{Kind: KindEnumDecl, Keyword: "enum", Name: name}
}

// NewEnumMember creates an enum member with an optional value.
func NewEnumMember(name, value string) *Node {
	return &Node{Kind: KindEnumMember, Name: name, Initializer: value}
}

// NewField creates a field declaration whose variables share typ.
func NewField(typ *Node, vars ...*Node) *Node {
	f := &Node{Kind: KindField}
	f.setType(typ)
	return f.Add(vars...)
}

// NewVariable creates one field declarator.
func NewVariable(name, initializer string) *Node {
	return &Node{Kind: KindVariable, Name: name, Initializer: initializer}
}

// NewProperty creates a property declaration.
func NewProperty(typ *Node, name, initializer string, accessors ...string) *Node {
	p := &Node{Kind: KindProperty, Name: name, Initializer: initializer, Accessors: accessors}
	p.setType(typ)
	return p
}

// NewMethod creates a method declaration.
func NewMethod(returnType *Node, name string, params ...Parameter) *Node {
	m := &Node{Kind: KindMethod, Name: name, Parameters: params}
	m.setType(returnType)
	return m
}

// NewConstructor creates a constructor declaration.
func NewConstructor(name string, params ...Parameter) *Node {
	return &Node{Kind: KindConstructor, Name: name, Parameters: params}
}

func (n *Node) setType(typ *Node) {
	if typ != nil {
		typ.parent = n
	}
	n.Type = typ
}

// Ident creates a simple name reference.
func Ident(name string) *Node {
	return &Node{Kind: KindIdentifierName, Name: name}
}

// Generic creates a generic name reference such as Foo<Bar>.
func Generic(name string, args ...*Node) *Node {
	g := &Node{Kind: KindGenericName, Name: name}
	for _, a := range args {
		a.parent = g
	}
	g.TypeArguments = args
	return g
}

// Qualified creates a dotted name reference from its source text.
func Qualified(text string) *Node { return &Node{Kind: KindQualifiedName, Name: text} }

// Predefined creates a keyword type reference such as int.
func Predefined(name string) *Node { return &Node{Kind: KindPredefinedType, Name: name} }

// Array creates an array type reference from its source text.
func Array(text string) *Node { return &Node{Kind: KindArrayType, Name: text} }

// Nullable creates a nullable type reference from its source text.
func Nullable(text string) *Node { return &Node{Kind: KindNullableType, Name: text} }

// Pointer creates a pointer type reference from its source text.
func Pointer(text string) *Node { return &Node{Kind: KindPointerType, Name: text} }

// Tuple creates a tuple type reference from its source text.
func Tuple(text string) *Node { return &Node{Kind: KindTupleType, Name: text} }

// OtherType creates a reference of a shape the model does not distinguish.
func OtherType(text string) *Node { return &Node{Kind: KindOtherType, Name: text} }

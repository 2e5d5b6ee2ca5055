package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddLinksParent(t *testing.T) {
	ns := NewNamespace("App")
	outer := NewType("class", "Outer")
	inner := NewType("class", "Inner", "T")
	ns.Add(outer.Add(inner))

	require.Same(t, outer, inner.Parent())
	require.Same(t, ns, outer.Parent())
	assert.Nil(t, ns.Parent())
	assert.Nil(t, (*Node)(nil).Parent())
}

func TestFieldVariablesShareType(t *testing.T) {
	typ := Ident("Engine")
	f := NewField(typ, NewVariable("a", ""), NewVariable("b", "new Engine()"))

	require.Len(t, f.Children, 2)
	assert.Same(t, f, f.Children[0].Parent())
	assert.Same(t, f, typ.Parent())
	assert.False(t, f.Children[0].HasInitializer())
	assert.True(t, f.Children[1].HasInitializer())
}

func TestKindPredicates(t *testing.T) {
	tests := []struct {
		node     *Node
		typeDecl bool
		baseDecl bool
		typeRef  bool
	}{
		{NewType("class", "A"), true, true, false},
		{NewType("record", "R"), true, true, false},
		{NewEnum("E"), false, true, false},
		{NewNamespace("N"), false, false, false},
		{Ident("X"), false, false, true},
		{Generic("List", Ident("X")), false, false, true},
		{Qualified("System.String"), false, false, true},
		{Predefined("int"), false, false, true},
		{Array("int[]"), false, false, true},
		{NewVariable("v", ""), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.node.Kind.String()+"/"+tt.node.Name, func(t *testing.T) {
			assert.Equal(t, tt.typeDecl, tt.node.IsTypeDeclaration())
			assert.Equal(t, tt.baseDecl, tt.node.IsBaseTypeDeclaration())
			assert.Equal(t, tt.typeRef, tt.node.IsTypeReference())
		})
	}
}

func TestTypeText(t *testing.T) {
	g := Generic("Dictionary", Predefined("string"), Generic("List", Ident("Order")))
	assert.Equal(t, "Dictionary<string,List<Order>>", g.TypeText())
	assert.Equal(t, "int?", Nullable("int?").TypeText())
	assert.Equal(t, "", (*Node)(nil).TypeText())
}

func TestWalkPreOrder(t *testing.T) {
	unit := NewCompilationUnit().Add(
		NewNamespace("A").Add(
			NewType("class", "B").Add(NewType("class", "C")),
			NewEnum("D"),
		),
	)

	var names []string
	unit.Walk(func(n *Node) bool {
		if n.IsBaseTypeDeclaration() {
			names = append(names, n.Name)
		}
		return true
	})
	assert.Equal(t, []string{"B", "C", "D"}, names)

	var visited []string
	unit.Walk(func(n *Node) bool {
		if n.Kind == KindTypeDecl {
			visited = append(visited, n.Name)
			return false
		}
		return true
	})
	assert.Equal(t, []string{"B"}, visited)
}

func TestHasModifier(t *testing.T) {
	n := NewType("class", "A").WithModifiers("public", "abstract")
	assert.True(t, n.HasModifier("abstract"))
	assert.False(t, n.HasModifier("static"))
}

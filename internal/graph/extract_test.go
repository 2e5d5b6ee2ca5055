package graph

import (
	"encoding/json"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classmap/internal/syntax"
)

func TestAddInheritanceSingleBase(t *testing.T) {
	dog := syntax.NewType("class", "Dog").WithBases(syntax.Ident("Animal"))
	syntax.NewCompilationUnit().Add(dog)

	c := NewCollection()
	require.NoError(t, c.AddInheritance(dog))

	assert.Equal(t, []Relationship{
		{Source: "Animal", Target: "Dog", Symbol: SymbolInheritance},
	}, c.Items())
}

func TestAddInheritanceNoBaseList(t *testing.T) {
	c := NewCollection()
	require.NoError(t, c.AddInheritance(syntax.NewType("class", "Plain")))
	assert.Zero(t, c.Len())
}

func TestAddInheritancePreservesOrderAndSkipsNonSimple(t *testing.T) {
	decl := syntax.NewType("class", "Repo", "T").WithBases(
		syntax.Ident("Base"),
		syntax.Qualified("System.IDisposable"),
		syntax.Generic("IEnumerable", syntax.Ident("T")),
		syntax.Ident("IRepo"),
		syntax.Ident("IAudit"),
	)
	syntax.NewNamespace("Data").Add(decl)

	c := NewCollection()
	require.NoError(t, c.AddInheritance(decl))

	got := c.Items()
	require.Len(t, got, 3, spew.Sdump(got))
	for i, base := range []string{"Base", "IRepo", "IAudit"} {
		assert.Equal(t, base, got[i].Source)
		assert.Equal(t, "Data.Repo`1", got[i].Target)
		assert.Equal(t, SymbolInheritance, got[i].Symbol)
		assert.Empty(t, got[i].Label)
	}
}

func TestAddInheritanceEscapesNestedNames(t *testing.T) {
	inner := syntax.NewType("class", "Inner").WithBases(syntax.Ident("Base"))
	syntax.NewType("class", "Outer").Add(inner)

	c := NewCollection()
	require.NoError(t, c.AddInheritance(inner))
	assert.Equal(t, `"Outer+Inner"`, c.Items()[0].Target)
	assert.Equal(t, "Base", c.Items()[0].Source)
}

func TestAddInheritanceMisuse(t *testing.T) {
	c := NewCollection()
	assert.ErrorIs(t, c.AddInheritance(nil), ErrNilNode)
	assert.ErrorIs(t, c.AddInheritance(syntax.NewEnum("E")), ErrUnexpectedKind)
	assert.ErrorIs(t, c.AddInheritance(syntax.NewNamespace("N")), ErrUnexpectedKind)
	assert.Zero(t, c.Len())
}

func TestAddContainment(t *testing.T) {
	inner := syntax.NewType("class", "Inner", "T")
	deeper := syntax.NewEnum("Mode")
	outer := syntax.NewType("class", "Outer")
	syntax.NewNamespace("App").Add(outer.Add(inner.Add(deeper)))

	c := NewCollection()
	// Invoked once per declaration, as a traversal would.
	for _, n := range []*syntax.Node{outer, inner, deeper} {
		require.NoError(t, c.AddContainment(n))
	}

	assert.Equal(t, []Relationship{
		{Source: "App.Outer", Target: "\"App.Outer+Inner`1\"", Symbol: SymbolContainment},
		{Source: "\"App.Outer+Inner`1\"", Target: "\"App.Outer+Inner`1+Mode\"", Symbol: SymbolContainment},
	}, c.Items())
}

func TestAddContainmentIgnoresOtherShapes(t *testing.T) {
	field := syntax.NewField(syntax.Ident("X"), syntax.NewVariable("x", ""))
	syntax.NewType("class", "A").Add(field)
	top := syntax.NewType("class", "Top")
	syntax.NewNamespace("N").Add(top)

	c := NewCollection()
	require.NoError(t, c.AddContainment(field))
	require.NoError(t, c.AddContainment(top))
	require.NoError(t, c.AddContainment(syntax.NewType("class", "Orphan")))
	assert.Zero(t, c.Len())
	assert.ErrorIs(t, c.AddContainment(nil), ErrNilNode)
}

func TestAddAssociationField(t *testing.T) {
	engine := syntax.NewVariable("engine", "new Engine()")
	spare := syntax.NewVariable("spare", "")
	car := syntax.NewType("class", "Car").Add(syntax.NewField(syntax.Ident("Engine"), engine, spare))
	syntax.NewCompilationUnit().Add(car)

	c := NewCollection()
	require.NoError(t, c.AddAssociation(engine))
	require.NoError(t, c.AddAssociation(spare))

	assert.Equal(t, []Relationship{
		{Source: "Car", Target: "Engine", Symbol: SymbolOwningAssociation, Label: "engine"},
		{Source: "Car", Target: "Engine", Symbol: SymbolAssociation, Label: "spare"},
	}, c.Items())
}

func TestAddAssociationProperty(t *testing.T) {
	owner := syntax.NewProperty(syntax.Ident("Person"), "Owner", "", "get", "set")
	wheels := syntax.NewProperty(syntax.Ident("WheelSet"), "Wheels", "new()", "get")
	inner := syntax.NewType("class", "Garage")
	inner.Add(owner, wheels)
	syntax.NewNamespace("Shop").Add(syntax.NewType("class", "Site").Add(inner))

	c := NewCollection()
	require.NoError(t, c.AddAssociation(owner))
	require.NoError(t, c.AddAssociation(wheels))

	assert.Equal(t, []Relationship{
		{Source: `"Shop.Site+Garage"`, Target: "Person", Symbol: SymbolAssociation, Label: "Owner"},
		{Source: `"Shop.Site+Garage"`, Target: "WheelSet", Symbol: SymbolOwningAssociation, Label: "Wheels"},
	}, c.Items())
}

func TestAddAssociationSkipsUnsupportedTypes(t *testing.T) {
	types := []*syntax.Node{
		syntax.Qualified("System.Text.StringBuilder"),
		syntax.Predefined("int"),
		syntax.Array("Engine[]"),
		syntax.Nullable("Engine?"),
		syntax.Tuple("(int, string)"),
		syntax.Generic("List", syntax.Ident("Engine")),
	}

	for _, typ := range types {
		t.Run(typ.Kind.String(), func(t *testing.T) {
			v := syntax.NewVariable("v", "")
			syntax.NewType("class", "Car").Add(syntax.NewField(typ, v))
			p := syntax.NewProperty(typ, "P", "")
			syntax.NewType("class", "Truck").Add(p)

			c := NewCollection()
			require.NoError(t, c.AddAssociation(v))
			require.NoError(t, c.AddAssociation(p))
			assert.Zero(t, c.Len(), spew.Sdump(c.Items()))
		})
	}
}

func TestAddAssociationOutsideType(t *testing.T) {
	// A property whose parent is not a type declaration yields nothing.
	p := syntax.NewProperty(syntax.Ident("Engine"), "E", "")
	syntax.NewNamespace("N").Add(p)

	c := NewCollection()
	require.NoError(t, c.AddAssociation(p))
	require.NoError(t, c.AddAssociation(syntax.NewProperty(syntax.Ident("Engine"), "Loose", "")))
	assert.Zero(t, c.Len())
}

func TestAddAssociationMisuse(t *testing.T) {
	c := NewCollection()
	assert.ErrorIs(t, c.AddAssociation(nil), ErrNilNode)
	assert.ErrorIs(t, c.AddAssociation(syntax.NewType("class", "A")), ErrUnexpectedKind)
	assert.ErrorIs(t, c.AddAssociation(syntax.NewVariable("orphan", "")), ErrUnexpectedKind)
	assert.ErrorIs(t, c.AddAssociation(syntax.NewField(syntax.Ident("X"))), ErrUnexpectedKind)
}

func TestCollectionKeepsDuplicates(t *testing.T) {
	// Two partial declarations of the same type listing the same base.
	a := syntax.NewType("class", "Part").WithBases(syntax.Ident("Base"))
	b := syntax.NewType("class", "Part").WithBases(syntax.Ident("Base"))
	syntax.NewCompilationUnit().Add(a, b)

	c := NewCollection()
	require.NoError(t, c.AddInheritance(a))
	require.NoError(t, c.AddInheritance(b))

	var seen []Relationship
	for r := range c.All() {
		seen = append(seen, r)
	}
	require.Len(t, seen, 2)
	assert.Equal(t, seen[0], seen[1])
}

func TestSymbolText(t *testing.T) {
	r := Relationship{Source: "A", Target: "B", Symbol: SymbolOwningAssociation, Label: "b"}
	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"source":"A","target":"B","symbol":"owning_association","label":"b"}`, string(data))

	var back Relationship
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r, back)

	assert.Error(t, json.Unmarshal([]byte(`{"symbol":"bogus"}`), &back))
}

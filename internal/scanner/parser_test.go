package scanner

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classmap/internal/syntax"
	"classmap/internal/typename"
)

const zooSource = `namespace App
{
    public interface IPet { }

    public class Animal { }

    public class Dog : Animal, IPet
    {
        private Engine engine = new Engine();
        public Person Owner { get; set; }
        public int Age;

        public void Bark(int times) { }

        public class Inner<T> { }
    }

    public enum Color { Red, Green = 2 }
}
`

func findDecl(t *testing.T, root *syntax.Node, name string) *syntax.Node {
	t.Helper()
	var found *syntax.Node
	root.Walk(func(n *syntax.Node) bool {
		if found == nil && n.IsBaseTypeDeclaration() && n.Name == name {
			found = n
		}
		return found == nil
	})
	require.NotNil(t, found, "declaration %s not found", name)
	return found
}

func TestParseBuildsDeclarationTree(t *testing.T) {
	res, err := NewParser().Parse(context.Background(), "Zoo.cs", []byte(zooSource))
	require.NoError(t, err)
	assert.False(t, res.HasErrors)
	assert.Equal(t, "Zoo.cs", res.FilePath)
	assert.Len(t, res.Hash, 64)
	require.Equal(t, syntax.KindCompilationUnit, res.Unit.Kind)

	require.Len(t, res.Unit.Children, 1)
	ns := res.Unit.Children[0]
	assert.Equal(t, syntax.KindNamespace, ns.Kind)
	assert.Equal(t, "App", ns.Name)

	dog := findDecl(t, res.Unit, "Dog")
	assert.Equal(t, "class", dog.Keyword)
	assert.True(t, dog.HasModifier("public"))
	require.Len(t, dog.BaseList, 2)
	assert.Equal(t, syntax.KindIdentifierName, dog.BaseList[0].Kind)
	assert.Equal(t, "Animal", dog.BaseList[0].Name)
	assert.Equal(t, "IPet", dog.BaseList[1].Name)
	assert.Equal(t, "App.Dog", typename.Resolve(dog).Identifier)

	pet := findDecl(t, res.Unit, "IPet")
	assert.Equal(t, "interface", pet.Keyword)
	assert.Nil(t, pet.BaseList)

	inner := findDecl(t, res.Unit, "Inner")
	assert.Equal(t, []string{"T"}, inner.TypeParameters)
	assert.Equal(t, "App.Dog+Inner`1", typename.Resolve(inner).Identifier)

	color := findDecl(t, res.Unit, "Color")
	assert.Equal(t, syntax.KindEnumDecl, color.Kind)
	require.Len(t, color.Children, 2)
	assert.Equal(t, "Red", color.Children[0].Name)
	assert.Equal(t, "2", color.Children[1].Initializer)
}

func TestParseMembers(t *testing.T) {
	res, err := NewParser().Parse(context.Background(), "Zoo.cs", []byte(zooSource))
	require.NoError(t, err)
	dog := findDecl(t, res.Unit, "Dog")

	var fields, props, methods []*syntax.Node
	for _, m := range dog.Children {
		switch m.Kind {
		case syntax.KindField:
			fields = append(fields, m)
		case syntax.KindProperty:
			props = append(props, m)
		case syntax.KindMethod:
			methods = append(methods, m)
		}
	}

	require.Len(t, fields, 2)
	engine := fields[0]
	assert.Equal(t, syntax.KindIdentifierName, engine.Type.Kind)
	assert.Equal(t, "Engine", engine.Type.Name)
	require.Len(t, engine.Children, 1)
	assert.Equal(t, "engine", engine.Children[0].Name)
	assert.Equal(t, "new Engine()", engine.Children[0].Initializer)
	assert.True(t, engine.HasModifier("private"))
	assert.Equal(t, syntax.KindPredefinedType, fields[1].Type.Kind)

	require.Len(t, props, 1)
	owner := props[0]
	assert.Equal(t, "Owner", owner.Name)
	assert.Equal(t, "Person", owner.Type.Name)
	assert.Equal(t, []string{"get", "set"}, owner.Accessors)
	assert.False(t, owner.HasInitializer())

	require.Len(t, methods, 1)
	bark := methods[0]
	assert.Equal(t, "Bark", bark.Name)
	assert.Equal(t, "void", bark.Type.Name)
	require.Len(t, bark.Parameters, 1)
	assert.Equal(t, "times", bark.Parameters[0].Name)
	assert.Equal(t, "int", bark.Parameters[0].Type.Name)
}

func TestParseGenericAndQualifiedReferences(t *testing.T) {
	src := `class Repo<T> : System.IDisposable, IEnumerable<T>
{
    Dictionary<string, T> items;
}
`
	res, err := NewParser().Parse(context.Background(), "Repo.cs", []byte(src))
	require.NoError(t, err)

	repo := findDecl(t, res.Unit, "Repo")
	require.Len(t, repo.BaseList, 2)
	assert.Equal(t, syntax.KindQualifiedName, repo.BaseList[0].Kind)
	assert.Equal(t, syntax.KindGenericName, repo.BaseList[1].Kind)
	assert.Equal(t, "IEnumerable", repo.BaseList[1].Name)

	require.Len(t, repo.Children, 1)
	items := repo.Children[0].Type
	require.Equal(t, syntax.KindGenericName, items.Kind)
	assert.Equal(t, "Dictionary<string,T>", items.TypeText())
	assert.Equal(t, "<string,T>", typename.Resolve(items).TypeArguments)
}

func TestParseFileScopedNamespace(t *testing.T) {
	src := `namespace Company.App;

public class Service { }
public record Entry(string Key);
`
	res, err := NewParser().Parse(context.Background(), "Service.cs", []byte(src))
	require.NoError(t, err)

	service := findDecl(t, res.Unit, "Service")
	assert.Equal(t, "Company.App.Service", typename.Resolve(service).Identifier)

	entry := findDecl(t, res.Unit, "Entry")
	assert.Equal(t, "record", entry.Keyword)
	assert.Equal(t, "Company.App.Entry", typename.Resolve(entry).Identifier)
}

func TestParseToleratesSyntaxErrors(t *testing.T) {
	src := "class Broken : Base {\n  int x = ;\n"
	res, err := NewParser().Parse(context.Background(), "Broken.cs", []byte(src))
	require.NoError(t, err)
	assert.True(t, res.HasErrors)
}

func TestParseRejectsLargeFiles(t *testing.T) {
	p := NewParser(WithMaxFileSize(16))
	_, err := p.Parse(context.Background(), "Big.cs", []byte(strings.Repeat("x", 17)))
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestParseRejectsInvalidUTF8(t *testing.T) {
	_, err := NewParser().Parse(context.Background(), "Bad.cs", []byte{0xff, 0xfe, 0xfd})
	assert.ErrorIs(t, err, ErrInvalidContent)
}

func TestParseHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewParser().Parse(ctx, "A.cs", []byte("class A {}"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOutline(t *testing.T) {
	decls, err := NewParser().Outline(context.Background(), []byte(zooSource))
	require.NoError(t, err)

	names := make([]string, 0, len(decls))
	for _, d := range decls {
		names = append(names, d.Name)
	}
	assert.ElementsMatch(t, []string{"IPet", "Animal", "Dog", "Inner", "Color"}, names)

	for _, d := range decls {
		if d.Name == "Dog" {
			assert.Equal(t, "class_declaration", d.Kind)
			assert.Equal(t, 7, d.LineStart)
			assert.Equal(t, 16, d.LineEnd)
		}
	}
}

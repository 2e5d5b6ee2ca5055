package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func relPaths(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestFilesHonoursIgnoreRules(t *testing.T) {
	root := writeTree(t, map[string]string{
		".gitignore":          "generated/\n*.g.cs\n",
		"Models/Dog.cs":       "class Dog {}",
		"Models/Dog.g.cs":     "class DogGen {}",
		"generated/Api.cs":    "class Api {}",
		"obj/Debug/Tmp.cs":    "class Tmp {}",
		"Tests/DogTests.cs":   "class DogTests {}",
		"README.md":           "# readme",
		"Services/Service.CS": "class Service {}",
	})

	s := NewScanner(NewParser(), WithExclude("Tests/*"))
	files, err := s.Files(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"Models/Dog.cs", "Services/Service.CS"}, relPaths(t, root, files))
}

func TestAccepts(t *testing.T) {
	root := writeTree(t, map[string]string{".gitignore": "*.g.cs\n"})
	s := NewScanner(NewParser(), WithExclude("Tests/*"))

	assert.True(t, s.Accepts(root, filepath.Join(root, "Models", "Dog.cs")))
	assert.False(t, s.Accepts(root, filepath.Join(root, "Models", "Dog.g.cs")))
	assert.False(t, s.Accepts(root, filepath.Join(root, "obj", "Debug", "Tmp.cs")))
	assert.False(t, s.Accepts(root, filepath.Join(root, "Tests", "DogTests.cs")))
	assert.False(t, s.Accepts(root, filepath.Join(root, "README.md")))
	assert.False(t, s.Accepts(root, filepath.Join(filepath.Dir(root), "Outside.cs")))
}

func TestSkipsDir(t *testing.T) {
	root := writeTree(t, map[string]string{".gitignore": "generated/\n"})
	s := NewScanner(NewParser())

	assert.False(t, s.SkipsDir(root, root))
	assert.False(t, s.SkipsDir(root, filepath.Join(root, "Models")))
	assert.True(t, s.SkipsDir(root, filepath.Join(root, "generated")))
	assert.True(t, s.SkipsDir(root, filepath.Join(root, "src", "obj")))
	assert.True(t, s.SkipsDir(root, filepath.Join(root, ".git")))
	assert.True(t, s.SkipsDir(root, filepath.Dir(root)))
}

func TestExcludeMatchesBaseNames(t *testing.T) {
	s := NewScanner(NewParser(), WithExclude("*Designer.cs", "Migrations/"))
	assert.True(t, s.excluded("Forms/Main.Designer.cs"))
	assert.True(t, s.excluded("Migrations/Init.cs"))
	assert.False(t, s.excluded("Forms/Main.cs"))
}

func TestScanParsesAllFilesSorted(t *testing.T) {
	root := writeTree(t, map[string]string{
		"b/Car.cs":    "namespace Garage { class Car { private Engine engine = new Engine(); } }",
		"a/Animal.cs": "class Animal {}\nclass Dog : Animal {}",
		"c/Bad.cs":    string([]byte{0xff, 0xfe}),
	})

	results, err := NewScanner(NewParser(), WithConcurrency(2)).Scan(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, results, 2)

	paths := make([]string, len(results))
	for i, r := range results {
		paths[i] = r.FilePath
	}
	assert.Equal(t, []string{"a/Animal.cs", "b/Car.cs"}, relPaths(t, root, paths))
	assert.Len(t, results[0].Unit.Children, 2)
}

func TestScanCanceled(t *testing.T) {
	root := writeTree(t, map[string]string{"A.cs": "class A {}"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewScanner(NewParser()).Scan(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseFileTooLarge(t *testing.T) {
	root := writeTree(t, map[string]string{"Big.cs": "class Big { int a; int b; }"})
	s := NewScanner(NewParser(WithMaxFileSize(4)))
	_, err := s.ParseFile(context.Background(), filepath.Join(root, "Big.cs"))
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classmap/internal/config"
)

const dogSource = `namespace Zoo
{
    public class Dog : Animal
    {
        private string secret;
        public Person Owner { get; set; }
        public void Bark() { }
    }
}
`

func writeSources(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestSingleOutputPath(t *testing.T) {
	in := filepath.Join("src", "Dog.cs")
	assert.Equal(t, filepath.Join("src", "Dog.puml"), singleOutputPath(in, ""))
	assert.Equal(t, filepath.Join("out", "dog.PUML"), singleOutputPath(in, filepath.Join("out", "dog.PUML")))
	assert.Equal(t, filepath.Join("out", "Dog.puml"), singleOutputPath(in, "out"))
}

func TestGenerateDirMirrorsLayout(t *testing.T) {
	src := writeSources(t, map[string]string{
		"Animal.cs":      "namespace Zoo { public abstract class Animal { } }",
		"Models/Dog.cs":  dogSource,
		"obj/Ignored.cs": "class Ignored { }",
	})
	out := t.TempDir()

	gen, err := newGenerator(config.Default(), generateFlags{allInOne: true})
	require.NoError(t, err)
	written, err := gen.generateDir(context.Background(), src, out)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(out, "Animal.puml"),
		filepath.Join(out, "Models", "Dog.puml"),
	}, written)

	dog := readFile(t, filepath.Join(out, "Models", "Dog.puml"))
	assert.Contains(t, dog, "@startuml Dog\n")
	assert.Contains(t, dog, "Animal <|-- Zoo.Dog\n")
	assert.Contains(t, dog, "    - secret : string\n")
	assert.Contains(t, dog, "    + Bark() : void\n")

	assert.Equal(t, "@startuml\n!include ./Animal.puml\n!include ./Models/Dog.puml\n@enduml\n",
		readFile(t, filepath.Join(out, includeFile)))
}

func TestGenerateCommand(t *testing.T) {
	src := writeSources(t, map[string]string{"Dog.cs": dogSource})
	out := t.TempDir()

	err := run(context.Background(), []string{"generate", "--public", "--create-association", src, out})
	require.NoError(t, err)

	dog := readFile(t, filepath.Join(out, "Dog.puml"))
	assert.NotContains(t, dog, "secret")
	assert.NotContains(t, dog, "Owner :")
	assert.Contains(t, dog, `Zoo.Dog --> "Owner" Person`)
	assert.NoFileExists(t, filepath.Join(out, includeFile))
}

func TestGenerateSingleFileUsesConfig(t *testing.T) {
	src := writeSources(t, map[string]string{
		"Dog.cs":         dogSource,
		".classmap.yaml": "diagram:\n  ignore: [private]\n",
	})

	err := run(context.Background(), []string{"generate", filepath.Join(src, "Dog.cs")})
	require.NoError(t, err)

	dog := readFile(t, filepath.Join(src, "Dog.puml"))
	assert.NotContains(t, dog, "secret")
	assert.Contains(t, dog, "Owner : Person")
}

func TestGenerateRejectsUnknownAccessibility(t *testing.T) {
	_, err := newGenerator(config.Default(), generateFlags{ignore: []string{"friend"}})
	assert.Error(t, err)
}

func TestGenerateMissingInput(t *testing.T) {
	err := run(context.Background(), []string{"generate", filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, err)
}

func TestWatcherFlush(t *testing.T) {
	src := writeSources(t, map[string]string{"Dog.cs": dogSource})
	out := t.TempDir()
	gen, err := newGenerator(config.Default(), generateFlags{allInOne: true})
	require.NoError(t, err)

	w := &dirWatcher{gen: gen, input: src, output: out}
	dog := filepath.Join(src, "Dog.cs")

	w.flush(context.Background(), []string{dog})
	assert.FileExists(t, filepath.Join(out, "Dog.puml"))
	assert.Contains(t, readFile(t, filepath.Join(out, includeFile)), "!include ./Dog.puml")

	require.NoError(t, os.Remove(dog))
	w.flush(context.Background(), []string{dog})
	assert.NoFileExists(t, filepath.Join(out, "Dog.puml"))
	assert.NotContains(t, readFile(t, filepath.Join(out, includeFile)), "Dog.puml")
}

func TestWatcherSkipsIgnoredDirectories(t *testing.T) {
	src := writeSources(t, map[string]string{
		".gitignore":       "generated/\n",
		"Models/Dog.cs":    dogSource,
		"generated/Api.cs": "class Api { }",
		"obj/Tmp.cs":       "class Tmp { }",
	})
	gen, err := newGenerator(config.Default(), generateFlags{})
	require.NoError(t, err)

	w, err := newDirWatcher(gen, src, t.TempDir(), time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	watched := w.fsw.WatchList()
	assert.ElementsMatch(t, []string{src, filepath.Join(src, "Models")}, watched)
}

func TestWatcherRegeneratesChangedFiles(t *testing.T) {
	src := writeSources(t, map[string]string{"Dog.cs": "class Dog { }"})
	out := t.TempDir()
	gen, err := newGenerator(config.Default(), generateFlags{})
	require.NoError(t, err)

	w, err := newDirWatcher(gen, src, out, 20*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.MkdirAll(filepath.Join(src, "Models"), 0o755))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(src, "Models", "Cat.cs"), []byte("class Cat : Animal { }"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "Dog.cs"), []byte("class Dog : Animal { }"), 0o644))

	catPuml := filepath.Join(out, "Models", "Cat.puml")
	dogPuml := filepath.Join(out, "Dog.puml")
	require.Eventually(t, func() bool {
		cat, err := os.ReadFile(catPuml)
		if err != nil || !strings.Contains(string(cat), "Animal <|-- Cat") {
			return false
		}
		dog, err := os.ReadFile(dogPuml)
		return err == nil && strings.Contains(string(dog), "Animal <|-- Dog")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"classmap/internal/config"
	"classmap/internal/diagram"
	"classmap/internal/plantuml"
	"classmap/internal/scanner"
)

// includeFile is the index written in all-in-one mode.
const includeFile = "include.puml"

type generateFlags struct {
	public            bool
	ignore            []string
	exclude           []string
	createAssociation bool
	allInOne          bool
	image             string
}

func newGenerateCmd() *cobra.Command {
	var flags generateFlags

	cmd := &cobra.Command{
		Use:   "generate <input> [output]",
		Short: "Write a .puml class diagram for every C# file",
		Long: "Generate reads a .cs file or every .cs file below a directory and writes one\n" +
			".puml file per source file, mirroring the directory layout under output.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := ""
			if len(args) == 2 {
				output = args[1]
			}
			return runGenerate(cmd, args[0], output, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.public, "public", false, "Show public members only")
	cmd.Flags().StringSliceVar(&flags.ignore, "ignore", nil, "Accessibilities to hide (public, protected, internal, protected-internal, private-protected, private)")
	cmd.Flags().StringSliceVar(&flags.exclude, "exclude", nil, "Glob patterns of files to skip")
	cmd.Flags().BoolVar(&flags.createAssociation, "create-association", false, "Draw fields and properties as association edges")
	cmd.Flags().BoolVar(&flags.allInOne, "all-in-one", false, "Also write include.puml referencing every generated file")
	cmd.Flags().StringVar(&flags.image, "image", "", "Render images with PlantUML (png or svg)")

	return cmd
}

func runGenerate(cmd *cobra.Command, input, output string, flags generateFlags) error {
	ctx := cmd.Context()

	info, err := os.Stat(input)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	configDir := input
	if !info.IsDir() {
		configDir = filepath.Dir(input)
	}
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	gen, err := newGenerator(cfg, flags)
	if err != nil {
		return err
	}

	var written []string
	if info.IsDir() {
		if output == "" {
			output = input
		}
		written, err = gen.generateDir(ctx, input, output)
	} else {
		var out string
		out, err = gen.generateFile(ctx, input, singleOutputPath(input, output))
		written = []string{out}
	}
	if err != nil {
		return err
	}
	fmt.Printf("Generated %d diagram(s)\n", len(written))

	if flags.image != "" {
		return renderImages(ctx, cfg.PlantUML, flags.image, written)
	}
	return nil
}

// generator turns parsed C# files into .puml files.
type generator struct {
	scanner  *scanner.Scanner
	options  diagram.Options
	allInOne bool
}

func newGenerator(cfg *config.Config, flags generateFlags) (*generator, error) {
	ignored, err := diagram.ParseAccessibilities(append(cfg.Diagram.Ignore, flags.ignore...))
	if err != nil {
		return nil, err
	}
	if flags.public {
		ignored |= diagram.AccessNonPublic
	}

	parser := scanner.NewParser(scanner.WithMaxFileSize(cfg.Scan.MaxFileSize))
	exclude := append(append([]string{}, cfg.Scan.Exclude...), flags.exclude...)
	return &generator{
		scanner: scanner.NewScanner(parser,
			scanner.WithExclude(exclude...),
			scanner.WithConcurrency(cfg.Scan.Concurrency),
		),
		options: diagram.Options{
			IgnoreAccessibilities: ignored,
			CreateAssociation:     flags.createAssociation || cfg.Diagram.CreateAssociation,
		},
		allInOne: flags.allInOne || cfg.Diagram.AllInOne,
	}, nil
}

// singleOutputPath picks the .puml path for a single input file. output may
// name a .puml file or a directory.
func singleOutputPath(input, output string) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ".puml"
	switch {
	case output == "":
		return filepath.Join(filepath.Dir(input), name)
	case strings.EqualFold(filepath.Ext(output), ".puml"):
		return output
	default:
		return filepath.Join(output, name)
	}
}

func (g *generator) generateFile(ctx context.Context, input, outPath string) (string, error) {
	res, err := g.scanner.ParseFile(ctx, input)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", input, err)
	}
	if res.HasErrors {
		log.Printf("[generate] %s has syntax errors, diagram may be incomplete", input)
	}
	if err := g.write(res, outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

// generateDir writes one diagram per C# file below input into the same
// relative location below output.
func (g *generator) generateDir(ctx context.Context, input, output string) ([]string, error) {
	results, err := g.scanner.Scan(ctx, input)
	if err != nil {
		return nil, err
	}

	var written []string
	var files []string
	for _, res := range results {
		outPath, err := pumlPath(input, output, res.FilePath)
		if err != nil {
			return written, err
		}
		if err := g.write(res, outPath); err != nil {
			return written, err
		}
		written = append(written, outPath)
		files = append(files, res.FilePath)
	}

	if g.allInOne {
		if err := g.writeInclude(input, output, files); err != nil {
			return written, err
		}
	}
	return written, nil
}

// pumlPath maps a source file below input to its diagram below output.
func pumlPath(input, output, file string) (string, error) {
	rel, err := filepath.Rel(input, file)
	if err != nil {
		return "", err
	}
	return filepath.Join(output, strings.TrimSuffix(rel, filepath.Ext(rel))+".puml"), nil
}

// writeInclude writes include.puml into output, referencing the diagram of
// every file in sources.
func (g *generator) writeInclude(input, output string, sources []string) error {
	includes := make([]string, 0, len(sources))
	for _, src := range sources {
		outPath, err := pumlPath(input, output, src)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(output, outPath)
		if err != nil {
			return err
		}
		includes = append(includes, rel)
	}

	var buf bytes.Buffer
	if err := diagram.RenderInclude(&buf, includes); err != nil {
		return err
	}
	return writeFile(filepath.Join(output, includeFile), buf.Bytes())
}

func (g *generator) write(res *scanner.Result, outPath string) error {
	title := strings.TrimSuffix(filepath.Base(outPath), filepath.Ext(outPath))
	d, err := diagram.Build(title, res.Unit, g.options)
	if err != nil {
		return fmt.Errorf("extracting %s: %w", res.FilePath, err)
	}

	var buf bytes.Buffer
	if err := diagram.Render(&buf, d); err != nil {
		return err
	}
	return writeFile(outPath, buf.Bytes())
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func renderImages(ctx context.Context, cfg config.PlantUMLConfig, format string, files []string) error {
	if len(files) == 0 {
		return nil
	}
	fetcher, err := plantuml.New()
	if err != nil {
		return err
	}
	jar, err := fetcher.EnsureJar(ctx, cfg)
	if err != nil {
		return err
	}
	renderer, err := plantuml.NewRenderer(cfg.Java, jar)
	if err != nil {
		return fmt.Errorf("locating java: %w", err)
	}
	if err := renderer.Render(ctx, format, files...); err != nil {
		return err
	}
	fmt.Printf("Rendered %d image(s) as %s\n", len(files), format)
	return nil
}

package plantuml

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrUnsupportedFormat is returned for image formats other than png and svg.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Renderer runs the PlantUML jar.
type Renderer struct {
	java string
	jar  string
}

// NewRenderer locates java and returns a Renderer for jar. java may be a bare
// command name, looked up in PATH, or a path.
func NewRenderer(java, jar string) (*Renderer, error) {
	if java == "" {
		java = "java"
	}
	resolved, err := findExecutable(java)
	if err != nil {
		return nil, err
	}
	return &Renderer{java: resolved, jar: jar}, nil
}

// Args returns the command-line arguments used to render files.
func (r *Renderer) Args(format string, files ...string) ([]string, error) {
	switch format {
	case "png", "svg":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	args := []string{"-jar", r.jar, "-t" + format, "-charset", "UTF-8"}
	return append(args, files...), nil
}

// Render writes an image next to each .puml file.
func (r *Renderer) Render(ctx context.Context, format string, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	args, err := r.Args(format, files...)
	if err != nil {
		return err
	}

	log.Printf("[plantuml] Rendering %d file(s) as %s", len(files), format)
	cmd := exec.CommandContext(ctx, r.java, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("plantuml failed: %w: %s", err, msg)
		}
		return fmt.Errorf("plantuml failed: %w", err)
	}
	return nil
}

// findExecutable resolves a command name against PATH, or checks that an
// explicit path exists.
func findExecutable(name string) (string, error) {
	if strings.ContainsRune(name, filepath.Separator) || strings.ContainsRune(name, '/') {
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			return name, nil
		}
		return "", fmt.Errorf("%s not found", name)
	}

	if runtime.GOOS == "windows" && !strings.HasSuffix(name, ".exe") {
		name += ".exe"
	}
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		fullPath := filepath.Join(dir, name)
		if info, err := os.Stat(fullPath); err == nil && !info.IsDir() {
			if runtime.GOOS != "windows" && info.Mode()&0o111 == 0 {
				continue
			}
			return fullPath, nil
		}
	}
	return "", fmt.Errorf("%s not found in PATH", name)
}

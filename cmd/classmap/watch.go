package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"classmap/internal/config"
)

const defaultDebounce = 200 * time.Millisecond

type watchFlags struct {
	generateFlags
	debounce time.Duration
}

func newWatchCmd() *cobra.Command {
	var flags watchFlags

	cmd := &cobra.Command{
		Use:   "watch <dir> [output]",
		Short: "Regenerate diagrams whenever C# files change",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := args[0]
			if len(args) == 2 {
				output = args[1]
			}
			return runWatch(cmd, args[0], output, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.public, "public", false, "Show public members only")
	cmd.Flags().StringSliceVar(&flags.ignore, "ignore", nil, "Accessibilities to hide")
	cmd.Flags().StringSliceVar(&flags.exclude, "exclude", nil, "Glob patterns of files to skip")
	cmd.Flags().BoolVar(&flags.createAssociation, "create-association", false, "Draw fields and properties as association edges")
	cmd.Flags().BoolVar(&flags.allInOne, "all-in-one", false, "Keep include.puml up to date")
	cmd.Flags().DurationVar(&flags.debounce, "debounce", defaultDebounce, "Quiet period before regenerating")

	return cmd
}

func runWatch(cmd *cobra.Command, input, output string, flags watchFlags) error {
	ctx := cmd.Context()

	info, err := os.Stat(input)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", input)
	}

	cfg, err := config.Load(input)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	gen, err := newGenerator(cfg, flags.generateFlags)
	if err != nil {
		return err
	}

	written, err := gen.generateDir(ctx, input, output)
	if err != nil {
		return err
	}
	log.Printf("[watch] Generated %d diagram(s), watching %s", len(written), input)

	w, err := newDirWatcher(gen, input, output, flags.debounce)
	if err != nil {
		return err
	}
	defer w.Close()
	return w.Run(ctx)
}

// dirWatcher regenerates the diagram of each C# file that changes below
// input. Events are batched until the tree has been quiet for debounce.
type dirWatcher struct {
	gen      *generator
	input    string
	output   string
	debounce time.Duration
	fsw      *fsnotify.Watcher
}

func newDirWatcher(gen *generator, input, output string, debounce time.Duration) (*dirWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	w := &dirWatcher{gen: gen, input: input, output: output, debounce: debounce, fsw: fsw}
	if err := w.addTree(input); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *dirWatcher) Close() error {
	return w.fsw.Close()
}

// addTree watches dir and every directory below it that a scan of the input
// would walk. fsnotify is not recursive, so new directories are added as
// they appear.
func (w *dirWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.gen.scanner.SkipsDir(w.input, path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func (w *dirWatcher) Run(ctx context.Context) error {
	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						log.Printf("[watch] %v", err)
					}
					continue
				}
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			if !w.gen.scanner.Accepts(w.input, event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("[watch] Watcher error: %v", err)

		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			w.flush(ctx, paths)
		}
	}
}

// flush regenerates or removes the diagrams of paths.
func (w *dirWatcher) flush(ctx context.Context, paths []string) {
	slices.Sort(paths)
	changedSet := false

	for _, path := range paths {
		outPath, err := pumlPath(w.input, w.output, path)
		if err != nil {
			log.Printf("[watch] %v", err)
			continue
		}

		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			if err := os.Remove(outPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
				log.Printf("[watch] Failed to remove %s: %v", outPath, err)
				continue
			}
			log.Printf("[watch] Removed %s", outPath)
			changedSet = true
			continue
		}

		if _, err := os.Stat(outPath); errors.Is(err, fs.ErrNotExist) {
			changedSet = true
		}
		if _, err := w.gen.generateFile(ctx, path, outPath); err != nil {
			log.Printf("[watch] %v", err)
			continue
		}
		log.Printf("[watch] Regenerated %s", outPath)
	}

	if changedSet && w.gen.allInOne {
		files, err := w.gen.scanner.Files(w.input)
		if err != nil {
			log.Printf("[watch] %v", err)
			return
		}
		if err := w.gen.writeInclude(w.input, w.output, files); err != nil {
			log.Printf("[watch] %v", err)
		}
	}
}

package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"classmap/internal/config"
	"classmap/internal/scanner"
	"classmap/internal/server"
	"classmap/internal/store"
	"classmap/util"
)

type serveFlags struct {
	root string
}

func newServeCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the relationship index over MCP on stdio",
		Long: "Serve indexes the workspace in the background and answers MCP tool calls\n" +
			"about types and their relationships. Logs go to stderr.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.root, "root", "", "Workspace root (default: nearest directory with .git or .classmap.yaml)")

	return cmd
}

func runServe(cmd *cobra.Command, flags serveFlags) error {
	ctx := cmd.Context()

	root := flags.root
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		if root, err = util.FindWorkspaceRoot(cwd); err != nil {
			return fmt.Errorf("finding workspace root: %w", err)
		}
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	indexPath := cfg.Index.Path
	if !filepath.IsAbs(indexPath) {
		indexPath = filepath.Join(root, indexPath)
	}
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	st, err := store.Open(ctx, indexPath)
	if err != nil {
		return err
	}
	defer st.Close()

	parser := scanner.NewParser(scanner.WithMaxFileSize(cfg.Scan.MaxFileSize))
	sc := scanner.NewScanner(parser,
		scanner.WithExclude(cfg.Scan.Exclude...),
		scanner.WithConcurrency(cfg.Scan.Concurrency),
	)

	log.SetOutput(os.Stderr)
	log.Printf("[serve] Serving %s (index %s)", root, indexPath)
	return server.New(root, st, sc, version).Run(ctx)
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"classmap/internal/diagram"
	"classmap/util"
)

// Arguments structs

type IndexArgs struct {
	Force bool `json:"force,omitempty" jsonschema:"Re-extract every file even if its content hash is unchanged"`
}

type IndexStatusArgs struct{}

type RenderFileArgs struct {
	FilePath          string `json:"file_path" jsonschema:"Path of the C# file, absolute or relative to the workspace root"`
	Public            bool   `json:"public,omitempty" jsonschema:"Show public members only"`
	CreateAssociation bool   `json:"create_association,omitempty" jsonschema:"Draw fields and properties of simple named types as association edges"`
}

type FindRelationshipsArgs struct {
	TypeName string "json:\"type_name\" jsonschema:\"Canonical type name such as App.Dog or App.Outer+Inner`1\""
}

type ListTypesArgs struct {
	FilePath string `json:"file_path,omitempty" jsonschema:"Restrict to one file; omit to list every indexed type"`
}

const indexWaitTimeout = 30 * time.Second

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "index",
		Description: "Scans the workspace and updates the relationship index",
	}, s.handleIndex)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "index_status",
		Description: "Returns the current indexing status of the workspace",
	}, s.handleIndexStatus)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "render_file",
		Description: "Returns the PlantUML class diagram of one C# file",
	}, s.handleRenderFile)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "find_relationships",
		Description: "Finds every inheritance, nesting and association edge touching a type",
	}, s.handleFindRelationships)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_types",
		Description: "Lists the types declared in a file, or in the whole workspace",
	}, s.handleListTypes)
}

func (s *Server) handleIndex(ctx context.Context, req *mcp.CallToolRequest, args IndexArgs) (*mcp.CallToolResult, any, error) {
	summary, err := s.Index(ctx, args.Force)
	if errors.Is(err, ErrIndexInProgress) {
		return errorResult("Indexing already in progress"), nil, nil
	}
	if err != nil {
		return errorResult(fmt.Sprintf("Index failed: %v", err)), nil, nil
	}
	return jsonResult(summary), nil, nil
}

func (s *Server) handleIndexStatus(ctx context.Context, req *mcp.CallToolRequest, args IndexStatusArgs) (*mcp.CallToolResult, any, error) {
	status, err, duration := s.GetIndexStatus()

	result := map[string]any{
		"status": string(status),
	}
	if duration > 0 {
		result["duration_seconds"] = duration.Seconds()
	}
	if err != nil {
		result["error"] = err.Error()
	}
	if status == IndexStatusReady {
		if stats, statErr := s.store.Stats(ctx); statErr == nil {
			result["stats"] = stats
		}
	}
	return jsonResult(result), nil, nil
}

func (s *Server) handleRenderFile(ctx context.Context, req *mcp.CallToolRequest, args RenderFileArgs) (*mcp.CallToolResult, any, error) {
	opts := diagram.Options{CreateAssociation: args.CreateAssociation}
	if args.Public {
		opts.IgnoreAccessibilities = diagram.AccessNonPublic
	}
	text, err := s.renderFile(ctx, args.FilePath, opts)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	return textResult(text), nil, nil
}

// renderFile parses the file from disk, so it works before indexing.
func (s *Server) renderFile(ctx context.Context, filePath string, opts diagram.Options) (string, error) {
	path := s.absPath(filePath)
	res, err := s.scanner.ParseFile(ctx, path)
	if err != nil {
		return "", fmt.Errorf("parse failed: %w", err)
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	d, err := diagram.Build(title, res.Unit, opts)
	if err != nil {
		return "", fmt.Errorf("extraction failed: %w", err)
	}
	var buf bytes.Buffer
	if err := diagram.Render(&buf, d); err != nil {
		return "", fmt.Errorf("render failed: %w", err)
	}
	return buf.String(), nil
}

func (s *Server) handleFindRelationships(ctx context.Context, req *mcp.CallToolRequest, args FindRelationshipsArgs) (*mcp.CallToolResult, any, error) {
	if res := s.waitForIndex(ctx); res != nil {
		return res, nil, nil
	}

	edges, err := s.store.FindRelationships(ctx, args.TypeName)
	if err != nil {
		return errorResult(fmt.Sprintf("Query failed: %v", err)), nil, nil
	}
	if len(edges) == 0 {
		return textResult("No relationships found."), nil, nil
	}

	type edgeInfo struct {
		Source string `json:"source"`
		Target string `json:"target"`
		Symbol string `json:"symbol"`
		Arrow  string `json:"arrow"`
		Label  string `json:"label,omitempty"`
		URI    string `json:"uri"`
	}
	out := make([]edgeInfo, 0, len(edges))
	for _, e := range edges {
		out = append(out, edgeInfo{
			Source: e.Source,
			Target: e.Target,
			Symbol: e.Symbol.String(),
			Arrow:  diagram.Arrow(e.Symbol),
			Label:  e.Label,
			URI:    util.PathToURI(s.absPath(e.FilePath)),
		})
	}
	return jsonResult(out), nil, nil
}

func (s *Server) handleListTypes(ctx context.Context, req *mcp.CallToolRequest, args ListTypesArgs) (*mcp.CallToolResult, any, error) {
	if res := s.waitForIndex(ctx); res != nil {
		return res, nil, nil
	}

	type typeInfo struct {
		Name  string `json:"name"`
		Kind  string `json:"kind"`
		Range string `json:"range"`
		URI   string `json:"uri"`
	}

	var rel string
	if args.FilePath != "" {
		rel = s.relPath(s.absPath(args.FilePath))
	}
	nodes, err := s.store.ListTypes(ctx, rel)
	if err != nil {
		return errorResult(fmt.Sprintf("Query failed: %v", err)), nil, nil
	}

	var out []typeInfo
	for _, n := range nodes {
		out = append(out, typeInfo{
			Name:  n.Name,
			Kind:  n.Kind,
			Range: fmt.Sprintf("%d-%d", n.LineStart, n.LineEnd),
			URI:   util.PathToURI(s.absPath(n.FilePath)),
		})
	}

	// Files outside the index are outlined straight from disk.
	if len(out) == 0 && args.FilePath != "" {
		path := s.absPath(args.FilePath)
		content, err := os.ReadFile(path)
		if err != nil {
			return errorResult(fmt.Sprintf("File not indexed and unreadable: %v", err)), nil, nil
		}
		decls, err := s.parser.Outline(ctx, content)
		if err != nil {
			return errorResult(fmt.Sprintf("Outline failed: %v", err)), nil, nil
		}
		for _, d := range decls {
			out = append(out, typeInfo{
				Name:  d.Name,
				Kind:  d.Kind,
				Range: fmt.Sprintf("%d-%d", d.LineStart, d.LineEnd),
				URI:   util.PathToURI(path),
			})
		}
	}

	if len(out) == 0 {
		return textResult("No types found."), nil, nil
	}
	return jsonResult(out), nil, nil
}

// waitForIndex waits for the first index run and returns an error result if
// it does not finish successfully in time.
func (s *Server) waitForIndex(ctx context.Context) *mcp.CallToolResult {
	waitCtx, cancel := context.WithTimeout(ctx, indexWaitTimeout)
	defer cancel()
	if err := s.WaitForIndex(waitCtx); err != nil {
		status, indexErr, _ := s.GetIndexStatus()
		if indexErr != nil {
			return errorResult(fmt.Sprintf("Indexing failed: %v", indexErr))
		}
		if status == IndexStatusInProgress {
			return errorResult("Indexing in progress, please try again")
		}
		return errorResult(fmt.Sprintf("Indexing wait failed: %v", err))
	}
	return nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("Encoding failed: %v", err))
	}
	return textResult(string(data))
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		IsError: true,
	}
}

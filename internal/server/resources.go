package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	guidelinesURI = "classmap://usage-guidelines"
	schemaPrefix  = "classmap://schemas/"
	diagramPrefix = "classmap://diagrams/"
)

// toolSchemas infers the argument schema of every tool.
var toolSchemas = map[string]func(*jsonschema.ForOptions) (*jsonschema.Schema, error){
	"index":              jsonschema.For[IndexArgs],
	"index_status":       jsonschema.For[IndexStatusArgs],
	"render_file":        jsonschema.For[RenderFileArgs],
	"find_relationships": jsonschema.For[FindRelationshipsArgs],
	"list_types":         jsonschema.For[ListTypesArgs],
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         guidelinesURI,
		Name:        "Usage Guidelines",
		Description: "How to query the classmap relationship index",
		MIMEType:    "text/markdown",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return resourceText(guidelinesURI, "text/markdown", s.systemPrompt), nil
	})

	schemas := buildSchemaMap()
	s.mcpServer.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: schemaPrefix + "{tool_name}",
		Name:        "Tool Schema",
		Description: "JSON schema for the named tool's arguments",
		MIMEType:    "application/schema+json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		name := strings.TrimPrefix(req.Params.URI, schemaPrefix)
		schema, ok := schemas[name]
		if !ok {
			return nil, fmt.Errorf("unknown tool schema: %q", name)
		}
		return resourceText(req.Params.URI, "application/schema+json", schema), nil
	})

	s.mcpServer.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: diagramPrefix + "{+file_path}",
		Name:        "Class Diagram",
		Description: "PlantUML class diagram of a C# file, path relative to the workspace root",
		MIMEType:    "text/plain",
	}, s.readDiagram)
}

// readDiagram renders the file named by a classmap://diagrams/ URI with
// associations enabled.
func (s *Server) readDiagram(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	path, err := url.PathUnescape(strings.TrimPrefix(req.Params.URI, diagramPrefix))
	if err != nil || path == "" {
		return nil, fmt.Errorf("invalid diagram uri %q", req.Params.URI)
	}
	text, err := s.renderFile(ctx, path, s.options)
	if err != nil {
		return nil, err
	}
	return resourceText(req.Params.URI, "text/plain", text), nil
}

func resourceText(uri, mimeType, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: mimeType, Text: text}},
	}
}

// buildSchemaMap renders each tool's schema as indented JSON. Tools whose
// schema cannot be inferred are left out.
func buildSchemaMap() map[string]string {
	m := make(map[string]string, len(toolSchemas))
	for name, infer := range toolSchemas {
		schema, err := infer(nil)
		if err != nil {
			continue
		}
		data, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			continue
		}
		m[name] = string(data)
	}
	return m
}

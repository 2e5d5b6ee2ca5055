// Package server exposes the classmap relationship index over MCP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"classmap/internal/diagram"
	"classmap/internal/scanner"
	"classmap/internal/store"
)

// IndexStatus is the lifecycle state of the workspace index.
type IndexStatus string

const (
	IndexStatusNotStarted IndexStatus = "not_started"
	IndexStatusInProgress IndexStatus = "in_progress"
	IndexStatusReady      IndexStatus = "ready"
	IndexStatusFailed     IndexStatus = "failed"
)

// ErrIndexInProgress is returned when an index run is already active.
var ErrIndexInProgress = errors.New("indexing already in progress")

const usageGuidelines = `# classmap

classmap indexes the C# types of this workspace and the relationships between
them: inheritance (<|--), nesting (+--), association (-->) and owning
association (o->, the member has an initializer).

- Run "index" after large changes; queries wait up to 30s for the first index.
- "find_relationships" takes a canonical name such as App.Dog or App.Outer+Inner` + "`" + `1.
  Base types and member types are recorded as written in source, unqualified.
- "render_file" returns a PlantUML class diagram for one file.
- "list_types" shows the types declared in a file with their line ranges.
- Resource classmap://diagrams/{path} returns the same diagram as render_file
  with associations drawn.
`

// Server is the MCP front end of the index.
type Server struct {
	mcpServer *mcp.Server
	root      string
	scanner   *scanner.Scanner
	parser    *scanner.Parser
	store     *store.Store
	options   diagram.Options

	indexMu       sync.RWMutex
	indexStatus   IndexStatus
	indexErr      error
	indexDuration time.Duration
	indexReady    chan struct{}

	systemPrompt string
}

// New creates a server for the workspace at root.
func New(root string, st *store.Store, sc *scanner.Scanner, version string) *Server {
	s := &Server{
		root:         root,
		scanner:      sc,
		parser:       sc.Parser(),
		store:        st,
		options:      diagram.Options{CreateAssociation: true},
		indexStatus:  IndexStatusNotStarted,
		indexReady:   make(chan struct{}),
		systemPrompt: usageGuidelines,
	}
	s.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    "classmap",
		Version: version,
	}, &mcp.ServerOptions{
		Instructions: usageGuidelines,
	})
	s.registerTools()
	s.registerResources()
	return s
}

// Run starts the initial index in the background and serves MCP over stdio
// until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		if _, err := s.Index(ctx, false); err != nil {
			log.Printf("[server] Initial index failed: %v", err)
		}
	}()
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// beginIndex moves to in-progress, resetting the ready channel after a
// finished run.
func (s *Server) beginIndex() error {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	switch s.indexStatus {
	case IndexStatusInProgress:
		return ErrIndexInProgress
	case IndexStatusReady, IndexStatusFailed:
		s.indexReady = make(chan struct{})
	}
	s.indexStatus = IndexStatusInProgress
	s.indexErr = nil
	return nil
}

func (s *Server) finishIndex(err error, duration time.Duration) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	if err != nil {
		s.indexStatus = IndexStatusFailed
	} else {
		s.indexStatus = IndexStatusReady
	}
	s.indexErr = err
	s.indexDuration = duration
	close(s.indexReady)
}

// GetIndexStatus returns the current status, the last error and how long the
// last finished run took.
func (s *Server) GetIndexStatus() (IndexStatus, error, time.Duration) {
	s.indexMu.RLock()
	defer s.indexMu.RUnlock()
	return s.indexStatus, s.indexErr, s.indexDuration
}

// WaitForIndex blocks until the current or next index run finishes.
func (s *Server) WaitForIndex(ctx context.Context) error {
	s.indexMu.RLock()
	ready := s.indexReady
	s.indexMu.RUnlock()

	select {
	case <-ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	_, err, _ := s.GetIndexStatus()
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}
	return nil
}

// ABOUTME: MCP server setup for the health sync pipeline.
// ABOUTME: Wraps MCP server with storage, orchestrator, and resolver access.
package mcp

import (
	"context"

	"github.com/harperreed/healthsync/internal/conflict"
	"github.com/harperreed/healthsync/internal/storage"
	"github.com/harperreed/healthsync/internal/syncer"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server with pipeline access.
type Server struct {
	mcpServer *mcp.Server
	repo      storage.Repository
	orch      *syncer.Orchestrator
	resolver  *conflict.Resolver
	userID    string
}

// NewServer creates a new MCP server over the given collaborators.
func NewServer(repo storage.Repository, orch *syncer.Orchestrator, resolver *conflict.Resolver, userID string) (*Server, error) {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "healthsync",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		repo:      repo,
		orch:      orch,
		resolver:  resolver,
		userID:    userID,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/trendline/internal/service/dataset"
)

// Server wraps the MCP server and registers the trendline tools.
type Server struct {
	server *mcp.Server
	svc    *dataset.Service
}

// NewServer creates a new MCP server backed by svc.
func NewServer(version string, svc *dataset.Service) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "trendline",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server, svc: svc}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "trend_dataset",
		Description: describeDataset(),
	}, s.handleDataset)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "trend_aggregate",
		Description: describeAggregate(),
	}, s.handleAggregate)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "graph_check",
		Description: describeGraphCheck(),
	}, s.handleGraphCheck)
}

package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mugo-bistro/mugo/internal/audit"
	"github.com/mugo-bistro/mugo/internal/menu"
)

// Version is set via ldflags at build time.
var Version = "dev"

// MenuSource loads the current menu. *menufile.Repository implements it.
type MenuSource interface {
	Load() (*menu.Document, error)
}

// History lists recorded menu changes. *audit.Store implements it.
type History interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Entry, error)
}

// Server wraps an MCP server that exposes read-only menu tools.
type Server struct {
	source   MenuSource
	history  History
	currency string
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server. history may be nil, which hides the
// recent_changes tool.
func NewServer(source MenuSource, history History, currency string) *Server {
	s := &Server{
		source:   source,
		history:  history,
		currency: currency,
	}

	s.mcp = server.NewMCPServer(
		"mugo",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(listTabsTool, s.handleListTabs)
	s.mcp.AddTool(getTabTool, s.handleGetTab)
	s.mcp.AddTool(searchItemsTool, s.handleSearchItems)
	s.mcp.AddTool(getMenuTool, s.handleGetMenu)
	if s.history != nil {
		s.mcp.AddTool(recentChangesTool, s.handleRecentChanges)
	}
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

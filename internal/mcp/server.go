package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/mindspark-app/mindspark/internal/imageinput"
	"github.com/mindspark-app/mindspark/internal/library"
	"github.com/mindspark-app/mindspark/internal/study"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes the study tools and the saved
// work library.
type Server struct {
	assistant     *study.Assistant
	library       *library.Store
	maxImageBytes int64
	logger        *zap.Logger
	mcp           *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. It must not write to stdout.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxImageBytes caps images read by run_task.
func WithMaxImageBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxImageBytes = n
		}
	}
}

// NewServer creates a new MCP server. A nil assistant leaves only the
// library tools registered.
func NewServer(assistant *study.Assistant, lib *library.Store, opts ...Option) *Server {
	s := &Server{
		assistant:     assistant,
		library:       lib,
		maxImageBytes: imageinput.DefaultMaxBytes,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = server.NewMCPServer(
		"mindspark",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	if s.assistant != nil {
		s.mcp.AddTool(runTaskTool, s.handleRunTask)
		s.mcp.AddTool(generateFlashcardsTool, s.handleGenerateFlashcards)
	}
	s.mcp.AddTool(listSavedWorkTool, s.handleListSavedWork)
	s.mcp.AddTool(getSavedWorkTool, s.handleGetSavedWork)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

package server

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/brizzai/chatbot/internal/apidoc"
	"github.com/brizzai/chatbot/internal/config"
	"github.com/brizzai/chatbot/internal/logger"
	"github.com/brizzai/chatbot/internal/server/tool"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// MCPServer serves the chat tools over the Model Context Protocol
type MCPServer struct {
	mcp *mcpserver.MCPServer
}

// NewMCPServer creates the MCP server and registers the chat tools
func NewMCPServer(cfg *config.Config, tools *tool.Handler) (*MCPServer, error) {
	doc, err := apidoc.Load(context.Background(), cfg.Server.Version)
	if err != nil {
		return nil, err
	}

	s := mcpserver.NewMCPServer(
		cfg.Server.Name,
		cfg.Server.Version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)

	serverTools, err := tools.Tools(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build tools: %w", err)
	}
	for _, t := range serverTools {
		logger.Debug("Adding tool", zap.String("name", t.Tool.Name))
	}
	s.AddTools(serverTools...)

	return &MCPServer{mcp: s}, nil
}

// ServeSTDIO serves MCP on stdin/stdout until ctx is done
func (s *MCPServer) ServeSTDIO(ctx context.Context) error {
	logger.Info("Starting MCP server via STDIO")
	return mcpserver.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
}

// HTTPHandler serves MCP over streamable HTTP
func (s *MCPServer) HTTPHandler() http.Handler {
	return mcpserver.NewStreamableHTTPServer(s.mcp)
}

// Underlying returns the protocol server
func (s *MCPServer) Underlying() *mcpserver.MCPServer {
	return s.mcp
}

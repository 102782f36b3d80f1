package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/nodechain/internal/logging"
	"github.com/aretw0/nodechain/pkg/ports"
	"github.com/aretw0/nodechain/pkg/registry"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server exposes every registered dispatch function as an MCP tool named "module.function".
type Server struct {
	registry  *registry.Registry
	logger    *slog.Logger
	locker    ports.DistributedLocker
	lockTTL   time.Duration
	mcpServer *server.MCPServer
	tools     []string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. It must not write to stdout when serving over stdio.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithLocker serializes tool calls through locker.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(s *Server) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

// NewServer creates a new MCP Server instance for the functions currently in reg.
func NewServer(reg *registry.Registry, version string, opts ...Option) *Server {
	s := &Server{
		registry:  reg,
		logger:    logging.NewNop(),
		lockTTL:   30 * time.Second,
		mcpServer: server.NewMCPServer("nodechain-mcp", version, server.WithToolCapabilities(false)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// Tools returns the registered tool names.
func (s *Server) Tools() []string {
	return s.tools
}

func (s *Server) registerTools() {
	for _, e := range s.registry.Entries() {
		desc := e.Description
		if desc == "" {
			desc = fmt.Sprintf("Call %s on the scene host.", e.QualifiedName())
		}
		tool := mcp.NewTool(e.QualifiedName(),
			mcp.WithDescription(desc),
			mcp.WithArray("args",
				mcp.Description("Positional string arguments"),
				mcp.WithStringItems(),
			),
		)
		s.mcpServer.AddTool(tool, s.handler(e.Module, e.Name))
		s.tools = append(s.tools, e.QualifiedName())
	}
}

func (s *Server) handler(module, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetStringSlice("args", nil)

		if s.locker != nil {
			unlock, err := s.locker.Lock(ctx, "dispatch", s.lockTTL)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("scene is busy: %v", err)), nil
			}
			defer func() {
				if err := unlock(ctx); err != nil {
					s.logger.Warn("MCP: unlock failed", "error", err)
				}
			}()
		}

		res := s.registry.Call(ctx, module, name, args)
		s.logger.Debug("MCP call", "function", module+"."+name, "success", res.Success)
		if !res.Success {
			return mcp.NewToolResultError(res.Line()), nil
		}
		return mcp.NewToolResultText(res.Line()), nil
	}
}

package mcp

import (
	"fmt"

	"rulesmith/internal/config"
	"rulesmith/internal/core"
	"rulesmith/internal/logging"

	"github.com/mark3labs/mcp-go/server"
)

const (
	serverName    = "rulesmith"
	serverVersion = "1.0.0"
)

// Server exposes the analysis and generation engine over the Model
// Context Protocol. Tools are registered once at startup, then the
// server speaks JSON-RPC on stdin/stdout until the client hangs up.
type Server struct {
	config    *config.Config
	logger    *logging.AppLogger
	engine    *core.Engine
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance. The engine and the
// underlying mcp-go server are built in Start, not here, so
// construction never touches the filesystem.
func NewServer(cfg *config.Config, logger *logging.AppLogger) *Server {
	return &Server{
		config: cfg,
		logger: logger,
	}
}

// Start loads the rule library, registers the tool set and serves on
// stdio. It blocks until stdin closes or the process is signalled.
func (s *Server) Start() error {
	engine, err := core.LoadEngine(s.config, s.logger)
	if err != nil {
		return fmt.Errorf("failed to load rule library: %w", err)
	}
	s.engine = engine

	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions),
	)

	ts := &toolset{engine: engine, logger: s.logger}
	s.mcpServer.AddTools(ts.tools()...)

	s.logger.Info("Starting MCP server",
		"name", serverName,
		"version", serverVersion,
		"transport", "stdio")

	return server.ServeStdio(s.mcpServer)
}

// Stop gracefully shuts down the MCP server. ServeStdio returns when
// stdin closes, so there is no transport left to tear down here.
func (s *Server) Stop() error {
	s.logger.Info("Stopping MCP server")
	return nil
}

const serverInstructions = `rulesmith generates AI editor rules files (Cursor rules, CLAUDE.md, Copilot instructions and similar) from a project's detected technology stack.

Typical flow:
1. Call detect_technology or analyze_project with the project path to see what rulesmith found.
2. Call generate_rules to render the rules document. Pass save=true with an editor key (cursor, copilot, copilot-scope, agents, claude, gemini) to write the file into the project at the location that editor expects.
3. Call list_supported_technologies to see which technologies have rule templates, including custom templates the user has installed.

Pass an explicit technology to generate_rules to force a template when detection finds nothing, and verbose=true to include the detection evidence in the document.`

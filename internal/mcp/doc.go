// Package mcp provides the Model Context Protocol (MCP) server for rulesmith using mcp-go.
//
// This package implements an MCP server that lets AI assistants drive
// rulesmith's project analysis and rules generation through a
// standardized protocol. Four tools are registered:
//
//   - analyze_project: full detection profiles as indented JSON
//   - detect_technology: one line per detected technology
//   - generate_rules: render the rules document, optionally saving it
//     into the project at the chosen editor's location
//   - list_supported_technologies: every technology the loaded rule
//     library covers
//
// # Implementation
//
// The package uses the mcp-go library (github.com/mark3labs/mcp-go).
// Tool handlers run with recovery middleware, so a panic in a handler
// becomes a tool error instead of killing the server.
//
// # Engine Integration
//
// The server builds a core.Engine at startup, which loads the embedded
// rule templates plus any overlays from synced template repositories
// and the custom template store. Tool calls share that one engine; the
// library is not reloaded per request.
//
// # Security
//
// Project paths are validated by the same fileops checks the CLI uses:
//   - Path traversal segments are rejected
//   - Reserved system directories are refused
//   - Marker scanning never follows symlinks out of the project
//
// Only generate_rules with save=true writes anything, and only inside
// the given project root at the chosen editor's conventional location.
//
// # Usage
//
// The MCP server is typically started as a subprocess by AI assistants
// that support MCP integration. It can also be started manually for
// testing:
//
//	rulesmith mcp serve
//
// The server reads JSON-RPC requests from stdin and writes responses to
// stdout until it receives EOF or is terminated.
//
// # References
//
// - MCP Specification: https://modelcontextprotocol.io/specification
// - mcp-go Library: https://github.com/mark3labs/mcp-go
package mcp

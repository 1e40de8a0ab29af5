// Package main is the entry point for the rulesmith command line tool.
//
// Run without arguments it launches the interactive TUI, guiding first-time
// users through setup before showing the main menu. Subcommands expose the
// same analysis and generation engine for scripted use: analyze, generate,
// technologies, preview, templates, and the stdio MCP server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Settings such as RULESMITH_DEBUG may come from a local .env file.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

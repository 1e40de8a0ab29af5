package main

import (
	"github.com/spf13/cobra"

	"rulesmith/internal/logging"
	"rulesmith/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Model Context Protocol server commands",
	}
	cmd.AddCommand(newMCPServeCmd())
	return cmd
}

func newMCPServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on standard input and output",
		Long: `Serve the rulesmith tools over the Model Context Protocol using stdio
transport. Assistants connected to the server can analyze projects and
generate rules files without shelling out to the CLI.

The process runs until the client closes the connection.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewAppLogger()
			return mcp.NewServer(loadConfig(logger), logger).Start()
		},
	}
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fakeyudi/gitwork/internal/logging"
	"github.com/fakeyudi/gitwork/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for AI agent integration",
	Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes gitwork as tools that AI agents can discover and invoke:
  - git_work_sessions: sessions and parallel work for local repositories
  - analyze_timeline: the same analysis on caller-supplied commits`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		srv := mcp.NewServer(mcp.ServerDeps{
			Logger: logging.FromContext(ctx),
			Runner: gitRunner,
			Now:    now,
		})
		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/riskmatch/internal/adapters/driving/mcp"
)

var mcpHTTPAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with desktop assistants and other MCP-compatible clients.

Use --http to serve over HTTP instead, which enables:
  - Testing with MCP Inspector web UI
  - Remote access via HTTP

Tools: suggest_hazards, match_activities, check_novelty,
list_pending_hazards, approve_hazard, reject_hazard.
Resources: riskmatch://kb/stats, riskmatch://records/approved.

Examples:
  # Stdio mode (default)
  riskmatch mcp

  # HTTP mode (for MCP Inspector, remote access)
  riskmatch mcp --http :8080

Client configuration:
  {
    "mcpServers": {
      "riskmatch": {
        "command": "/path/to/riskmatch",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "serve over HTTP on this address instead of stdio")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ports := &mcp.Ports{
		Hazard:    hazardService,
		Review:    reviewService,
		Knowledge: knowledgeService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if mcpHTTPAddr != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s\n", displayAddr(mcpHTTPAddr))
		return server.RunHTTP(cmd.Context(), mcpHTTPAddr)
	}

	return server.Run(cmd.Context())
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

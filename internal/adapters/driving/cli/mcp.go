package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/refchat/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

The server exposes the ask, glossary and list_documents tools together with
the refchat://history and refchat://documents resources. By default it
communicates over stdio using JSON-RPC, which suits desktop assistants.

Use --port to start an HTTP server instead, which enables:
  - Testing with the MCP Inspector web UI
  - Sharing one server between several local clients

Examples:
  # Stdio mode (default)
  refchat mcp serve

  # HTTP mode (for MCP Inspector)
  refchat mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "refchat": {
        "command": "/path/to/refchat",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	if assistantService == nil {
		return errors.New("assistant service not configured")
	}

	ports := &mcp.Ports{
		Assistant: assistantService,
		Documents: documentService,
		History:   historyService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf("127.0.0.1:%d", port)
		cmd.PrintErrf("MCP server listening on http://%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}

// ABOUTME: CLI command for starting the MCP server.
// ABOUTME: Runs a stdio-based MCP server over the full sync pipeline.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/harperreed/healthsync/internal/conflict"
	"github.com/harperreed/healthsync/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

MCP allows AI assistants like Claude to interact with your health data
through a standardized protocol. The server communicates via stdin/stdout.

CLAUDE DESKTOP CONFIGURATION:

  Add this to your Claude Desktop config (claude_desktop_config.json):

  {
    "mcpServers": {
      "healthsync": {
        "command": "healthsync",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  sync_health_data    Run a bidirectional sync across all platforms
  list_metrics        List recent metrics
  get_latest          Get most recent value for metric types
  list_conflicts      List unresolved multi-source conflicts
  resolve_conflicts   Resolve queued conflicts with a strategy
  data_quality        Get the source quality score for a metric

AVAILABLE RESOURCES:

  healthsync://catalog    Metric types, canonical units, source rankings`,
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, cloudClient, err := buildOrchestrator()
		if err != nil {
			return err
		}
		if cloudClient != nil {
			defer cloudClient.Close()
		}

		resolver := conflict.New(db, log.Default())
		server, err := mcp.NewServer(db, orch, resolver, cfg.GetUserID())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Handle shutdown signals
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			cancel()
		}()

		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

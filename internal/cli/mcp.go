package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	cwmcp "github.com/dbin-w/courtwatch/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the courtwatch MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the courtwatch MCP server on stdio",
	Long: `Start the courtwatch MCP server on stdio transport.

The server exposes the match history and latest report as MCP tools that
AI assistants can call: get_latest_report, list_processed_workouts,
get_metrics, get_alerts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if State == nil || Cache == nil {
			return fmt.Errorf("storage layer not initialized")
		}

		srv := cwmcp.NewServer(State, Cache, MetricsCalc, AlertEngine, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

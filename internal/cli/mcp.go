package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/akowalczyk/voxtask/internal/core"
	voxmcp "github.com/akowalczyk/voxtask/internal/mcp"
)

var mcpAccount string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the voxtask MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the voxtask MCP server on stdio",
	Long: `Start the voxtask MCP server on stdio transport.

The server exposes the capture workflow as MCP tools that AI assistants can
call: preview_task, capture_task, list_projects.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if NewClients == nil {
			return fmt.Errorf("clients not initialized")
		}

		account, err := resolveAccount(mcpAccount)
		if err != nil {
			return err
		}

		clients := NewClients(account)
		srv := voxmcp.NewServer(core.NewCoordinator(clients.Creator, Events), clients.Projects, account, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpServeCmd.Flags().StringVar(&mcpAccount, "account", "", "account the MCP server acts as")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

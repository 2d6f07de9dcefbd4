package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	mcpserver "github.com/mindspark-app/mindspark/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing the study tools and the saved-work library to AI agents.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		// Library tools stay available without a provider.
		if err := a.connect(); err != nil {
			a.logger.Warn("study tools disabled", zap.Error(err))
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "mindspark MCP server started on stdio (saved=%d)\n", len(a.library.List(cmd.Context())))

		srv := mcpserver.NewServer(a.assistant, a.library,
			mcpserver.WithLogger(a.logger),
			mcpserver.WithMaxImageBytes(a.cfg.MaxImageBytes),
		)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

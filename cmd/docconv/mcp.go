// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/pdiddy/docconv/internal/mcptools"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the conversion tools over MCP on stdio",
	Long: `Mcp runs a Model Context Protocol server on stdin/stdout exposing
docconv_convert, docconv_merge, docconv_split, docconv_compress, and
docconv_formats. Tools read and write local file paths. Logs go to stderr.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env.log.Info("mcp server ready on stdio")
	return mcptools.NewServer(env.svc, version).Run(ctx, &mcp.StdioTransport{})
}

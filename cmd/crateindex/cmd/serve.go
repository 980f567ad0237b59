package cmd

import (
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run crateindex as a stdio MCP server",
		Long: `serve starts crateindex as a Model Context Protocol server speaking over
stdio, exposing the embed, query, status, list, features, and shutdown
tools to an MCP client. Stdout is reserved exclusively for protocol
frames; logging goes to ~/.crateindex/logs/ (at debug level with
--debug) and never touches stdout or stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), configDir)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.server.Serve(cmd.Context(), "stdio", "")
		},
	}
	return cmd
}

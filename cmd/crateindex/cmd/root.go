// Package cmd provides the CLI commands for crateindex.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/crateindex/crateindex/internal/errors"
	"github.com/crateindex/crateindex/internal/logging"
	"github.com/crateindex/crateindex/pkg/version"
)

var (
	debugMode      bool
	configDir      string
	loggingCleanup func()
)

// NewRootCmd creates the root command for the crateindex CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "crateindex",
		Short:         "Semantic search over Rust crates and their source repositories",
		Long:          `crateindex clones or fetches a crate's source, chunks it along syntactic boundaries, embeds the chunks, and serves semantic search over the result - as a CLI, or as an MCP server for AI coding assistants.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("crateindex version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging to ~/.crateindex/logs/")
	cmd.PersistentFlags().StringVar(&configDir, "config", ".", "directory to load crateindex config from")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newEmbedCmd())
	cmd.AddCommand(newQueryCmd())
	cmd.AddCommand(newGenDocsCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newFeaturesCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging enables file logging when --debug is set. It never touches
// stdout: the serve subcommand speaks MCP over stdout and routes through
// logging.SetupMCPModeWithLevel, which is file-only by construction, while the
// other subcommands reserve stdout for their own result output.
func startLogging(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "serve" {
		color.NoColor = true

		level := "info"
		if debugMode {
			level = "debug"
		}
		cleanup, err := logging.SetupMCPModeWithLevel(level)
		if err != nil {
			return fmt.Errorf("failed to set up MCP-mode logging: %w", err)
		}
		loggingCleanup = cleanup
		return nil
	}

	if !debugMode {
		return nil
	}

	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("failed to set up debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled", slog.String("version", version.Version))
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), color.RedString("error: %s", errors.FormatForCLI(err)))
		return err
	}
	return nil
}

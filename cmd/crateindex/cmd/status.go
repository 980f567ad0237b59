package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <operation-id>",
		Short: "Check the status of a background embed operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), configDir)
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := a.server.Status(args[0])
			if err != nil {
				return err
			}

			statusColor := color.YellowString
			switch out.Status {
			case "completed":
				statusColor = color.GreenString
			case "failed":
				statusColor = color.RedString
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s -> %s\n", out.OperationID, out.Target, statusColor(out.Status))
			if out.Message != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", out.Message)
			}
			if out.Status == "completed" {
				fmt.Fprintf(cmd.OutOrStdout(), "  collection: %s (%d documents)\n", out.Collection, out.DocCount)
			}
			return nil
		},
	}
	return cmd
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newFeaturesCmd() *cobra.Command {
	var versionFlag string

	cmd := &cobra.Command{
		Use:   "features <package>",
		Short: "List the features a package declares in the upstream registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), configDir)
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := a.server.Features(cmd.Context(), args[0], versionFlag)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s@%s: %s\n", args[0], out.Version, strings.Join(out.Features, ", "))
			return nil
		},
	}

	cmd.Flags().StringVar(&versionFlag, "version", "", "package version; omitted or * resolves to latest")
	return cmd
}

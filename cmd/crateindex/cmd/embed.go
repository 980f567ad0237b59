package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newEmbedCmd() *cobra.Command {
	var featureFlags []string
	var versionFlag string

	cmd := &cobra.Command{
		Use:   "embed <target>",
		Short: "Clone and embed a repository or package into a searchable collection",
		Long: `embed accepts either a repository reference (owner/repo or a full URL) or
a package name, clones or fetches its source, chunks it, embeds the chunks,
and stores the result in a vector collection. Calling it again on an
already-embedded target with the same features is a no-op.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), configDir)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.server.EmbedAndWait(cmd.Context(), args[0], versionFlag, featureFlags, func(msg string) {
				fmt.Fprintln(cmd.OutOrStdout(), color.CyanString("-> %s", msg))
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("embedded %s into %s (%d documents)", rec.Target, rec.Collection, rec.DocCount))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&featureFlags, "features", nil, "requested package features (package targets only)")
	cmd.Flags().StringVar(&versionFlag, "version", "", "package version; omitted or * resolves to latest")

	return cmd
}

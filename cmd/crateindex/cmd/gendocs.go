package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/crateindex/crateindex/internal/docgen"
)

func newGenDocsCmd() *cobra.Command {
	var featureFlags []string
	var versionFlag string

	cmd := &cobra.Command{
		Use:   "gen-docs <package>",
		Short: "Render a package's rustdoc and embed it as a searchable collection",
		Long: `gen-docs clones a package's repository, runs cargo doc against it, and
embeds the resulting documentation tree directly - skipping the usual
source-fetch step, since the docs are already a local directory by the
time this command walks them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if versionFlag == "" {
				return fmt.Errorf("gen-docs requires --version")
			}

			a, err := newApp(cmd.Context(), configDir)
			if err != nil {
				return err
			}
			defer a.Close()

			repoURL, err := a.server.ResolveRepository(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			gen := docgen.New()
			rendered, err := gen.GenerateFromRepo(cmd.Context(), repoURL, args[0], featureFlags)
			if err != nil {
				return err
			}
			defer rendered.Cleanup()

			rec, err := a.server.EmbedLocalDocs(cmd.Context(), args[0], versionFlag, featureFlags, rendered.Path, func(msg string) {
				fmt.Fprintln(cmd.OutOrStdout(), color.CyanString("-> %s", msg))
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("embedded docs for %s into %s (%d documents)", rec.Target, rec.Collection, rec.DocCount))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&featureFlags, "features", nil, "features to enable when rendering docs")
	cmd.Flags().StringVar(&versionFlag, "version", "", "package version (required)")

	return cmd
}

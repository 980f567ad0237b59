package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newQueryCmd() *cobra.Command {
	var featureFlags []string
	var versionFlag string
	var queryText string
	var limit int

	cmd := &cobra.Command{
		Use:   "query <target>",
		Short: "Semantically search an already-embedded repository or package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), configDir)
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := a.server.Query(cmd.Context(), args[0], versionFlag, featureFlags, queryText, limit)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), color.New(color.Bold).Sprint(out.Header))
			for i, r := range out.Results {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n%s\n", color.YellowString("[%d] score %.4f", i+1, r.Score), r.Content)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&featureFlags, "features", nil, "requested package features (package targets only)")
	cmd.Flags().StringVar(&versionFlag, "version", "", "package version; omitted or * resolves to latest")
	cmd.Flags().StringVar(&queryText, "query", "", "natural-language search query (required)")
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of results")
	cmd.MarkFlagRequired("query")

	return cmd
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every collection currently known to the vector store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), configDir)
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := a.server.ListCollections(cmd.Context())
			if err != nil {
				return err
			}

			if len(out.Collections) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no collections embedded yet")
				return nil
			}

			for _, c := range out.Collections {
				fmt.Fprintf(cmd.OutOrStdout(), "%-40s  model=%-24s  docs=%d\n", c.Name, c.EmbeddingModel, c.DocCount)
			}
			return nil
		},
	}
	return cmd
}

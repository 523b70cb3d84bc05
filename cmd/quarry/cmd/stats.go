package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarrysearch/quarry/pkg/indexer"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, err := indexer.OpenOrCreate(indexConfig)
			if err != nil {
				return err
			}
			defer ix.Close()

			if err := ix.Reload(); err != nil {
				return err
			}
			stats := ix.Stats()

			out := cmd.OutOrStdout()
			path := stats.Path
			if path == "" {
				path = "(in-memory)"
			}
			fmt.Fprintf(out, "path:      %s\n", path)
			fmt.Fprintf(out, "documents: %d\n", stats.NumDocs)
			return nil
		},
	}
}

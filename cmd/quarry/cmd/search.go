package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarrysearch/quarry/internal/schema"
	"github.com/quarrysearch/quarry/pkg/indexer"
)

func newSearchCmd() *cobra.Command {
	var fields []string
	var limit, offset int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the committed index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(fields) == 0 {
				sch, err := indexConfig.BuildSchema()
				if err != nil {
					return err
				}
				for _, f := range sch.Fields() {
					if f.Kind == schema.KindText {
						fields = append(fields, f.Name)
					}
				}
			}

			ix, err := indexer.OpenOrCreate(indexConfig)
			if err != nil {
				return err
			}
			defer ix.Close()

			if err := ix.Reload(); err != nil {
				return err
			}
			results, err := ix.Search(args[0], fields, limit, offset)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			for i, r := range results {
				fmt.Fprintf(out, "%d. score=%.4f\n", offset+i+1, r.Score)
				for name, value := range r.Fields {
					fmt.Fprintf(out, "   %s: %v\n", name, value)
				}
			}
			fmt.Fprintf(out, "%d results\n", len(results))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&fields, "fields", "f", nil, "fields to search (default: all text fields)")
	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "maximum number of results")
	cmd.Flags().IntVarP(&offset, "offset", "o", 0, "number of results to skip")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit results as JSON")
	return cmd
}

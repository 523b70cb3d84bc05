package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/quarrysearch/quarry/internal/input"
	"github.com/quarrysearch/quarry/pkg/indexer"
)

func newIndexCmd() *cobra.Command {
	var upsert bool
	var parallelism int

	cmd := &cobra.Command{
		Use:   "index [files...]",
		Short: "Ingest JSON/YAML/XML data files into the index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, err := indexer.OpenOrCreate(indexConfig)
			if err != nil {
				return err
			}
			defer ix.Close()

			g := new(errgroup.Group)
			g.SetLimit(parallelism)
			for _, path := range args {
				path := path
				g.Go(func() error {
					format, ok := input.FormatForPath(path)
					if !ok {
						return fmt.Errorf("unsupported file type: %s", path)
					}
					data, err := os.ReadFile(path)
					if err != nil {
						return err
					}
					up := ix.GetUpdater()
					cfg := indexer.NewInputConfig(format, nil, nil)
					if upsert {
						return up.Update(string(data), cfg)
					}
					return up.Add(string(data), cfg)
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			if err := ix.GetUpdater().Commit(); err != nil {
				return err
			}
			count := settle(ix)
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d files, %d documents total\n", len(args), count)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&upsert, "update", "u", false, "upsert records by id instead of plain insert")
	cmd.Flags().IntVarP(&parallelism, "parallelism", "p", 4, "concurrent file readers")
	return cmd
}

// settle reloads until the document count stops moving, giving the
// asynchronous pipeline time to apply the commit.
func settle(ix *indexer.Indexer) uint64 {
	deadline := time.Now().Add(5 * time.Second)
	var last uint64
	stable := 0
	for time.Now().Before(deadline) {
		if err := ix.Reload(); err == nil {
			n := ix.NumDocs()
			if n == last {
				stable++
				if stable >= 3 {
					break
				}
			} else {
				stable = 0
				last = n
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	return last
}

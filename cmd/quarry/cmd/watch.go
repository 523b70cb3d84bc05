package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quarrysearch/quarry/internal/watcher"
	"github.com/quarrysearch/quarry/pkg/indexer"
)

func newWatchCmd() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Continuously ingest data files from a directory",
		Long: `Watch ingests every JSON/YAML/XML file already present in the
directory, then keeps upserting files as they appear or change until
interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, err := indexer.OpenOrCreate(indexConfig)
			if err != nil {
				return err
			}
			defer ix.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := watcher.New(args[0], ix.GetUpdater(), watcher.Options{Debounce: debounce})
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", watcher.DefaultOptions().Debounce,
		"quiet period before a changed file is ingested")
	return cmd
}

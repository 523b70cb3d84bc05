package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quarrysearch/quarry/pkg/indexer"
)

func newClearCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all documents from the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				fmt.Fprint(cmd.OutOrStdout(), "delete all documents? [y/N] ")
				line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if strings.ToLower(strings.TrimSpace(line)) != "y" {
					fmt.Fprintln(cmd.OutOrStdout(), "aborted")
					return nil
				}
			}

			ix, err := indexer.OpenOrCreate(indexConfig)
			if err != nil {
				return err
			}
			defer ix.Close()

			up := ix.GetUpdater()
			if err := up.Clear(); err != nil {
				return err
			}
			if err := up.Commit(); err != nil {
				return err
			}
			count := settle(ix)
			fmt.Fprintf(cmd.OutOrStdout(), "cleared, %d documents remain\n", count)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return cmd
}

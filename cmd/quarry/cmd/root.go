// Package cmd provides the CLI commands for Quarry.
package cmd

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/quarrysearch/quarry/internal/config"
	"github.com/quarrysearch/quarry/internal/logging"
	"github.com/quarrysearch/quarry/pkg/version"
)

var (
	configPath string
	debugMode  bool

	indexConfig    config.IndexConfig
	loggingCleanup func()
)

// NewRootCmd creates the root command for the quarry CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quarry",
		Short: "Full-text search over structured records",
		Long: `Quarry ingests JSON, YAML and XML records into a full-text
searchable index described by a YAML schema.

All commands need an index config file (--config).`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			indexConfig = cfg

			logCfg := cfg.Logging
			if debugMode {
				logCfg.Level = "debug"
			}
			// Human-readable logs on a terminal, JSON otherwise.
			logCfg.TextHandler = isatty.IsTerminal(os.Stderr.Fd())
			cleanup, err := logging.SetupDefault(logCfg)
			if err != nil {
				return fmt.Errorf("failed to set up logging: %w", err)
			}
			loggingCleanup = cleanup
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if loggingCleanup != nil {
				loggingCleanup()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "quarry.yml", "path to index config file")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newClearCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

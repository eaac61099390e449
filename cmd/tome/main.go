// Command tome is the ruling corpus toolchain. It ingests raw rulings
// sources, resolves card references, merges duplicates, enriches the corpus
// through an oracle and serves a searchable index.
//
// Subcommands:
//   - run: execute one regeneration over a source manifest
//   - schedule: run regenerations on a cron schedule with health/metrics servers
//   - search: query the corpus built from the database or a manifest
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"abyssal-tome/internal/observability/logging"
)

var (
	catalogPath  string
	manifestPath string
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	root := &cobra.Command{
		Use:           "tome",
		Short:         "ruling ingestion, resolution and indexing pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&catalogPath, "catalog", "catalog.json", "path to the card catalog JSON file")
	root.PersistentFlags().StringVar(&manifestPath, "manifest", "sources.yaml", "path to the source manifest YAML file")

	root.AddCommand(newRunCmd(logger))
	root.AddCommand(newScheduleCmd(logger))
	root.AddCommand(newSearchCmd(logger))

	if err := root.Execute(); err != nil {
		logger.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

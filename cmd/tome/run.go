package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"abyssal-tome/internal/index"
	"abyssal-tome/internal/infra/manifest"
	"abyssal-tome/internal/observability/logging"
)

// newRunCmd executes one regeneration over the manifest's source units and
// prints the run summary.
func newRunCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "execute one corpus regeneration over the source manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			runLogger, runID := logging.WithRunID(logger)

			units, err := manifest.Load(manifestPath)
			if err != nil {
				return fmt.Errorf("load manifest: %w", err)
			}
			runLogger.Info("manifest loaded",
				slog.String("path", manifestPath),
				slog.Int("units", len(units)))

			store := index.NewStore()
			svc, cleanup, err := buildPipeline(runLogger, store)
			if err != nil {
				return err
			}
			defer cleanup()

			stats, err := svc.Run(cmd.Context(), units)
			if err != nil {
				return fmt.Errorf("regeneration %s: %w", runID, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"units=%d defects=%d drafts=%d rulings=%d merged=%d enriched=%d enrich_errors=%d tokens=%d duration=%s\n",
				stats.Units, stats.ParseDefects, stats.Drafts, stats.Rulings,
				stats.MergedDrafts, stats.EnrichApplied, stats.EnrichErrors,
				stats.IndexedTokens, stats.Duration.Round(time.Millisecond))
			if stats.PersistFailed {
				fmt.Fprintln(cmd.OutOrStdout(), "warning: corpus persistence failed, snapshot served from memory only")
			}
			return nil
		},
	}
}

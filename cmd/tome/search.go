package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"abyssal-tome/internal/domain/entity"
	"abyssal-tome/internal/index"
	"abyssal-tome/internal/infra/manifest"
)

// newSearchCmd queries the ruling corpus. With DATABASE_URL set it builds the
// index from the persisted corpus; otherwise it regenerates the corpus from
// the manifest in memory first.
func newSearchCmd(logger *slog.Logger) *cobra.Command {
	var (
		cardCode string
		fuzzy    bool
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "search [query terms...]",
		Short: "search the ruling corpus by text or card code",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if query == "" && cardCode == "" {
				return fmt.Errorf("provide query terms or --card")
			}

			idx, err := buildQueryIndex(cmd, logger)
			if err != nil {
				return err
			}

			var hits []*entity.Ruling
			if cardCode != "" {
				hits = idx.ByCard(cardCode, limit)
			} else {
				hits = idx.Search(query, fuzzy, limit)
			}

			if len(hits) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no rulings found")
				return nil
			}
			for _, r := range hits {
				printRuling(cmd, r)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cardCode, "card", "", "restrict to rulings for one card code")
	cmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "expand query terms phonetically")
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of hits")
	return cmd
}

// buildQueryIndex produces the index to query: from the database when
// configured, else by running the pipeline over the manifest in memory.
func buildQueryIndex(cmd *cobra.Command, logger *slog.Logger) (*index.Index, error) {
	if os.Getenv("DATABASE_URL") != "" {
		repo, cleanup, err := openRepository(logger)
		if err != nil {
			return nil, err
		}
		defer cleanup()

		corpus, err := repo.LoadAll(cmd.Context())
		if err != nil {
			return nil, fmt.Errorf("load corpus: %w", err)
		}
		idx, err := index.Build(corpus)
		if err != nil {
			return nil, fmt.Errorf("build index: %w", err)
		}
		logger.Info("index built from database",
			slog.Int("rulings", idx.Len()),
			slog.Int("tokens", idx.TokenCount()))
		return idx, nil
	}

	units, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}

	store := index.NewStore()
	svc, cleanup, err := buildPipeline(logger, store)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if _, err := svc.Run(cmd.Context(), units); err != nil {
		return nil, fmt.Errorf("regenerate corpus: %w", err)
	}
	snap := store.Current()
	if snap == nil {
		return nil, fmt.Errorf("regeneration published no snapshot")
	}
	return snap.Index, nil
}

func printRuling(cmd *cobra.Command, r *entity.Ruling) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "[%s] %s (%s)\n", r.SourceCardCode, r.ID, r.Type)
	if r.Question != "" {
		fmt.Fprintf(out, "  Q: %s\n", r.Question)
		fmt.Fprintf(out, "  A: %s\n", r.Answer)
	} else {
		fmt.Fprintf(out, "  %s\n", r.Text)
	}
	if len(r.RelatedCardCodes) > 0 {
		fmt.Fprintf(out, "  related: %s\n", strings.Join(r.RelatedCardCodes, ", "))
	}
	if len(r.Tags) > 0 {
		fmt.Fprintf(out, "  tags: %s\n", strings.Join(r.Tags, ", "))
	}
	fmt.Fprintln(out)
}

package cmd

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/xkilldash9x/protosage/internal/config"
	"github.com/xkilldash9x/protosage/internal/observability"
	"github.com/xkilldash9x/protosage/internal/store"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List persisted evaluation runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg := config.Get()

			if !cfg.History.Enabled {
				return fmt.Errorf("run history is disabled (set history.enabled and history.url)")
			}

			pool, err := pgxpool.New(ctx, cfg.History.URL)
			if err != nil {
				return fmt.Errorf("failed to connect to history database: %w", err)
			}
			defer pool.Close()

			historyStore, err := store.New(ctx, pool, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize run-history store: %w", err)
			}

			reports, err := historyStore.ListReports(ctx, limit)
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				cmd.Println("No evaluation runs recorded.")
				return nil
			}

			for _, r := range reports {
				cmd.Printf("%s  %s  baseline %.4f (%d feats)  embedding %.4f (%d dims)  model %s\n",
					r.StartedAt.Format("2006-01-02 15:04:05"), r.RunID,
					r.BaselineF1, r.BaselineDimension,
					r.EmbeddingF1, r.EmbeddingDimension,
					r.ModelName)
			}
			return nil
		},
	}

	historyCmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")

	return historyCmd
}

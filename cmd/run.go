package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the whole pipeline: etl, filter and enrich",
	Run: func(cmd *cobra.Command, _ []string) {
		rt := newRuntime()
		defer rt.close()

		ctx := context.Background()

		rt.logger.Info("starting the jobsift pipeline", zap.String("version", version))

		if skip, _ := cmd.Flags().GetBool("skip-etl"); !skip {
			strategy, _ := cmd.Flags().GetString("strategy")
			if err := rt.runETL(ctx, strategy); err != nil {
				rt.logger.Fatal("etl failed", zap.Error(err))
			}
		}

		if skip, _ := cmd.Flags().GetBool("skip-filter"); !skip {
			if err := rt.runFilter(ctx); err != nil {
				rt.logger.Fatal("filter failed", zap.Error(err))
			}
		}

		if skip, _ := cmd.Flags().GetBool("skip-enrich"); skip {
			return
		}
		if rt.config.AI == nil {
			rt.logger.Info("skipping enrichment", zap.String("reason", "no ai configuration"))
			return
		}

		confirm := confirmScoring
		if autoApprove, _ := cmd.Flags().GetBool("auto-approve"); autoApprove {
			confirm = nil
		}
		if err := rt.runEnrich(ctx, confirm); err != nil {
			rt.logger.Fatal("enrich failed", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("strategy", "s", "", "merge strategy: scd1, scd2 or merge_upsert (default scd1)")
	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before calling the model")
	runCmd.Flags().Bool("skip-etl", false, "do not fetch feeds, reuse the current stage table")
	runCmd.Flags().Bool("skip-filter", false, "do not rebuild the curated table")
	runCmd.Flags().Bool("skip-enrich", false, "stop after the filter step")
}

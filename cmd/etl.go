package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var etlCmd = &cobra.Command{
	Use:   "etl",
	Short: "Fetch the configured feeds and merge them into the stage table",
	Run: func(cmd *cobra.Command, _ []string) {
		rt := newRuntime()
		defer rt.close()

		strategy, _ := cmd.Flags().GetString("strategy")
		if err := rt.runETL(context.Background(), strategy); err != nil {
			rt.logger.Fatal("etl failed", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(etlCmd)

	etlCmd.Flags().StringP("strategy", "s", "", "merge strategy: scd1, scd2 or merge_upsert (default scd1)")
}

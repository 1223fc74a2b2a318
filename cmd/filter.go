package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Derive the curated table from the stage table",
	Run: func(cmd *cobra.Command, _ []string) {
		rt := newRuntime()
		defer rt.close()

		if noAsOf, _ := cmd.Flags().GetBool("no-as-of"); noAsOf {
			rt.config.Filter.AddAsOf = false
		}

		if err := rt.runFilter(context.Background()); err != nil {
			rt.logger.Fatal("filter failed", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(filterCmd)

	filterCmd.Flags().StringP("loading-mode", "m", "", "how to combine with the existing curated table: overwrite or append (default append)")
	filterCmd.Flags().Int("days-back", 7, "recency window in days, 0 disables the date filter")
	filterCmd.Flags().Bool("no-as-of", false, "do not stamp rows with the run timestamp")

	viper.BindPFlag("filter.loading-mode", filterCmd.Flags().Lookup("loading-mode"))
	viper.BindPFlag("filter.date-filter.days-back", filterCmd.Flags().Lookup("days-back"))
}

package cmd

import (
	"context"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Score the curated table against the configured resume",
	Run: func(cmd *cobra.Command, _ []string) {
		rt := newRuntime()
		defer rt.close()

		confirm := confirmScoring
		if autoApprove, _ := cmd.Flags().GetBool("auto-approve"); autoApprove {
			confirm = nil
		}

		if err := rt.runEnrich(context.Background(), confirm); err != nil {
			rt.logger.Fatal("enrich failed", zap.Error(err))
		}
	},
}

func confirmScoring(count int) (bool, error) {
	prompt := promptui.Select{
		Label: fmt.Sprintf("Score %d rows against the resume?", count),
		Items: []string{PromptYes, PromptNo},
	}

	_, action, err := prompt.Run()
	if err != nil {
		return false, err
	}
	return action == PromptYes, nil
}

func init() {
	rootCmd.AddCommand(enrichCmd)

	enrichCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before calling the model")
	enrichCmd.Flags().Int("batch-size", 5, "job descriptions per model call")
	enrichCmd.Flags().Int("limit", 0, "score only the first N rows, 0 means all")

	viper.BindPFlag("enrich.batch-size", enrichCmd.Flags().Lookup("batch-size"))
	viper.BindPFlag("enrich.limit", enrichCmd.Flags().Lookup("limit"))
}

package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyiyo/livebridge/internal/core/gemini"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Check that the configured model supports live sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(true)
		if err != nil {
			return err
		}
		defer logger.Sync()

		client, err := gemini.New(cfg.APIKey, cfg.Model)
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		m, err := client.Check(ctx)
		if m != nil {
			printModel(cmd.OutOrStdout(), m)
		}
		return err
	},
}

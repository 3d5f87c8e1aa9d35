package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zvilnymo/casecheck/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "casecheck",
	Short: "Customer case lookup across Bitrix24 and Google Drive",
	Long:  "Finds a customer by phone in Bitrix24, locates their document folder and plan in Google Drive, and reports the deal's stage history. Runs once from the shell, as a Telegram bot, or as a webhook server.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zvilnymo/casecheck/internal/bot"
	"github.com/zvilnymo/casecheck/internal/report"
	"github.com/zvilnymo/casecheck/pkg/telegram"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot with long polling",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "bot")
		if err != nil {
			return err
		}

		tg := newTelegramClient()
		if me, err := tg.GetMe(ctx); err == nil {
			zap.L().Info("telegram: bot ready", zap.String("username", me.Username))
		} else {
			zap.L().Warn("telegram: getMe failed", zap.Error(err))
		}

		handler := bot.NewHandler(env.Builder, tg, report.NewHTMLRenderer(env.Location), lookupTimeout())
		zap.L().Info("polling for updates")
		return bot.NewPoller(tg, handler, cfg.Telegram.PollTimeoutSecs).Run(ctx)
	},
}

func newTelegramClient() telegram.Client {
	timeout := time.Duration(cfg.Telegram.PollTimeoutSecs+30) * time.Second
	return telegram.NewClient(cfg.Telegram.Token, telegram.WithHTTPClient(&http.Client{Timeout: timeout}))
}

func init() {
	rootCmd.AddCommand(botCmd)
}

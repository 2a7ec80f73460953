package commands

// Command to render the chart and post it to a Telegram chat
// Cancels cleanly on SIGINT/SIGTERM while waiting on the Bot API

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"amr-coresistance/internal/clients_api/telegram"
	"amr-coresistance/internal/config"
	"amr-coresistance/internal/features/top_pairs"
	"amr-coresistance/internal/infra/fs"
	"amr-coresistance/internal/infra/log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Render the chart and send it to a Telegram chat",
	Long: `Render the top co-resistance pairs chart, then upload it to the chat set by
telegram.chat_id (env: TELEGRAM_CHAT_ID) using telegram.bot_token (env: TELEGRAM_BOT_TOKEN).`,
	RunE: runPublish,
}

func init() {
	config.BindTelegramFlags(publishCmd.Flags())
}

func runPublish(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	res, err := top_pairs.Run(cfg)
	if err != nil || res.Missing {
		return err
	}

	if err := fs.WaitForFile(ctx, res.OutputPath, 5*time.Second); err != nil {
		return fmt.Errorf("chart file not ready: %w", err)
	}

	publisher, err := telegram.NewPublisher(cfg.Telegram)
	if err != nil {
		return err
	}

	messageID, err := publisher.SendChart(ctx, res.OutputPath, telegram.Caption(res.Rows))
	if err != nil {
		return err
	}

	log.LogSuccess("Chart published to Telegram",
		zap.String("chat_id", cfg.Telegram.ChatID),
		zap.Int("message_id", messageID))
	return nil
}

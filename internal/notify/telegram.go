// Package notify surfaces pipeline failures to the operator.
package notify

import (
	"fmt"

	"github.com/docker/go-units"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/stephentwig/shipgate/internal/config"
	"github.com/stephentwig/shipgate/internal/models"
)

type Bot struct {
	bot    *tgbotapi.BotAPI
	log    *zap.Logger
	chatID int64
}

func NewBot(conf *config.Config, log *zap.Logger) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(conf.Telegram.BotToken)
	if err != nil {
		return nil, err
	}
	log.Info("Authorized telegram bot", zap.String("username", bot.Self.UserName))
	return &Bot{bot, log.Named("notify"), conf.Telegram.ChatID}, nil
}

func (b *Bot) RunFailed(run *models.PipelineRun, diagnostics string) {
	text := fmt.Sprintf("Run %s on %s failed after %s, deployment skipped.\n\n%s",
		run.ID, run.Branch, runDuration(run), diagnostics)
	b.send(run, text)
}

func (b *Bot) DeployFailed(run *models.PipelineRun, reason string) {
	text := fmt.Sprintf("Deployment for run %s on %s failed after %s, manual intervention required.\n\n%s",
		run.ID, run.Branch, runDuration(run), reason)
	b.send(run, text)
}

func (b *Bot) send(run *models.PipelineRun, text string) {
	msg := tgbotapi.NewMessage(b.chatID, text)
	if _, err := b.bot.Send(msg); err != nil {
		b.log.Error("Failed to send notification",
			zap.Error(err),
			zap.String("run_id", run.ID),
		)
	}
}

func runDuration(run *models.PipelineRun) string {
	if run.FinishedAt == nil {
		return "0s"
	}
	return units.HumanDuration(run.FinishedAt.Sub(run.StartedAt))
}

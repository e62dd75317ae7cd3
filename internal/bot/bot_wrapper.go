package bot

import (
	"fmt"

	"printcalc/internal/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotWrapper adapts *tgbotapi.BotAPI to domain.TelegramSender.
type BotWrapper struct {
	*tgbotapi.BotAPI
}

// NewTelegramAPI authorizes against Telegram with the configured token.
func NewTelegramAPI(cfg config.TelegramConfig) (*BotWrapper, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram authorization: %w", err)
	}
	api.Debug = cfg.Debug
	return &BotWrapper{BotAPI: api}, nil
}

func (w *BotWrapper) GetSelf() tgbotapi.User {
	return w.Self
}

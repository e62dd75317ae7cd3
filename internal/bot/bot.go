package bot

import (
	"context"
	"errors"
	"time"

	"printcalc/internal/config"
	"printcalc/internal/domain"
	"printcalc/internal/metrics"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const updateTimeout = 30 * time.Second

type Bot struct {
	tgService      domain.TelegramService
	config         *config.Config
	stateService   domain.StateManager
	catalogService domain.CatalogService
	orderService   domain.OrderService
	exporter       domain.OrderExporter
	access         domain.AccessChecker
	logger         *zerolog.Logger
}

func NewBot(
	tgService domain.TelegramService,
	config *config.Config,
	stateService domain.StateManager,
	catalogService domain.CatalogService,
	orderService domain.OrderService,
	exporter domain.OrderExporter,
	access domain.AccessChecker,
	logger *zerolog.Logger,
) (*Bot, error) {
	if tgService == nil {
		return nil, errors.New("telegram service is required")
	}
	if config == nil {
		return nil, errors.New("config is required")
	}

	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}

	return &Bot{
		tgService:      tgService,
		config:         config,
		stateService:   stateService,
		catalogService: catalogService,
		orderService:   orderService,
		exporter:       exporter,
		access:         access,
		logger:         logger,
	}, nil
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.tgService.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.tgService.GetSelf().UserName).Msg("Authorized on account")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.processUpdate(ctx, update)
		}
	}
}

// Stop stops receiving Telegram updates (best-effort).
func (b *Bot) Stop() {
	if b == nil || b.tgService == nil {
		return
	}
	b.tgService.StopReceivingUpdates()
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	defer func() {
		metrics.ObserveUpdate(time.Since(start))
	}()

	updateCtx, cancel := context.WithTimeout(ctx, updateTimeout)
	defer cancel()

	l := b.logger.With().Str("request_id", uuid.NewString()).Logger()
	updateCtx = l.WithContext(updateCtx)

	b.withRecovery(updateCtx, func() {
		var userID int64
		switch {
		case update.Message != nil && update.Message.From != nil:
			userID = update.Message.From.ID
		case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
			userID = update.CallbackQuery.From.ID
		}

		if userID == 0 {
			return
		}

		if !b.isOperator(userID) && !b.allowRate(updateCtx, userID) {
			if update.Message != nil {
				b.sendMessage(update.Message.Chat.ID, msgRateLimited)
			} else {
				b.answerCallback(update.CallbackQuery.ID, msgRateLimited)
			}
			return
		}

		if update.CallbackQuery != nil {
			b.handleCallbackQuery(updateCtx, &update)
			return
		}

		if update.Message == nil {
			return
		}

		b.handleMessage(updateCtx, &update)
	})
}

func (b *Bot) allowRate(ctx context.Context, userID int64) bool {
	if b.stateService == nil {
		return true
	}
	window := time.Duration(b.config.Bot.RateLimitWindow) * time.Second
	allowed, err := b.stateService.CheckRateLimit(ctx, userID, b.config.Bot.RateLimitMessages, window)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", userID).Msg("Rate limit check failed")
		return true
	}
	if !allowed {
		zerolog.Ctx(ctx).Warn().Int64("user_id", userID).Msg("Rate limit exceeded")
	}
	return allowed
}

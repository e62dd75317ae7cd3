package bot

import (
	"context"
	"strings"

	"printcalc/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const greeting = "👋 Привіт! Я бот-калькулятор поліграфії.\n" +
	"Щоб розрахувати вартість, введіть команду /calc"

func (b *Bot) handleMessage(ctx context.Context, update *tgbotapi.Update) {
	userID := update.Message.From.ID
	text := strings.TrimSpace(update.Message.Text)

	zerolog.Ctx(ctx).Debug().
		Int64("user_id", userID).
		Str("username", update.Message.From.UserName).
		Str("text", text).
		Msg("Handling message")

	if update.Message.IsCommand() {
		b.handleCommand(ctx, update)
		return
	}

	state := b.getUserState(ctx, userID)
	if state == nil {
		b.sendMessage(update.Message.Chat.ID, msgUnknownAction)
		return
	}

	switch state.CurrentStep {
	case models.StateEnterQuantity:
		b.handleQuantityInput(ctx, update, state)
	case models.StateWaitingDate:
		b.handleOrderDateInput(ctx, update)
	case models.StateWaitingExport:
		b.handleExportDateInput(ctx, update)
	case models.StateSelectProduct, models.StateSelectMaterial, models.StateSelectModifiers:
		b.sendMessage(update.Message.Chat.ID, "Скористайтеся кнопками вище або скасуйте розрахунок: /cancel")
	default:
		b.sendMessage(update.Message.Chat.ID, msgUnknownAction)
	}
}

func (b *Bot) handleCommand(ctx context.Context, update *tgbotapi.Update) {
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	switch update.Message.Command() {
	case "start", "help":
		b.clearUserState(ctx, userID)
		b.sendMessage(chatID, greeting)
	case "calc":
		b.handleCalcStart(ctx, update)
	case "cancel":
		b.handleCancel(ctx, update)
	case "order":
		b.handleOrderCommand(ctx, update, models.StateWaitingDate)
	case "export":
		b.handleOrderCommand(ctx, update, models.StateWaitingExport)
	default:
		b.sendMessage(chatID, msgUnknownAction)
	}
}

func (b *Bot) handleCancel(ctx context.Context, update *tgbotapi.Update) {
	userID := update.Message.From.ID
	state := b.getUserState(ctx, userID)
	b.deleteTracked(ctx, update.Message.Chat.ID, state)
	b.clearUserState(ctx, userID)
	b.sendMessage(update.Message.Chat.ID, msgCancelled)
}

func (b *Bot) handleCallbackQuery(ctx context.Context, update *tgbotapi.Update) {
	callback := update.CallbackQuery
	data := callback.Data

	zerolog.Ctx(ctx).Debug().
		Int64("user_id", callback.From.ID).
		Str("data", data).
		Msg("Handling callback")

	if callback.Message == nil {
		b.answerCallback(callback.ID, "")
		return
	}

	switch {
	case strings.HasPrefix(data, cbProduct):
		b.handleProductSelected(ctx, callback, strings.TrimPrefix(data, cbProduct))
	case strings.HasPrefix(data, cbMaterial):
		b.handleMaterialSelected(ctx, callback, strings.TrimPrefix(data, cbMaterial))
	case data == cbModifiersEnd:
		b.handleModifiersDone(ctx, callback)
	case strings.HasPrefix(data, cbModifier):
		b.handleModifierToggled(ctx, callback, strings.TrimPrefix(data, cbModifier))
	default:
		b.answerCallback(callback.ID, "")
	}
}

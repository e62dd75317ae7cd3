package bot

import (
	"context"
	"fmt"
	"time"

	"printcalc/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const datePrompt = "📅 Введіть дату у форматі:\n<b>23.12.2025</b>"

// handleOrderCommand starts /order or /export: both ask an operator for a day.
func (b *Bot) handleOrderCommand(ctx context.Context, update *tgbotapi.Update, step string) {
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	if !b.isOperator(userID) {
		zerolog.Ctx(ctx).Warn().Int64("user_id", userID).Str("step", step).Msg("Operator command denied")
		b.sendMessage(chatID, msgNoAccess)
		return
	}

	b.deleteTracked(ctx, chatID, b.getUserState(ctx, userID))
	b.setUserState(ctx, userID, step, nil)
	b.sendHTML(chatID, datePrompt)
}

// ordersForInput parses the operator's date and loads that day's orders.
// It returns ok=false after replying when there is nothing more to do.
func (b *Bot) ordersForInput(ctx context.Context, update *tgbotapi.Update) (day time.Time, orders []models.Order, ok bool) {
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	// the allow-list may have been reloaded since the prompt
	if !b.isOperator(userID) {
		b.clearUserState(ctx, userID)
		b.sendMessage(chatID, msgNoAccess)
		return day, nil, false
	}

	day, err := b.orderService.ParseDay(update.Message.Text)
	if err != nil {
		b.sendMessage(chatID, msgBadDate)
		return day, nil, false
	}
	b.clearUserState(ctx, userID)

	orders, err = b.orderService.OrdersForDay(ctx, day)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("day", day.Format(models.DateLayout)).Msg("Failed to load orders")
		b.sendMessage(chatID, msgGenericError)
		return day, nil, false
	}
	if len(orders) == 0 {
		b.sendMessage(chatID, msgNoOrders)
		return day, nil, false
	}
	return day, orders, true
}

func (b *Bot) handleOrderDateInput(ctx context.Context, update *tgbotapi.Update) {
	day, orders, ok := b.ordersForInput(ctx, update)
	if !ok {
		return
	}

	for _, chunk := range formatOrders(orders, day.Location()) {
		b.sendHTML(update.Message.Chat.ID, chunk)
	}
}

func (b *Bot) handleExportDateInput(ctx context.Context, update *tgbotapi.Update) {
	chatID := update.Message.Chat.ID

	day, orders, ok := b.ordersForInput(ctx, update)
	if !ok {
		return
	}
	if b.exporter == nil {
		b.sendMessage(chatID, msgGenericError)
		return
	}

	path, err := b.exporter.ExportOrders(day, orders)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Error exporting orders to Excel")
		b.sendMessage(chatID, "❌ Не вдалося створити файл експорту")
		return
	}

	caption := fmt.Sprintf("📊 Замовлення за %s: %d", day.Format(models.DateLayout), len(orders))
	if _, err := b.tgService.SendDocument(chatID, path, caption); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("file_path", path).Msg("Error sending document")
		b.sendMessage(chatID, "❌ Не вдалося надіслати файл")
	}
}

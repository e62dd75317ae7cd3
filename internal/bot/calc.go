package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"printcalc/internal/models"
	"printcalc/internal/pricing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// handleCalcStart opens the product keyboard and resets any unfinished flow.
func (b *Bot) handleCalcStart(ctx context.Context, update *tgbotapi.Update) {
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	b.deleteTracked(ctx, chatID, b.getUserState(ctx, userID))
	b.clearUserState(ctx, userID)

	products, err := b.catalogService.Products(ctx)
	if err != nil {
		b.sendMessage(chatID, msgGenericError)
		return
	}
	if len(products) == 0 {
		b.sendMessage(chatID, msgCatalogEmpty)
		return
	}

	msg, err := b.tgService.SendWithInlineKeyboard(chatID, "Оберіть продукт:", productsKeyboard(products))
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to send products keyboard")
		return
	}

	state := &models.UserState{UserID: userID}
	trackMessage(state, msg.MessageID)
	b.setUserState(ctx, userID, models.StateSelectProduct, state.TempData)
}

func (b *Bot) handleProductSelected(ctx context.Context, callback *tgbotapi.CallbackQuery, code string) {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID

	state := b.getUserState(ctx, userID)
	if state == nil || state.CurrentStep != models.StateSelectProduct {
		b.answerCallback(callback.ID, msgSessionLost)
		return
	}
	b.answerCallback(callback.ID, "")

	state.Set(models.KeyProduct, code)
	trackMessage(state, callback.Message.MessageID)
	trackMessage(state, b.sendMessage(chatID,
		fmt.Sprintf("Введіть кількість (від 1 до %d):", b.config.Bot.MaxQuantity)))

	b.setUserState(ctx, userID, models.StateEnterQuantity, state.TempData)
}

func (b *Bot) handleQuantityInput(ctx context.Context, update *tgbotapi.Update, state *models.UserState) {
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	trackMessage(state, update.Message.MessageID)

	qty, problem := parseQuantity(update.Message.Text, b.config.Bot.MaxQuantity)
	if problem != "" {
		trackMessage(state, b.sendMessage(chatID, problem))
		b.setUserState(ctx, userID, models.StateEnterQuantity, state.TempData)
		return
	}
	state.Set(models.KeyQuantity, qty)

	materials, err := b.catalogService.Materials(ctx)
	if err != nil {
		b.sendMessage(chatID, msgGenericError)
		return
	}
	if len(materials) == 0 {
		b.abortFlow(ctx, chatID, userID, state, msgCatalogEmpty)
		return
	}

	msg, err := b.tgService.SendWithInlineKeyboard(chatID, "Оберіть матеріал:", materialsKeyboard(materials))
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to send materials keyboard")
		return
	}
	trackMessage(state, msg.MessageID)
	b.setUserState(ctx, userID, models.StateSelectMaterial, state.TempData)
}

// parseQuantity accepts plain digits only. The second value is the message
// to show when the input is rejected.
func parseQuantity(raw string, limit int) (int, string) {
	text := strings.TrimSpace(raw)
	if text == "" || strings.TrimLeft(text, "0123456789") != "" {
		return 0, msgEnterNumber
	}
	qty, err := strconv.Atoi(text)
	if err != nil || (limit > 0 && qty > limit) {
		return 0, fmt.Sprintf("Максимальна кількість: %d", limit)
	}
	if qty <= 0 {
		return 0, "Кількість має бути більшою за нуль"
	}
	return qty, ""
}

func (b *Bot) handleMaterialSelected(ctx context.Context, callback *tgbotapi.CallbackQuery, code string) {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID

	state := b.getUserState(ctx, userID)
	if state == nil || state.CurrentStep != models.StateSelectMaterial {
		b.answerCallback(callback.ID, msgSessionLost)
		return
	}
	b.answerCallback(callback.ID, "")

	modifiers, err := b.catalogService.Modifiers(ctx)
	if err != nil {
		b.sendMessage(chatID, msgGenericError)
		return
	}

	state.Set(models.KeyMaterial, code)
	state.Set(models.KeyModifiers, []string{})

	msg, err := b.tgService.SendWithInlineKeyboard(chatID,
		"Оберіть додаткові послуги (можна кілька):", modifiersKeyboard(modifiers, nil))
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to send modifiers keyboard")
		return
	}
	trackMessage(state, msg.MessageID)
	b.setUserState(ctx, userID, models.StateSelectModifiers, state.TempData)
}

func (b *Bot) handleModifierToggled(ctx context.Context, callback *tgbotapi.CallbackQuery, code string) {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID

	state := b.getUserState(ctx, userID)
	if state == nil || state.CurrentStep != models.StateSelectModifiers {
		b.answerCallback(callback.ID, msgSessionLost)
		return
	}
	b.answerCallback(callback.ID, "")

	selected := toggle(state.GetStrings(models.KeyModifiers), code)
	state.Set(models.KeyModifiers, selected)
	b.setUserState(ctx, userID, models.StateSelectModifiers, state.TempData)

	modifiers, err := b.catalogService.Modifiers(ctx)
	if err != nil {
		return
	}
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, callback.Message.MessageID, modifiersKeyboard(modifiers, selected))
	if _, err := b.tgService.Request(edit); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to refresh modifiers keyboard")
	}
}

// handleModifiersDone prices the collected request, stores the order and
// replaces the intermediate messages with the quote.
func (b *Bot) handleModifiersDone(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID

	state := b.getUserState(ctx, userID)
	if state == nil || state.CurrentStep != models.StateSelectModifiers {
		b.answerCallback(callback.ID, msgSessionLost)
		return
	}
	b.answerCallback(callback.ID, "")

	req := pricing.Request{
		ProductCode:   state.GetString(models.KeyProduct),
		Quantity:      int(state.GetInt64(models.KeyQuantity)),
		MaterialCode:  state.GetString(models.KeyMaterial),
		ModifierCodes: state.GetStrings(models.KeyModifiers),
	}

	order, res, err := b.orderService.PlaceOrder(ctx, userID, req)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Int64("user_id", userID).
			Str("product", req.ProductCode).
			Msg("Quote failed")
		b.abortFlow(ctx, chatID, userID, state, b.getErrorMessage(err))
		return
	}

	b.deleteTracked(ctx, chatID, state)
	b.clearUserState(ctx, userID)
	b.sendHTML(chatID, formatQuote(order, res))
}

func (b *Bot) abortFlow(ctx context.Context, chatID, userID int64, state *models.UserState, text string) {
	b.deleteTracked(ctx, chatID, state)
	b.clearUserState(ctx, userID)
	b.sendMessage(chatID, text)
}

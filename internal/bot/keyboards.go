package bot

import (
	"printcalc/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data prefixes. Codes follow the prefix, e.g. "product:flyer".
const (
	cbProduct      = "product:"
	cbMaterial     = "material:"
	cbModifier     = "mod:"
	cbModifiersEnd = "mod_done"

	btnDone   = "Готово"
	checkMark = "✅ "
)

func productsKeyboard(products []models.Product) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(products))
	for _, p := range products {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(p.Name, cbProduct+p.Code),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func materialsKeyboard(materials []models.Material) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(materials))
	for _, m := range materials {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(m.Name, cbMaterial+m.Code),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// modifiersKeyboard renders one toggle per service, marking the selected ones,
// and a closing "done" button.
func modifiersKeyboard(modifiers []models.Modifier, selected []string) tgbotapi.InlineKeyboardMarkup {
	picked := make(map[string]bool, len(selected))
	for _, code := range selected {
		picked[code] = true
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(modifiers)+1)
	for _, m := range modifiers {
		text := m.Name
		if picked[m.Code] {
			text = checkMark + text
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(text, cbModifier+m.Code),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(btnDone, cbModifiersEnd),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// toggle adds code to selected or removes it, keeping pick order.
func toggle(selected []string, code string) []string {
	for i, c := range selected {
		if c == code {
			return append(selected[:i:i], selected[i+1:]...)
		}
	}
	return append(selected, code)
}

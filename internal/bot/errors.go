package bot

import (
	"errors"

	"printcalc/internal/pricing"
)

const (
	msgRateLimited   = "⚠️ Ви надсилаєте повідомлення занадто часто. Будь ласка, зачекайте трохи."
	msgNoAccess      = "⛔ У вас немає доступу до цієї команди."
	msgSessionLost   = "Сесія застаріла. Почніть спочатку: /calc"
	msgEnterNumber   = "Введіть число"
	msgBadDate       = "❌ Невірний формат дати. Приклад: 23.12.2025"
	msgNoOrders      = "📭 Замовлень за цю дату не знайдено."
	msgCatalogEmpty  = "Каталог поки порожній. Зверніться до друкарні."
	msgGenericError  = "❌ Сталася помилка. Спробуйте пізніше."
	msgCancelled     = "Розрахунок скасовано."
	msgUnknownAction = "Щоб розрахувати вартість, введіть команду /calc"
)

// getErrorMessage maps a pricing or store error to the text shown to the user.
func (b *Bot) getErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, pricing.ErrInvalidInput) {
		return "⚠️ Перевірте введені дані та спробуйте ще раз: /calc"
	}

	if errors.Is(err, pricing.ErrNotFound) {
		return "⚠️ Для цього продукту або матеріалу немає ціни. Оберіть інший варіант: /calc"
	}

	if errors.Is(err, pricing.ErrInvalidData) {
		return "❌ Не вдалося розрахувати вартість через помилку в прайсі. Зверніться до друкарні."
	}

	return msgGenericError
}

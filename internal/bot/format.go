package bot

import (
	"fmt"
	"html"
	"strings"
	"time"

	"printcalc/internal/models"
	"printcalc/internal/pricing"
)

// Telegram rejects messages longer than 4096 characters.
const maxMessageLen = 4000

const orderSeparator = "────────────"

func formatQuote(order *models.Order, res *pricing.Result) string {
	var sb strings.Builder

	quantity := fmt.Sprintf("%d", order.Quantity)
	if res.ProductUnit != "" {
		quantity += " " + html.EscapeString(res.ProductUnit)
	}

	fmt.Fprintf(&sb, "🖨 Продукт: %s\n", html.EscapeString(displayName(order.ProductName, order.ProductCode)))
	fmt.Fprintf(&sb, "🔢 Кількість: %s\n", quantity)
	fmt.Fprintf(&sb, "📄 Матеріал: %s\n", html.EscapeString(displayName(order.MaterialName, order.MaterialCode)))
	fmt.Fprintf(&sb, "⚙️ Додаткові послуги: %s\n\n", servicesLine(res.ModifiersUsed, "немає"))
	fmt.Fprintf(&sb, "💰 Вартість: <b>%s грн</b>\n", res.Price.StringFixed(2))
	fmt.Fprintf(&sb, "⏱️ Термін: %d дн.", res.DeadlineDays)

	if res.HasWarning(pricing.WarningQuantityFallback) {
		fmt.Fprintf(&sb, "\n\nℹ️ Кількість більша за прайс, вартість розраховано для %d.", res.QuantityUsed)
	}
	if res.HasWarning(pricing.WarningModifierNotFound) || res.HasWarning(pricing.WarningModifierMultiplier) {
		sb.WriteString("\n\nℹ️ Деякі послуги зараз недоступні й не враховані у вартості.")
	}
	return sb.String()
}

func formatOrder(o models.Order, loc *time.Location) string {
	var sb strings.Builder

	quantity := fmt.Sprintf("%d", o.Quantity)
	if o.QuantityUsed != o.Quantity {
		quantity += fmt.Sprintf(" (у розрахунку %d)", o.QuantityUsed)
	}

	services := o.ModifierNames
	if len(services) == 0 {
		services = o.ModifierCodes
	}

	fmt.Fprintf(&sb, "🆔 #%d, %s\n", o.ID, o.CreatedAt.In(loc).Format("15:04"))
	fmt.Fprintf(&sb, "🖨 Продукт: %s\n", html.EscapeString(displayName(o.ProductName, o.ProductCode)))
	fmt.Fprintf(&sb, "📄 Матеріал: %s\n", html.EscapeString(displayName(o.MaterialName, o.MaterialCode)))
	fmt.Fprintf(&sb, "🔢 Кількість: %s\n", quantity)
	fmt.Fprintf(&sb, "⚙️ Додаткові послуги: %s\n", servicesLine(services, "—"))
	fmt.Fprintf(&sb, "💰 Вартість: %s грн\n", o.Price.StringFixed(2))
	fmt.Fprintf(&sb, "⏱ Термін: %d дн.\n", o.DeadlineDays)
	sb.WriteString(orderSeparator)
	return sb.String()
}

// formatOrders renders the orders and packs them into as few messages as fit.
func formatOrders(orders []models.Order, loc *time.Location) []string {
	var (
		chunks  []string
		current strings.Builder
	)
	for _, o := range orders {
		block := formatOrder(o, loc)
		if current.Len() > 0 && current.Len()+len(block)+1 > maxMessageLen {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(block)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

func servicesLine(names []string, empty string) string {
	if len(names) == 0 {
		return empty
	}
	escaped := make([]string, len(names))
	for i, n := range names {
		escaped[i] = html.EscapeString(n)
	}
	return strings.Join(escaped, ", ")
}

func displayName(name, code string) string {
	if name != "" {
		return name
	}
	return code
}

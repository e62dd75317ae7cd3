package bot

import (
	"context"
	"fmt"
	"html"
	"strings"

	"printcalc/internal/domain"
	"printcalc/internal/events"
	"printcalc/internal/worker"

	"github.com/rs/zerolog"
)

type notificationQueue interface {
	Enqueue(ctx context.Context, n worker.Notification) error
}

// OperatorNotifier forwards order and pricing-failure events to every operator.
type OperatorNotifier struct {
	queue  notificationQueue
	access domain.AccessChecker
	logger *zerolog.Logger
}

func NewOperatorNotifier(queue notificationQueue, access domain.AccessChecker, logger *zerolog.Logger) *OperatorNotifier {
	return &OperatorNotifier{queue: queue, access: access, logger: logger}
}

// Subscribe attaches the notifier to the bus.
func (n *OperatorNotifier) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventOrderCreated, n.onOrderCreated)
	bus.Subscribe(events.EventQuoteFailed, n.onQuoteFailed)
}

func (n *OperatorNotifier) onOrderCreated(event *events.Event) error {
	var p events.OrderEventPayload
	if err := event.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", event.Type, err)
	}

	services := "—"
	if len(p.Modifiers) > 0 {
		services = html.EscapeString(strings.Join(p.Modifiers, ", "))
	}

	text := fmt.Sprintf(`🆕 Нове замовлення #%d

🖨 Продукт: %s
📄 Матеріал: %s
🔢 Кількість: %d
⚙️ Додаткові послуги: %s
💰 Вартість: %s грн
⏱ Термін: %d дн.
👤 Користувач: <code>%d</code>`,
		p.OrderID,
		html.EscapeString(displayName(p.ProductName, p.ProductCode)),
		html.EscapeString(p.MaterialName),
		p.Quantity,
		services,
		p.Price,
		p.DeadlineDays,
		p.UserID)

	if len(p.Warnings) > 0 {
		text += "\n\n⚠️ " + html.EscapeString(strings.Join(p.Warnings, "; "))
	}
	return n.broadcast(text)
}

func (n *OperatorNotifier) onQuoteFailed(event *events.Event) error {
	var p events.QuoteFailedPayload
	if err := event.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", event.Type, err)
	}

	text := fmt.Sprintf("❗ Помилка в прайсі\n\nПродукт: <code>%s</code>\nМатеріал: <code>%s</code>\n%s",
		html.EscapeString(p.ProductCode),
		html.EscapeString(p.MaterialCode),
		html.EscapeString(p.Error))
	return n.broadcast(text)
}

func (n *OperatorNotifier) broadcast(text string) error {
	var failed int
	for _, id := range n.access.AllowedIDs() {
		if err := n.queue.Enqueue(context.Background(), worker.Notification{ChatID: id, Text: text}); err != nil {
			failed++
			n.logger.Warn().Err(err).Int64("operator_id", id).Msg("Failed to queue operator notification")
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d operator notifications not queued", failed)
	}
	return nil
}

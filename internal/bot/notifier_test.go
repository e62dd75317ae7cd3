package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"printcalc/internal/events"
	"printcalc/internal/pricing"
	"printcalc/internal/worker"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	items []worker.Notification
	err   error
}

func (q *fakeQueue) Enqueue(_ context.Context, n worker.Notification) error {
	if q.err != nil {
		return q.err
	}
	q.items = append(q.items, n)
	return nil
}

func TestOperatorNotifier_OrderCreated(t *testing.T) {
	q := &fakeQueue{}
	logger := zerolog.New(io.Discard)
	bus := events.NewEventBus(&logger)
	NewOperatorNotifier(q, &stubAccess{ids: []int64{7, 8}}, &logger).Subscribe(bus)

	err := bus.PublishJSON(events.EventOrderCreated, events.OrderEventPayload{
		OrderID:      15,
		UserID:       42,
		ProductCode:  "business_card",
		ProductName:  "Візитки",
		MaterialName: "Папір 350",
		Quantity:     250,
		Modifiers:    []string{"Ламінація"},
		Price:        "215.09",
		DeadlineDays: 4,
		Warnings:     []string{"modifier gold not found"},
		CreatedAt:    time.Now(),
	})
	require.NoError(t, err)

	require.Len(t, q.items, 2)
	assert.Equal(t, int64(7), q.items[0].ChatID)
	assert.Equal(t, int64(8), q.items[1].ChatID)
	text := q.items[0].Text
	assert.Contains(t, text, "#15")
	assert.Contains(t, text, "215.09 грн")
	assert.Contains(t, text, "<code>42</code>")
	assert.Contains(t, text, "modifier gold not found")
}

func TestOperatorNotifier_QuoteFailed(t *testing.T) {
	q := &fakeQueue{}
	logger := zerolog.New(io.Discard)
	bus := events.NewEventBus(&logger)
	NewOperatorNotifier(q, &stubAccess{ids: []int64{7}}, &logger).Subscribe(bus)

	err := bus.PublishJSON(events.EventQuoteFailed, events.QuoteFailedPayload{
		ProductCode:  "broken",
		MaterialCode: "paper_350",
		Error:        fmt.Errorf("%w: band width < 1", pricing.ErrInvalidData).Error(),
	})
	require.NoError(t, err)

	require.Len(t, q.items, 1)
	assert.Contains(t, q.items[0].Text, "<code>broken</code>")
	assert.Contains(t, q.items[0].Text, "band width &lt; 1")
}

func TestOperatorNotifier_QueueFailureReported(t *testing.T) {
	q := &fakeQueue{err: worker.ErrQueueFull}
	logger := zerolog.New(io.Discard)
	n := NewOperatorNotifier(q, &stubAccess{ids: []int64{7}}, &logger)

	event, err := events.NewJSONEvent(events.EventQuoteFailed, events.QuoteFailedPayload{ProductCode: "x"})
	require.NoError(t, err)

	assert.Error(t, n.onQuoteFailed(&event))
}

func TestOperatorNotifier_BadPayload(t *testing.T) {
	logger := zerolog.New(io.Discard)
	n := NewOperatorNotifier(&fakeQueue{}, &stubAccess{}, &logger)

	err := n.onOrderCreated(&events.Event{Type: events.EventOrderCreated, Payload: []byte("{")})
	assert.Error(t, err)
}

func TestGetErrorMessage(t *testing.T) {
	b := &Bot{}
	assert.Empty(t, b.getErrorMessage(nil))
	assert.Contains(t, b.getErrorMessage(fmt.Errorf("x: %w", pricing.ErrInvalidInput)), "Перевірте")
	assert.Contains(t, b.getErrorMessage(fmt.Errorf("x: %w", pricing.ErrNotFound)), "немає ціни")
	assert.Contains(t, b.getErrorMessage(fmt.Errorf("x: %w", pricing.ErrInvalidData)), "прайсі")
	assert.Equal(t, msgGenericError, b.getErrorMessage(errors.New("boom")))
}

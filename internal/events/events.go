package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	EventOrderCreated = "order_created"
	EventQuoteFailed  = "quote_failed"
)

// OrderEventPayload is the order snapshot handed to subscribers.
type OrderEventPayload struct {
	OrderID      int64     `json:"order_id"`
	UserID       int64     `json:"user_id"`
	ProductCode  string    `json:"product_code"`
	ProductName  string    `json:"product_name"`
	MaterialName string    `json:"material_name"`
	Quantity     int       `json:"quantity"`
	QuantityUsed int       `json:"quantity_used"`
	Modifiers    []string  `json:"modifiers"`
	Price        string    `json:"price"`
	DeadlineDays int       `json:"deadline_days"`
	Warnings     []string  `json:"warnings,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// QuoteFailedPayload describes a calculation rejected because of bad reference data.
type QuoteFailedPayload struct {
	ProductCode  string `json:"product_code"`
	MaterialCode string `json:"material_code"`
	Error        string `json:"error"`
}

type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub. Handlers run synchronously in
// subscription order; a failing handler does not stop the others.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	logger      *zerolog.Logger
}

func NewEventBus(logger *zerolog.Logger) *EventBus {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &EventBus{subscribers: make(map[string][]EventHandler), logger: logger}
}

func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type and returns how many of them failed.
func (b *EventBus) Publish(event *Event) int {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	failed := 0
	for _, handler := range handlers {
		if err := handler(event); err != nil {
			failed++
			b.logger.Warn().Err(err).Str("event", event.Type).Msg("Event handler failed")
		}
	}
	return failed
}

// PublishJSON serializes the payload and publishes an event. A nil bus is a no-op.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}
	b.Publish(&event)
	return nil
}

func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}

package events

import (
	"errors"
	"testing"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus(nil)

	var received *Event
	var callCount int

	bus.Subscribe(EventOrderCreated, func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	err := bus.PublishJSON(EventOrderCreated, OrderEventPayload{OrderID: 7, Price: "215.09"})
	if err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}

	if received.Type != EventOrderCreated {
		t.Errorf("expected type %s, got %s", EventOrderCreated, received.Type)
	}

	var decoded OrderEventPayload
	if err := received.Decode(&decoded); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}

	if decoded.OrderID != 7 || decoded.Price != "215.09" {
		t.Errorf("unexpected payload %+v", decoded)
	}
}

func TestEventBusFailingHandler(t *testing.T) {
	bus := NewEventBus(nil)
	var second int

	bus.Subscribe("event", func(_ *Event) error { return errors.New("boom") })
	bus.Subscribe("event", func(_ *Event) error { second++; return nil })

	if failed := bus.Publish(&Event{Type: "event"}); failed != 1 {
		t.Errorf("expected 1 failed handler, got %d", failed)
	}
	if second != 1 {
		t.Errorf("expected second handler to run, got %d calls", second)
	}
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus(nil)
	ev := &Event{Type: "unknown"}
	if failed := bus.Publish(ev); failed != 0 {
		t.Errorf("expected no failures, got %d", failed)
	}
	if ev.CreatedAt.IsZero() {
		t.Errorf("expected CreatedAt to be set")
	}
	if err := bus.PublishJSON("unknown", nil); err != nil {
		t.Errorf("PublishJSON failed: %v", err)
	}
}

func TestNilBusPublishJSON(t *testing.T) {
	var bus *EventBus
	if err := bus.PublishJSON(EventOrderCreated, OrderEventPayload{}); err != nil {
		t.Errorf("expected nil bus to be a no-op, got %v", err)
	}
}

func TestPublishJSONMarshalError(t *testing.T) {
	bus := NewEventBus(nil)
	if err := bus.PublishJSON("event", make(chan int)); err == nil {
		t.Errorf("expected marshal error")
	}
}

func TestNewJSONEvent(t *testing.T) {
	event, err := NewJSONEvent(EventQuoteFailed, QuoteFailedPayload{ProductCode: "flyer"})
	if err != nil {
		t.Fatalf("NewJSONEvent failed: %v", err)
	}

	if event.CreatedAt.IsZero() {
		t.Errorf("expected CreatedAt to be set")
	}

	var decoded QuoteFailedPayload
	if err := event.Decode(&decoded); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if decoded.ProductCode != "flyer" {
		t.Errorf("expected flyer, got %s", decoded.ProductCode)
	}
}

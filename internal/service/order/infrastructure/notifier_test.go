package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"sky-takeout/internal/service/order/domain"
)

type fakeBroadcaster struct {
	mu       sync.Mutex
	messages [][]byte
}

func (b *fakeBroadcaster) Broadcast(message []byte) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, message)
	return 1
}

type notifierFunc func(context.Context, *domain.OrderStatusChanged) error

func (f notifierFunc) Notify(ctx context.Context, e *domain.OrderStatusChanged) error { return f(ctx, e) }

func TestPushNotifier(t *testing.T) {
	hub := &fakeBroadcaster{}
	n := NewPushNotifier(hub)
	event := &domain.OrderStatusChanged{OrderID: 5, Number: "N5", From: domain.StatusPendingPayment, To: domain.StatusCancelled, Reason: "payment timeout"}

	if err := n.Notify(context.Background(), event); err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
	if len(hub.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(hub.messages))
	}
	var msg PushMessage
	if err := json.Unmarshal(hub.messages[0], &msg); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if msg.Type != PushTypeStatusChanged || msg.OrderID != 5 || msg.To != int(domain.StatusCancelled) {
		t.Errorf("unexpected message %+v", msg)
	}
	if !strings.Contains(msg.Content, "N5") || !strings.Contains(msg.Content, "payment timeout") {
		t.Errorf("unexpected content %q", msg.Content)
	}
}

func TestMultiNotifier_CallsAll(t *testing.T) {
	var calls int
	failing := notifierFunc(func(context.Context, *domain.OrderStatusChanged) error {
		calls++
		return errors.New("kafka down")
	})
	ok := notifierFunc(func(context.Context, *domain.OrderStatusChanged) error {
		calls++
		return nil
	})

	err := MultiNotifier{failing, ok}.Notify(context.Background(), &domain.OrderStatusChanged{})
	if err == nil || !strings.Contains(err.Error(), "kafka down") {
		t.Errorf("expected aggregated error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected both notifiers to be called, got %d", calls)
	}
}

package gateway_test

import (
	"context"
	"testing"
	"time"

	"github.com/localnerve/internportal/internal/gateway"
)

func waitFor(t *testing.T, ch <-chan []gateway.Doc, want int) []gateway.Doc {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case docs := <-ch:
			if len(docs) == want {
				return docs
			}
		case <-deadline:
			t.Fatalf("Timed out waiting for %d documents", want)
			return nil
		}
	}
}

// TestSubscribeDeliversSnapshots tests the initial snapshot and change pushes
func TestSubscribeDeliversSnapshots(t *testing.T) {
	ctx := context.Background()
	gw := setupGateway(t)
	gw.Create(ctx, "messages", gateway.Fields{"chatId": "c1", "content": "first"})
	gw.Create(ctx, "messages", gateway.Fields{"chatId": "c2", "content": "other"})

	ch := make(chan []gateway.Doc, 16)
	unsubscribe := gw.Subscribe("messages", []gateway.Condition{gateway.Where("chatId", gateway.Eq, "c1")}, func(docs []gateway.Doc) {
		ch <- docs
	})
	defer unsubscribe()

	waitFor(t, ch, 1)

	if _, err := gw.Create(ctx, "messages", gateway.Fields{"chatId": "c1", "content": "second"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	docs := waitFor(t, ch, 2)
	if docs[1].Fields["content"] != "second" {
		t.Errorf("Expected creation order, got %v", docs[1].Fields)
	}
}

// TestUnsubscribeStopsDelivery tests that no callbacks run after unsubscribe returns
func TestUnsubscribeStopsDelivery(t *testing.T) {
	ctx := context.Background()
	gw := setupGateway(t)

	ch := make(chan []gateway.Doc, 16)
	unsubscribe := gw.Subscribe("chats", nil, func(docs []gateway.Doc) { ch <- docs })
	waitFor(t, ch, 0)

	unsubscribe()
	unsubscribe()

	gw.Create(ctx, "chats", gateway.Fields{"name": "late"})
	select {
	case docs := <-ch:
		t.Errorf("Expected no delivery after unsubscribe, got %v", docs)
	case <-time.After(100 * time.Millisecond):
	}
}

// TestUnsubscribeFromListener tests a listener that cancels its own subscription
func TestUnsubscribeFromListener(t *testing.T) {
	ctx := context.Background()
	gw := setupGateway(t)

	handle := make(chan func(), 1)
	calls := make(chan []gateway.Doc, 16)
	returned := make(chan struct{})
	unsubscribe := gw.Subscribe("chats", nil, func(docs []gateway.Doc) {
		calls <- docs
		(<-handle)()
		close(returned)
	})
	handle <- unsubscribe

	select {
	case <-returned:
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for unsubscribe inside the listener")
	}
	waitFor(t, calls, 0)

	gw.Create(ctx, "chats", gateway.Fields{"name": "late"})
	select {
	case docs := <-calls:
		t.Errorf("Expected no delivery after unsubscribe, got %v", docs)
	case <-time.After(100 * time.Millisecond):
	}
	unsubscribe()
}

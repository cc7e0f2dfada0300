package eventhub

import (
	"testing"
	"time"
)

func TestPublishSubscribe_SingleTopic(t *testing.T) {
	h := New()
	defer h.Shutdown()

	ch := h.Subscribe("cpu")
	defer h.Unsubscribe(ch)

	h.Publish(Update{CollectorID: "cpu", Timestamp: time.Unix(0, 0)})

	select {
	case msg := <-ch:
		u, ok := msg.(Update)
		if !ok || u.CollectorID != "cpu" {
			t.Fatalf("unexpected message: %#v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
	}
}

func TestSubscribe_Wildcard(t *testing.T) {
	h := New()
	defer h.Shutdown()

	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	h.Publish(Update{CollectorID: "memory", Timestamp: time.Unix(0, 0)})

	select {
	case msg := <-ch:
		u, ok := msg.(Update)
		if !ok || u.CollectorID != "memory" {
			t.Fatalf("unexpected message: %#v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
	}
}

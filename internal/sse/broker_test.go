package sse

import (
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch := b.Subscribe()
	if n := b.ClientCount(); n != 1 {
		t.Errorf("ClientCount() = %d, want 1", n)
	}

	b.Unsubscribe(ch)
	if n := b.ClientCount(); n != 0 {
		t.Errorf("ClientCount() after unsubscribe = %d, want 0", n)
	}
	if _, open := <-ch; open {
		t.Error("channel still open after unsubscribe")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch := b.Subscribe()
	b.PublishRebuilt(42)

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: graph.rebuilt") {
			t.Errorf("message = %q, want graph.rebuilt event line", s)
		}
		if !strings.Contains(s, `"notes":42`) {
			t.Errorf("message = %q, want notes count in data", s)
		}
		if !strings.HasSuffix(s, "\n\n") {
			t.Errorf("message = %q, want blank-line terminator", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestPublishUpserted(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch := b.Subscribe()
	b.PublishUpserted("sub/note.md")

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: note.upserted") || !strings.Contains(s, "sub/note.md") {
			t.Errorf("message = %q", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestCloseClosesClients(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()
	b.Close()

	select {
	case _, open := <-ch:
		if open {
			t.Error("expected channel closed after Close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for channel close")
	}

	// Idempotent and safe after shutdown.
	b.Close()
	b.Publish(Event{Type: "x"})
	if n := b.ClientCount(); n != 0 {
		t.Errorf("ClientCount() after close = %d, want 0", n)
	}
}

func TestSubscribeAfterClose(t *testing.T) {
	b := NewBroker()
	b.Close()
	ch := b.Subscribe()
	if _, open := <-ch; open {
		t.Error("subscribe after close must return a closed channel")
	}
}

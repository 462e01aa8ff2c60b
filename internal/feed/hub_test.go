package feed

import (
	"testing"

	"github.com/colosseum-live/arena/internal/core"
)

func TestHubPublishAndSubscribe(t *testing.T) {
	hub := NewHub()

	ch1, cancel1 := hub.Subscribe(1)
	ch2, cancel2 := hub.Subscribe(1)
	other, cancelOther := hub.Subscribe(2)
	defer cancel1()
	defer cancel2()
	defer cancelOther()

	hub.Publish(1, core.Message{Content: "hello"})

	for i, ch := range []<-chan core.Message{ch1, ch2} {
		select {
		case msg := <-ch:
			if msg.Content != "hello" {
				t.Errorf("subscriber %d: wrong content %q", i, msg.Content)
			}
		default:
			t.Errorf("subscriber %d: no message delivered", i)
		}
	}

	select {
	case msg := <-other:
		t.Errorf("cross-debate leak: %+v", msg)
	default:
	}
}

func TestHubCancelRemovesSubscriber(t *testing.T) {
	hub := NewHub()

	ch, cancel := hub.Subscribe(1)
	if hub.SubscriberCount(1) != 1 {
		t.Fatalf("expected 1 subscriber, got %d", hub.SubscriberCount(1))
	}

	cancel()
	if hub.SubscriberCount(1) != 0 {
		t.Errorf("expected 0 subscribers, got %d", hub.SubscriberCount(1))
	}

	// Channel closes on cancel.
	if _, open := <-ch; open {
		t.Error("channel still open after cancel")
	}

	// Cancel twice is safe.
	cancel()

	// Publishing to a debate with no subscribers is a no-op.
	hub.Publish(1, core.Message{Content: "into the void"})
}

func TestHubSlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()

	_, cancel := hub.Subscribe(1)
	defer cancel()

	// Overflow the buffer; Publish must never block the appender.
	for i := 0; i < subscriberBuffer+10; i++ {
		hub.Publish(1, core.Message{Content: "flood"})
	}
}

package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("state.", 10)
	defer unsub()

	b.Publish(KindOwnerChanged, "+15550100001")

	select {
	case evt := <-ch:
		if evt.Kind != KindOwnerChanged {
			t.Errorf("got kind %q, want %q", evt.Kind, KindOwnerChanged)
		}
		if evt.Payload.(string) != "+15550100001" {
			t.Errorf("got payload %v, want +15550100001", evt.Payload)
		}
		if evt.Timestamp.IsZero() {
			t.Error("event timestamp not stamped")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestPrefixFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("notify.", 10)
	defer unsub()

	b.Publish(KindThreadsReplaced, nil)
	b.Publish(KindNotifyPushed, nil)

	select {
	case evt := <-ch:
		if evt.Kind != KindNotifyPushed {
			t.Errorf("got kind %q, want %q", evt.Kind, KindNotifyPushed)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	// The state event must not have been delivered.
	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("state.", 10)
	unsub()

	b.Publish(KindOwnerChanged, nil)

	select {
	case evt := <-ch:
		t.Errorf("received event after unsubscribe: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("state.", 1)
	defer unsub()

	b.Publish(KindThreadsReplaced, 1)
	// Buffer is full now; this one is dropped.
	b.Publish(KindThreadsReplaced, 2)

	evt := <-ch
	if evt.Payload.(int) != 1 {
		t.Errorf("got payload %v, want 1", evt.Payload)
	}

	select {
	case evt := <-ch:
		t.Errorf("expected drop, got %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEmptyPrefixReceivesEverything(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("", 10)
	defer unsub()

	b.Publish(KindAuthChanged, nil)
	b.Publish(KindNotifyDismissed, nil)
	b.Publish(KindFlowChanged, nil)

	for _, want := range []string{KindAuthChanged, KindNotifyDismissed, KindFlowChanged} {
		select {
		case evt := <-ch:
			if evt.Kind != want {
				t.Errorf("got kind %q, want %q", evt.Kind, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for %q", want)
		}
	}
}

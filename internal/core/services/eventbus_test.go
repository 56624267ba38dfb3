package services

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/probelab/researchd/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestEventBus_PubSub(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	bus := NewEventBus(logger)

	id := domain.SessionID("sess-123")

	ch, unsub := bus.Subscribe(id)
	defer unsub()

	event := Event{
		SessionID: id,
		Type:      EventTypeStatus,
		Data:      "test-data",
		Timestamp: time.Now().Unix(),
	}
	bus.Publish(event)

	select {
	case received := <-ch:
		assert.Equal(t, event.SessionID, received.SessionID)
		assert.Equal(t, event.Data, received.Data)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestEventBus_Unsubscribe(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	bus := NewEventBus(logger)
	id := domain.SessionID("sess-456")

	ch, unsub := bus.Subscribe(id)
	unsub()

	bus.Publish(Event{SessionID: id, Type: EventTypeLog, Data: "should not receive"})

	// Unsubscribe closes the channel.
	if e, ok := <-ch; ok {
		t.Fatalf("received event after unsubscribe: %v", e)
	}
}

func TestEventBus_MultipleSubscribers(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	bus := NewEventBus(logger)
	id := domain.SessionID("sess-multi")

	ch1, unsub1 := bus.Subscribe(id)
	defer unsub1()
	ch2, unsub2 := bus.Subscribe(id)
	defer unsub2()

	bus.Publish(Event{SessionID: id, Data: "broadcast"})

	timeout := time.After(1 * time.Second)
	got1, got2 := false, false
	for i := 0; i < 2; i++ {
		select {
		case <-ch1:
			got1 = true
		case <-ch2:
			got2 = true
		case <-timeout:
			t.Fatal("timed out waiting for fan-out")
		}
	}
	assert.True(t, got1)
	assert.True(t, got2)
}

func TestEventBus_OtherSessionIsolated(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	bus := NewEventBus(logger)

	ch, unsub := bus.Subscribe(domain.SessionID("sess-a"))
	defer unsub()

	bus.Publish(Event{SessionID: domain.SessionID("sess-b"), Data: "elsewhere"})

	select {
	case e := <-ch:
		t.Fatalf("received event for another session: %v", e)
	case <-time.After(100 * time.Millisecond):
	}
}

package services

import (
	"log/slog"
	"sync"

	"github.com/probelab/researchd/internal/core/domain"
)

type EventType string

const (
	EventTypeStatus EventType = "status"
	EventTypeLog    EventType = "log"
)

// Event is a progress or log notification for one session. The polled
// status endpoints never depend on the bus; it only feeds live streams.
type Event struct {
	SessionID domain.SessionID
	Type      EventType
	Data      string
	Timestamp int64
}

type EventBus struct {
	logger *slog.Logger
	mu     sync.RWMutex
	subs   map[domain.SessionID][]chan Event
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		logger: logger,
		subs:   make(map[domain.SessionID][]chan Event),
	}
}

// Subscribe returns a channel receiving events for one session, plus an
// unsubscribe func that closes the channel and removes it from the bus.
func (b *EventBus) Subscribe(id domain.SessionID) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 100)
	b.subs[id] = append(b.subs[id], ch)

	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subscribers := b.subs[id]
		for i, sub := range subscribers {
			if sub == ch {
				close(ch)
				b.subs[id] = append(subscribers[:i], subscribers[i+1:]...)
				break
			}
		}
		if len(b.subs[id]) == 0 {
			delete(b.subs, id)
		}
	}

	return ch, unsub
}

// Publish fans the event out to every subscriber of the session. Full
// subscriber channels drop the event rather than block the publisher.
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[e.SessionID] {
		select {
		case ch <- e:
		default:
			b.logger.Warn("event bus channel full, dropping event", "session_id", e.SessionID)
		}
	}
}

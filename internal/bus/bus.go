package bus

import (
	"sync"

	"github.com/stagecast/stagecast/internal/events"
)

// Handler consumes one event.
type Handler func(events.Event)

// Bus is the in-process publish/subscribe channel between editor-side
// collaborators and the output engine. Publish is synchronous: handlers run
// on the publishing goroutine in subscription order, so two back-to-back
// publishes are always observed in event order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[events.Type][]Handler
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{handlers: make(map[events.Type][]Handler)}
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(t events.Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// Publish delivers the event to every handler subscribed to its type.
func (b *Bus) Publish(e events.Event) {
	b.mu.RLock()
	handlers := b.handlers[e.Type]
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}

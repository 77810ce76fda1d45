package event

import (
	"fmt"
	"runtime/debug"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/Iron-Ham/taskwatch/internal/logging"
)

// Handler receives published events.
type Handler func(Event)

// anyType is the topic of SubscribeAll handlers.
const anyType = ""

type subscription struct {
	id      string
	topic   string
	handler Handler
}

// Bus is a synchronous publish/subscribe hub. Handlers run on the
// publishing goroutine in registration order, type-specific handlers
// before SubscribeAll handlers.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	logger *logging.Logger
}

// NewBus creates a Bus. Handler panics are logged to logger; nil discards
// them.
func NewBus(logger *logging.Logger) *Bus {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Bus{logger: logger.WithComponent("event-bus")}
}

// Subscribe registers handler for eventType and returns its subscription id.
func (b *Bus) Subscribe(eventType string, handler Handler) string {
	id := uuid.NewString()

	b.mu.Lock()
	b.subs = append(b.subs, subscription{id: id, topic: eventType, handler: handler})
	b.mu.Unlock()
	return id
}

// SubscribeAll registers handler for every event.
func (b *Bus) SubscribeAll(handler Handler) string {
	return b.Subscribe(anyType, handler)
}

// Unsubscribe removes the subscription with id and reports whether it
// existed.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := slices.IndexFunc(b.subs, func(s subscription) bool { return s.id == id })
	if i < 0 {
		return false
	}
	b.subs = slices.Delete(b.subs, i, i+1)
	return true
}

// Publish delivers e to every matching handler. Subscriptions changed by a
// handler take effect from the next Publish.
func (b *Bus) Publish(e Event) {
	topic := e.EventType()

	b.mu.RLock()
	var specific, all []Handler
	for _, s := range b.subs {
		switch s.topic {
		case topic:
			specific = append(specific, s.handler)
		case anyType:
			all = append(all, s.handler)
		}
	}
	b.mu.RUnlock()

	for _, h := range append(specific, all...) {
		b.call(h, e)
	}
}

func (b *Bus) call(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"event_type", e.EventType(),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()
	h(e)
}

// SubscriptionCount returns the number of live subscriptions.
func (b *Bus) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

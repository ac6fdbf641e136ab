package dispatch

import (
	"log/slog"
	"sync"

	"github.com/taskhub/realtime/pkg/wire"
)

// Handler consumes one inbound envelope. Handlers for the same event run
// synchronously in subscription order; successive envelopes are serialized
// in arrival order by the transport's read loop.
type Handler func(env wire.Envelope)

type subscription struct {
	id      uint64
	handler Handler
}

// Registry is the process-wide listener registry the transport feeds.
// Subscribe returns an unsubscribe capability that removes exactly the
// registered handler; dropping it leaks a listener that keeps firing for
// the lifetime of the connection.
type Registry struct {
	logger *slog.Logger

	mu        sync.RWMutex
	nextID    uint64
	listeners map[string][]subscription
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger.With(slog.String("component", "dispatch")),
		listeners: make(map[string][]subscription),
	}
}

func (r *Registry) Subscribe(event string, h Handler) (unsubscribe func()) {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.listeners[event] = append(r.listeners[event], subscription{id: id, handler: h})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		subs := r.listeners[event]
		for i, sub := range subs {
			if sub.id == id {
				r.listeners[event] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
		if len(r.listeners[event]) == 0 {
			delete(r.listeners, event)
		}
	}
}

// ListenerCount reports how many handlers are registered for an event.
func (r *Registry) ListenerCount(event string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners[event])
}

// Dispatch delivers env to every currently registered handler for its
// event. A panicking handler is isolated so siblings still receive the
// envelope. Unknown events are dropped with a debug log.
func (r *Registry) Dispatch(env wire.Envelope) {
	r.mu.RLock()
	subs := make([]subscription, len(r.listeners[env.Event]))
	copy(subs, r.listeners[env.Event])
	r.mu.RUnlock()

	if len(subs) == 0 {
		r.logger.Debug("no listeners for event", slog.String("event", env.Event))
		return
	}
	for _, sub := range subs {
		r.invoke(env, sub.handler)
	}
}

func (r *Registry) invoke(env wire.Envelope, h Handler) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("listener panicked",
				slog.String("event", env.Event),
				slog.Any("panic", rec),
			)
		}
	}()
	h(env)
}

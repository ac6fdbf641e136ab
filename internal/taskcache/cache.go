package taskcache

import (
	"log/slog"
	"sync"

	"github.com/taskhub/realtime/pkg/wire"
)

// Cache is the authoritative in-memory task collection. Three streams feed
// it: local optimistic CRUD results, pushes caused by other sessions, and
// pushes echoing this session's own mutations. Every application is an
// identity-keyed wholesale upsert of the full entity, which makes it
// idempotent and commutative under duplicate delivery: last applied write
// wins, and a self-echo carrying the already-applied value is a no-op in
// effect while still being applied (a second device of the same user must
// converge from the event stream alone).
type Cache struct {
	logger *slog.Logger

	mu    sync.RWMutex
	order []string
	byID  map[string]wire.Task
}

func NewCache(logger *slog.Logger) *Cache {
	return &Cache{
		logger: logger.With(slog.String("component", "taskcache")),
		byID:   make(map[string]wire.Task),
	}
}

// Upsert replaces the entry wholesale when the id is known and prepends it
// as newest otherwise. There is never a partial-field merge: the server
// always pushes the full entity.
func (c *Cache) Upsert(task wire.Task) {
	if task.ID == "" {
		c.logger.Warn("discarding task without id")
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byID[task.ID]; !ok {
		c.order = append([]string{task.ID}, c.order...)
	}
	c.byID[task.ID] = task
}

// Delete removes by id; an absent id is a no-op.
func (c *Cache) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byID[id]; !ok {
		return
	}
	delete(c.byID, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
}

// Reset replaces the whole collection with a freshly fetched snapshot.
// Events lost while disconnected are not replayed, so the owner re-fetches
// after a reconnect; absorbing that here can never create duplicates since
// the snapshot order becomes the collection order.
func (c *Cache) Reset(tasks []wire.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order = c.order[:0]
	c.byID = make(map[string]wire.Task, len(tasks))
	for _, t := range tasks {
		if t.ID == "" {
			continue
		}
		if _, ok := c.byID[t.ID]; !ok {
			c.order = append(c.order, t.ID)
		}
		c.byID[t.ID] = t
	}
}

// Get returns the latest known representation of one task.
func (c *Cache) Get(id string) (wire.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.byID[id]
	return t, ok
}

// Snapshot returns the collection, newest-first, as a copy.
func (c *Cache) Snapshot() []wire.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]wire.Task, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

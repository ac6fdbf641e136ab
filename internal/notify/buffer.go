package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskhub/realtime/pkg/wire"
)

const DefaultCapacity = 50

// Buffer holds the most recent notifications, newest first. Appending past
// capacity evicts from the tail. All mutation goes through Append /
// MarkRead / MarkAllRead; one mutex makes MarkAllRead atomic with respect
// to concurrent appends.
type Buffer struct {
	logger   *slog.Logger
	capacity int

	mu      sync.RWMutex
	entries []wire.Notification
}

func NewBuffer(logger *slog.Logger, capacity int) *Buffer {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		logger:   logger.With(slog.String("component", "notify")),
		capacity: capacity,
		entries:  make([]wire.Notification, 0, capacity),
	}
}

// Append inserts at the head and evicts beyond capacity. Notifications
// produced locally (e.g. a CRUD action completing) may arrive without an id
// or timestamp; both are filled in here.
func (b *Buffer) Append(n wire.Notification) wire.Notification {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append([]wire.Notification{n}, b.entries...)
	if len(b.entries) > b.capacity {
		evicted := len(b.entries) - b.capacity
		b.entries = b.entries[:b.capacity]
		b.logger.Debug("evicted notifications", slog.Int("count", evicted))
	}
	return n
}

// MarkRead flips one notification to read. Unknown or already-read ids are
// a no-op, never an error.
func (b *Buffer) MarkRead(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.entries {
		if b.entries[i].ID == id {
			b.entries[i].Read = true
			return
		}
	}
}

// MarkAllRead flips every unread notification in one step.
func (b *Buffer) MarkAllRead() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.entries {
		b.entries[i].Read = true
	}
}

// UnreadCount is recomputed from the buffer on every call; it is never
// cached separately, so it cannot go stale.
func (b *Buffer) UnreadCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	count := 0
	for i := range b.entries {
		if !b.entries[i].Read {
			count++
		}
	}
	return count
}

// Snapshot returns a copy of the buffer, newest first.
func (b *Buffer) Snapshot() []wire.Notification {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]wire.Notification, len(b.entries))
	copy(out, b.entries)
	return out
}

func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

func (b *Buffer) Capacity() int { return b.capacity }

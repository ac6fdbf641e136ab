package presence

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/taskhub/realtime/pkg/wire"
)

// Entry is one currently-online user.
type Entry struct {
	UserID      string
	DisplayName string
	LastSeen    time.Time
}

// Tracker derives the set of online users from user_presence events. The
// set is keyed by user id: a repeated online signal replaces the entry, an
// offline signal for an absent user is a no-op.
type Tracker struct {
	logger *slog.Logger

	mu     sync.RWMutex
	online map[string]Entry
}

func NewTracker(logger *slog.Logger) *Tracker {
	return &Tracker{
		logger: logger.With(slog.String("component", "presence")),
		online: make(map[string]Entry),
	}
}

// Apply consumes one presence update.
func (t *Tracker) Apply(p wire.UserPresencePayload) {
	if p.UserID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	switch p.Status {
	case wire.PresenceOnline:
		t.online[p.UserID] = Entry{
			UserID:      p.UserID,
			DisplayName: p.UserName,
			LastSeen:    p.Timestamp,
		}
	case wire.PresenceOffline:
		delete(t.online, p.UserID)
	default:
		t.logger.Warn("unknown presence status", slog.String("status", string(p.Status)))
	}
}

// Online reports whether a user is currently present.
func (t *Tracker) Online(userID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.online[userID]
	return ok
}

// Snapshot returns a copy of the presence set sorted by user id. Consumers
// must not mutate tracker state; the copy guarantees they cannot.
func (t *Tracker) Snapshot() []Entry {
	t.mu.RLock()
	entries := make([]Entry, 0, len(t.online))
	for _, e := range t.online {
		entries = append(entries, e)
	}
	t.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].UserID < entries[j].UserID })
	return entries
}

func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.online)
}

package rooms

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/taskhub/realtime/pkg/transport"
	"github.com/taskhub/realtime/pkg/wire"
)

// Conn is the slice of the transport the manager relays over.
type Conn interface {
	Emit(event string, payload any)
	Status() transport.Status
}

// Manager relays join/leave over the transport. The server forgets room
// membership on every disconnect, so the manager keeps a ref-counted
// want-set purely to replay joins after re-authentication. Joins are
// idempotent server-side; leaves are ref-counted so one view leaving a
// shared room does not unsubscribe its siblings.
type Manager struct {
	logger *slog.Logger
	conn   Conn

	mu     sync.Mutex
	wanted map[string]int
}

func NewManager(logger *slog.Logger, conn Conn) *Manager {
	return &Manager{
		logger: logger.With(slog.String("component", "rooms")),
		conn:   conn,
		wanted: make(map[string]int),
	}
}

// Join records the interest and emits join_room when connected. While
// disconnected the emit is skipped, not queued; Rejoin covers it once the
// session is re-established.
func (m *Manager) Join(roomID string) {
	if roomID == "" {
		return
	}
	m.mu.Lock()
	m.wanted[roomID]++
	m.mu.Unlock()

	if m.conn.Status() != transport.StatusConnected {
		m.logger.Debug("join skipped, not connected", slog.String("room", roomID))
		return
	}
	m.conn.Emit(wire.EventJoinRoom, wire.RoomPayload{Room: roomID})
}

// Leave drops one reference. Only the last leaver emits leave_room.
func (m *Manager) Leave(roomID string) {
	if roomID == "" {
		return
	}
	m.mu.Lock()
	count, ok := m.wanted[roomID]
	if !ok {
		m.mu.Unlock()
		return
	}
	count--
	if count > 0 {
		m.wanted[roomID] = count
		m.mu.Unlock()
		return
	}
	delete(m.wanted, roomID)
	m.mu.Unlock()

	if m.conn.Status() != transport.StatusConnected {
		m.logger.Debug("leave skipped, not connected", slog.String("room", roomID))
		return
	}
	m.conn.Emit(wire.EventLeaveRoom, wire.RoomPayload{Room: roomID})
}

// Rejoin replays a join for every wanted room. Called after each successful
// re-authentication.
func (m *Manager) Rejoin() {
	for _, roomID := range m.Rooms() {
		m.conn.Emit(wire.EventJoinRoom, wire.RoomPayload{Room: roomID})
	}
}

// Rooms returns the wanted room ids, sorted for deterministic replay.
func (m *Manager) Rooms() []string {
	m.mu.Lock()
	ids := make([]string, 0, len(m.wanted))
	for id := range m.wanted {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	sort.Strings(ids)
	return ids
}

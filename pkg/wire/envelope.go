package wire

import "encoding/json"

// Envelope is the tagged-variant message exchanged over the channel. Every
// update type (tasks, presence, comments, notifications) is multiplexed on
// the one connection and routed by the Event discriminant alone.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope marshals payload into a ready-to-send envelope.
func NewEnvelope(event string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Payload: raw}, nil
}

// Server-pushed event names.
const (
	EventAuthenticated    = "authenticated"
	EventAuthError        = "auth_error"
	EventTaskUpdated      = "task_updated"
	EventTaskDeleted      = "task_deleted"
	EventTaskAssigned     = "task_assigned"
	EventTaskCommentAdded = "task_comment_added"
	EventUserPresence     = "user_presence"
	EventNotification     = "notification"
)

// Client-emitted event names.
const (
	EventAuthenticate = "authenticate"
	EventJoinRoom     = "join_room"
	EventLeaveRoom    = "leave_room"
	EventUserOnline   = "user_online"
	EventTaskUpdate   = "task_update"
	EventTaskComment  = "task_comment"
	EventTypingStart  = "typing_start"
	EventTypingStop   = "typing_stop"
)

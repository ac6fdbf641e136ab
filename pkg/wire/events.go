package wire

import "time"

// Payload shapes, one struct per event name. Inbound first.

type AuthenticatedPayload struct {
	User User `json:"user"`
}

type AuthErrorPayload struct {
	Message string `json:"message"`
}

type TaskUpdatedPayload struct {
	Task Task `json:"task"`
	// UpdatedBy identifies the session that caused the change. Set on
	// self-echo events too; consumers apply those regardless.
	UpdatedBy string `json:"updatedBy,omitempty"`
}

type TaskDeletedPayload struct {
	TaskID    string `json:"taskId"`
	DeletedBy string `json:"deletedBy,omitempty"`
}

type TaskAssignedPayload struct {
	Task Task `json:"task"`
}

type TaskCommentAddedPayload struct {
	TaskID  string  `json:"taskId"`
	Comment Comment `json:"comment"`
}

type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceOffline PresenceStatus = "offline"
)

type UserPresencePayload struct {
	UserID    string         `json:"userId"`
	UserName  string         `json:"userName"`
	Status    PresenceStatus `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
}

type NotificationPayload struct {
	Notification Notification `json:"notification"`
	Timestamp    time.Time    `json:"timestamp"`
}

// Outbound payloads.

type AuthenticatePayload struct {
	Token string `json:"token"`
}

type RoomPayload struct {
	Room string `json:"room"`
}

type TypingPayload struct {
	TaskID string `json:"taskId"`
}

package client

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/taskhub/realtime/internal/presence"
	"github.com/taskhub/realtime/pkg/wire"
)

// TaskEvent is the task category delivered to subscribers. Deletions are a
// variant of the same category, discriminated by Deleted.
type TaskEvent struct {
	Task     wire.Task
	TaskID   string
	Deleted  bool
	By       string
	SelfEcho bool
}

// subscribeInternal registers the cache-maintaining consumers. They are
// registered before any caller subscription, so by the time a caller's
// listener fires the cache already reflects the event.
func (c *Client) subscribeInternal() {
	c.registry.Subscribe(wire.EventTaskUpdated, func(env wire.Envelope) {
		var p wire.TaskUpdatedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			c.logger.Warn("malformed task_updated payload", slog.Any("error", err))
			return
		}
		// Self-echoes are applied too: the optimistic value and the echoed
		// value are the same, and a second session of this user converges
		// from the stream alone.
		c.tasks.Upsert(p.Task)
	})

	c.registry.Subscribe(wire.EventTaskDeleted, func(env wire.Envelope) {
		var p wire.TaskDeletedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			c.logger.Warn("malformed task_deleted payload", slog.Any("error", err))
			return
		}
		c.tasks.Delete(p.TaskID)
	})

	c.registry.Subscribe(wire.EventTaskAssigned, func(env wire.Envelope) {
		var p wire.TaskAssignedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			c.logger.Warn("malformed task_assigned payload", slog.Any("error", err))
			return
		}
		c.tasks.Upsert(p.Task)
		c.inbox.Append(wire.Notification{
			Type:    "task_assigned",
			Title:   "Task assigned",
			Message: fmt.Sprintf("You were assigned: %s", p.Task.Title),
		})
	})

	c.registry.Subscribe(wire.EventUserPresence, func(env wire.Envelope) {
		var p wire.UserPresencePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			c.logger.Warn("malformed user_presence payload", slog.Any("error", err))
			return
		}
		c.presence.Apply(p)
	})

	c.registry.Subscribe(wire.EventNotification, func(env wire.Envelope) {
		var p wire.NotificationPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			c.logger.Warn("malformed notification payload", slog.Any("error", err))
			return
		}
		n := p.Notification
		if n.Timestamp.IsZero() {
			n.Timestamp = p.Timestamp
		}
		c.inbox.Append(n)
	})
}

// SubscribeTasks delivers the task category (updates, creations and the
// deleted variant) in arrival order. The returned capability removes
// exactly this listener; failing to call it leaks the callback.
func (c *Client) SubscribeTasks(fn func(ev TaskEvent)) (unsubscribe func()) {
	unsubUpdated := c.registry.Subscribe(wire.EventTaskUpdated, func(env wire.Envelope) {
		var p wire.TaskUpdatedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		fn(TaskEvent{
			Task:     p.Task,
			TaskID:   p.Task.ID,
			By:       p.UpdatedBy,
			SelfEcho: c.isSelf(p.UpdatedBy),
		})
	})
	unsubDeleted := c.registry.Subscribe(wire.EventTaskDeleted, func(env wire.Envelope) {
		var p wire.TaskDeletedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		fn(TaskEvent{
			TaskID:   p.TaskID,
			Deleted:  true,
			By:       p.DeletedBy,
			SelfEcho: c.isSelf(p.DeletedBy),
		})
	})
	return func() {
		unsubUpdated()
		unsubDeleted()
	}
}

// SubscribeComments delivers task_comment_added to comment listeners only;
// comments have no cache effect.
func (c *Client) SubscribeComments(fn func(p wire.TaskCommentAddedPayload)) (unsubscribe func()) {
	return c.registry.Subscribe(wire.EventTaskCommentAdded, func(env wire.Envelope) {
		var p wire.TaskCommentAddedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		fn(p)
	})
}

func (c *Client) SubscribePresence(fn func(p wire.UserPresencePayload)) (unsubscribe func()) {
	return c.registry.Subscribe(wire.EventUserPresence, func(env wire.Envelope) {
		var p wire.UserPresencePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		fn(p)
	})
}

func (c *Client) SubscribeNotifications(fn func(n wire.Notification)) (unsubscribe func()) {
	return c.registry.Subscribe(wire.EventNotification, func(env wire.Envelope) {
		var p wire.NotificationPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		fn(p.Notification)
	})
}

func (c *Client) isSelf(userID string) bool {
	return userID != "" && userID == c.identity.UserID
}

// --- Read views ---

// Tasks returns the authoritative task collection, newest first.
func (c *Client) Tasks() []wire.Task { return c.tasks.Snapshot() }

func (c *Client) Task(id string) (wire.Task, bool) { return c.tasks.Get(id) }

// Notifications returns the buffered notifications, most recent first.
func (c *Client) Notifications() []wire.Notification { return c.inbox.Snapshot() }

func (c *Client) UnreadCount() int { return c.inbox.UnreadCount() }

// Presence returns the deduplicated set of currently-online users.
func (c *Client) Presence() []presence.Entry { return c.presence.Snapshot() }

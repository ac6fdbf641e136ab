package client

import "github.com/taskhub/realtime/pkg/wire"

// The CRUD API is an external collaborator: callers invoke it directly and
// feed its full-entity results back through these apply methods. The
// application is synchronous at the call site, so a read immediately after
// reflects the optimistic value; the server's echo of the same change later
// converges to the identical state.

// ApplyLocal upserts the result of a local create or update.
func (c *Client) ApplyLocal(task wire.Task) {
	c.tasks.Upsert(task)
}

// ApplyLocalDelete removes a locally deleted task; an unknown id is a no-op.
func (c *Client) ApplyLocalDelete(taskID string) {
	c.tasks.Delete(taskID)
}

// ResetTasks absorbs a full snapshot re-fetch, e.g. after a reconnect where
// intervening events were lost. It never creates duplicates.
func (c *Client) ResetTasks(tasks []wire.Task) {
	c.tasks.Reset(tasks)
}

// NotifyLocal appends a locally produced notification (e.g. a CRUD action
// completing) and returns it with its generated id.
func (c *Client) NotifyLocal(n wire.Notification) wire.Notification {
	return c.inbox.Append(n)
}

// MarkRead flips one notification; unknown ids are a no-op.
func (c *Client) MarkRead(id string) { c.inbox.MarkRead(id) }

// MarkAllRead flips every unread notification in one step.
func (c *Client) MarkAllRead() { c.inbox.MarkAllRead() }

// --- Outbound relays, all fire-and-forget ---

// SendTaskUpdate pushes a locally mutated task to the server for broadcast.
func (c *Client) SendTaskUpdate(task wire.Task) {
	c.conn.Emit(wire.EventTaskUpdate, wire.TaskUpdatedPayload{Task: task, UpdatedBy: c.identity.UserID})
}

// SendComment relays a new comment on a task.
func (c *Client) SendComment(comment wire.Comment) {
	c.conn.Emit(wire.EventTaskComment, wire.TaskCommentAddedPayload{TaskID: comment.TaskID, Comment: comment})
}

// TypingStart / TypingStop relay typing indicators for a task's comment
// thread. No timeout, no delivery guarantee.
func (c *Client) TypingStart(taskID string) {
	c.conn.Emit(wire.EventTypingStart, wire.TypingPayload{TaskID: taskID})
}

func (c *Client) TypingStop(taskID string) {
	c.conn.Emit(wire.EventTypingStop, wire.TypingPayload{TaskID: taskID})
}

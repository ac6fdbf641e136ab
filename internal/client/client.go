package client

import (
	"context"
	"errors"
	"log/slog"

	"github.com/taskhub/realtime/internal/dispatch"
	"github.com/taskhub/realtime/internal/notify"
	"github.com/taskhub/realtime/internal/presence"
	"github.com/taskhub/realtime/internal/rooms"
	"github.com/taskhub/realtime/internal/session"
	"github.com/taskhub/realtime/internal/taskcache"
	"github.com/taskhub/realtime/pkg/config"
	"github.com/taskhub/realtime/pkg/transport"
	"github.com/taskhub/realtime/pkg/wire"
)

// Conn is the transport surface the client composes over. *transport.Channel
// satisfies it; tests substitute a fake.
type Conn interface {
	Connect(ctx context.Context)
	Disconnect()
	Emit(event string, payload any)
	Status() transport.Status
	SetOnMessageHandler(h transport.MessageHandler)
	SetOnStatusHandler(h transport.StatusHandler)
	SetOnConnectHandler(h transport.ConnectHandler)
}

// compile-time check that the real channel satisfies the client's view.
var _ Conn = (*transport.Channel)(nil)

// Client wires the whole realtime stack together: one channel, a session
// handshake re-run on every reconnect, room replay, and the dispatcher
// feeding the task cache, presence set and notification buffer.
type Client struct {
	logger   *slog.Logger
	conn     Conn
	registry *dispatch.Registry
	auth     *session.Authenticator
	rooms    *rooms.Manager
	presence *presence.Tracker
	inbox    *notify.Buffer
	tasks    *taskcache.Cache
	identity session.Identity

	onStatus    transport.StatusHandler
	onAuthError func(error)
}

// New builds a client over a real websocket channel.
func New(logger *slog.Logger, cfg *config.Config) (*Client, error) {
	identity, err := session.IdentityFromToken(cfg.Server.Token)
	if err != nil {
		return nil, err
	}
	channel := transport.NewChannel(transport.Config{
		Endpoint:       cfg.Server.Endpoint,
		ReconnectDelay: cfg.Reconnect.Delay,
		MaxAttempts:    cfg.Reconnect.MaxAttempts,
		DialTimeout:    cfg.Reconnect.HandshakeTimeout,
	}, logger)
	return newWithConn(logger, cfg, channel, identity), nil
}

// NewWithConn builds a client over a caller-provided transport. Exposed for
// tests and embedders that manage their own channel.
func NewWithConn(logger *slog.Logger, cfg *config.Config, conn Conn, identity session.Identity) *Client {
	return newWithConn(logger, cfg, conn, identity)
}

func newWithConn(logger *slog.Logger, cfg *config.Config, conn Conn, identity session.Identity) *Client {
	registry := dispatch.NewRegistry(logger)
	c := &Client{
		logger:   logger.With(slog.String("component", "client")),
		conn:     conn,
		registry: registry,
		auth:     session.NewAuthenticator(logger, conn, registry, cfg.Server.Token, cfg.Reconnect.HandshakeTimeout),
		rooms:    rooms.NewManager(logger, conn),
		presence: presence.NewTracker(logger),
		inbox:    notify.NewBuffer(logger, cfg.Notifications.Capacity),
		tasks:    taskcache.NewCache(logger),
		identity: identity,
	}

	conn.SetOnMessageHandler(registry.Dispatch)
	conn.SetOnConnectHandler(c.handleConnect)
	conn.SetOnStatusHandler(c.handleStatus)
	c.subscribeInternal()
	return c
}

// Callback setters must be called before Connect.

func (c *Client) SetOnStatusHandler(h transport.StatusHandler) { c.onStatus = h }

// SetOnAuthError installs the hook surfaced when the credential is
// rejected. There is no automatic retry: the same bad token would just be
// rejected again, so the caller must force a re-login.
func (c *Client) SetOnAuthError(h func(error)) { c.onAuthError = h }

// Connect starts the transport. Authentication, room replay and presence
// announcement follow automatically on every successful (re)connect.
func (c *Client) Connect(ctx context.Context) {
	c.conn.Connect(ctx)
}

// Disconnect tears the session down; no listener fires after it returns.
func (c *Client) Disconnect() {
	c.conn.Disconnect()
	c.auth.Reset()
}

func (c *Client) Status() transport.Status { return c.conn.Status() }

func (c *Client) Authenticated() bool { return c.auth.Authenticated() }

// Identity is the token-derived identity of this session.
func (c *Client) Identity() session.Identity { return c.identity }

// User is the server-confirmed user, zero until authenticated.
func (c *Client) User() wire.User { return c.auth.User() }

// JoinRoom opts this client into a server-side broadcast group. No-op
// while disconnected; wanted rooms are replayed after every reconnect.
func (c *Client) JoinRoom(roomID string)  { c.rooms.Join(roomID) }
func (c *Client) LeaveRoom(roomID string) { c.rooms.Leave(roomID) }

// handleConnect runs on its own goroutine after every successful dial,
// bounded by the session context the transport cancels on teardown. The
// server keeps neither authentication nor room membership across
// disconnects, so both are re-established here, in that order.
func (c *Client) handleConnect(ctx context.Context) {
	user, err := c.auth.Run(ctx)
	if err != nil {
		var authErr *session.AuthError
		if errors.As(err, &authErr) {
			// The channel stays up for transport purposes, but no room
			// joins happen on an unauthenticated session.
			if c.onAuthError != nil {
				c.onAuthError(err)
			}
			return
		}
		c.logger.Warn("handshake did not complete", slog.Any("error", err))
		return
	}

	c.rooms.Rejoin()
	// The user's own room exists on every session; it is joined directly
	// so it never enters the caller-owned want-set.
	c.conn.Emit(wire.EventJoinRoom, wire.RoomPayload{Room: "user:" + user.ID})
	c.conn.Emit(wire.EventUserOnline, struct{}{})
	c.logger.Info("session ready",
		slog.String("userID", user.ID),
		slog.Int("rooms", len(c.rooms.Rooms())),
	)
}

func (c *Client) handleStatus(s transport.Status) {
	if s != transport.StatusConnected {
		c.auth.Reset()
	}
	if c.onStatus != nil {
		c.onStatus(s)
	}
}

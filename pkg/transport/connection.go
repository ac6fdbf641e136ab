package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/taskhub/realtime/pkg/wire"
)

// Status is the liveness state consumers display as an indicator. It is
// never ambiguous: the channel is always in exactly one of these.
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

// MessageHandler is invoked for every inbound envelope, synchronously, in
// arrival order. The handler must not block on a response that itself
// arrives through this channel.
type MessageHandler func(env wire.Envelope)

type StatusHandler func(s Status)

// ConnectHandler fires after every successful dial, including reconnects.
// It runs on its own goroutine so it may exchange messages freely. The
// context is cancelled when that connection drops or the channel is torn
// down, and Disconnect does not return until the handler has.
type ConnectHandler func(ctx context.Context)

type Config struct {
	Endpoint       string
	ReconnectDelay time.Duration
	MaxAttempts    int
	DialTimeout    time.Duration
	SendQueueSize  int
}

// Channel owns the one persistent websocket connection an authenticated
// session multiplexes everything over. It is safe for concurrent use.
//
// Connection failures are never surfaced as errors to callers; they show up
// as status transitions while the channel retries with bounded exponential
// backoff. Once the retry budget is exhausted the channel stays
// disconnected until an explicit Connect.
type Channel struct {
	id     uuid.UUID
	cfg    Config
	logger *slog.Logger

	onMessage MessageHandler
	onStatus  StatusHandler
	onConnect ConnectHandler

	mu      sync.Mutex
	status  Status
	send    chan wire.Envelope
	cancel  context.CancelFunc
	running bool

	wg sync.WaitGroup
}

func NewChannel(cfg Config, logger *slog.Logger) *Channel {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = time.Second
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 5
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 20 * time.Second
	}
	if cfg.SendQueueSize <= 0 {
		cfg.SendQueueSize = 256
	}
	id := uuid.New()
	return &Channel{
		id:     id,
		cfg:    cfg,
		status: StatusDisconnected,
		logger: logger.With(slog.String("component", "transport"), slog.String("channelID", id.String())),
	}
}

// Handler setters must be called before Connect.

func (c *Channel) SetOnMessageHandler(h MessageHandler) { c.onMessage = h }
func (c *Channel) SetOnStatusHandler(h StatusHandler)   { c.onStatus = h }
func (c *Channel) SetOnConnectHandler(h ConnectHandler) { c.onConnect = h }

// ID returns the channel's correlation id used in logs.
func (c *Channel) ID() uuid.UUID { return c.id }

// Connect starts the dial/read loop. Idempotent: calling it while the
// channel is already running is a no-op.
func (c *Channel) Connect(ctx context.Context) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		c.logger.Debug("connect ignored, channel already running")
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.running = true
	c.cancel = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run(runCtx)
}

// Disconnect tears the channel down deterministically. No message handler
// fires after it returns.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
}

func (c *Channel) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Emit is fire-and-forget. Not being connected is not an error: the
// envelope is dropped and the caller must not assume delivery.
func (c *Channel) Emit(event string, payload any) {
	c.mu.Lock()
	send := c.send
	status := c.status
	c.mu.Unlock()

	if status != StatusConnected || send == nil {
		c.logger.Debug("emit dropped, not connected", slog.String("event", event))
		return
	}
	env, err := wire.NewEnvelope(event, payload)
	if err != nil {
		c.logger.Error("failed to encode outbound payload", slog.String("event", event), slog.Any("error", err))
		return
	}
	select {
	case send <- env:
	default:
		c.logger.Warn("emit dropped, send queue full", slog.String("event", event))
	}
}

func (c *Channel) run(ctx context.Context) {
	defer c.wg.Done()
	defer func() {
		c.mu.Lock()
		c.running = false
		c.send = nil
		c.mu.Unlock()
		c.setStatus(StatusDisconnected)
	}()

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		c.setStatus(StatusConnecting)

		conn, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			delay := c.backoff(attempt)
			c.logger.Warn("dial failed",
				slog.Int("attempt", attempt),
				slog.Duration("retryIn", delay),
				slog.Any("error", err),
			)
			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return
			}
		}

		send := make(chan wire.Envelope, c.cfg.SendQueueSize)
		c.mu.Lock()
		c.send = send
		c.mu.Unlock()
		c.setStatus(StatusConnected)
		c.logger.Info("connection established")

		sessCtx, sessCancel := context.WithCancel(ctx)
		if c.onConnect != nil {
			c.wg.Add(1)
			go func() {
				defer c.wg.Done()
				c.onConnect(sessCtx)
			}()
		}

		err = c.serve(sessCtx, conn, send)
		sessCancel()

		c.mu.Lock()
		c.send = nil
		c.mu.Unlock()

		if ctx.Err() != nil {
			c.logger.Info("connection closed", slog.Any("reason", ctx.Err()))
			return
		}
		c.logger.Warn("connection lost", slog.Any("error", err))
		// A fresh retry budget after every successful session.
		attempt = 0
	}
	c.logger.Error("reconnect budget exhausted", slog.Int("maxAttempts", c.cfg.MaxAttempts))
}

func (c *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, c.cfg.Endpoint, nil)
	return conn, err
}

// serve pumps the connection until it errors or ctx is cancelled. The read
// side runs on the calling goroutine so inbound envelopes are delivered
// strictly in arrival order.
func (c *Channel) serve(ctx context.Context, conn *websocket.Conn, send chan wire.Envelope) error {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		for {
			select {
			case env := <-send:
				raw, err := json.Marshal(env)
				if err != nil {
					c.logger.Error("failed to encode envelope", slog.Any("error", err))
					continue
				}
				if err := conn.Write(connCtx, websocket.MessageText, raw); err != nil {
					cancel()
					return
				}
			case <-connCtx.Done():
				return
			}
		}
	}()

	var readErr error
	for {
		typ, data, err := conn.Read(connCtx)
		if err != nil {
			readErr = err
			break
		}
		if typ != websocket.MessageText && typ != websocket.MessageBinary {
			continue
		}
		var env wire.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logger.Warn("discarding malformed envelope", slog.Any("error", err))
			continue
		}
		if c.onMessage != nil {
			c.onMessage(env)
		}
	}

	cancel()
	<-writeDone
	conn.Close(websocket.StatusNormalClosure, "")
	return readErr
}

func (c *Channel) backoff(attempt int) time.Duration {
	const ceiling = 30 * time.Second
	// Doubling stops at the ceiling, so a large attempt count cannot
	// overflow the duration into a hot dial loop.
	delay := c.cfg.ReconnectDelay
	for i := 1; i < attempt && delay < ceiling; i++ {
		delay *= 2
	}
	if delay > ceiling {
		delay = ceiling
	}
	return delay
}

func (c *Channel) setStatus(s Status) {
	c.mu.Lock()
	if c.status == s {
		c.mu.Unlock()
		return
	}
	c.status = s
	c.mu.Unlock()

	c.logger.Debug("status changed", slog.String("status", string(s)))
	if c.onStatus != nil {
		c.onStatus(s)
	}
}

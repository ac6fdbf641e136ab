package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/taskhub/realtime/internal/dispatch"
	"github.com/taskhub/realtime/pkg/wire"
)

// ErrHandshakeTimeout means the server never answered the credential within
// the handshake budget. The transport connection itself is still alive.
var ErrHandshakeTimeout = errors.New("authentication handshake timed out")

// AuthError is a rejected credential. It is terminal: retrying with the
// same token is pointless, so the caller must surface it (force re-login).
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication rejected: %s", e.Message)
}

// Emitter is the slice of the transport the authenticator needs.
type Emitter interface {
	Emit(event string, payload any)
}

type outcome struct {
	user wire.User
	err  error
}

// Authenticator presents the bearer credential after every (re)connect and
// waits for the server's verdict. Authentication state is not preserved
// across a disconnect/reconnect cycle, so Run is re-invoked each time the
// channel comes up, before any room join resumes being meaningful.
type Authenticator struct {
	logger   *slog.Logger
	emitter  Emitter
	registry *dispatch.Registry
	token    string
	timeout  time.Duration

	mu            sync.Mutex
	authenticated bool
	user          wire.User
}

func NewAuthenticator(logger *slog.Logger, emitter Emitter, registry *dispatch.Registry, token string, timeout time.Duration) *Authenticator {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Authenticator{
		logger:   logger.With(slog.String("component", "session")),
		emitter:  emitter,
		registry: registry,
		token:    token,
		timeout:  timeout,
	}
}

// Run performs one handshake. On success the session is marked
// authenticated and the server-confirmed user is returned. An AuthError
// leaves the transport connected but the session unauthenticated; it must
// not tear the channel down.
func (a *Authenticator) Run(ctx context.Context) (wire.User, error) {
	a.setState(false, wire.User{})

	result := make(chan outcome, 1)
	unsubOK := a.registry.Subscribe(wire.EventAuthenticated, func(env wire.Envelope) {
		var p wire.AuthenticatedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			a.logger.Warn("malformed authenticated payload", slog.Any("error", err))
			return
		}
		select {
		case result <- outcome{user: p.User}:
		default:
		}
	})
	defer unsubOK()

	unsubErr := a.registry.Subscribe(wire.EventAuthError, func(env wire.Envelope) {
		var p wire.AuthErrorPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			a.logger.Warn("malformed auth_error payload", slog.Any("error", err))
			return
		}
		select {
		case result <- outcome{err: &AuthError{Message: p.Message}}:
		default:
		}
	})
	defer unsubErr()

	a.emitter.Emit(wire.EventAuthenticate, wire.AuthenticatePayload{Token: a.token})

	select {
	case out := <-result:
		if out.err != nil {
			a.logger.Warn("authentication failed", slog.Any("error", out.err))
			return wire.User{}, out.err
		}
		a.setState(true, out.user)
		a.logger.Info("session authenticated", slog.String("userID", out.user.ID))
		return out.user, nil
	case <-time.After(a.timeout):
		return wire.User{}, ErrHandshakeTimeout
	case <-ctx.Done():
		return wire.User{}, ctx.Err()
	}
}

// Reset marks the session unauthenticated; called when the channel drops.
func (a *Authenticator) Reset() {
	a.setState(false, wire.User{})
}

func (a *Authenticator) Authenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.authenticated
}

// User returns the server-confirmed user of the current session, zero when
// unauthenticated.
func (a *Authenticator) User() wire.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.user
}

func (a *Authenticator) setState(authenticated bool, user wire.User) {
	a.mu.Lock()
	a.authenticated = authenticated
	a.user = user
	a.mu.Unlock()
}

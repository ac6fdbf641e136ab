package session_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/taskhub/realtime/internal/dispatch"
	"github.com/taskhub/realtime/internal/session"
	"github.com/taskhub/realtime/pkg/wire"
)

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return slog.New(handler)
}

// scriptedEmitter answers the authenticate emission synchronously, the way
// envelopes come back through the dispatcher on a live channel.
type scriptedEmitter struct {
	registry *dispatch.Registry
	reply    *wire.Envelope
	emitted  []string
}

func (e *scriptedEmitter) Emit(event string, payload any) {
	e.emitted = append(e.emitted, event)
	if event == wire.EventAuthenticate && e.reply != nil {
		e.registry.Dispatch(*e.reply)
	}
}

func mustEnvelope(t *testing.T, event string, payload any) *wire.Envelope {
	t.Helper()
	env, err := wire.NewEnvelope(event, payload)
	if err != nil {
		t.Fatalf("failed to build envelope: %v", err)
	}
	return &env
}

func TestHandshakeSuccess(t *testing.T) {
	logger := newTestLogger()
	registry := dispatch.NewRegistry(logger)
	emitter := &scriptedEmitter{
		registry: registry,
		reply: mustEnvelope(t, wire.EventAuthenticated, wire.AuthenticatedPayload{
			User: wire.User{ID: "u1", DisplayName: "Alice"},
		}),
	}
	a := session.NewAuthenticator(logger, emitter, registry, "token", time.Second)

	user, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("handshake failed: %v", err)
	}
	if user.ID != "u1" {
		t.Errorf("expected confirmed user u1, got %q", user.ID)
	}
	if !a.Authenticated() {
		t.Error("session not marked authenticated")
	}
	if len(emitter.emitted) != 1 || emitter.emitted[0] != wire.EventAuthenticate {
		t.Errorf("expected one authenticate emission, got %v", emitter.emitted)
	}
}

func TestHandshakeRejected(t *testing.T) {
	logger := newTestLogger()
	registry := dispatch.NewRegistry(logger)
	emitter := &scriptedEmitter{
		registry: registry,
		reply:    mustEnvelope(t, wire.EventAuthError, wire.AuthErrorPayload{Message: "token expired"}),
	}
	a := session.NewAuthenticator(logger, emitter, registry, "stale", time.Second)

	_, err := a.Run(context.Background())
	var authErr *session.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if authErr.Message != "token expired" {
		t.Errorf("expected server message carried through, got %q", authErr.Message)
	}
	if a.Authenticated() {
		t.Error("session must stay unauthenticated on auth_error")
	}
}

func TestHandshakeTimeout(t *testing.T) {
	logger := newTestLogger()
	registry := dispatch.NewRegistry(logger)
	emitter := &scriptedEmitter{registry: registry} // server never answers
	a := session.NewAuthenticator(logger, emitter, registry, "token", 20*time.Millisecond)

	_, err := a.Run(context.Background())
	if !errors.Is(err, session.ErrHandshakeTimeout) {
		t.Fatalf("expected ErrHandshakeTimeout, got %v", err)
	}
}

func TestHandshakeCancelled(t *testing.T) {
	logger := newTestLogger()
	registry := dispatch.NewRegistry(logger)
	emitter := &scriptedEmitter{registry: registry}
	a := session.NewAuthenticator(logger, emitter, registry, "token", time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestResetClearsState(t *testing.T) {
	logger := newTestLogger()
	registry := dispatch.NewRegistry(logger)
	emitter := &scriptedEmitter{
		registry: registry,
		reply: mustEnvelope(t, wire.EventAuthenticated, wire.AuthenticatedPayload{
			User: wire.User{ID: "u1"},
		}),
	}
	a := session.NewAuthenticator(logger, emitter, registry, "token", time.Second)
	if _, err := a.Run(context.Background()); err != nil {
		t.Fatalf("handshake failed: %v", err)
	}

	a.Reset()

	if a.Authenticated() {
		t.Error("still authenticated after Reset")
	}
	if a.User().ID != "" {
		t.Error("user survived Reset")
	}
}

func TestHandshakeLeavesNoListenersBehind(t *testing.T) {
	logger := newTestLogger()
	registry := dispatch.NewRegistry(logger)
	emitter := &scriptedEmitter{registry: registry}
	a := session.NewAuthenticator(logger, emitter, registry, "token", 10*time.Millisecond)

	_, _ = a.Run(context.Background())

	if got := registry.ListenerCount(wire.EventAuthenticated); got != 0 {
		t.Errorf("authenticated listener leaked, count=%d", got)
	}
	if got := registry.ListenerCount(wire.EventAuthError); got != 0 {
		t.Errorf("auth_error listener leaked, count=%d", got)
	}
}

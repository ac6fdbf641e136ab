package transport

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestBackoffGrowsExponentially(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewChannel(Config{Endpoint: "ws://localhost/ws", ReconnectDelay: time.Second}, logger)

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second}, // clamped
	}
	for _, tc := range cases {
		if got := c.backoff(tc.attempt); got != tc.want {
			t.Errorf("attempt %d: expected %v, got %v", tc.attempt, tc.want, got)
		}
	}
}

func TestBackoffStaysPositiveForLargeAttempts(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewChannel(Config{Endpoint: "ws://localhost/ws", ReconnectDelay: time.Second}, logger)

	for _, attempt := range []int{40, 63, 64, 65, 1000} {
		got := c.backoff(attempt)
		if got <= 0 {
			t.Fatalf("attempt %d: backoff went non-positive: %v", attempt, got)
		}
		if got > 30*time.Second {
			t.Fatalf("attempt %d: backoff above the ceiling: %v", attempt, got)
		}
	}
}

package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/taskhub/realtime/pkg/config"
)

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return slog.New(handler)
}

func TestLoadDefaults(t *testing.T) {
	// No config file in the working directory: defaults apply.
	cfg, err := config.Load(newTestLogger(), "definitely-missing-config")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Reconnect.Delay != time.Second {
		t.Errorf("expected 1s reconnect delay, got %v", cfg.Reconnect.Delay)
	}
	if cfg.Reconnect.MaxAttempts != 5 {
		t.Errorf("expected 5 max attempts, got %d", cfg.Reconnect.MaxAttempts)
	}
	if cfg.Reconnect.HandshakeTimeout != 20*time.Second {
		t.Errorf("expected 20s handshake timeout, got %v", cfg.Reconnect.HandshakeTimeout)
	}
	if cfg.Notifications.Capacity != 50 {
		t.Errorf("expected notification capacity 50, got %d", cfg.Notifications.Capacity)
	}
	if cfg.Notifications.ToastLimit != 3 {
		t.Errorf("expected toast limit 3, got %d", cfg.Notifications.ToastLimit)
	}
	if cfg.Lists.RecentTasks != 5 || cfg.Lists.RecentComments != 8 || cfg.Lists.RecentActivity != 10 {
		t.Errorf("unexpected recent-list defaults: %+v", cfg.Lists)
	}
}

func TestTokenFromEnvironment(t *testing.T) {
	t.Setenv("TASKHUB_SERVER_TOKEN", "env-bearer-token")

	cfg, err := config.Load(newTestLogger(), "definitely-missing-config")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Token != "env-bearer-token" {
		t.Errorf("TASKHUB_SERVER_TOKEN not honored: Token=%q", cfg.Server.Token)
	}
}

func TestEndpointFromEnvironment(t *testing.T) {
	t.Setenv("TASKHUB_SERVER_ENDPOINT", "wss://env.example.com/ws")

	cfg, err := config.Load(newTestLogger(), "definitely-missing-config")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Endpoint != "wss://env.example.com/ws" {
		t.Errorf("TASKHUB_SERVER_ENDPOINT not honored: Endpoint=%q", cfg.Server.Endpoint)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	body := []byte(`
server:
  endpoint: wss://rt.example.com/ws
reconnect:
  delay: 250ms
  maxAttempts: 8
notifications:
  capacity: 10
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), body, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := config.Load(newTestLogger(), "config")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Endpoint != "wss://rt.example.com/ws" {
		t.Errorf("endpoint not read from file: %q", cfg.Server.Endpoint)
	}
	if cfg.Reconnect.Delay != 250*time.Millisecond {
		t.Errorf("expected 250ms delay, got %v", cfg.Reconnect.Delay)
	}
	if cfg.Reconnect.MaxAttempts != 8 {
		t.Errorf("expected 8 attempts, got %d", cfg.Reconnect.MaxAttempts)
	}
	if cfg.Notifications.Capacity != 10 {
		t.Errorf("expected capacity 10, got %d", cfg.Notifications.Capacity)
	}
	// Untouched keys keep their defaults.
	if cfg.Reconnect.HandshakeTimeout != 20*time.Second {
		t.Errorf("default handshake timeout lost: %v", cfg.Reconnect.HandshakeTimeout)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{"empty endpoint", func(c *config.Config) { c.Server.Endpoint = "" }},
		{"zero delay", func(c *config.Config) { c.Reconnect.Delay = 0 }},
		{"zero attempts", func(c *config.Config) { c.Reconnect.MaxAttempts = 0 }},
		{"zero handshake timeout", func(c *config.Config) { c.Reconnect.HandshakeTimeout = 0 }},
		{"zero capacity", func(c *config.Config) { c.Notifications.Capacity = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &config.Config{
				Server:        config.ServerConfig{Endpoint: "ws://localhost/ws"},
				Reconnect:     config.ReconnectConfig{Delay: time.Second, MaxAttempts: 5, HandshakeTimeout: 20 * time.Second},
				Notifications: config.NotificationConfig{Capacity: 50},
			}
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

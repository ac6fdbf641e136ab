package config

import "time"

type Config struct {
	Server        ServerConfig
	Reconnect     ReconnectConfig
	Notifications NotificationConfig `mapstructure:"notifications"`
	Lists         ListConfig         `mapstructure:"lists"`
}

type ServerConfig struct {
	// Endpoint is the websocket URL of the realtime gateway,
	// e.g. "wss://api.taskhub.dev/ws".
	Endpoint string
	Token    string `mapstructure:"token"`
}

type ReconnectConfig struct {
	Delay            time.Duration `mapstructure:"delay"`
	MaxAttempts      int           `mapstructure:"maxAttempts"`
	HandshakeTimeout time.Duration `mapstructure:"handshakeTimeout"`
}

type NotificationConfig struct {
	Capacity   int `mapstructure:"capacity"`
	ToastLimit int `mapstructure:"toastLimit"`
}

// ListConfig carries the recent-list sizes the UI layer passes through.
type ListConfig struct {
	RecentTasks    int `mapstructure:"recentTasks"`
	RecentComments int `mapstructure:"recentComments"`
	RecentActivity int `mapstructure:"recentActivity"`
}

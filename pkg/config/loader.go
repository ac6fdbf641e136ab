package config

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from a file and environment variables.
func Load(logger *slog.Logger, fileName string) (*Config, error) {
	v := viper.New()

	// 1. Set default values
	v.SetDefault("server.endpoint", "ws://localhost:8080/ws")
	// Registered empty so AutomaticEnv can surface TASKHUB_SERVER_TOKEN;
	// viper only consults the environment for keys it already knows.
	v.SetDefault("server.token", "")
	v.SetDefault("reconnect.delay", "1s")
	v.SetDefault("reconnect.maxAttempts", 5)
	v.SetDefault("reconnect.handshakeTimeout", "20s")
	v.SetDefault("notifications.capacity", 50)
	v.SetDefault("notifications.toastLimit", 3)
	v.SetDefault("lists.recentTasks", 5)
	v.SetDefault("lists.recentComments", 8)
	v.SetDefault("lists.recentActivity", 10)

	// 2. Set config file details
	v.SetConfigName(fileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".") // look for config in the working directory

	// 3. Set up environment variable handling
	v.SetEnvPrefix("TASKHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Read the configuration file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return nil, err
		}
		logger.Warn("Config file not found. ignoring error and relying on defaults/env vars")
	}

	// 5. Unmarshal the configuration into our struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the reconnect loop cannot work with.
func (c *Config) Validate() error {
	if c.Server.Endpoint == "" {
		return errors.New("server.endpoint must not be empty")
	}
	if c.Reconnect.Delay <= 0 {
		return errors.New("reconnect.delay must be positive")
	}
	if c.Reconnect.MaxAttempts < 1 {
		return errors.New("reconnect.maxAttempts must be at least 1")
	}
	if c.Reconnect.HandshakeTimeout <= 0 {
		return errors.New("reconnect.handshakeTimeout must be positive")
	}
	if c.Notifications.Capacity < 1 {
		return errors.New("notifications.capacity must be at least 1")
	}
	return nil
}

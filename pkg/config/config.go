// Copyright 2025 The CargoBuddy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config holds the client configuration. Values come from an
// optional YAML file with environment variable overrides on top.
//
// Order of precedence (highest to lowest):
//  1. Environment variables (CARGOBUDDY_API_URL, CARGOBUDDY_SOCKET_URL, ...)
//  2. Config file values
//  3. Defaults
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// APIConfig configures the HTTP client talking to the backend REST API.
type APIConfig struct {
	// BaseURL is the backend origin, e.g. "http://localhost:3001".
	// Endpoint paths are appended to it.
	BaseURL string `yaml:"baseURL"`
	// RequestTimeout bounds a single HTTP round trip.
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	// InsecureTLS skips certificate verification. Only for local
	// development against self-signed backends.
	InsecureTLS bool `yaml:"insecureTLS"`
}

// SocketConfig configures the realtime event channel.
type SocketConfig struct {
	// URL is the websocket endpoint, e.g. "ws://localhost:3001/socket".
	URL string `yaml:"url"`
	// MaxReconnectAttempts caps consecutive failed reconnects before the
	// channel gives up and reports offline.
	MaxReconnectAttempts uint64 `yaml:"maxReconnectAttempts"`
	// HandshakeTimeout bounds the websocket dial.
	HandshakeTimeout time.Duration `yaml:"handshakeTimeout"`
	// EventBufferSize is the capacity of the inbound event channel.
	EventBufferSize int `yaml:"eventBufferSize"`
}

// NotificationConfig configures the notification center.
type NotificationConfig struct {
	// AutoExpiry is how long a notification stays in the display slot
	// before it is dismissed automatically.
	AutoExpiry time.Duration `yaml:"autoExpiry"`
}

// Config is the full client configuration.
type Config struct {
	API           APIConfig          `yaml:"api"`
	Socket        SocketConfig       `yaml:"socket"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// DefaultConfig returns the configuration used when no file and no
// environment overrides are present.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:        "http://localhost:3001",
			RequestTimeout: 30 * time.Second,
		},
		Socket: SocketConfig{
			URL:                  "ws://localhost:3001/socket",
			MaxReconnectAttempts: 5,
			HandshakeTimeout:     10 * time.Second,
			EventBufferSize:      100,
		},
		Notifications: NotificationConfig{
			AutoExpiry: 6 * time.Second,
		},
	}
}

// Load reads the config file at path (if it exists) and applies
// environment variable overrides. A missing file is not an error, the
// defaults are used instead.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the invariants the rest of the client relies on.
func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.baseURL must not be empty")
	}
	if c.Socket.URL == "" {
		return fmt.Errorf("socket.url must not be empty")
	}
	if c.Socket.EventBufferSize <= 0 {
		return fmt.Errorf("socket.eventBufferSize must be positive, got %d", c.Socket.EventBufferSize)
	}
	if c.Notifications.AutoExpiry <= 0 {
		return fmt.Errorf("notifications.autoExpiry must be positive, got %s", c.Notifications.AutoExpiry)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	cfg.API.BaseURL = getEnvString("CARGOBUDDY_API_URL", cfg.API.BaseURL)
	cfg.Socket.URL = getEnvString("CARGOBUDDY_SOCKET_URL", cfg.Socket.URL)

	attempts, err := getEnvInt("CARGOBUDDY_MAX_RECONNECT_ATTEMPTS", int(cfg.Socket.MaxReconnectAttempts))
	if err != nil {
		return err
	}
	if attempts < 0 {
		return fmt.Errorf("CARGOBUDDY_MAX_RECONNECT_ATTEMPTS must not be negative, got %d", attempts)
	}
	cfg.Socket.MaxReconnectAttempts = uint64(attempts)

	buffer, err := getEnvInt("CARGOBUDDY_EVENT_BUFFER_SIZE", cfg.Socket.EventBufferSize)
	if err != nil {
		return err
	}
	cfg.Socket.EventBufferSize = buffer

	return nil
}

// getEnvString retrieves an environment variable as a string, falling back
// to defaultValue when unset.
func getEnvString(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as an integer, falling back
// to defaultValue when unset.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s must be an integer: %w", key, err)
	}
	return intValue, nil
}

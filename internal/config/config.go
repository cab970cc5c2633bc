// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

// Package config loads Tripsync configuration from defaults, an optional
// YAML file and environment variables (in that order of precedence) using
// koanf v2.
package config

import (
	"net"
	"strconv"
	"time"
)

// Store drivers
const (
	StoreDriverBadger   = "badger"
	StoreDriverPostgres = "postgres"
)

// Auth modes
const (
	AuthModeJWT    = "jwt"
	AuthModeHeader = "header"
	AuthModeNone   = "none"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	WebSocket WebSocketConfig `koanf:"websocket"`
	Store     StoreConfig     `koanf:"store"`
	Redis     RedisConfig     `koanf:"redis"`
	Notify    NotifyConfig    `koanf:"notify"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// WebSocketConfig holds connection-level settings for realtime clients.
type WebSocketConfig struct {
	// SendBuffer is the per-connection outbound queue length. A recipient whose
	// queue is full is evicted instead of blocking the dispatcher.
	SendBuffer int `koanf:"send_buffer"`
	// InboundRate limits client frames (joinGroup, leaveGroup, shareLocation)
	// per second per connection. Burst is the bucket size.
	InboundRate    float64  `koanf:"inbound_rate"`
	InboundBurst   int      `koanf:"inbound_burst"`
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// StoreConfig selects and configures the durable store.
type StoreConfig struct {
	Driver      string `koanf:"driver"`
	BadgerPath  string `koanf:"badger_path"`
	InMemory    bool   `koanf:"in_memory"`
	PostgresDSN string `koanf:"postgres_dsn"`
}

// RedisConfig configures the optional presence mirror.
type RedisConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	// Key is the Redis set holding online user ids; Channel receives a JSON
	// snapshot every time presence changes.
	Key     string `koanf:"key"`
	Channel string `koanf:"channel"`

	WriteTimeout     time.Duration `koanf:"write_timeout"`
	BreakerThreshold uint32        `koanf:"breaker_threshold"`
	BreakerTimeout   time.Duration `koanf:"breaker_timeout"`
}

// NotifyConfig controls retention of read notifications.
type NotifyConfig struct {
	// Retention is how long a read notification is kept. Zero disables the sweeper.
	Retention time.Duration `koanf:"retention"`
	// SweepSchedule is a five-field cron expression.
	SweepSchedule string `koanf:"sweep_schedule"`
}

// SecurityConfig holds authentication and HTTP hardening settings
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"`
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

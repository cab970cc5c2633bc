// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWTSecret = testSecret
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults with secret", func(*Config) {}, ""},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, "HTTP_PORT"},
		{"send buffer zero", func(c *Config) { c.WebSocket.SendBuffer = 0 }, "WS_SEND_BUFFER"},
		{"inbound rate zero", func(c *Config) { c.WebSocket.InboundRate = 0 }, "WS_INBOUND_RATE"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }, "STORE_DRIVER"},
		{"badger without path", func(c *Config) { c.Store.BadgerPath = "" }, "BADGER_PATH"},
		{"badger in memory without path", func(c *Config) {
			c.Store.BadgerPath = ""
			c.Store.InMemory = true
		}, ""},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = StoreDriverPostgres }, "POSTGRES_DSN"},
		{"redis without addr", func(c *Config) {
			c.Redis.Enabled = true
			c.Redis.Addr = ""
		}, "REDIS_ADDR"},
		{"negative retention", func(c *Config) { c.Notify.Retention = -time.Hour }, "NOTIFY_RETENTION"},
		{"bad sweep schedule", func(c *Config) { c.Notify.SweepSchedule = "every day" }, "NOTIFY_SWEEP_SCHEDULE"},
		{"sweeper disabled ignores schedule", func(c *Config) {
			c.Notify.Retention = 0
			c.Notify.SweepSchedule = ""
		}, ""},
		{"short secret", func(c *Config) { c.Security.JWTSecret = "abc" }, "JWT_SECRET"},
		{"header auth in development", func(c *Config) {
			c.Security.AuthMode = AuthModeHeader
			c.Security.JWTSecret = ""
		}, ""},
		{"header auth in production", func(c *Config) {
			c.Security.AuthMode = AuthModeHeader
			c.Server.Environment = "production"
		}, "AUTH_MODE"},
		{"unknown auth mode", func(c *Config) { c.Security.AuthMode = "basic" }, "AUTH_MODE"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestServerConfig_Addr(t *testing.T) {
	s := ServerConfig{Host: "0.0.0.0", Port: 5001}
	if got := s.Addr(); got != "0.0.0.0:5001" {
		t.Errorf("Addr() = %q, want 0.0.0.0:5001", got)
	}
}

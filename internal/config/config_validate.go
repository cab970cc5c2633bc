// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package config

import (
	"fmt"
	"strings"

	"github.com/adhocore/gronx"
)

// minJWTSecretLength is the shortest HS256 secret accepted in jwt mode.
const minJWTSecretLength = 32

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateWebSocket(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateRedis(); err != nil {
		return err
	}
	if err := c.validateNotify(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateWebSocket() error {
	if c.WebSocket.SendBuffer < 1 {
		return fmt.Errorf("WS_SEND_BUFFER must be at least 1, got %d", c.WebSocket.SendBuffer)
	}
	if c.WebSocket.InboundRate <= 0 {
		return fmt.Errorf("WS_INBOUND_RATE must be positive")
	}
	if c.WebSocket.InboundBurst < 1 {
		return fmt.Errorf("WS_INBOUND_BURST must be at least 1, got %d", c.WebSocket.InboundBurst)
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Driver {
	case StoreDriverBadger:
		if !c.Store.InMemory && c.Store.BadgerPath == "" {
			return fmt.Errorf("BADGER_PATH is required when STORE_DRIVER=badger and STORE_INMEMORY=false")
		}
	case StoreDriverPostgres:
		if c.Store.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverBadger, StoreDriverPostgres, c.Store.Driver)
	}
	return nil
}

func (c *Config) validateRedis() error {
	if !c.Redis.Enabled {
		return nil
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required when REDIS_ENABLED=true")
	}
	if c.Redis.Key == "" {
		return fmt.Errorf("REDIS_PRESENCE_KEY must not be empty")
	}
	return nil
}

func (c *Config) validateNotify() error {
	if c.Notify.Retention < 0 {
		return fmt.Errorf("NOTIFY_RETENTION must not be negative")
	}
	if c.Notify.Retention > 0 && !gronx.IsValid(c.Notify.SweepSchedule) {
		return fmt.Errorf("NOTIFY_SWEEP_SCHEDULE %q is not a valid cron expression", c.Notify.SweepSchedule)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	switch c.Security.AuthMode {
	case AuthModeJWT:
		if len(c.Security.JWTSecret) < minJWTSecretLength {
			return fmt.Errorf("JWT_SECRET must be at least %d characters when AUTH_MODE=jwt", minJWTSecretLength)
		}
	case AuthModeHeader, AuthModeNone:
		if strings.EqualFold(c.Server.Environment, "production") {
			return fmt.Errorf("AUTH_MODE=%s is not allowed when ENVIRONMENT=production", c.Security.AuthMode)
		}
	default:
		return fmt.Errorf("AUTH_MODE must be one of jwt, header, none; got %q", c.Security.AuthMode)
	}

	if !c.Security.RateLimitDisabled && c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1 when rate limiting is enabled")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

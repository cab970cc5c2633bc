// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

// Package presence mirrors the hub's online user set to Redis so other
// processes can read it: the set is stored under a key and every change is
// published as a JSON snapshot on a channel.
//
// The mirror is observational only. The hub never waits for it, snapshots
// are coalesced so only the latest one is written, and a circuit breaker
// stops hammering Redis while it is unavailable.
package presence

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/tripsync/internal/config"
	"github.com/tomtom215/tripsync/internal/logging"
	"github.com/tomtom215/tripsync/internal/metrics"
)

const breakerName = "presence-redis"

// defaultRetryDelay spaces out attempts to rewrite a snapshot that failed.
// While the breaker is open the attempts are rejected without touching Redis.
const defaultRetryDelay = time.Second

// Snapshot is the payload published on the presence channel.
type Snapshot struct {
	Online []string  `json:"online"`
	At     time.Time `json:"at"`
}

// RedisMirror implements websocket.PresenceObserver and suture.Service.
type RedisMirror struct {
	client       *redis.Client
	key          string
	channel      string
	writeTimeout time.Duration
	retryDelay   time.Duration
	cb           *gobreaker.CircuitBreaker[struct{}]
	now          func() time.Time
	apply        func(ctx context.Context, ids []string, payload []byte) error

	mu      sync.Mutex
	pending []string
	dirty   bool
	signal  chan struct{}
}

// Connect dials Redis, checks it with PING and returns a mirror for cfg.
func Connect(ctx context.Context, cfg config.RedisConfig) (*RedisMirror, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisMirror(client, cfg), nil
}

// NewRedisMirror wraps an existing client.
func NewRedisMirror(client *redis.Client, cfg config.RedisConfig) *RedisMirror {
	threshold := cfg.BreakerThreshold
	if threshold == 0 {
		threshold = 5
	}
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("component", "presence-mirror").
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("presence mirror circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	m := &RedisMirror{
		client:       client,
		key:          cfg.Key,
		channel:      cfg.Channel,
		writeTimeout: timeout,
		retryDelay:   defaultRetryDelay,
		cb:           cb,
		now:          time.Now,
		signal:       make(chan struct{}, 1),
	}
	m.apply = m.replaceOnlineSet
	return m
}

// OnlineUsersChanged records the latest online set and wakes Serve. It
// never blocks.
func (m *RedisMirror) OnlineUsersChanged(userIDs []string) {
	m.mu.Lock()
	m.pending = slices.Clone(userIDs)
	m.dirty = true
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
}

// take returns the pending snapshot, if any, and clears it.
func (m *RedisMirror) take() ([]string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.dirty {
		return nil, false
	}
	ids := m.pending
	m.pending = nil
	m.dirty = false
	return ids, true
}

// restore puts back a snapshot that could not be written, unless a newer
// one arrived in the meantime.
func (m *RedisMirror) restore(ids []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dirty {
		return
	}
	m.pending = ids
	m.dirty = true
}

// Serve writes snapshots until ctx is canceled. A failed snapshot stays
// pending and is retried every retryDelay until Redis accepts it, so the
// mirror converges after an outage even if presence never changes again.
func (m *RedisMirror) Serve(ctx context.Context) error {
	logging.Info().
		Str("component", "presence-mirror").
		Str("key", m.key).
		Str("channel", m.channel).
		Msg("presence mirror started")

	var (
		retry   *time.Timer
		retryCh <-chan time.Time
		failing bool
	)
	defer func() {
		if retry != nil {
			retry.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.signal:
		case <-retryCh:
			retryCh = nil
		}

		ids, ok := m.take()
		if !ok {
			continue
		}

		if err := m.write(ctx, ids); err != nil {
			m.restore(ids)
			if !failing {
				logging.Warn().Err(err).Str("component", "presence-mirror").Int("online", len(ids)).Msg("presence snapshot not mirrored, retrying")
				failing = true
			}
			if retryCh == nil {
				if retry == nil {
					retry = time.NewTimer(m.retryDelay)
				} else {
					retry.Reset(m.retryDelay)
				}
				retryCh = retry.C
			}
			continue
		}

		if failing {
			logging.Info().Str("component", "presence-mirror").Int("online", len(ids)).Msg("presence mirror recovered")
			failing = false
		}
	}
}

// write replaces the online set and publishes the snapshot in one
// transaction, guarded by the breaker.
func (m *RedisMirror) write(ctx context.Context, ids []string) error {
	payload, err := json.Marshal(Snapshot{Online: ids, At: m.now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = m.cb.Execute(func() (struct{}, error) {
		wctx, cancel := context.WithTimeout(ctx, m.writeTimeout)
		defer cancel()
		return struct{}{}, m.apply(wctx, ids, payload)
	})
	if err != nil {
		metrics.PresenceMirrorErrors.Inc()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("circuit open: %w", err)
		}
		return fmt.Errorf("mirror presence: %w", err)
	}

	metrics.PresenceMirrorWrites.Inc()
	return nil
}

// replaceOnlineSet swaps the online set and publishes the snapshot in one
// MULTI/EXEC.
func (m *RedisMirror) replaceOnlineSet(ctx context.Context, ids []string, payload []byte) error {
	_, err := m.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, m.key)
		if len(ids) > 0 {
			members := make([]interface{}, len(ids))
			for i, id := range ids {
				members[i] = id
			}
			pipe.SAdd(ctx, m.key, members...)
		}
		pipe.Publish(ctx, m.channel, payload)
		return nil
	})
	return err
}

// Close closes the Redis client.
func (m *RedisMirror) Close() error {
	return m.client.Close()
}

// String returns the service name for supervisor logs.
func (m *RedisMirror) String() string {
	return "presence-mirror"
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

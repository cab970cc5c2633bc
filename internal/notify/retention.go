// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"github.com/tomtom215/tripsync/internal/logging"
)

// RetentionStore deletes old read notifications.
type RetentionStore interface {
	DeleteReadNotificationsBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Sweeper deletes read notifications older than the retention period on a
// cron schedule. Unread notifications are never removed.
type Sweeper struct {
	store     RetentionStore
	retention time.Duration
	schedule  string
	now       func() time.Time
}

// NewSweeper validates the cron expression and creates a Sweeper.
func NewSweeper(store RetentionStore, retention time.Duration, schedule string) (*Sweeper, error) {
	if retention <= 0 {
		return nil, fmt.Errorf("retention must be positive, got %v", retention)
	}
	if !gronx.IsValid(schedule) {
		return nil, fmt.Errorf("invalid sweep schedule %q", schedule)
	}
	return &Sweeper{
		store:     store,
		retention: retention,
		schedule:  schedule,
		now:       time.Now,
	}, nil
}

// SweepOnce deletes everything eligible right now and returns the count.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	cutoff := s.now().UTC().Add(-s.retention)
	n, err := s.store.DeleteReadNotificationsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep notifications: %w", err)
	}

	logging.Info().
		Str("component", "notify-retention").
		Time("cutoff", cutoff).
		Int("deleted", n).
		Msg("notification retention sweep complete")
	return n, nil
}

// Serve runs sweeps at each scheduled tick until ctx is canceled.
// It implements suture.Service.
func (s *Sweeper) Serve(ctx context.Context) error {
	logging.Info().
		Str("component", "notify-retention").
		Str("schedule", s.schedule).
		Dur("retention", s.retention).
		Msg("notification retention sweeper started")

	for {
		next, err := gronx.NextTickAfter(s.schedule, s.now().UTC(), false)
		if err != nil {
			return fmt.Errorf("next sweep tick: %w", err)
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if _, err := s.SweepOnce(ctx); err != nil {
			logging.Error().Err(err).Str("component", "notify-retention").Msg("notification retention sweep failed")
		}
	}
}

// String returns the service name for supervisor logs.
func (s *Sweeper) String() string {
	return "notify-retention"
}

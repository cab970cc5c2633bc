// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

// Package notify turns domain events into persisted notification records and
// pushes each record to its recipient's live connection.
//
// Records are written before anything is pushed, and all of them in one store
// call: if the write fails nothing is dispatched, so a client never sees a
// notification that a later reload would not show.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/tripsync/internal/logging"
	"github.com/tomtom215/tripsync/internal/metrics"
	"github.com/tomtom215/tripsync/internal/models"
	"github.com/tomtom215/tripsync/internal/websocket"
)

// Store is the part of the durable store the materializer needs.
type Store interface {
	CreateNotifications(ctx context.Context, notifications []models.Notification) error
	ListNotifications(ctx context.Context, userID string) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) (*models.Notification, error)
	MarkAllNotificationsRead(ctx context.Context, userID string) (int, error)
	CountUnreadNotifications(ctx context.Context, userID string) (int, error)
}

// Dispatcher delivers live events. *websocket.Hub implements it.
type Dispatcher interface {
	Dispatch(event string, payload interface{}, scope websocket.Scope) int
}

// Materializer persists and pushes notifications.
type Materializer struct {
	store      Store
	dispatcher Dispatcher
	now        func() time.Time
	newID      func() string
}

// NewMaterializer creates a Materializer.
func NewMaterializer(store Store, dispatcher Dispatcher) *Materializer {
	return &Materializer{
		store:      store,
		dispatcher: dispatcher,
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
	}
}

// Notify creates one unread notification per recipient, persists the batch
// and then dispatches each record to its recipient. Empty and repeated
// recipient ids are skipped. On a store error nothing is dispatched.
func (m *Materializer) Notify(ctx context.Context, recipients []string, notificationType, title, message string) ([]models.Notification, error) {
	now := m.now().UTC()
	seen := make(map[string]struct{}, len(recipients))
	records := make([]models.Notification, 0, len(recipients))

	for _, userID := range recipients {
		if userID == "" {
			continue
		}
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}

		records = append(records, models.Notification{
			ID:        m.newID(),
			UserID:    userID,
			Type:      notificationType,
			Title:     title,
			Message:   message,
			Read:      false,
			CreatedAt: now,
		})
	}

	if len(records) == 0 {
		return nil, nil
	}

	if err := m.store.CreateNotifications(ctx, records); err != nil {
		metrics.NotificationWriteFailures.Inc()
		logging.Ctx(ctx).Error().
			Err(err).
			Str("component", "notify").
			Str("type", notificationType).
			Int("recipients", len(records)).
			Msg("failed to persist notifications")
		return nil, fmt.Errorf("persist notifications: %w", err)
	}
	metrics.NotificationsCreated.WithLabelValues(notificationType).Add(float64(len(records)))

	for i := range records {
		m.dispatcher.Dispatch(websocket.EventNotification, records[i], websocket.UserScope(records[i].UserID))
	}

	logging.Ctx(ctx).Debug().
		Str("component", "notify").
		Str("type", notificationType).
		Int("recipients", len(records)).
		Msg("notifications materialized")

	return records, nil
}

// List returns userID's notifications, newest first.
func (m *Materializer) List(ctx context.Context, userID string) ([]models.Notification, error) {
	return m.store.ListNotifications(ctx, userID)
}

// MarkRead marks one of userID's notifications as read. A notification owned
// by someone else is reported as store.ErrNotFound.
func (m *Materializer) MarkRead(ctx context.Context, userID, id string) (*models.Notification, error) {
	return m.store.MarkNotificationRead(ctx, userID, id)
}

// MarkAllRead marks all of userID's notifications as read.
func (m *Materializer) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return m.store.MarkAllNotificationsRead(ctx, userID)
}

// UnreadCount returns the number of unread notifications for userID.
func (m *Materializer) UnreadCount(ctx context.Context, userID string) (int, error) {
	return m.store.CountUnreadNotifications(ctx, userID)
}

// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

// Package actions implements the state-changing operations behind the REST
// API. Each action validates its input, writes to the durable store and only
// then fans the change out: live events through the hub and persisted
// notifications through the materializer.
//
// A failed store write aborts the action before anything is dispatched.
// Notification failures after a successful write are logged and do not fail
// the action, since the primary record already exists.
package actions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/tripsync/internal/logging"
	"github.com/tomtom215/tripsync/internal/models"
	"github.com/tomtom215/tripsync/internal/notify"
	"github.com/tomtom215/tripsync/internal/reaction"
	"github.com/tomtom215/tripsync/internal/store"
	"github.com/tomtom215/tripsync/internal/websocket"
)

var (
	// ErrNotMember is returned when the caller is not a member of the group
	// the action targets.
	ErrNotMember = errors.New("not a member of this group")

	// ErrAlreadyMember is returned when adding a user who is already a member.
	ErrAlreadyMember = errors.New("user is already a member of this group")

	// ErrMemberNotFound is returned when removing a user who is not in the
	// group. It wraps store.ErrNotFound.
	ErrMemberNotFound = fmt.Errorf("member not found in group: %w", store.ErrNotFound)

	// ErrNotGroupAdmin is returned when a member other than the group admin
	// removes someone else.
	ErrNotGroupAdmin = errors.New("only the group admin can remove other members")

	// ErrNotOwner is returned when the caller did not create the record.
	ErrNotOwner = errors.New("only the creator can change this expense")

	// ErrNotParticipant is returned when the caller is neither side of a
	// direct message.
	ErrNotParticipant = errors.New("not a participant in this conversation")

	// ErrInvalidSplit is returned for a split with duplicate users, users
	// outside the group or shares above the expense amount.
	ErrInvalidSplit = errors.New("invalid expense split")
)

// Dispatcher delivers live events. *websocket.Hub implements it.
type Dispatcher interface {
	Dispatch(event string, payload interface{}, scope websocket.Scope) int
}

// Service runs actions against a store and fans results out.
type Service struct {
	store      store.Store
	dispatcher Dispatcher
	notifier   *notify.Materializer
	reactions  *reaction.Aggregator
	now        func() time.Time
	newID      func() string
}

// NewService wires a Service. The same dispatcher is shared with the
// notification materializer and the reaction aggregator.
func NewService(s store.Store, dispatcher Dispatcher) *Service {
	return &Service{
		store:      s,
		dispatcher: dispatcher,
		notifier:   notify.NewMaterializer(s, dispatcher),
		reactions:  reaction.NewAggregator(s, dispatcher),
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
	}
}

// Notifications exposes the notification read path.
func (s *Service) Notifications() *notify.Materializer {
	return s.notifier
}

// memberGroup loads groupID and checks that userID belongs to it.
func (s *Service) memberGroup(ctx context.Context, groupID, userID string) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(userID) {
		return nil, ErrNotMember
	}
	return group, nil
}

// roomLeaver is implemented by *websocket.Hub. Dispatchers without it skip
// room cleanup.
type roomLeaver interface {
	Lookup(userID string) (*websocket.Client, bool)
	Leave(client *websocket.Client, roomID string)
}

// leaveRoom drops the live connections of userIDs from a group's room.
func (s *Service) leaveRoom(groupID string, userIDs ...string) {
	hub, ok := s.dispatcher.(roomLeaver)
	if !ok {
		return
	}
	for _, id := range userIDs {
		if client, online := hub.Lookup(id); online {
			hub.Leave(client, groupID)
		}
	}
}

// logNotifyFailure records a notification batch that could not be written
// after its triggering action succeeded.
func logNotifyFailure(ctx context.Context, action string, err error) {
	if err == nil {
		return
	}
	logging.Ctx(ctx).Warn().
		Err(err).
		Str("component", "actions").
		Str("action", action).
		Msg("action succeeded but notifications were not created")
}

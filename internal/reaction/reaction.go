// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

// Package reaction implements per-user emoji reactions on messages.
//
// Adding and removing a reaction share one toggle path: a user already
// listed under an emoji is removed, otherwise added. The updated list is
// persisted and, for group messages, pushed to the group's room.
package reaction

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/tomtom215/tripsync/internal/logging"
	"github.com/tomtom215/tripsync/internal/metrics"
	"github.com/tomtom215/tripsync/internal/models"
	"github.com/tomtom215/tripsync/internal/websocket"
)

// Toggle results
const (
	ActionAdded   = "added"
	ActionRemoved = "removed"
)

// lockStripes bounds the number of mutexes guarding load-toggle-persist.
const lockStripes = 64

// Toggle returns a new reaction list with user toggled under emoji. The
// input slice and its entries are not modified. Entries left without users
// are removed, and each Count equals len(UserIDs).
func Toggle(reactions []models.Reaction, emoji, user string) []models.Reaction {
	out, _ := toggle(reactions, emoji, user)
	return out
}

func toggle(reactions []models.Reaction, emoji, user string) ([]models.Reaction, string) {
	out := make([]models.Reaction, 0, len(reactions)+1)
	action := ActionAdded
	found := false

	for _, r := range reactions {
		if r.Emoji != emoji {
			out = append(out, copyReaction(r))
			continue
		}
		found = true

		if slices.Contains(r.UserIDs, user) {
			action = ActionRemoved
			users := slices.DeleteFunc(slices.Clone(r.UserIDs), func(u string) bool { return u == user })
			if len(users) == 0 {
				continue
			}
			out = append(out, models.Reaction{Emoji: emoji, UserIDs: users, Count: len(users)})
			continue
		}

		users := append(slices.Clone(r.UserIDs), user)
		out = append(out, models.Reaction{Emoji: emoji, UserIDs: users, Count: len(users)})
	}

	if !found {
		out = append(out, models.Reaction{Emoji: emoji, UserIDs: []string{user}, Count: 1})
	}
	return out, action
}

func copyReaction(r models.Reaction) models.Reaction {
	users := slices.Clone(r.UserIDs)
	return models.Reaction{Emoji: r.Emoji, UserIDs: users, Count: len(users)}
}

// Store is the part of the durable store the aggregator needs.
type Store interface {
	GetMessage(ctx context.Context, id string) (*models.Message, error)
	UpdateReactions(ctx context.Context, messageID string, reactions []models.Reaction, at time.Time) error
}

// Dispatcher delivers live events. *websocket.Hub implements it.
type Dispatcher interface {
	Dispatch(event string, payload interface{}, scope websocket.Scope) int
}

// Aggregator applies reaction toggles to stored messages.
type Aggregator struct {
	store      Store
	dispatcher Dispatcher
	now        func() time.Time
	locks      [lockStripes]sync.Mutex
}

// NewAggregator creates an Aggregator.
func NewAggregator(store Store, dispatcher Dispatcher) *Aggregator {
	return &Aggregator{
		store:      store,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// Toggle flips user's emoji reaction on messageID and returns the updated
// message. A missing message returns store.ErrNotFound. Nothing is pushed if
// the update fails, and direct-message reactions are never pushed.
func (a *Aggregator) Toggle(ctx context.Context, messageID, emoji, user string) (*models.Message, error) {
	mu := &a.locks[xxhash.Sum64String(messageID)%lockStripes]
	mu.Lock()
	defer mu.Unlock()

	msg, err := a.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("load message %s: %w", messageID, err)
	}

	reactions, action := toggle(msg.Reactions, emoji, user)
	now := a.now().UTC()
	if err := a.store.UpdateReactions(ctx, messageID, reactions, now); err != nil {
		return nil, fmt.Errorf("update reactions on %s: %w", messageID, err)
	}
	metrics.ReactionToggles.WithLabelValues(action).Inc()

	msg.Reactions = reactions
	msg.UpdatedAt = now

	logging.Ctx(ctx).Debug().
		Str("component", "reaction").
		Str("message_id", messageID).
		Str("emoji", emoji).
		Str("action", action).
		Msg("reaction toggled")

	if msg.IsGroupMessage() {
		a.dispatcher.Dispatch(websocket.EventMessageReaction, models.ReactionUpdate{
			MessageID: messageID,
			Reactions: reactions,
		}, websocket.RoomScope(msg.GroupID))
	}
	return msg, nil
}

// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/tripsync/internal/logging"
	"github.com/tomtom215/tripsync/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

const (
	defaultSendBuffer   = 256
	defaultInboundRate  = 10
	defaultInboundBurst = 20
)

// PresenceObserver is told about every change of the online user set.
// Implementations must not block; the hub calls them after releasing its lock.
type PresenceObserver interface {
	OnlineUsersChanged(userIDs []string)
}

// Option configures a Hub.
type Option func(*Hub)

// WithSendBuffer sets the per-connection outbound queue length.
func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithInboundLimit sets the per-connection inbound frame rate and burst.
func WithInboundLimit(perSecond float64, burst int) Option {
	return func(h *Hub) {
		if perSecond > 0 && burst > 0 {
			h.inboundRate = perSecond
			h.inboundBurst = burst
		}
	}
}

// WithPresenceObserver registers an observer for online-set changes.
func WithPresenceObserver(o PresenceObserver) Option {
	return func(h *Hub) {
		if o != nil {
			h.observers = append(h.observers, o)
		}
	}
}

// Hub is the presence and room registry and the single fan-out point for
// outbound events. The zero value is not usable; use NewHub.
type Hub struct {
	clients  map[*Client]bool
	presence map[string]*Client
	rooms    map[string]map[*Client]struct{}

	observers    []PresenceObserver
	sendBuffer   int
	inboundRate  float64
	inboundBurst int

	mu sync.RWMutex
}

// NewHub creates a new Hub
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clients:      make(map[*Client]bool),
		presence:     make(map[string]*Client),
		rooms:        make(map[string]map[*Client]struct{}),
		sendBuffer:   defaultSendBuffer,
		inboundRate:  defaultInboundRate,
		inboundBurst: defaultInboundBurst,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RunWithContext blocks until ctx is canceled, then closes every connection
// and returns ctx.Err(). It is supervised by suture; connections register
// through Connect and Disconnect, which are safe to call whether or not the
// hub is running.
func (h *Hub) RunWithContext(ctx context.Context) error {
	log := logging.WithComponent("websocket-hub")
	log.Info().Msg("websocket hub started")
	<-ctx.Done()
	h.logGracefulShutdown(ctx, &log)
	return ctx.Err()
}

// Connect registers a connection. A non-empty user id overwrites the
// presence entry for that user (last-connect-wins). Every connection then
// receives the new online set as getOnlineUsers.
func (h *Hub) Connect(client *Client) {
	h.mu.Lock()
	if client.closed {
		h.mu.Unlock()
		return
	}
	h.clients[client] = true

	if client.userID != "" {
		if prev, ok := h.presence[client.userID]; ok && prev != client {
			logging.Debug().
				Str("user_id", client.userID).
				Uint64("previous_client", prev.id).
				Uint64("client", client.id).
				Msg("presence entry replaced by newer connection")
		}
		h.presence[client.userID] = client
	}

	online := h.onlineUsersLocked()
	stalled := h.publishOnlineUsersLocked(online)
	total := len(h.clients)
	h.mu.Unlock()

	metrics.UpdateConnectionGauges(total, len(online))
	logging.Info().
		Str("user_id", client.userID).
		Int("total_clients", total).
		Msg("websocket client connected")

	h.notifyObservers(online)
	h.evict(stalled)
}

// Disconnect removes a connection from the registry and every room it
// joined, then re-broadcasts the online set. The presence entry for the
// connection's user is removed only when this connection still owns it.
// Disconnecting an unknown or already removed connection is a no-op.
func (h *Hub) Disconnect(client *Client) {
	h.mu.Lock()
	if !h.removeLocked(client) {
		h.mu.Unlock()
		return
	}

	online := h.onlineUsersLocked()
	stalled := h.publishOnlineUsersLocked(online)
	total := len(h.clients)
	h.mu.Unlock()

	metrics.UpdateConnectionGauges(total, len(online))
	logging.Info().
		Str("user_id", client.userID).
		Int("total_clients", total).
		Msg("websocket client disconnected")

	h.notifyObservers(online)
	h.evict(stalled)
}

// Lookup returns the connection currently registered for userID.
func (h *Hub) Lookup(userID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.presence[userID]
	return c, ok
}

// OnlineUsers returns the sorted ids of every user with a live connection.
func (h *Hub) OnlineUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.onlineUsersLocked()
}

// Join adds the connection to a room. Joining twice is a no-op, as is
// joining with a connection the hub does not know.
func (h *Hub) Join(client *Client, roomID string) {
	if roomID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] {
		return
	}

	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[roomID] = members
	}
	members[client] = struct{}{}
	client.rooms[roomID] = struct{}{}
}

// Leave removes the connection from a room. Leaving a room the connection
// never joined is a no-op. Empty rooms are dropped.
func (h *Hub) Leave(client *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(client, roomID)
}

// RoomSize returns the number of connections joined to roomID.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// InRoom reports whether the connection is joined to roomID.
func (h *Hub) InRoom(client *Client, roomID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[roomID][client]
	return ok
}

// Dispatch queues an event to every connection matched by scope and returns
// the number of connections it was queued to. It never blocks and never
// retries: a user without a live connection simply misses the event, and a
// connection whose queue is full is evicted without affecting the others.
func (h *Hub) Dispatch(event string, payload interface{}, scope Scope) int {
	msg := Message{Type: event, Data: payload}

	h.mu.RLock()
	targets := h.resolveLocked(scope)
	delivered, stalled := enqueue(targets, msg)
	h.mu.RUnlock()

	metrics.RecordDispatch(scope.Kind.String(), event, delivered)
	if len(targets) == 0 {
		if scope.Kind == ScopeUser {
			metrics.RecordDispatchDrop(metrics.DropReasonOffline)
		} else {
			metrics.RecordDispatchDrop(metrics.DropReasonNoRecipient)
		}
		logging.Debug().Str("event", event).Str("scope", scope.String()).Msg("no live recipient for event")
	}

	h.evict(stalled)
	return delivered
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// resolveLocked returns the target connections sorted by id. Caller holds mu.
func (h *Hub) resolveLocked(scope Scope) []*Client {
	var targets []*Client

	switch scope.Kind {
	case ScopeUser:
		if c, ok := h.presence[scope.ID]; ok && scope.ID != "" {
			targets = append(targets, c)
		}
	case ScopeRoom:
		targets = make([]*Client, 0, len(h.rooms[scope.ID]))
		for c := range h.rooms[scope.ID] {
			targets = append(targets, c)
		}
	default:
		targets = make([]*Client, 0, len(h.clients))
		for c := range h.clients {
			targets = append(targets, c)
		}
	}

	// DETERMINISM: map iteration order is random, client ids are monotonic.
	sort.Slice(targets, func(i, j int) bool {
		return targets[i].id < targets[j].id
	})
	return targets
}

// enqueue performs a non-blocking send to each target. Caller holds mu (read
// or write), which guarantees no target's send channel is closed concurrently.
func enqueue(targets []*Client, msg Message) (delivered int, stalled []*Client) {
	for _, c := range targets {
		if c.closed {
			continue
		}
		select {
		case c.send <- msg:
			delivered++
		default:
			stalled = append(stalled, c)
			metrics.RecordDispatchDrop(metrics.DropReasonQueueFull)
		}
	}
	return delivered, stalled
}

// publishOnlineUsersLocked queues getOnlineUsers to every connection while
// the write lock is held, so snapshots reach each connection in mutation order.
func (h *Hub) publishOnlineUsersLocked(online []string) []*Client {
	targets := h.resolveLocked(BroadcastScope())
	delivered, stalled := enqueue(targets, Message{Type: EventGetOnlineUsers, Data: online})
	metrics.RecordDispatch(ScopeBroadcast.String(), EventGetOnlineUsers, delivered)
	return stalled
}

// evict disconnects connections that could not keep up.
func (h *Hub) evict(stalled []*Client) {
	for _, c := range stalled {
		logging.Warn().
			Uint64("client", c.id).
			Str("user_id", c.userID).
			Msg("send queue full, evicting websocket client")
		h.Disconnect(c)
	}
}

// removeLocked drops a connection from every index and closes its queue.
// It returns false when the connection was not registered. Caller holds mu.
func (h *Hub) removeLocked(client *Client) bool {
	if !h.clients[client] {
		return false
	}
	delete(h.clients, client)

	for roomID := range client.rooms {
		h.leaveLocked(client, roomID)
	}

	if client.userID != "" && h.presence[client.userID] == client {
		delete(h.presence, client.userID)
	}

	if !client.closed {
		client.closed = true
		close(client.send)
	}
	return true
}

func (h *Hub) leaveLocked(client *Client, roomID string) {
	delete(client.rooms, roomID)

	members, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(members, client)
	if len(members) == 0 {
		delete(h.rooms, roomID)
	}
}

func (h *Hub) onlineUsersLocked() []string {
	users := make([]string, 0, len(h.presence))
	for id := range h.presence {
		users = append(users, id)
	}
	sort.Strings(users)
	return users
}

func (h *Hub) notifyObservers(online []string) {
	for _, o := range h.observers {
		o.OnlineUsersChanged(online)
	}
}

// logGracefulShutdown closes all clients and logs without an error field;
// context cancellation is the expected shutdown path.
func (h *Hub) logGracefulShutdown(ctx context.Context, log *zerolog.Logger) {
	clientCount := h.closeAllClients()

	log.Info().
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if ctx.Err() == context.DeadlineExceeded {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// closeAllClients closes every connection in id order and clears the registry.
func (h *Hub) closeAllClients() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, c := range clients {
		h.removeLocked(c)
	}
	metrics.UpdateConnectionGauges(0, 0)
	return len(clients)
}

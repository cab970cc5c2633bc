// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package websocket

import (
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/tripsync/internal/logging"
	"github.com/tomtom215/tripsync/internal/metrics"
	"github.com/tomtom215/tripsync/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024 // 64 KB
)

// clientIDCounter generates unique, monotonically increasing IDs for clients.
// DETERMINISM: fan-out iterates recipients in id order.
var clientIDCounter atomic.Uint64

// Client is a middleman between the websocket connection and the hub
type Client struct {
	id     uint64
	userID string
	hub    *Hub
	conn   *websocket.Conn
	send   chan Message

	// rooms and closed are guarded by hub.mu.
	rooms  map[string]struct{}
	closed bool

	limiter *rate.Limiter
	now     func() time.Time
}

// NewClient creates a Client for conn. An empty userID yields an anonymous
// connection that receives broadcast and room events but is never listed
// in presence.
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		id:      clientIDCounter.Add(1),
		userID:  userID,
		hub:     hub,
		conn:    conn,
		send:    make(chan Message, hub.sendBuffer),
		rooms:   make(map[string]struct{}),
		limiter: rate.NewLimiter(rate.Limit(hub.inboundRate), hub.inboundBurst),
		now:     time.Now,
	}
}

// ID returns the client's unique identifier for deterministic ordering
func (c *Client) ID() uint64 {
	return c.id
}

// UserID returns the user id supplied at connect time, or "".
func (c *Client) UserID() string {
	return c.userID
}

// readPump pumps frames from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.Disconnect(c)
		_ = c.conn.Close() // best-effort cleanup
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error().Err(err).Str("user_id", c.userID).Msg("unexpected websocket close error")
			}
			break
		}
		c.handleFrame(data)
	}
}

// handleFrame decodes and applies one inbound frame. Malformed, unknown and
// rate-limited frames are dropped; the connection stays open.
func (c *Client) handleFrame(data []byte) {
	if !c.limiter.Allow() {
		metrics.WSInboundRejected.WithLabelValues("rate_limited").Inc()
		logging.Warn().Str("user_id", c.userID).Uint64("client", c.id).Msg("inbound websocket frame rate limited")
		return
	}

	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		metrics.WSInboundRejected.WithLabelValues("malformed").Inc()
		logging.Warn().Err(err).Uint64("client", c.id).Msg("malformed websocket frame")
		return
	}
	metrics.WSMessagesReceived.WithLabelValues(frame.Type).Inc()

	switch frame.Type {
	case EventJoinGroup, EventLeaveGroup:
		var groupID string
		if err := json.Unmarshal(frame.Data, &groupID); err != nil || groupID == "" {
			metrics.WSInboundRejected.WithLabelValues("invalid_payload").Inc()
			logging.Warn().Str("type", frame.Type).Uint64("client", c.id).Msg("group id must be a non-empty string")
			return
		}
		if frame.Type == EventJoinGroup {
			c.hub.Join(c, groupID)
		} else {
			c.hub.Leave(c, groupID)
		}
		logging.Debug().Str("user_id", c.userID).Str("type", frame.Type).Str("group_id", groupID).Msg("room membership changed")

	case EventShareLocation:
		var req ShareLocationRequest
		if err := json.Unmarshal(frame.Data, &req); err != nil {
			metrics.WSInboundRejected.WithLabelValues("invalid_payload").Inc()
			logging.Warn().Err(err).Uint64("client", c.id).Msg("invalid shareLocation payload")
			return
		}
		c.shareLocation(req)

	case MessageTypePing:
		c.hub.mu.RLock()
		if !c.closed {
			select {
			case c.send <- Message{Type: MessageTypePong}:
			default:
			}
		}
		c.hub.mu.RUnlock()

	default:
		logging.Debug().Str("type", frame.Type).Uint64("client", c.id).Msg("ignoring unknown websocket frame")
	}
}

// shareLocation relays a location to the group room, or to everyone when no
// group is given. Locations are never stored.
func (c *Client) shareLocation(req ShareLocationRequest) {
	update := models.LocationUpdate{
		UserID:    c.userID,
		Location:  req.Location,
		Timestamp: c.now().UTC(),
	}

	scope := BroadcastScope()
	if req.GroupID != "" {
		scope = RoomScope(req.GroupID)
	}
	c.hub.Dispatch(EventLocationUpdate, update, scope)
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // best-effort cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}

			if !ok {
				// The hub closed the channel
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logging.Debug().Err(err).Msg("failed to write close message")
				}
				return
			}

			payload, err := MarshalMessage(message)
			if err != nil {
				logging.Error().Err(err).Str("type", message.Type).Msg("failed to encode websocket message")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logging.Debug().Err(err).Str("user_id", c.userID).Msg("failed to write websocket message")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start begins reading and writing for the client. The client must already
// be registered with Hub.Connect.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

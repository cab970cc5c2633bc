// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/tripsync/internal/actions"
	"github.com/tomtom215/tripsync/internal/auth"
	"github.com/tomtom215/tripsync/internal/config"
	"github.com/tomtom215/tripsync/internal/logging"
	ws "github.com/tomtom215/tripsync/internal/websocket"
)

// Pinger reports durable store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files by resource:
//   - handlers_health.go: health, presence and the WebSocket upgrade
//   - handlers_messages.go: direct and group messages, reactions
//   - handlers_groups.go: groups and members
//   - handlers_expenses.go: expenses and trips
//   - handlers_notifications.go: notification read path
type Handler struct {
	config    *config.Config
	wsHub     *ws.Hub
	service   *actions.Service
	store     Pinger
	startTime time.Time
}

// NewHandler creates the API handler. store may be nil, in which case
// /health does not check the durable store.
func NewHandler(cfg *config.Config, hub *ws.Hub, service *actions.Service, store Pinger) *Handler {
	return &Handler{
		config:    cfg,
		wsHub:     hub,
		service:   service,
		store:     store,
		startTime: time.Now(),
	}
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins against
// websocket.allowed_origins, falling back to the CORS origins.
// A missing Origin header is only accepted when "*" is allowed.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	if h.config == nil {
		return true
	}

	allowed := h.config.WebSocket.AllowedOrigins
	if len(allowed) == 0 {
		allowed = h.config.Security.CORSOrigins
	}

	for _, allowedOrigin := range allowed {
		if allowedOrigin == "*" {
			return true
		}
		if origin != "" && allowedOrigin == origin {
			return true
		}
	}

	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}
	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// callerID returns the authenticated caller, set by auth.Middleware.
func callerID(r *http.Request) string {
	return auth.UserIDFromContext(r.Context())
}

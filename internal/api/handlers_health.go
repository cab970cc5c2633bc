// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/tripsync/internal/auth"
	"github.com/tomtom215/tripsync/internal/logging"
	"github.com/tomtom215/tripsync/internal/models"
	ws "github.com/tomtom215/tripsync/internal/websocket"
)

// HealthStatus is the /health payload.
type HealthStatus struct {
	Status           string  `json:"status"`
	StoreConnected   bool    `json:"store_connected"`
	ConnectedClients int     `json:"connected_clients"`
	OnlineUsers      int     `json:"online_users"`
	Uptime           float64 `json:"uptime_seconds"`
}

// PresenceResponse is the /api/v1/presence payload.
type PresenceResponse struct {
	Online []string `json:"online"`
	Count  int      `json:"count"`
}

// Health reports liveness, store connectivity and connection counts. A
// store failure degrades the status but still answers 200.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	status := HealthStatus{
		Status:         "healthy",
		StoreConnected: true,
		Uptime:         time.Since(h.startTime).Seconds(),
	}

	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("store health check failed")
			status.Status = "degraded"
			status.StoreConnected = false
		}
	}

	if h.wsHub != nil {
		status.ConnectedClients = h.wsHub.GetClientCount()
		status.OnlineUsers = len(h.wsHub.OnlineUsers())
	}

	respondSuccess(w, r, http.StatusOK, status, start)
}

// Presence lists the user ids with at least one live connection.
func (h *Handler) Presence(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	online := h.wsHub.OnlineUsers()
	respondSuccess(w, r, http.StatusOK, PresenceResponse{Online: online, Count: len(online)}, start)
}

// WebSocket upgrades the request and registers the connection with the
// hub. The userId query parameter names the connection's user; when the
// request is authenticated it must match the caller.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "WebSocket service unavailable", nil)
		return
	}

	userID := r.URL.Query().Get("userId")
	if caller := auth.UserIDFromContext(r.Context()); caller != "" {
		if userID == "" {
			userID = caller
		} else if userID != caller {
			logging.Ctx(r.Context()).Warn().
				Str("caller", sanitizeLogValue(caller)).
				Str("user_id", sanitizeLogValue(userID)).
				Msg("WebSocket connection rejected: userId does not match caller")
			respondJSON(w, http.StatusUnauthorized, &models.APIResponse{
				Status:   "error",
				Metadata: models.Metadata{Timestamp: time.Now().UTC()},
				Error:    &models.APIError{Code: "UNAUTHORIZED", Message: "userId does not match the authenticated user"},
			})
			return
		}
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := ws.NewClient(h.wsHub, conn, userID)
	h.wsHub.Connect(client)
	client.Start()
}

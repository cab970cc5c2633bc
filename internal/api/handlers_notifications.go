// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// UnreadCount is the unread-count payload.
type UnreadCount struct {
	Count int `json:"count"`
}

// MarkedCount is the mark-all-as-read payload.
type MarkedCount struct {
	Updated int `json:"updated"`
}

// ListNotifications handles GET /api/v1/notifications.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	list, err := h.service.Notifications().List(r.Context(), callerID(r))
	if err != nil {
		respondActionError(w, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, list, start)
}

// NotificationUnreadCount handles GET /api/v1/notifications/unread-count.
func (h *Handler) NotificationUnreadCount(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	n, err := h.service.Notifications().UnreadCount(r.Context(), callerID(r))
	if err != nil {
		respondActionError(w, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, UnreadCount{Count: n}, start)
}

// MarkNotificationRead handles POST /api/v1/notifications/{id}/mark-as-read.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	n, err := h.service.Notifications().MarkRead(r.Context(), callerID(r), chi.URLParam(r, "id"))
	if err != nil {
		respondActionError(w, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, n, start)
}

// MarkAllNotificationsRead handles POST /api/v1/notifications/mark-all-as-read.
func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	n, err := h.service.Notifications().MarkAllRead(r.Context(), callerID(r))
	if err != nil {
		respondActionError(w, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, MarkedCount{Updated: n}, start)
}

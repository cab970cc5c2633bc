// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package api

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/tripsync/internal/actions"
)

// SendDirectMessage handles POST /api/v1/messages/send/{receiverId}.
func (h *Handler) SendDirectMessage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var in actions.MessageInput
	if !decodeJSON(w, r, &in) {
		return
	}

	msg, err := h.service.SendDirect(r.Context(), callerID(r), chi.URLParam(r, "receiverId"), &in)
	if err != nil {
		respondActionError(w, err)
		return
	}
	respondSuccess(w, r, http.StatusCreated, msg, start)
}

// DirectHistory handles GET /api/v1/messages/{peerId}.
func (h *Handler) DirectHistory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	messages, err := h.service.DirectHistory(r.Context(), callerID(r), chi.URLParam(r, "peerId"))
	if err != nil {
		respondActionError(w, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, messages, start)
}

// AddReaction handles POST /api/v1/messages/{messageId}/reactions. Posting
// an emoji the caller already reacted with removes it.
func (h *Handler) AddReaction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var in actions.ReactionInput
	if !decodeJSON(w, r, &in) {
		return
	}

	msg, err := h.service.ToggleReaction(r.Context(), callerID(r), chi.URLParam(r, "messageId"), &in)
	if err != nil {
		respondActionError(w, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, msg, start)
}

// RemoveReaction handles DELETE /api/v1/messages/{messageId}/reactions/{emoji}.
// It toggles like AddReaction.
func (h *Handler) RemoveReaction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	emoji, err := url.PathUnescape(chi.URLParam(r, "emoji"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid emoji", nil)
		return
	}

	msg, err := h.service.ToggleReaction(r.Context(), callerID(r), chi.URLParam(r, "messageId"), &actions.ReactionInput{Emoji: emoji})
	if err != nil {
		respondActionError(w, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, msg, start)
}

// SendGroupMessage handles POST /api/v1/groups/{groupId}/messages.
func (h *Handler) SendGroupMessage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var in actions.MessageInput
	if !decodeJSON(w, r, &in) {
		return
	}

	msg, err := h.service.SendGroupMessage(r.Context(), callerID(r), chi.URLParam(r, "groupId"), &in)
	if err != nil {
		respondActionError(w, err)
		return
	}
	respondSuccess(w, r, http.StatusCreated, msg, start)
}

// GroupHistory handles GET /api/v1/groups/{groupId}/messages.
func (h *Handler) GroupHistory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	messages, err := h.service.GroupHistory(r.Context(), callerID(r), chi.URLParam(r, "groupId"))
	if err != nil {
		respondActionError(w, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, messages, start)
}

// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/tripsync/internal/actions"
)

// CreateGroup handles POST /api/v1/groups.
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var in actions.GroupInput
	if !decodeJSON(w, r, &in) {
		return
	}

	group, err := h.service.CreateGroup(r.Context(), callerID(r), &in)
	if err != nil {
		respondActionError(w, err)
		return
	}
	respondSuccess(w, r, http.StatusCreated, group, start)
}

// ListGroups handles GET /api/v1/groups.
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	groups, err := h.service.ListGroups(r.Context(), callerID(r))
	if err != nil {
		respondActionError(w, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, groups, start)
}

// AddGroupMember handles POST /api/v1/groups/{groupId}/members.
func (h *Handler) AddGroupMember(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var in actions.MemberInput
	if !decodeJSON(w, r, &in) {
		return
	}

	group, err := h.service.AddMember(r.Context(), callerID(r), chi.URLParam(r, "groupId"), &in)
	if err != nil {
		respondActionError(w, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, group, start)
}

// groupDeleted is the response body when a group no longer exists.
type groupDeleted struct {
	Deleted bool   `json:"deleted"`
	GroupID string `json:"groupId"`
}

// RenameGroup handles PUT /api/v1/groups/{groupId}/name.
func (h *Handler) RenameGroup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var in actions.RenameInput
	if !decodeJSON(w, r, &in) {
		return
	}

	group, err := h.service.RenameGroup(r.Context(), callerID(r), chi.URLParam(r, "groupId"), &in)
	if err != nil {
		respondActionError(w, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, group, start)
}

// RemoveGroupMember handles DELETE /api/v1/groups/{groupId}/members/{memberId}.
// Removing the last member deletes the group.
func (h *Handler) RemoveGroupMember(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	groupID := chi.URLParam(r, "groupId")

	group, deleted, err := h.service.RemoveMember(r.Context(), callerID(r), groupID, chi.URLParam(r, "memberId"))
	if err != nil {
		respondActionError(w, err)
		return
	}
	if deleted {
		respondSuccess(w, r, http.StatusOK, groupDeleted{Deleted: true, GroupID: groupID}, start)
		return
	}
	respondSuccess(w, r, http.StatusOK, group, start)
}

// DeleteGroup handles DELETE /api/v1/groups/{groupId}.
func (h *Handler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	groupID := chi.URLParam(r, "groupId")

	if err := h.service.DeleteGroup(r.Context(), callerID(r), groupID); err != nil {
		respondActionError(w, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, groupDeleted{Deleted: true, GroupID: groupID}, start)
}

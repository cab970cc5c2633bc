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

// CreateExpense handles POST /api/v1/expenses.
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var in actions.ExpenseInput
	if !decodeJSON(w, r, &in) {
		return
	}

	expense, err := h.service.CreateExpense(r.Context(), callerID(r), &in)
	if err != nil {
		respondActionError(w, err)
		return
	}
	respondSuccess(w, r, http.StatusCreated, expense, start)
}

// ListExpenses handles GET /api/v1/expenses. The optional groupId query
// parameter selects a group's expenses instead of the caller's own.
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	expenses, err := h.service.ListExpenses(r.Context(), callerID(r), r.URL.Query().Get("groupId"))
	if err != nil {
		respondActionError(w, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, expenses, start)
}

// UpdateExpenseStatus handles PATCH /api/v1/expenses/{expenseId}/status.
func (h *Handler) UpdateExpenseStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var in actions.ExpenseStatusInput
	if !decodeJSON(w, r, &in) {
		return
	}

	expense, err := h.service.UpdateExpenseStatus(r.Context(), callerID(r), chi.URLParam(r, "expenseId"), &in)
	if err != nil {
		respondActionError(w, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, expense, start)
}

// SplitExpense handles POST /api/v1/expenses/{expenseId}/split.
func (h *Handler) SplitExpense(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var in actions.SplitInput
	if !decodeJSON(w, r, &in) {
		return
	}

	expense, err := h.service.SplitExpense(r.Context(), callerID(r), chi.URLParam(r, "expenseId"), &in)
	if err != nil {
		respondActionError(w, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, expense, start)
}

// CreateTrip handles POST /api/v1/trips.
func (h *Handler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var in actions.TripInput
	if !decodeJSON(w, r, &in) {
		return
	}

	trip, err := h.service.CreateTrip(r.Context(), callerID(r), &in)
	if err != nil {
		respondActionError(w, err)
		return
	}
	respondSuccess(w, r, http.StatusCreated, trip, start)
}

// ListTrips handles GET /api/v1/trips.
func (h *Handler) ListTrips(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	trips, err := h.service.ListTrips(r.Context(), callerID(r))
	if err != nil {
		respondActionError(w, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, trips, start)
}

// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/tripsync/internal/auth"
	"github.com/tomtom215/tripsync/internal/middleware"
)

// Router wires handlers to routes.
type Router struct {
	handler       *Handler
	middleware    *auth.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router. CORS and rate limiting come from the
// handler's security configuration.
func NewRouter(handler *Handler, authMiddleware *auth.Middleware) *Router {
	return &Router{
		handler:       handler,
		middleware:    authMiddleware,
		chiMiddleware: NewChiMiddlewareFromSecurity(&handler.config.Security),
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // must be global to answer OPTIONS preflight
	r.Use(middleware.PrometheusMetrics)
	r.Use(chimiddleware.Compress(5, "application/json"))

	r.Get("/health", router.handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(router.middleware.Authenticate)

		// The socket accepts anonymous connections in header and none modes;
		// they receive broadcasts only.
		r.Get("/ws", router.handler.WebSocket)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser)

			r.Get("/presence", router.handler.Presence)

			r.Route("/messages", func(r chi.Router) {
				r.Post("/send/{receiverId}", router.handler.SendDirectMessage)
				r.Get("/{peerId}", router.handler.DirectHistory)
				r.Post("/{messageId}/reactions", router.handler.AddReaction)
				r.Delete("/{messageId}/reactions/{emoji}", router.handler.RemoveReaction)
			})

			r.Route("/groups", func(r chi.Router) {
				r.Post("/", router.handler.CreateGroup)
				r.Get("/", router.handler.ListGroups)
				r.Delete("/{groupId}", router.handler.DeleteGroup)
				r.Put("/{groupId}/name", router.handler.RenameGroup)
				r.Post("/{groupId}/members", router.handler.AddGroupMember)
				r.Delete("/{groupId}/members/{memberId}", router.handler.RemoveGroupMember)
				r.Post("/{groupId}/messages", router.handler.SendGroupMessage)
				r.Get("/{groupId}/messages", router.handler.GroupHistory)
			})

			r.Post("/expenses", router.handler.CreateExpense)
			r.Get("/expenses", router.handler.ListExpenses)
			r.Patch("/expenses/{expenseId}/status", router.handler.UpdateExpenseStatus)
			r.Post("/expenses/{expenseId}/split", router.handler.SplitExpense)
			r.Post("/trips", router.handler.CreateTrip)
			r.Get("/trips", router.handler.ListTrips)

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", router.handler.ListNotifications)
				r.Get("/unread-count", router.handler.NotificationUnreadCount)
				r.Post("/mark-all-as-read", router.handler.MarkAllNotificationsRead)
				r.Post("/{id}/mark-as-read", router.handler.MarkNotificationRead)
			})
		})
	})

	return r
}

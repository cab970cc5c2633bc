// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tripsync/internal/config"
	"github.com/tomtom215/tripsync/internal/logging"
	"github.com/tomtom215/tripsync/internal/models"
)

type contextKey string

const userIDContextKey contextKey = "user-id"

// UserIDHeader carries the caller identity in header mode.
const UserIDHeader = "X-User-ID"

// ContextWithUserID returns ctx carrying the authenticated user id.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext returns the authenticated user id, or "" for an
// anonymous request.
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDContextKey).(string)
	return userID
}

// Middleware resolves the caller identity for each request.
//
//   - jwt: a valid token is required, from the Authorization bearer header,
//     the "token" cookie or the "token" query parameter (for WebSocket
//     upgrades, which cannot set headers). The subject is the user id.
//   - header: the X-User-ID header set by a trusted proxy. Requests without
//     it are anonymous. Query parameters never establish identity; the
//     WebSocket handler reads userId itself to name anonymous connections.
//   - none: like header mode; for local development.
type Middleware struct {
	mode       string
	jwtManager *JWTManager
}

// NewMiddleware creates the middleware for mode. jwtManager is required in
// jwt mode and ignored otherwise.
func NewMiddleware(mode string, jwtManager *JWTManager) (*Middleware, error) {
	switch mode {
	case config.AuthModeJWT:
		if jwtManager == nil {
			return nil, fmt.Errorf("jwt auth mode requires a JWT manager")
		}
	case config.AuthModeHeader, config.AuthModeNone:
	default:
		return nil, fmt.Errorf("unknown auth mode %q", mode)
	}
	return &Middleware{mode: mode, jwtManager: jwtManager}, nil
}

// Mode returns the configured auth mode.
func (m *Middleware) Mode() string {
	return m.mode
}

// Authenticate stores the caller identity in the request context. In jwt
// mode a missing or invalid token is rejected with 401.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.mode != config.AuthModeJWT {
			userID := r.Header.Get(UserIDHeader)
			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
			return
		}

		token, err := extractToken(r)
		if err != nil {
			writeUnauthorized(w, err.Error())
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("token validation failed")
			writeUnauthorized(w, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), claims.UserID())))
	})
}

// RequireUser rejects anonymous requests with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserIDFromContext(r.Context()) == "" {
			writeUnauthorized(w, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractToken(r *http.Request) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || scheme != "Bearer" || token == "" {
			return "", fmt.Errorf("invalid authorization header")
		}
		return token, nil
	}
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	return "", fmt.Errorf("missing token")
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	data, err := json.Marshal(&models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error:    &models.APIError{Code: "UNAUTHORIZED", Message: message},
	})
	if err != nil {
		http.Error(w, message, http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write(data)
}

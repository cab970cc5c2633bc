// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

/*
Package auth resolves who is calling.

Tripsync does not manage accounts. Identity comes either from an HS256 JWT
issued elsewhere (AUTH_MODE=jwt, the token subject is the user id) or from
a header set by a trusted reverse proxy (AUTH_MODE=header). AUTH_MODE=none
behaves like header mode and is refused in production.

Handlers read the caller with UserIDFromContext. Routes that act on behalf
of a user are wrapped with RequireUser; the WebSocket upgrade additionally
checks that the requested userId matches the authenticated identity.
*/
package auth

// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

/*
Package main is the entry point for the Tripsync server.

Tripsync is the real-time backend of a group travel app: it tracks which
users are online, routes live events (messages, reactions, shared
locations, notifications) to their connections and persists the records
behind them.

# Application Architecture

	RootSupervisor ("tripsync")
	├── DataSupervisor ("data-layer")
	│   └── Notification retention sweeper (NOTIFY_RETENTION > 0)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket Hub
	│   └── Redis presence mirror (REDIS_ENABLED=true)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (chi router)

Initialization order:

 1. .env file (optional, never overrides the real environment)
 2. Configuration: koanf v2 defaults, config.yaml, environment
 3. Logging: zerolog
 4. Store: Badger (default) or PostgreSQL
 5. WebSocket hub, optionally observed by the Redis presence mirror
 6. Action service (persist, fan out, notify)
 7. Authentication middleware and router
 8. Supervisor tree, then signal handling

# Configuration

	# Server
	PORT=5001
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	# Authentication
	AUTH_MODE=jwt                # jwt, header or none
	JWT_SECRET=<32+ chars>       # required for jwt

	# Store
	STORE_DRIVER=badger          # badger or postgres
	BADGER_PATH=/data/tripsync
	DATABASE_URL=postgres://...  # required for postgres

	# Presence mirror
	REDIS_ENABLED=true
	REDIS_ADDR=127.0.0.1:6379

	# Notification retention
	NOTIFY_RETENTION=720h        # 0 disables the sweeper
	NOTIFY_SWEEP_SCHEDULE=0 3 * * *

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains
in-flight requests, the hub closes every WebSocket connection and the
store is closed last.
*/
package main

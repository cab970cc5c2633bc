// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package store

import (
	"context"
	"fmt"

	"github.com/tomtom215/tripsync/internal/config"
)

// Open creates the Store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.StoreDriverBadger:
		return OpenBadger(cfg.BadgerPath, cfg.InMemory)
	case config.StoreDriverPostgres:
		return ConnectPostgres(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

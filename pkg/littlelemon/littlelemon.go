// Package littlelemon is the public entry point for opening a reservation
// store. It hides the backend implementations behind types.Config.
//
// Example:
//
//	cfg := types.DefaultConfig()
//	cfg.DataDir = ".lemon-db"
//	res, err := littlelemon.Open(ctx, cfg, zerolog.Nop())
//	if err != nil {
//	    return err
//	}
//	defer res.Close()
//	booking, err := res.CreateBooking(ctx, req)
package littlelemon

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/littlelemon/internal/booking"
	"github.com/mesh-intelligence/littlelemon/internal/kv"
	"github.com/mesh-intelligence/littlelemon/pkg/types"
)

// Version is the release of the module and the lemon CLI.
const Version = "v0.1.0"

// Reservations is a reservation store bound to an open backend. Close
// releases the backend.
type Reservations struct {
	*booking.Manager
	store kv.Store
}

// Open opens the backend named by cfg and loads the reservation store from
// it, seeding tables on first use.
func Open(ctx context.Context, cfg types.Config, logger zerolog.Logger) (*Reservations, error) {
	store, err := kv.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	mgr, err := booking.New(ctx, store,
		booking.WithKeys(cfg.Keys.Bookings, cfg.Keys.Tables),
		booking.WithSeedTables(cfg.SeedTables),
		booking.WithLogger(logger),
	)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("load reservations: %w", err), store.Close())
	}
	return &Reservations{Manager: mgr, store: store}, nil
}

// Store returns the backend the reservations live in.
func (r *Reservations) Store() types.KVStore {
	return r.store
}

// Close closes the backend.
func (r *Reservations) Close() error {
	return r.store.Close()
}

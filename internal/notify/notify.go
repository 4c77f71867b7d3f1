// Package notify carries "bookings updated" signals between reservation
// contexts. Receivers react by refreshing their view of the store.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event types.
const (
	EventBookingCreated   = "booking-created"
	EventBookingCancelled = "booking-cancelled"
	EventBookingsCleared  = "bookings-cleared"
)

// Event describes a change to the bookings collection.
type Event struct {
	Type      string    `json:"type"`
	BookingID string    `json:"bookingId,omitempty"`
	Origin    string    `json:"origin,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Handler reacts to an event.
type Handler func(ctx context.Context, event Event) error

// Publisher sends events to interested parties.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Bus is an in-process Publisher. Handlers run synchronously in
// subscription order; a failing handler is logged and does not stop the
// others.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	logger   zerolog.Logger
}

// NewBus returns an empty bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{logger: logger}
}

// Subscribe registers a handler for every event.
func (b *Bus) Subscribe(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

// Publish delivers the event to all handlers. It never returns an error.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	for _, h := range handlers {
		if err := h(ctx, event); err != nil {
			b.logger.Warn().Err(err).Str("event", event.Type).Msg("event handler failed")
		}
	}
	return nil
}

// Refresher reloads state from the shared store.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshOnChange returns a Handler that reloads store on every event.
func RefreshOnChange(store Refresher) Handler {
	return func(ctx context.Context, _ Event) error {
		return store.Refresh(ctx)
	}
}

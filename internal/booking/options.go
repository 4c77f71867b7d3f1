package booking

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/littlelemon/pkg/types"
)

// Option configures a Manager.
type Option func(*Manager)

// WithKeys overrides the store keys for the two collections.
func WithKeys(bookingsKey, tablesKey string) Option {
	return func(m *Manager) {
		if bookingsKey != "" {
			m.bookingsKey = bookingsKey
		}
		if tablesKey != "" {
			m.tablesKey = tablesKey
		}
	}
}

// WithSeedTables replaces the tables written on first run.
// An empty list keeps the defaults.
func WithSeedTables(tables []types.Table) Option {
	return func(m *Manager) {
		if len(tables) > 0 {
			m.seed = slices.Clone(tables)
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithIDGenerator replaces the booking ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// WithClock replaces the time source used for CreatedAt.
func WithClock(fn func() time.Time) Option {
	return func(m *Manager) {
		if fn != nil {
			m.now = fn
		}
	}
}

// generateID returns a UUID v7 for booking IDs. v7 is time-ordered and
// carries random bits, so IDs created in the same millisecond still differ.
func generateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}

// Package booking implements the reservation store: the Tables and Bookings
// collections, best-fit table assignment, and whole-collection persistence
// to a key-value store.
package booking

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/littlelemon/pkg/types"
)

// Manager implements types.ReservationStore over a types.KVStore. Every
// mutation serializes and writes the whole bookings collection. When the
// store also implements types.VersionedStore, writes are compare-and-swap
// against the version last read, so a concurrent writer in another process
// is detected instead of silently overwritten.
type Manager struct {
	mu sync.RWMutex

	store     types.KVStore
	versioned types.VersionedStore // nil when store has no versions

	bookingsKey string
	tablesKey   string
	seed        []types.Table

	tables          []types.Table
	bookings        []types.Booking
	bookingsVersion int64

	newID  func() string
	now    func() time.Time
	logger zerolog.Logger
}

var _ types.ReservationStore = (*Manager)(nil)

// New seeds the tables collection if the store has none, then loads both
// collections. Missing or unparsable collections load as empty and are
// logged; only a failed seed write is returned as an error.
func New(ctx context.Context, store types.KVStore, opts ...Option) (*Manager, error) {
	m := &Manager{
		store:       store,
		bookingsKey: types.DefaultBookingsKey,
		tablesKey:   types.DefaultTablesKey,
		seed:        types.DefaultTables(),
		newID:       generateID,
		now:         time.Now,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if vs, ok := store.(types.VersionedStore); ok {
		m.versioned = vs
	}

	if err := m.seedTables(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables, _ = m.loadTablesLocked(ctx)
	m.bookings, m.bookingsVersion, _ = m.loadBookingsLocked(ctx)
	return m, nil
}

// Tables returns a copy of the tables collection.
func (m *Manager) Tables() []types.Table {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.tables)
}

// Bookings returns a copy of the bookings collection in stored order.
func (m *Manager) Bookings() []types.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.bookings)
}

// BookingsByTime returns a copy of the bookings sorted by date, then time.
// Bookings in the same slot keep their stored order.
func (m *Manager) BookingsByTime() []types.Booking {
	out := m.Bookings()
	slices.SortStableFunc(out, func(a, b types.Booking) int {
		return cmp.Or(cmp.Compare(a.Date, b.Date), cmp.Compare(a.Time, b.Time))
	})
	return out
}

// BookingsFor returns the bookings for the exact (date, time) slot.
func (m *Manager) BookingsFor(date, slotTime string) []types.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bookingsForLocked(date, slotTime)
}

// FindAvailableTables returns the tables seating at least seats that are
// free for the slot, in stored order.
func (m *Manager) FindAvailableTables(date, slotTime string, seats int) []types.Table {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.availableLocked(date, slotTime, seats)
}

// CreateBooking assigns the smallest free table that fits req.Guests and
// persists the booking. The request is not validated here. Returns
// types.ErrNoAvailability when no table fits, and types.ErrBookingConflict
// when a versioned store changed since it was last read.
func (m *Manager) CreateBooking(ctx context.Context, req types.BookingRequest) (types.Booking, error) {
	req = req.Trimmed()

	m.mu.Lock()
	defer m.mu.Unlock()

	available := m.availableLocked(req.Date, req.Time, req.Guests)
	if len(available) == 0 {
		m.logger.Debug().
			Str("date", req.Date).
			Str("time", req.Time).
			Int("guests", req.Guests).
			Msg("no table available")
		return types.Booking{}, types.ErrNoAvailability
	}

	// Best fit: smallest capacity first, ties in stored order.
	slices.SortStableFunc(available, func(a, b types.Table) int {
		return cmp.Compare(a.Seats, b.Seats)
	})
	chosen := available[0]

	booking := types.Booking{
		ID:        m.newID(),
		TableID:   chosen.ID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Guests:    req.Guests,
		Date:      req.Date,
		Time:      req.Time,
		Requests:  req.Requests,
		CreatedAt: m.now().UTC(),
	}

	next := append(slices.Clone(m.bookings), booking)
	if err := m.persistBookingsLocked(ctx, next); err != nil {
		return types.Booking{}, err
	}

	m.logger.Info().
		Str("booking_id", booking.ID).
		Str("table_id", booking.TableID).
		Str("date", booking.Date).
		Str("time", booking.Time).
		Int("guests", booking.Guests).
		Msg("booking created")
	return booking, nil
}

// CancelBooking removes every booking with the given ID and persists the
// collection, whether or not anything matched.
func (m *Manager) CancelBooking(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := make([]types.Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		if b.ID != id {
			next = append(next, b)
		}
	}
	removed := len(m.bookings) - len(next)
	if err := m.persistBookingsLocked(ctx, next); err != nil {
		return err
	}

	m.logger.Info().
		Str("booking_id", id).
		Int("removed", removed).
		Msg("booking cancelled")
	return nil
}

// ClearAllBookings empties and persists the bookings collection.
func (m *Manager) ClearAllBookings(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.persistBookingsLocked(ctx, []types.Booking{}); err != nil {
		return err
	}
	m.logger.Info().Msg("all bookings cleared")
	return nil
}

// Refresh re-reads both collections from the store. Unparsable data loads as
// empty, as on construction; if the store cannot be read at all, the
// in-memory collections are kept and the error is returned.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tables, err := m.loadTablesLocked(ctx)
	if err != nil {
		return fmt.Errorf("refresh tables: %w", err)
	}
	bookings, version, err := m.loadBookingsLocked(ctx)
	if err != nil {
		return fmt.Errorf("refresh bookings: %w", err)
	}
	m.tables = tables
	m.bookings = bookings
	m.bookingsVersion = version
	return nil
}

func (m *Manager) bookingsForLocked(date, slotTime string) []types.Booking {
	var out []types.Booking
	for _, b := range m.bookings {
		if b.InSlot(date, slotTime) {
			out = append(out, b)
		}
	}
	return out
}

func (m *Manager) availableLocked(date, slotTime string, seats int) []types.Table {
	reserved := make(map[string]struct{})
	for _, b := range m.bookingsForLocked(date, slotTime) {
		reserved[b.TableID] = struct{}{}
	}

	var out []types.Table
	for _, t := range m.tables {
		if _, taken := reserved[t.ID]; taken || !t.Fits(seats) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// persistBookingsLocked writes next and, on success, makes it the in-memory
// collection. On failure the in-memory collection is unchanged.
func (m *Manager) persistBookingsLocked(ctx context.Context, next []types.Booking) error {
	data, err := encodeCollection(next)
	if err != nil {
		return err
	}

	if m.versioned == nil {
		if err := m.store.Write(ctx, m.bookingsKey, data); err != nil {
			return fmt.Errorf("persist bookings: %w", err)
		}
		m.bookings = next
		return nil
	}

	version, err := m.versioned.CompareAndSwap(ctx, m.bookingsKey, data, m.bookingsVersion)
	if errors.Is(err, types.ErrVersionConflict) {
		m.logger.Warn().
			Int64("expected_version", m.bookingsVersion).
			Msg("bookings changed in another session, reloading")
		if bookings, v, loadErr := m.loadBookingsLocked(ctx); loadErr == nil {
			m.bookings, m.bookingsVersion = bookings, v
		}
		return types.ErrBookingConflict
	}
	if err != nil {
		return fmt.Errorf("persist bookings: %w", err)
	}
	m.bookings = next
	m.bookingsVersion = version
	return nil
}

// seedTables writes the seed tables if the tables key holds no value.
func (m *Manager) seedTables(ctx context.Context) error {
	data, err := m.store.Read(ctx, m.tablesKey)
	switch {
	case err == nil && len(bytes.TrimSpace(data)) > 0:
		return nil
	case err != nil && !errors.Is(err, types.ErrKeyNotFound):
		m.logger.Warn().Err(err).Str("key", m.tablesKey).Msg("cannot read tables, skipping seed")
		return nil
	}

	seed, err := encodeCollection(m.seed)
	if err != nil {
		return err
	}
	if m.versioned != nil {
		_, err = m.versioned.CompareAndSwap(ctx, m.tablesKey, seed, 0)
		if errors.Is(err, types.ErrVersionConflict) {
			// Another process seeded first.
			return nil
		}
	} else {
		err = m.store.Write(ctx, m.tablesKey, seed)
	}
	if err != nil {
		return fmt.Errorf("seed tables: %w", err)
	}

	m.logger.Info().Int("tables", len(m.seed)).Msg("seeded default tables")
	return nil
}

// loadTablesLocked reads the tables collection. An empty result falls back
// to the seed list in memory so the collection is never empty. The returned
// error is non-nil only when the store itself failed.
func (m *Manager) loadTablesLocked(ctx context.Context) ([]types.Table, error) {
	data, err := m.store.Read(ctx, m.tablesKey)
	if err != nil && !errors.Is(err, types.ErrKeyNotFound) {
		m.logger.Warn().Err(err).Str("key", m.tablesKey).Msg("cannot read tables")
		return slices.Clone(m.seed), err
	}

	var tables []types.Table
	if err == nil {
		items, skipped, decErr := decodeCollection[types.Table](data)
		if decErr != nil {
			m.logger.Warn().Err(decErr).Str("key", m.tablesKey).Msg("unparsable tables, treating as empty")
		}
		if skipped > 0 {
			m.logger.Warn().Int("skipped", skipped).Str("key", m.tablesKey).Msg("skipped malformed tables")
		}
		tables = items
	}
	if len(tables) == 0 {
		m.logger.Warn().Str("key", m.tablesKey).Msg("no stored tables, using seed tables")
		return slices.Clone(m.seed), nil
	}
	return tables, nil
}

// loadBookingsLocked reads the bookings collection and, for versioned
// stores, its version. The returned error is non-nil only when the store
// itself failed.
func (m *Manager) loadBookingsLocked(ctx context.Context) ([]types.Booking, int64, error) {
	var (
		data    []byte
		version int64
		err     error
	)
	if m.versioned != nil {
		data, version, err = m.versioned.ReadVersioned(ctx, m.bookingsKey)
	} else {
		data, err = m.store.Read(ctx, m.bookingsKey)
	}
	if errors.Is(err, types.ErrKeyNotFound) {
		return []types.Booking{}, version, nil
	}
	if err != nil {
		m.logger.Warn().Err(err).Str("key", m.bookingsKey).Msg("cannot read bookings")
		return []types.Booking{}, 0, err
	}

	bookings, skipped, err := decodeCollection[types.Booking](data)
	if err != nil {
		m.logger.Warn().Err(err).Str("key", m.bookingsKey).Msg("unparsable bookings, treating as empty")
		return []types.Booking{}, version, nil
	}
	if skipped > 0 {
		m.logger.Warn().Int("skipped", skipped).Str("key", m.bookingsKey).Msg("skipped malformed bookings")
	}
	return bookings, version, nil
}

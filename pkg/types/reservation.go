package types

import "context"

// ReservationStore owns the Tables and Bookings collections and assigns
// tables to reservation requests by best fit.
type ReservationStore interface {
	// Tables returns a copy of the tables collection in stored order.
	Tables() []Table

	// Bookings returns a copy of the bookings collection in stored order.
	Bookings() []Booking

	// BookingsFor returns the bookings whose date and time equal the given
	// values exactly.
	BookingsFor(date, slotTime string) []Booking

	// FindAvailableTables returns the tables with at least seats capacity
	// that are not reserved for the slot, in stored order.
	FindAvailableTables(date, slotTime string, seats int) []Table

	// CreateBooking assigns the smallest free table that fits the party and
	// persists the new booking. The request is trusted as already validated.
	// Returns ErrNoAvailability when no table fits.
	CreateBooking(ctx context.Context, req BookingRequest) (Booking, error)

	// CancelBooking removes the booking with the given ID. Cancelling an
	// unknown ID succeeds and leaves the collection unchanged.
	CancelBooking(ctx context.Context, id string) error

	// ClearAllBookings empties the bookings collection.
	ClearAllBookings(ctx context.Context) error

	// Refresh re-reads both collections from the underlying store. Callers
	// invoke it when another context signals that bookings changed.
	Refresh(ctx context.Context) error
}

// ErrorKind classifies a BookingError.
type ErrorKind string

// Booking error kinds.
const (
	KindNoAvailability ErrorKind = "no_availability"
	KindConflict       ErrorKind = "conflict"
)

// BookingError is an expected booking failure. Kind is stable and
// machine-checkable; Message is suitable for showing to a guest.
type BookingError struct {
	Kind    ErrorKind
	Message string
}

func (e *BookingError) Error() string {
	return e.Message
}

// Is matches any BookingError of the same kind.
func (e *BookingError) Is(target error) bool {
	t, ok := target.(*BookingError)
	return ok && t.Kind == e.Kind
}

// Booking errors.
var (
	ErrNoAvailability = &BookingError{
		Kind:    KindNoAvailability,
		Message: "No tables available for selected time",
	}
	ErrBookingConflict = &BookingError{
		Kind:    KindConflict,
		Message: "Bookings changed in another session, please try again",
	}
)

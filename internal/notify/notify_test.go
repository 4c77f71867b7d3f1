package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/littlelemon/internal/booking"
	"github.com/mesh-intelligence/littlelemon/internal/kv"
	"github.com/mesh-intelligence/littlelemon/pkg/types"
)

func TestBusDeliversInOrder(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	var got []string

	bus.Subscribe(func(_ context.Context, e Event) error {
		got = append(got, "first:"+e.Type)
		return errors.New("ignored")
	})
	bus.Subscribe(func(_ context.Context, e Event) error {
		got = append(got, "second:"+e.Type)
		assert.False(t, e.CreatedAt.IsZero())
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), Event{Type: EventBookingCreated}))

	assert.Equal(t, []string{"first:booking-created", "second:booking-created"}, got)
}

func TestBusWithoutSubscribers(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	assert.NoError(t, bus.Publish(context.Background(), Event{Type: EventBookingsCleared}))
}

func TestRefreshOnChange(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	writer, err := booking.New(ctx, store)
	require.NoError(t, err)
	reader, err := booking.New(ctx, store)
	require.NoError(t, err)

	bus := NewBus(zerolog.Nop())
	bus.Subscribe(RefreshOnChange(reader))

	b, err := writer.CreateBooking(ctx, types.BookingRequest{Name: "Ann", Guests: 2, Date: "2024-01-01", Time: "19:00"})
	require.NoError(t, err)
	require.Empty(t, reader.Bookings())

	require.NoError(t, bus.Publish(ctx, Event{Type: EventBookingCreated, BookingID: b.ID}))

	assert.Len(t, reader.Bookings(), 1)
}

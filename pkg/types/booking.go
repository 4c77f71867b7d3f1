package types

import (
	"strings"
	"time"
)

// Booking is a confirmed reservation of one table for one slot by one party.
// Bookings are created and cancelled but never modified in place.
type Booking struct {
	ID        string    `json:"id"`
	TableID   string    `json:"tableId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Guests    int       `json:"guests"`
	Date      string    `json:"date"`     // YYYY-MM-DD
	Time      string    `json:"time"`     // compared by exact string equality
	Requests  string    `json:"requests"` // optional, "" when absent
	CreatedAt time.Time `json:"createdAt"`
}

// InSlot reports whether the booking occupies the (date, time) slot.
func (b Booking) InSlot(date, slotTime string) bool {
	return b.Date == date && b.Time == slotTime
}

// BookingRequest carries the caller-validated fields for CreateBooking.
// The table is assigned by the store; callers never choose it.
type BookingRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Guests   int    `json:"guests"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Requests string `json:"requests,omitempty"`
}

// Trimmed returns a copy of the request with surrounding whitespace removed
// from the free-text fields.
func (r BookingRequest) Trimmed() BookingRequest {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Requests = strings.TrimSpace(r.Requests)
	return r
}

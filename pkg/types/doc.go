// Package types defines the ReservationStore and KVStore interfaces, the
// Table and Booking entities, configuration, and the standard errors for the
// Little Lemon reservation system.
package types

// Package metrics exposes Prometheus counters for the reservation service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "littlelemon"

// Booking creation outcomes used as the status label.
const (
	StatusConfirmed      = "confirmed"
	StatusNoAvailability = "no_availability"
	StatusConflict       = "conflict"
	StatusInvalid        = "invalid"
	StatusError          = "error"
)

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	bookingCreated   *prometheus.CounterVec
	bookingCancelled prometheus.Counter
	bookingsStored   prometheus.Gauge
	httpRequests     *prometheus.CounterVec
}

// New registers the collectors, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		bookingCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_created_total",
				Help:      "Count of booking attempts by status.",
			},
			[]string{"status"},
		),
		bookingCancelled: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_cancelled_total",
				Help:      "Count of cancellation requests.",
			},
		),
		bookingsStored: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "bookings_stored",
				Help:      "Number of bookings in the collection.",
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Count of HTTP requests by route and status code.",
			},
			[]string{"route", "code"},
		),
	}
	m.registry.MustRegister(
		m.bookingCreated,
		m.bookingCancelled,
		m.bookingsStored,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncBookingCreated(status string) {
	m.bookingCreated.WithLabelValues(status).Inc()
}

func (m *Metrics) IncBookingCancelled() {
	m.bookingCancelled.Inc()
}

func (m *Metrics) SetBookingsStored(n int) {
	m.bookingsStored.Set(float64(n))
}

func (m *Metrics) IncHTTPRequest(route, code string) {
	m.httpRequests.WithLabelValues(route, code).Inc()
}

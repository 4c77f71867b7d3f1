// Package httpapi serves the reservation store over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/littlelemon/internal/metrics"
	"github.com/mesh-intelligence/littlelemon/internal/notify"
	"github.com/mesh-intelligence/littlelemon/internal/validate"
	"github.com/mesh-intelligence/littlelemon/pkg/types"
)

// Store is the reservation store as the API needs it.
type Store interface {
	types.ReservationStore
	BookingsByTime() []types.Booking
}

// Deps are the collaborators of a Server. Store is required; nil
// Publisher and Metrics disable notifications and metrics.
type Deps struct {
	Store     Store
	Validator *validate.Validator
	Publisher notify.Publisher
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger
}

// Server is the HTTP front end of the reservation store.
type Server struct {
	cfg       types.ServerConfig
	store     Store
	validator *validate.Validator
	publisher notify.Publisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	limiter   *clientLimiter
	engine    *gin.Engine
}

// NewServer builds the router. gin's mode is left to the caller.
func NewServer(cfg types.ServerConfig, deps Deps) *Server {
	s := &Server{
		cfg:       cfg,
		store:     deps.Store,
		validator: deps.Validator,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
	}
	if s.validator == nil {
		s.validator = validate.New(nil)
	}
	if cfg.RateLimit > 0 {
		s.limiter = newClientLimiter(cfg.RateLimit, max(cfg.RateBurst, 1))
	}
	s.engine = s.routes()
	s.syncStored()
	return s
}

// Refresh reloads the store after a change made by another process and
// updates the stored-bookings gauge.
func (s *Server) Refresh(ctx context.Context) error {
	if err := s.store.Refresh(ctx); err != nil {
		return err
	}
	s.syncStored()
	return nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger, s.metrics))

	r.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := r.Group("/api")
	api.GET("/tables", s.handleTables)
	api.GET("/availability", s.handleAvailability)
	api.GET("/bookings", s.handleListBookings)
	api.GET("/bookings/export.xlsx", s.handleExport)
	api.POST("/bookings", rateLimit(s.limiter), s.handleCreateBooking)
	api.DELETE("/bookings/:id", s.handleCancelBooking)
	api.DELETE("/bookings", s.handleClearBookings)
	return r
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info().Msg("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// syncStored sets the stored-bookings gauge from the store's current view.
func (s *Server) syncStored() {
	if s.metrics != nil {
		s.metrics.SetBookingsStored(len(s.store.Bookings()))
	}
}

// notify publishes a change event; failures are logged only.
func (s *Server) notify(ctx context.Context, eventType, bookingID string) {
	s.syncStored()
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, notify.Event{Type: eventType, BookingID: bookingID})
	if err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("publish failed")
	}
}

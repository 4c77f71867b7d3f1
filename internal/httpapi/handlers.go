package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/littlelemon/internal/export"
	"github.com/mesh-intelligence/littlelemon/internal/metrics"
	"github.com/mesh-intelligence/littlelemon/internal/notify"
	"github.com/mesh-intelligence/littlelemon/internal/validate"
	"github.com/mesh-intelligence/littlelemon/pkg/types"
)

// Table statuses for a slot.
const (
	StatusAvailable = "available"
	StatusReserved  = "reserved"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// TableView is a table with its status for the requested slot. Status is
// empty when no slot was given.
type TableView struct {
	ID     string `json:"id"`
	Seats  int    `json:"seats"`
	Status string `json:"status,omitempty"`
}

// Availability answers GET /api/availability.
type Availability struct {
	Date   string        `json:"date"`
	Time   string        `json:"time"`
	Guests int           `json:"guests"`
	Tables []types.Table `json:"tables"`
}

// Confirmation answers a successful POST /api/bookings.
type Confirmation struct {
	Booking types.Booking `json:"booking"`
}

// ConfirmationMessage is the text shown to the guest after booking.
func ConfirmationMessage(b types.Booking) string {
	return fmt.Sprintf("Booking confirmed! Table %s reserved for %d on %s at %s.", b.TableID, b.Guests, b.Date, b.Time)
}

func (s *Server) handleHealth(c *gin.Context) {
	respondJSON(c, http.StatusOK, "ok", nil)
}

// slotQuery reads date and time from the query string, trimmed. ok is
// false when neither was given; a partial or malformed slot is answered
// with 400.
func slotQuery(c *gin.Context) (date, slotTime string, ok bool) {
	date, slotTime = strings.TrimSpace(c.Query("date")), strings.TrimSpace(c.Query("time"))
	if date == "" && slotTime == "" {
		return "", "", false
	}
	if err := validate.Slot(date, slotTime); err != nil {
		var fe validate.FieldErrors
		errors.As(err, &fe)
		respondError(c, http.StatusBadRequest, "Invalid date or time", fe)
		return "", "", false
	}
	return date, slotTime, true
}

func (s *Server) handleTables(c *gin.Context) {
	date, slotTime, hasSlot := slotQuery(c)
	if c.IsAborted() {
		return
	}

	free := make(map[string]bool)
	if hasSlot {
		for _, t := range s.store.FindAvailableTables(date, slotTime, 1) {
			free[t.ID] = true
		}
	}

	tables := s.store.Tables()
	views := make([]TableView, 0, len(tables))
	for _, t := range tables {
		v := TableView{ID: t.ID, Seats: t.Seats}
		if hasSlot {
			v.Status = StatusReserved
			if free[t.ID] {
				v.Status = StatusAvailable
			}
		}
		views = append(views, v)
	}
	respondJSON(c, http.StatusOK, "Tables", views)
}

func (s *Server) handleAvailability(c *gin.Context) {
	date, slotTime, hasSlot := slotQuery(c)
	if c.IsAborted() {
		return
	}
	if !hasSlot {
		respondError(c, http.StatusBadRequest, "date and time are required", nil)
		return
	}
	guests, err := strconv.Atoi(c.DefaultQuery("guests", "1"))
	if err != nil || guests < 1 {
		respondError(c, http.StatusBadRequest, validate.Message("guests"), nil)
		return
	}

	tables := s.store.FindAvailableTables(date, slotTime, guests)
	if tables == nil {
		tables = []types.Table{}
	}
	respondJSON(c, http.StatusOK, "Available tables", Availability{
		Date:   date,
		Time:   slotTime,
		Guests: guests,
		Tables: tables,
	})
}

func (s *Server) handleListBookings(c *gin.Context) {
	date, slotTime, hasSlot := slotQuery(c)
	if c.IsAborted() {
		return
	}

	var bookings []types.Booking
	if hasSlot {
		bookings = s.store.BookingsFor(date, slotTime)
	} else {
		bookings = s.store.BookingsByTime()
	}
	if bookings == nil {
		bookings = []types.Booking{}
	}
	respondJSON(c, http.StatusOK, "Bookings", bookings)
}

func (s *Server) handleCreateBooking(c *gin.Context) {
	var form validate.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		s.countCreated(metrics.StatusInvalid)
		respondError(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	req, err := s.validator.Check(form)
	if err != nil {
		s.countCreated(metrics.StatusInvalid)
		var fe validate.FieldErrors
		if errors.As(err, &fe) {
			respondError(c, http.StatusUnprocessableEntity, "Please correct the highlighted fields", fe)
			return
		}
		respondError(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	booking, err := s.store.CreateBooking(c.Request.Context(), req)
	if err != nil {
		var be *types.BookingError
		if errors.As(err, &be) {
			status := metrics.StatusNoAvailability
			if be.Kind == types.KindConflict {
				status = metrics.StatusConflict
				s.syncStored()
			}
			s.countCreated(status)
			respondError(c, http.StatusConflict, be.Message, gin.H{"kind": be.Kind})
			return
		}
		s.countCreated(metrics.StatusError)
		s.logger.Error().Err(err).Msg("create booking failed")
		respondError(c, http.StatusInternalServerError, "Could not save booking", nil)
		return
	}

	s.countCreated(metrics.StatusConfirmed)
	s.notify(c.Request.Context(), notify.EventBookingCreated, booking.ID)
	respondJSON(c, http.StatusCreated, ConfirmationMessage(booking), Confirmation{Booking: booking})
}

func (s *Server) handleCancelBooking(c *gin.Context) {
	id := c.Param("id")
	if err := s.store.CancelBooking(c.Request.Context(), id); err != nil {
		s.respondMutationError(c, err, "Could not cancel booking")
		return
	}
	if s.metrics != nil {
		s.metrics.IncBookingCancelled()
	}
	s.notify(c.Request.Context(), notify.EventBookingCancelled, id)
	respondJSON(c, http.StatusOK, "Booking cancelled", gin.H{"id": id})
}

func (s *Server) handleClearBookings(c *gin.Context) {
	if !s.cfg.AllowReset {
		respondError(c, http.StatusForbidden, "Clearing bookings is disabled", nil)
		return
	}
	if err := s.store.ClearAllBookings(c.Request.Context()); err != nil {
		s.respondMutationError(c, err, "Could not clear bookings")
		return
	}
	s.notify(c.Request.Context(), notify.EventBookingsCleared, "")
	respondJSON(c, http.StatusOK, "All bookings cleared", nil)
}

func (s *Server) handleExport(c *gin.Context) {
	var buf bytes.Buffer
	if err := export.Write(&buf, s.store.BookingsByTime(), s.store.Tables()); err != nil {
		s.logger.Error().Err(err).Msg("export failed")
		respondError(c, http.StatusInternalServerError, "Could not export bookings", nil)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="bookings.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (s *Server) respondMutationError(c *gin.Context, err error, message string) {
	var be *types.BookingError
	if errors.As(err, &be) {
		if be.Kind == types.KindConflict {
			s.syncStored()
		}
		respondError(c, http.StatusConflict, be.Message, gin.H{"kind": be.Kind})
		return
	}
	s.logger.Error().Err(err).Msg(message)
	respondError(c, http.StatusInternalServerError, message, nil)
}

func (s *Server) countCreated(status string) {
	if s.metrics != nil {
		s.metrics.IncBookingCreated(status)
	}
}

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/littlelemon/internal/httpapi"
	"github.com/mesh-intelligence/littlelemon/internal/notify"
	"github.com/mesh-intelligence/littlelemon/internal/validate"
	"github.com/mesh-intelligence/littlelemon/pkg/types"
)

func newBookCmd(a *app) *cobra.Command {
	var f validate.Form
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Reserve the smallest free table that seats the party",
		Example: `  lemon book --name "Ann Lee" --email ann@example.com --phone +15551234567 \
    --guests 4 --date 2030-05-01 --time 19:00 --requests "high chair"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := validate.New(nil).Check(f)
			if err != nil {
				var fe validate.FieldErrors
				if errors.As(err, &fe) {
					for _, field := range fe.Fields() {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", field, fe[field])
					}
					return userError("booking rejected: %d invalid field(s)", len(fe))
				}
				return sysError("%w", err)
			}

			res, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer res.Close()

			b, err := res.CreateBooking(cmd.Context(), req)
			if err != nil {
				var be *types.BookingError
				if errors.As(err, &be) {
					return userError("%s", be.Message)
				}
				return sysError("create booking: %w", err)
			}
			a.publishChange(cmd, res, notify.EventBookingCreated, b.ID)

			if a.jsonMode {
				return printJSON(out(cmd), b)
			}
			fmt.Fprintln(out(cmd), httpapi.ConfirmationMessage(b))
			fmt.Fprintln(out(cmd), "Booking ID:", b.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.Name, "name", "", "guest name")
	cmd.Flags().StringVar(&f.Email, "email", "", "guest email")
	cmd.Flags().StringVar(&f.Phone, "phone", "", "guest phone, digits with optional leading +")
	cmd.Flags().IntVar(&f.Guests, "guests", 0, "party size (1-10)")
	cmd.Flags().StringVar(&f.Date, "date", "", "reservation date (YYYY-MM-DD, today or later)")
	cmd.Flags().StringVar(&f.Time, "time", "", "reservation time (e.g. 19:00)")
	cmd.Flags().StringVar(&f.Requests, "requests", "", "special requests")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var sf slotFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bookings by date and time, or those of one slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hasSlot, err := sf.slot()
			if err != nil {
				return err
			}
			res, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer res.Close()

			var bookings []types.Booking
			if hasSlot {
				bookings = res.BookingsFor(sf.date, sf.time)
			} else {
				bookings = res.BookingsByTime()
			}
			if a.jsonMode {
				if bookings == nil {
					bookings = []types.Booking{}
				}
				return printJSON(out(cmd), bookings)
			}
			printBookings(out(cmd), bookings)
			return nil
		},
	}
	sf.register(cmd)
	return cmd
}

func newCancelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a booking; unknown IDs are not an error",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer res.Close()

			if err := res.CancelBooking(cmd.Context(), args[0]); err != nil {
				var be *types.BookingError
				if errors.As(err, &be) {
					return userError("%s", be.Message)
				}
				return sysError("cancel booking: %w", err)
			}
			a.publishChange(cmd, res, notify.EventBookingCancelled, args[0])
			if a.jsonMode {
				return printJSON(out(cmd), map[string]string{"cancelled": args[0]})
			}
			fmt.Fprintln(out(cmd), "Cancelled", args[0])
			return nil
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every booking",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return userError("refusing to clear all bookings without --yes")
			}
			res, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer res.Close()

			if err := res.ClearAllBookings(cmd.Context()); err != nil {
				return sysError("clear bookings: %w", err)
			}
			a.publishChange(cmd, res, notify.EventBookingsCleared, "")
			fmt.Fprintln(out(cmd), "All bookings cleared")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting all bookings")
	return cmd
}

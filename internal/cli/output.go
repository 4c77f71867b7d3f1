package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mesh-intelligence/littlelemon/pkg/types"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError("marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func printBookings(w io.Writer, bookings []types.Booking) {
	if len(bookings) == 0 {
		fmt.Fprintln(w, "No bookings.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTABLE\tDATE\tTIME\tGUESTS\tNAME\tREQUESTS")
	for _, b := range bookings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n", b.ID, b.TableID, b.Date, b.Time, b.Guests, b.Name, b.Requests)
	}
	_ = tw.Flush()
}

// tableRow is a table with its status for a slot; Status is empty when no
// slot was given.
type tableRow struct {
	ID     string `json:"id"`
	Seats  int    `json:"seats"`
	Status string `json:"status,omitempty"`
}

func printTables(w io.Writer, rows []tableRow) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tSEATS\tSTATUS")
	for _, r := range rows {
		status := r.Status
		if status == "" {
			status = "-"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", r.ID, r.Seats, status)
	}
	_ = tw.Flush()
}

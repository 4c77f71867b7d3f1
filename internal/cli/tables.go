package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/littlelemon/internal/validate"
	"github.com/mesh-intelligence/littlelemon/pkg/types"
)

const (
	statusAvailable = "available"
	statusReserved  = "reserved"
)

// slotFlags are the --date and --time flags shared by lookup commands.
type slotFlags struct {
	date string
	time string
}

func (f *slotFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, "date", "", "reservation date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.time, "time", "", "reservation time, compared exactly (e.g. 19:00)")
}

// slot trims the flags and reports whether a slot was given; a partial or
// malformed slot is a user error.
func (f *slotFlags) slot() (bool, error) {
	f.date, f.time = strings.TrimSpace(f.date), strings.TrimSpace(f.time)
	if f.date == "" && f.time == "" {
		return false, nil
	}
	if err := validate.Slot(f.date, f.time); err != nil {
		return false, userError("%w", err)
	}
	return true, nil
}

func newTablesCmd(a *app) *cobra.Command {
	var sf slotFlags
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List tables, with their status when --date and --time are given",
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

			free := make(map[string]bool)
			if hasSlot {
				for _, t := range res.FindAvailableTables(sf.date, sf.time, 1) {
					free[t.ID] = true
				}
			}
			var rows []tableRow
			for _, t := range res.Tables() {
				row := tableRow{ID: t.ID, Seats: t.Seats}
				if hasSlot {
					row.Status = statusReserved
					if free[t.ID] {
						row.Status = statusAvailable
					}
				}
				rows = append(rows, row)
			}

			if a.jsonMode {
				return printJSON(out(cmd), rows)
			}
			printTables(out(cmd), rows)
			return nil
		},
	}
	sf.register(cmd)
	return cmd
}

func newAvailabilityCmd(a *app) *cobra.Command {
	var (
		sf     slotFlags
		guests int
	)
	cmd := &cobra.Command{
		Use:   "availability",
		Short: "List the free tables that seat a party at a slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hasSlot, err := sf.slot()
			if err != nil {
				return err
			}
			if !hasSlot {
				return userError("--date and --time are required")
			}
			if guests < 1 {
				return userError("%s", validate.Message("guests"))
			}
			res, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer res.Close()

			tables := res.FindAvailableTables(sf.date, sf.time, guests)
			if tables == nil {
				tables = []types.Table{}
			}
			if a.jsonMode {
				return printJSON(out(cmd), tables)
			}
			if len(tables) == 0 {
				fmt.Fprintln(out(cmd), types.ErrNoAvailability.Message)
				return nil
			}
			rows := make([]tableRow, 0, len(tables))
			for _, t := range tables {
				rows = append(rows, tableRow{ID: t.ID, Seats: t.Seats, Status: statusAvailable})
			}
			printTables(out(cmd), rows)
			return nil
		},
	}
	sf.register(cmd)
	cmd.Flags().IntVar(&guests, "guests", 1, "party size")
	return cmd
}

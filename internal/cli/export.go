package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/littlelemon/internal/export"
)

func newExportCmd(a *app) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write bookings and tables to an Excel workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer res.Close()

			f, err := os.Create(path)
			if err != nil {
				return userError("create %s: %w", path, err)
			}
			if err := export.Write(f, res.BookingsByTime(), res.Tables()); err != nil {
				_ = f.Close()
				return sysError("export: %w", err)
			}
			if err := f.Close(); err != nil {
				return sysError("close %s: %w", path, err)
			}
			fmt.Fprintf(out(cmd), "Exported %d bookings to %s\n", len(res.Bookings()), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "out", "o", "bookings.xlsx", "output file")
	return cmd
}

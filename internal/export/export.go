// Package export writes the reservation collections to an Excel workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/mesh-intelligence/littlelemon/pkg/types"
)

// Sheet names.
const (
	SheetBookings = "Bookings"
	SheetTables   = "Tables"
)

var (
	bookingColumns = []string{"ID", "Table", "Name", "Email", "Phone", "Guests", "Date", "Time", "Requests", "Created At"}
	tableColumns   = []string{"ID", "Seats"}
)

// workbook appends rows to the sheets of an excelize file.
type workbook struct {
	file       *excelize.File
	sheet      string
	row        int
	headerBold int
}

func newWorkbook() (*workbook, error) {
	f := excelize.NewFile()
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}
	return &workbook{file: f, headerBold: style}, nil
}

// addSheet starts a sheet; the first call renames the default sheet.
func (w *workbook) addSheet(name string) error {
	if w.sheet == "" {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet %s: %w", name, err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	w.sheet = name
	w.row = 1
	return nil
}

func (w *workbook) writeHeader(columns []string) error {
	if err := w.writeRow(toAny(columns)); err != nil {
		return err
	}
	start, _ := excelize.CoordinatesToCellName(1, w.row-1)
	end, _ := excelize.CoordinatesToCellName(len(columns), w.row-1)
	return w.file.SetCellStyle(w.sheet, start, end, w.headerBold)
}

func (w *workbook) writeRow(values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		return err
	}
	if err := w.file.SetSheetRow(w.sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d of %s: %w", w.row, w.sheet, err)
	}
	w.row++
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// Write renders bookings (in the given order) and tables as an .xlsx
// workbook to out.
func Write(out io.Writer, bookings []types.Booking, tables []types.Table) error {
	w, err := newWorkbook()
	if err != nil {
		return err
	}
	defer w.file.Close()

	if err := w.addSheet(SheetBookings); err != nil {
		return err
	}
	if err := w.writeHeader(bookingColumns); err != nil {
		return err
	}
	for _, b := range bookings {
		if err := w.writeRow([]any{
			b.ID, b.TableID, b.Name, b.Email, b.Phone, b.Guests,
			b.Date, b.Time, b.Requests, b.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}); err != nil {
			return err
		}
	}

	if err := w.addSheet(SheetTables); err != nil {
		return err
	}
	if err := w.writeHeader(tableColumns); err != nil {
		return err
	}
	for _, t := range tables {
		if err := w.writeRow([]any{t.ID, t.Seats}); err != nil {
			return err
		}
	}

	if err := w.file.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

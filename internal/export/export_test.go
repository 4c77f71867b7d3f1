package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mesh-intelligence/littlelemon/pkg/types"
)

func TestWrite(t *testing.T) {
	bookings := []types.Booking{
		{
			ID: "B1", TableID: "T1", Name: "Ann", Email: "ann@example.com", Phone: "+1234567",
			Guests: 2, Date: "2024-01-01", Time: "19:00", Requests: "quiet",
			CreatedAt: time.Date(2024, 1, 1, 9, 5, 0, 0, time.UTC),
		},
		{ID: "B2", TableID: "T5", Name: "Bo", Guests: 6, Date: "2024-01-02", Time: "20:00"},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, bookings, types.DefaultTables()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetBookings, SheetTables}, f.GetSheetList())

	rows, err := f.GetRows(SheetBookings)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, bookingColumns, rows[0])
	assert.Equal(t, []string{"B1", "T1", "Ann", "ann@example.com", "+1234567", "2", "2024-01-01", "19:00", "quiet", "2024-01-01 09:05:00"}, rows[1])
	assert.Equal(t, "B2", rows[2][0])

	rows, err = f.GetRows(SheetTables)
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, []string{"T5", "6"}, rows[5])
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetBookings)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

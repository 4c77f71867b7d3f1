package validate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/littlelemon/pkg/types"
)

func fixedNow() time.Time {
	return time.Date(2024, 6, 15, 18, 30, 0, 0, time.UTC)
}

func validForm() Form {
	return Form{
		Name:   "Alice",
		Email:  "alice@example.com",
		Phone:  "+919876543210",
		Guests: 2,
		Date:   "2024-06-15",
		Time:   "19:00",
	}
}

func TestCheckAcceptsValidForm(t *testing.T) {
	v := New(fixedNow)

	f := validForm()
	f.Name = "  Alice  "
	f.Requests = "  window seat "
	req, err := v.Check(f)

	require.NoError(t, err)
	assert.Equal(t, types.BookingRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Phone:    "+919876543210",
		Guests:   2,
		Date:     "2024-06-15",
		Time:     "19:00",
		Requests: "window seat",
	}, req)
}

func TestCheckRejectsFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Form)
		field  string
	}{
		{"empty name", func(f *Form) { f.Name = "" }, "name"},
		{"one-letter name", func(f *Form) { f.Name = " A " }, "name"},
		{"email without at", func(f *Form) { f.Email = "alice.example.com" }, "email"},
		{"email without dot", func(f *Form) { f.Email = "alice@example" }, "email"},
		{"email with space", func(f *Form) { f.Email = "al ice@example.com" }, "email"},
		{"phone too short", func(f *Form) { f.Phone = "123456" }, "phone"},
		{"phone too long", func(f *Form) { f.Phone = "1234567890123456" }, "phone"},
		{"phone with dashes", func(f *Form) { f.Phone = "555-123-4567" }, "phone"},
		{"zero guests", func(f *Form) { f.Guests = 0 }, "guests"},
		{"eleven guests", func(f *Form) { f.Guests = 11 }, "guests"},
		{"yesterday", func(f *Form) { f.Date = "2024-06-14" }, "date"},
		{"bad date", func(f *Form) { f.Date = "15/06/2024" }, "date"},
		{"empty date", func(f *Form) { f.Date = "" }, "date"},
		{"empty time", func(f *Form) { f.Time = "  " }, "time"},
	}

	v := New(fixedNow)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			tt.mutate(&f)

			_, err := v.Check(f)

			var fe FieldErrors
			require.True(t, errors.As(err, &fe), "got %v", err)
			assert.Equal(t, []string{tt.field}, fe.Fields())
			assert.Equal(t, "Please provide a valid "+tt.field+".", fe[tt.field])
		})
	}
}

func TestCheckBoundaries(t *testing.T) {
	v := New(fixedNow)
	for _, mutate := range []func(*Form){
		func(f *Form) { f.Guests = 1 },
		func(f *Form) { f.Guests = 10 },
		func(f *Form) { f.Phone = "1234567" },
		func(f *Form) { f.Phone = "+123456789012345" },
		func(f *Form) { f.Name = "Al" },
		func(f *Form) { f.Date = "2030-01-01" },
	} {
		f := validForm()
		mutate(&f)
		_, err := v.Check(f)
		assert.NoError(t, err)
	}
}

func TestCheckReportsAllFields(t *testing.T) {
	v := New(fixedNow)

	_, err := v.Check(Form{})

	var fe FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, []string{"name", "email", "phone", "guests", "date", "time"}, fe.Fields())
	assert.Contains(t, err.Error(), "name: Please provide a valid name.")
}

func TestSlot(t *testing.T) {
	assert.NoError(t, Slot("2020-01-01", "19:00"))

	var fe FieldErrors
	require.True(t, errors.As(Slot("tomorrow", ""), &fe))
	assert.Equal(t, []string{"date", "time"}, fe.Fields())
}

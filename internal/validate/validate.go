// Package validate checks reservation form input before it reaches the
// reservation store, which trusts its callers.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mesh-intelligence/littlelemon/pkg/types"
)

// Guest count bounds accepted from the form.
const (
	MinGuests = 1
	MaxGuests = 10
)

// DateLayout is the only accepted date format.
const DateLayout = time.DateOnly

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?\d{7,15}$`)
)

// Form is the raw reservation form as submitted by a guest.
type Form struct {
	Name     string `json:"name" validate:"min=2"`
	Email    string `json:"email" validate:"lemon_email"`
	Phone    string `json:"phone" validate:"lemon_phone"`
	Guests   int    `json:"guests" validate:"min=1,max=10"`
	Date     string `json:"date" validate:"lemon_date"`
	Time     string `json:"time" validate:"required"`
	Requests string `json:"requests"`
}

// fieldOrder is the order fields appear on the form.
var fieldOrder = []string{"name", "email", "phone", "guests", "date", "time"}

// FieldErrors maps a form field name to its message. It is returned as an
// error when any field fails.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	var parts []string
	for _, f := range fieldOrder {
		if msg, ok := fe[f]; ok {
			parts = append(parts, f+": "+msg)
		}
	}
	return "invalid booking: " + strings.Join(parts, "; ")
}

// Fields returns the failing field names in form order.
func (fe FieldErrors) Fields() []string {
	var out []string
	for _, f := range fieldOrder {
		if _, ok := fe[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Message is the text shown next to a failing field.
func Message(field string) string {
	return fmt.Sprintf("Please provide a valid %s.", field)
}

// Validator checks Forms against the current date.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// New returns a Validator. A nil now uses time.Now.
func New(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      now,
	}
	v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	// Registration only fails for empty tags or nil funcs.
	_ = v.validate.RegisterValidation("lemon_email", matches(emailPattern))
	_ = v.validate.RegisterValidation("lemon_phone", matches(phonePattern))
	_ = v.validate.RegisterValidation("lemon_date", v.notPast)
	return v
}

// Check validates the form and returns the trimmed request on success. On
// failure the error is a FieldErrors naming every failing field.
func (v *Validator) Check(f Form) (types.BookingRequest, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Date = strings.TrimSpace(f.Date)
	f.Time = strings.TrimSpace(f.Time)
	f.Requests = strings.TrimSpace(f.Requests)

	if err := v.validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return types.BookingRequest{}, fmt.Errorf("validating form: %w", err)
		}
		fe := make(FieldErrors, len(verrs))
		for _, e := range verrs {
			fe[e.Field()] = Message(e.Field())
		}
		return types.BookingRequest{}, fe
	}

	return types.BookingRequest{
		Name:     f.Name,
		Email:    f.Email,
		Phone:    f.Phone,
		Guests:   f.Guests,
		Date:     f.Date,
		Time:     f.Time,
		Requests: f.Requests,
	}, nil
}

// Slot checks a (date, time) pair used for lookups. Past dates are allowed.
func Slot(date, slotTime string) error {
	fe := FieldErrors{}
	if _, err := time.Parse(DateLayout, strings.TrimSpace(date)); err != nil {
		fe["date"] = Message("date")
	}
	if strings.TrimSpace(slotTime) == "" {
		fe["time"] = Message("time")
	}
	if len(fe) > 0 {
		return fe
	}
	return nil
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// notPast accepts a YYYY-MM-DD date that is today or later in local time.
func (v *Validator) notPast(fl validator.FieldLevel) bool {
	now := v.now()
	d, err := time.ParseInLocation(DateLayout, fl.Field().String(), now.Location())
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return !d.Before(today)
}

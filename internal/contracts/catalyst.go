package contracts

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidEvent is returned when an event descriptor is missing a required field
var ErrInvalidEvent = errors.New("invalid event descriptor")

// DateLayout is the wire format of every calendar date in files and APIs
const DateLayout = "2006-01-02"

// EventDescriptor is one date-stamped catalyst to study.
// QualityScore and CatalystType are opaque labels passed through untouched.
// ⭐ SSOT: catalyst → event study 입력 계약
type EventDescriptor struct {
	Ticker       string    `json:"ticker" validate:"required,ticker"`
	EventDate    time.Time `json:"event_date" validate:"required"`
	QualityScore string    `json:"quality_score" validate:"required"`
	CatalystType string    `json:"catalyst_type" validate:"required"`
	TrialID      string    `json:"trial_id,omitempty"`
}

// ResultRecord is the per-event output of the event study
type ResultRecord struct {
	Ticker         string    `json:"ticker"`
	EventDate      time.Time `json:"event_date"`
	QualityScore   string    `json:"quality_score"`
	CatalystType   string    `json:"catalyst_type"`
	CAR            float64   `json:"car"`
	RealizedReturn float64   `json:"realized_return"`
}

// PricePoint is one adjusted close of one symbol
type PricePoint struct {
	Date     time.Time `json:"date"`
	AdjClose float64   `json:"adj_close"`
}

// CivilDate strips the clock and location, keeping the calendar date in UTC
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewEventDescriptor builds a validated descriptor.
// The ticker is upper-cased and every label trimmed; the date is reduced to its calendar day.
func NewEventDescriptor(ticker string, eventDate time.Time, qualityScore, catalystType string) (EventDescriptor, error) {
	ev := EventDescriptor{
		Ticker:       strings.ToUpper(strings.TrimSpace(ticker)),
		QualityScore: strings.TrimSpace(qualityScore),
		CatalystType: strings.TrimSpace(catalystType),
	}
	if !eventDate.IsZero() {
		ev.EventDate = CivilDate(eventDate)
	}

	if err := ev.Validate(); err != nil {
		return EventDescriptor{}, err
	}
	return ev, nil
}

// WithTrialID returns a copy carrying the registry id the event was derived from
func (e EventDescriptor) WithTrialID(id string) EventDescriptor {
	e.TrialID = strings.TrimSpace(id)
	return e
}

// Validate checks the required fields
func (e EventDescriptor) Validate() error {
	err := validate.Struct(e)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidEvent, strings.Join(msgs, ", "))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("ticker", isValidTicker)

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// isValidTicker accepts exchange symbols such as VRTX, BRK-B, RDS.A or ^XBI
func isValidTicker(fl validator.FieldLevel) bool {
	ticker := fl.Field().String()
	if len(ticker) < 1 || len(ticker) > 12 {
		return false
	}
	for _, ch := range ticker {
		switch {
		case ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		case ch == '.', ch == '-', ch == '^', ch == '=':
		default:
			return false
		}
	}
	return true
}

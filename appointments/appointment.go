// Package appointments validates and stores consultation bookings
package appointments

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/liamcoop/spinecheck/assessment"
	"github.com/liamcoop/spinecheck/report"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var (
	ErrMissingField = errors.New("required field is missing")
	ErrInvalidPhone = errors.New("invalid phone number")
	ErrInvalidDate  = errors.New("invalid date")
	ErrPastDate     = errors.New("date is in the past")
	ErrInvalidTime  = errors.New("invalid time")
	ErrNotFound     = errors.New("appointment not found")
)

// mobile numbers, e.g. 010-1234-5678
var phonePattern = regexp.MustCompile(`^01[0-9]-?[0-9]{3,4}-?[0-9]{4}$`)

// Appointment is one consultation booking
type Appointment struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Phone      string               `json:"phone"`
	Date       string               `json:"date"`
	Time       string               `json:"time,omitempty"`
	Symptoms   string               `json:"symptoms,omitempty"`
	Assessment *assessment.Response `json:"assessment,omitempty"`
	CreatedAt  time.Time            `json:"createdAt"`
}

// Validate checks the booking form as of now.
// Name, phone and date are required; time is optional.
func (a *Appointment) Validate(now time.Time) error {
	var missing []string
	if strings.TrimSpace(a.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(a.Phone) == "" {
		missing = append(missing, "phone")
	}
	if strings.TrimSpace(a.Date) == "" {
		missing = append(missing, "date")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}

	if !phonePattern.MatchString(strings.ReplaceAll(a.Phone, "-", "")) {
		return fmt.Errorf("%w: %q", ErrInvalidPhone, a.Phone)
	}

	day, err := time.ParseInLocation(DateLayout, a.Date, now.Location())
	if err != nil {
		return fmt.Errorf("%w: %q must be YYYY-MM-DD", ErrInvalidDate, a.Date)
	}
	y, m, d := now.Date()
	if day.Before(time.Date(y, m, d, 0, 0, 0, 0, now.Location())) {
		return fmt.Errorf("%w: %s", ErrPastDate, a.Date)
	}

	if a.Time != "" {
		if _, err := time.Parse(TimeLayout, a.Time); err != nil {
			return fmt.Errorf("%w: %q must be HH:MM", ErrInvalidTime, a.Time)
		}
	}
	return nil
}

// Attach stores a copy of a completed assessment with the booking and fills an
// empty symptom note from it. Responses without any location are ignored.
func (a *Appointment) Attach(r assessment.Response) {
	if len(r.Locations) == 0 {
		return
	}
	cp := r.Clone()
	a.Assessment = &cp
	if strings.TrimSpace(a.Symptoms) == "" {
		a.Symptoms = report.SymptomNote(r)
	}
}

func (a *Appointment) clone() *Appointment {
	cp := *a
	if a.Assessment != nil {
		r := a.Assessment.Clone()
		cp.Assessment = &r
	}
	return &cp
}

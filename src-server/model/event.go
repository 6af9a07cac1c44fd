package model

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

const DateLayout = "2006-01-02"

// Event is one agenda entry. StartDate and EndDate hold an inclusive
// closed date range in YYYY-MM-DD form; a single-day event has
// StartDate == EndDate. Events sharing a non-empty PeriodicGroupID are
// occurrences of the same recurring event.
type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID          int64  `bun:"id,pk,autoincrement" json:"id"`
	Title       string `bun:"title,notnull" json:"title"` // required
	Description string `bun:"description" json:"description,omitempty"`

	StartDate string `bun:"start_date,notnull" json:"start"` // required
	EndDate   string `bun:"end_date,notnull" json:"end"`     // required
	Time      string `bun:"time" json:"time,omitempty"`

	Province string `bun:"province" json:"province,omitempty"`
	Town     string `bun:"town" json:"town,omitempty"`
	PlaceID  int64  `bun:"place_id" json:"placeId,omitempty"`

	Capacity int     `bun:"capacity" json:"capacity,omitempty"`
	Price    float64 `bun:"price" json:"price,omitempty"`
	Image    string  `bun:"image" json:"image,omitempty"`

	Status               string `bun:"status" json:"status,omitempty"`
	StatusReason         string `bun:"status_reason" json:"statusReason,omitempty"`
	RequiresRegistration bool   `bun:"requires_registration" json:"requiresRegistration,omitempty"`

	PeriodicGroupID string `bun:"periodic_group_id" json:"periodicGroupId,omitempty"`
	IsPeriodic      bool   `bun:"is_periodic" json:"isPeriodic"`
}

func (e *Event) Validate() error {
	switch {
	case e.Title == "":
		return fmt.Errorf("(*Event).Validate: title is blank")
	case e.StartDate == "":
		return fmt.Errorf("(*Event).Validate: start date is blank")
	case e.EndDate == "":
		return fmt.Errorf("(*Event).Validate: end date is blank")
	case e.StartDate > e.EndDate:
		return fmt.Errorf("(*Event).Validate: start date must be before end date")
	}
	if _, err := time.Parse(DateLayout, e.StartDate); err != nil {
		return fmt.Errorf("(*Event).Validate: start date is invalid: %w", err)
	}
	if _, err := time.Parse(DateLayout, e.EndDate); err != nil {
		return fmt.Errorf("(*Event).Validate: end date is invalid: %w", err)
	}
	return nil
}

// Start date as time.Time, zero value if the field is malformed.
func (e *Event) Start() time.Time {
	t, err := time.Parse(DateLayout, e.StartDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (e *Event) End() time.Time {
	t, err := time.Parse(DateLayout, e.EndDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Year of the start date, 0 if the field is malformed.
func (e *Event) Year() int {
	return e.Start().Year()
}

// CoversDay reports whether the closed [StartDate, EndDate] range
// contains the given YYYY-MM-DD key. ISO dates compare lexically.
func (e *Event) CoversDay(dayKey string) bool {
	return e.StartDate <= dayKey && dayKey <= e.EndDate
}

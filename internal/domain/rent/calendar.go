package rent

import (
	"time"

	"erent/internal/domain/property"
)

// Calendar is the per-property reservation record. Every write that can add
// or move a blocking rent saves it with its version, so two units booking the
// same property cannot both commit.
type Calendar struct {
	PropertyID property.ID
	Version    int64
	UpdatedAt  time.Time
}

// NewCalendar is the state of a property nobody has booked yet.
func NewCalendar(propertyID property.ID) *Calendar {
	return &Calendar{PropertyID: propertyID}
}

// Touch marks the calendar as changed by the current unit.
func (c *Calendar) Touch(now time.Time) {
	c.UpdatedAt = now.UTC()
}

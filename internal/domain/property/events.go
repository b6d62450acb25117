package property

import (
	"time"

	"erent/internal/domain/user"
)

type Created struct {
	PropertyID ID
	LandlordID user.ID
	At         time.Time
}

func (e Created) EventName() string     { return "property.created" }
func (e Created) AggregateID() string   { return string(e.PropertyID) }
func (e Created) OccurredAt() time.Time { return e.At }

type Updated struct {
	PropertyID ID
	At         time.Time
}

func (e Updated) EventName() string     { return "property.updated" }
func (e Updated) AggregateID() string   { return string(e.PropertyID) }
func (e Updated) OccurredAt() time.Time { return e.At }

type Deactivated struct {
	PropertyID ID
	At         time.Time
}

func (e Deactivated) EventName() string     { return "property.deactivated" }
func (e Deactivated) AggregateID() string   { return string(e.PropertyID) }
func (e Deactivated) OccurredAt() time.Time { return e.At }

package rent

import (
	"time"

	"erent/internal/domain/property"
	"erent/internal/domain/shared/money"
	"erent/internal/domain/user"
)

// Notice is the payload shared by every rent event. Consumers enrich it with
// names and addresses before notifying people.
type Notice struct {
	RentID     ID          `json:"rent_id"`
	PropertyID property.ID `json:"property_id"`
	TenantID   user.ID     `json:"tenant_id"`
	LandlordID user.ID     `json:"landlord_id"`
	Start      time.Time   `json:"start"`
	End        time.Time   `json:"end"`
	Daily      bool        `json:"daily"`
	Total      money.Money `json:"total"`
	Status     string      `json:"status"`
	At         time.Time   `json:"at"`
}

func (r *Rent) notice(at time.Time) Notice {
	return Notice{
		RentID:     r.ID,
		PropertyID: r.PropertyID,
		TenantID:   r.TenantID,
		LandlordID: r.LandlordID,
		Start:      r.Period.Start,
		End:        r.Period.End,
		Daily:      r.Daily,
		Total:      r.Total,
		Status:     r.Status.String(),
		At:         at,
	}
}

const (
	EventCreated   = "rent.created"
	EventUpdated   = "rent.updated"
	EventAccepted  = "rent.accepted"
	EventRejected  = "rent.rejected"
	EventCancelled = "rent.cancelled"
	EventPaid      = "rent.paid"
)

type Created struct{ Notice }

func (e Created) EventName() string     { return EventCreated }
func (e Created) AggregateID() string   { return string(e.RentID) }
func (e Created) OccurredAt() time.Time { return e.At }

type Updated struct{ Notice }

func (e Updated) EventName() string     { return EventUpdated }
func (e Updated) AggregateID() string   { return string(e.RentID) }
func (e Updated) OccurredAt() time.Time { return e.At }

type Accepted struct{ Notice }

func (e Accepted) EventName() string     { return EventAccepted }
func (e Accepted) AggregateID() string   { return string(e.RentID) }
func (e Accepted) OccurredAt() time.Time { return e.At }

type Rejected struct{ Notice }

func (e Rejected) EventName() string     { return EventRejected }
func (e Rejected) AggregateID() string   { return string(e.RentID) }
func (e Rejected) OccurredAt() time.Time { return e.At }

type Cancelled struct{ Notice }

func (e Cancelled) EventName() string     { return EventCancelled }
func (e Cancelled) AggregateID() string   { return string(e.RentID) }
func (e Cancelled) OccurredAt() time.Time { return e.At }

type Paid struct{ Notice }

func (e Paid) EventName() string     { return EventPaid }
func (e Paid) AggregateID() string   { return string(e.RentID) }
func (e Paid) OccurredAt() time.Time { return e.At }

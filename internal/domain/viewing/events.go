package viewing

import (
	"time"

	"erent/internal/domain/property"
	"erent/internal/domain/user"
)

type Notice struct {
	AppointmentID ID          `json:"appointment_id"`
	PropertyID    property.ID `json:"property_id"`
	TenantID      user.ID     `json:"tenant_id"`
	LandlordID    user.ID     `json:"landlord_id"`
	Start         time.Time   `json:"start"`
	End           time.Time   `json:"end"`
	Status        string      `json:"status"`
	Note          string      `json:"note,omitempty"`
	At            time.Time   `json:"at"`
}

func (a *Appointment) notice(at time.Time) Notice {
	note := a.TenantNote
	if a.Status != StatusPending && a.LandlordNote != "" {
		note = a.LandlordNote
	}
	return Notice{
		AppointmentID: a.ID,
		PropertyID:    a.PropertyID,
		TenantID:      a.TenantID,
		LandlordID:    a.LandlordID,
		Start:         a.Start,
		End:           a.End,
		Status:        a.Status.String(),
		Note:          note,
		At:            at,
	}
}

const (
	EventCreated   = "viewing.created"
	EventApproved  = "viewing.approved"
	EventRejected  = "viewing.rejected"
	EventCancelled = "viewing.cancelled"
)

type Created struct{ Notice }

func (e Created) EventName() string     { return EventCreated }
func (e Created) AggregateID() string   { return string(e.AppointmentID) }
func (e Created) OccurredAt() time.Time { return e.At }

type Approved struct{ Notice }

func (e Approved) EventName() string     { return EventApproved }
func (e Approved) AggregateID() string   { return string(e.AppointmentID) }
func (e Approved) OccurredAt() time.Time { return e.At }

type Rejected struct{ Notice }

func (e Rejected) EventName() string     { return EventRejected }
func (e Rejected) AggregateID() string   { return string(e.AppointmentID) }
func (e Rejected) OccurredAt() time.Time { return e.At }

type Cancelled struct{ Notice }

func (e Cancelled) EventName() string     { return EventCancelled }
func (e Cancelled) AggregateID() string   { return string(e.AppointmentID) }
func (e Cancelled) OccurredAt() time.Time { return e.At }

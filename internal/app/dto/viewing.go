package dto

import (
	"time"

	"erent/internal/domain/viewing"
)

type Viewing struct {
	ID           string    `json:"id"`
	PropertyID   string    `json:"property_id"`
	TenantID     string    `json:"tenant_id"`
	LandlordID   string    `json:"landlord_id"`
	Start        time.Time `json:"appointment_start"`
	End          time.Time `json:"appointment_end"`
	StatusID     int       `json:"status_id"`
	Status       string    `json:"status"`
	TenantNote   string    `json:"tenant_note,omitempty"`
	LandlordNote string    `json:"landlord_note,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func MapViewing(a *viewing.Appointment) Viewing {
	return Viewing{
		ID:           string(a.ID),
		PropertyID:   string(a.PropertyID),
		TenantID:     string(a.TenantID),
		LandlordID:   string(a.LandlordID),
		Start:        a.Start,
		End:          a.End,
		StatusID:     int(a.Status),
		Status:       a.Status.String(),
		TenantNote:   a.TenantNote,
		LandlordNote: a.LandlordNote,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

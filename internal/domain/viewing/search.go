package viewing

import (
	"time"

	"erent/internal/domain/property"
	"erent/internal/domain/shared/paging"
	"erent/internal/domain/user"
)

type SearchParams struct {
	PropertyID property.ID
	TenantID   user.ID
	LandlordID user.ID
	// Participant matches either side of the appointment.
	Participant user.ID
	Status      *Status
	From        *time.Time
	To          *time.Time
	Paging      paging.Params
}

func (s SearchParams) Matches(a *Appointment) bool {
	if s.PropertyID != "" && a.PropertyID != s.PropertyID {
		return false
	}
	if s.TenantID != "" && a.TenantID != s.TenantID {
		return false
	}
	if s.LandlordID != "" && a.LandlordID != s.LandlordID {
		return false
	}
	if s.Participant != "" && !a.Involves(s.Participant) {
		return false
	}
	if s.Status != nil && a.Status != *s.Status {
		return false
	}
	if s.From != nil && a.Start.Before(*s.From) {
		return false
	}
	if s.To != nil && a.Start.After(*s.To) {
		return false
	}
	return true
}

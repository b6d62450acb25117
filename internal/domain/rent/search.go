package rent

import (
	"time"

	"erent/internal/domain/property"
	"erent/internal/domain/shared/paging"
	"erent/internal/domain/user"
)

// SearchParams filters rents. PropertyIDs, when non-nil, restricts results to
// those properties; title searches are resolved into it by the caller.
type SearchParams struct {
	PropertyID  property.ID
	PropertyIDs []property.ID
	TenantID    user.ID
	LandlordID  user.ID
	Daily       *bool
	Status      *Status
	StartFrom   *time.Time
	StartTo     *time.Time
	EndFrom     *time.Time
	EndTo       *time.Time
	Active      *bool
	Paging      paging.Params
}

func (s SearchParams) Matches(r *Rent) bool {
	if s.PropertyID != "" && r.PropertyID != s.PropertyID {
		return false
	}
	if s.PropertyIDs != nil && !containsProperty(s.PropertyIDs, r.PropertyID) {
		return false
	}
	if s.TenantID != "" && r.TenantID != s.TenantID {
		return false
	}
	if s.LandlordID != "" && r.LandlordID != s.LandlordID {
		return false
	}
	if s.Daily != nil && r.Daily != *s.Daily {
		return false
	}
	if s.Status != nil && r.Status != *s.Status {
		return false
	}
	if s.StartFrom != nil && r.Period.Start.Before(*s.StartFrom) {
		return false
	}
	if s.StartTo != nil && r.Period.Start.After(*s.StartTo) {
		return false
	}
	if s.EndFrom != nil && r.Period.End.Before(*s.EndFrom) {
		return false
	}
	if s.EndTo != nil && r.Period.End.After(*s.EndTo) {
		return false
	}
	if s.Active != nil && r.Active != *s.Active {
		return false
	}
	return true
}

func containsProperty(ids []property.ID, id property.ID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

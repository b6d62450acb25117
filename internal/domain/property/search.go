package property

import (
	"strings"

	"erent/internal/domain/reference"
	"erent/internal/domain/shared/paging"
	"erent/internal/domain/user"
)

// SearchParams filters the catalogue. Prices are in minor units.
// CityIDs restricts results to the given cities when non-nil; the country
// filter is resolved into this list by the caller.
type SearchParams struct {
	Title            string
	PropertyTypeID   reference.ID
	CityID           reference.ID
	CityIDs          []reference.ID
	LandlordID       user.ID
	MinPricePerMonth *int64
	MaxPricePerMonth *int64
	MinPricePerDay   *int64
	MaxPricePerDay   *int64
	AllowDailyRental *bool
	MinBedrooms      *int
	MaxBedrooms      *int
	AmenityIDs       []reference.ID
	Active           *bool
	Paging           paging.Params
}

type SearchResult = paging.Page[*Property]

func (s SearchParams) Matches(p *Property) bool {
	if t := strings.ToLower(strings.TrimSpace(s.Title)); t != "" && !strings.Contains(strings.ToLower(p.Title), t) {
		return false
	}
	if s.PropertyTypeID != "" && p.PropertyTypeID != s.PropertyTypeID {
		return false
	}
	if s.CityID != "" && p.CityID != s.CityID {
		return false
	}
	if s.CityIDs != nil && !containsID(s.CityIDs, p.CityID) {
		return false
	}
	if s.LandlordID != "" && p.LandlordID != s.LandlordID {
		return false
	}
	if s.MinPricePerMonth != nil && p.PricePerMonth.Amount < *s.MinPricePerMonth {
		return false
	}
	if s.MaxPricePerMonth != nil && p.PricePerMonth.Amount > *s.MaxPricePerMonth {
		return false
	}
	if s.MinPricePerDay != nil && (!p.PricePerDay.IsPositive() || p.PricePerDay.Amount < *s.MinPricePerDay) {
		return false
	}
	if s.MaxPricePerDay != nil && (!p.PricePerDay.IsPositive() || p.PricePerDay.Amount > *s.MaxPricePerDay) {
		return false
	}
	if s.AllowDailyRental != nil && p.AllowDailyRental != *s.AllowDailyRental {
		return false
	}
	if s.MinBedrooms != nil && p.Bedrooms < *s.MinBedrooms {
		return false
	}
	if s.MaxBedrooms != nil && p.Bedrooms > *s.MaxBedrooms {
		return false
	}
	for _, amenity := range s.AmenityIDs {
		if !p.HasAmenity(amenity) {
			return false
		}
	}
	if s.Active != nil && p.Active != *s.Active {
		return false
	}
	return true
}

func containsID(ids []reference.ID, id reference.ID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

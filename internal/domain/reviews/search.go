package reviews

import (
	"erent/internal/domain/property"
	"erent/internal/domain/rent"
	"erent/internal/domain/shared/paging"
	"erent/internal/domain/user"
)

type SearchParams struct {
	RentID     rent.ID
	PropertyID property.ID
	TenantID   user.ID
	Rating     *int
	MinRating  *int
	Active     *bool
	Paging     paging.Params
}

func (s SearchParams) Matches(r *Review) bool {
	if s.RentID != "" && r.RentID != s.RentID {
		return false
	}
	if s.PropertyID != "" && r.PropertyID != s.PropertyID {
		return false
	}
	if s.TenantID != "" && r.TenantID != s.TenantID {
		return false
	}
	if s.Rating != nil && r.Rating != *s.Rating {
		return false
	}
	if s.MinRating != nil && r.Rating < *s.MinRating {
		return false
	}
	if s.Active != nil && r.Active != *s.Active {
		return false
	}
	return true
}

// Summary aggregates ratings of a set of reviews.
type Summary struct {
	Count     int
	Average   float64
	Histogram [5]int
}

func Summarize(items []*Review) Summary {
	var s Summary
	total := 0
	for _, r := range items {
		if r == nil || !r.Active || r.Rating < 1 || r.Rating > 5 {
			continue
		}
		s.Count++
		total += r.Rating
		s.Histogram[r.Rating-1]++
	}
	if s.Count > 0 {
		s.Average = float64(total) / float64(s.Count)
	}
	return s
}

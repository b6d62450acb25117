package dto

import (
	"time"

	"erent/internal/domain/reviews"
)

type Review struct {
	ID         string    `json:"id"`
	RentID     string    `json:"rent_id"`
	PropertyID string    `json:"property_id"`
	TenantID   string    `json:"tenant_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	Active     bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func MapReview(r *reviews.Review) Review {
	return Review{
		ID:         string(r.ID),
		RentID:     string(r.RentID),
		PropertyID: string(r.PropertyID),
		TenantID:   string(r.TenantID),
		Rating:     r.Rating,
		Comment:    r.Comment,
		Active:     r.Active,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

type ReviewSummary struct {
	Count     int     `json:"count"`
	Average   float64 `json:"average"`
	Histogram [5]int  `json:"histogram"`
}

// ReviewPage is a review listing with the rating summary of the matched set.
type ReviewPage struct {
	Page[Review]
	Summary ReviewSummary `json:"summary"`
}

func MapReviewSummary(s reviews.Summary) ReviewSummary {
	return ReviewSummary{Count: s.Count, Average: s.Average, Histogram: s.Histogram}
}

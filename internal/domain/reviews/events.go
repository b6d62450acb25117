package reviews

import (
	"time"

	"erent/internal/domain/property"
	"erent/internal/domain/rent"
)

type ReviewSubmitted struct {
	ReviewID   ReviewID    `json:"review_id"`
	RentID     rent.ID     `json:"rent_id"`
	PropertyID property.ID `json:"property_id"`
	Rating     int         `json:"rating"`
	At         time.Time   `json:"at"`
}

func (e ReviewSubmitted) EventName() string     { return "review.submitted" }
func (e ReviewSubmitted) AggregateID() string   { return string(e.ReviewID) }
func (e ReviewSubmitted) OccurredAt() time.Time { return e.At }

type ReviewUpdated struct {
	ReviewID ReviewID  `json:"review_id"`
	Rating   int       `json:"rating"`
	At       time.Time `json:"at"`
}

func (e ReviewUpdated) EventName() string     { return "review.updated" }
func (e ReviewUpdated) AggregateID() string   { return string(e.ReviewID) }
func (e ReviewUpdated) OccurredAt() time.Time { return e.At }

type ReviewWithdrawn struct {
	ReviewID ReviewID  `json:"review_id"`
	At       time.Time `json:"at"`
}

func (e ReviewWithdrawn) EventName() string     { return "review.withdrawn" }
func (e ReviewWithdrawn) AggregateID() string   { return string(e.ReviewID) }
func (e ReviewWithdrawn) OccurredAt() time.Time { return e.At }

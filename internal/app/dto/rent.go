package dto

import (
	"time"

	"erent/internal/domain/property"
	"erent/internal/domain/rent"
)

type Rent struct {
	ID            string    `json:"id"`
	PropertyID    string    `json:"property_id"`
	PropertyTitle string    `json:"property_title,omitempty"`
	TenantID      string    `json:"tenant_id"`
	LandlordID    string    `json:"landlord_id"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	Daily         bool      `json:"is_daily_rental"`
	Total         MoneyDTO  `json:"total_price"`
	StatusID      int       `json:"rent_status_id"`
	Status        string    `json:"rent_status"`
	Active        bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// MapRent builds the rent payload; p may be nil when the property is unknown.
func MapRent(r *rent.Rent, p *property.Property) Rent {
	out := Rent{
		ID:         string(r.ID),
		PropertyID: string(r.PropertyID),
		TenantID:   string(r.TenantID),
		LandlordID: string(r.LandlordID),
		StartDate:  r.Period.Start,
		EndDate:    r.Period.End,
		Daily:      r.Daily,
		Total:      MapMoney(r.Total),
		StatusID:   int(r.Status),
		Status:     r.Status.String(),
		Active:     r.Active,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if p != nil {
		out.PropertyTitle = p.Title
	}
	return out
}

type Quote struct {
	PropertyID string    `json:"property_id"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Daily      bool      `json:"is_daily_rental"`
	Units      int       `json:"units"`
	Unit       string    `json:"unit"`
	UnitPrice  MoneyDTO  `json:"unit_price"`
	Total      MoneyDTO  `json:"total_price"`
}

package dto

import (
	"time"

	"erent/internal/domain/property"
)

type PropertyImage struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	DisplayOrder int       `json:"display_order"`
	Cover        bool      `json:"is_cover"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

type Property struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Description      string          `json:"description,omitempty"`
	PricePerMonth    MoneyDTO        `json:"price_per_month"`
	PricePerDay      *MoneyDTO       `json:"price_per_day,omitempty"`
	AllowDailyRental bool            `json:"allow_daily_rental"`
	Bedrooms         int             `json:"bedrooms"`
	Bathrooms        int             `json:"bathrooms"`
	Area             float64         `json:"area"`
	PropertyTypeID   string          `json:"property_type_id"`
	PropertyType     string          `json:"property_type,omitempty"`
	CityID           string          `json:"city_id"`
	City             string          `json:"city,omitempty"`
	LandlordID       string          `json:"landlord_id"`
	Address          string          `json:"address,omitempty"`
	Latitude         float64         `json:"latitude"`
	Longitude        float64         `json:"longitude"`
	Active           bool            `json:"is_active"`
	AmenityIDs       []string        `json:"amenity_ids"`
	Images           []PropertyImage `json:"images"`
	CoverImageURL    string          `json:"cover_image_url,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Names resolves reference ids into display names for property payloads.
type Names struct {
	Types  map[string]string
	Cities map[string]string
}

func MapProperty(p *property.Property, names Names) Property {
	out := Property{
		ID:               string(p.ID),
		Title:            p.Title,
		Description:      p.Description,
		PricePerMonth:    MapMoney(p.PricePerMonth),
		AllowDailyRental: p.AllowDailyRental,
		Bedrooms:         p.Bedrooms,
		Bathrooms:        p.Bathrooms,
		Area:             p.Area,
		PropertyTypeID:   string(p.PropertyTypeID),
		PropertyType:     names.Types[string(p.PropertyTypeID)],
		CityID:           string(p.CityID),
		City:             names.Cities[string(p.CityID)],
		LandlordID:       string(p.LandlordID),
		Address:          p.Address,
		Latitude:         p.Latitude,
		Longitude:        p.Longitude,
		Active:           p.Active,
		AmenityIDs:       make([]string, 0, len(p.Amenities)),
		Images:           make([]PropertyImage, 0, len(p.Images)),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if p.PricePerDay.IsPositive() {
		day := MapMoney(p.PricePerDay)
		out.PricePerDay = &day
	}
	for _, a := range p.Amenities {
		out.AmenityIDs = append(out.AmenityIDs, string(a))
	}
	for _, img := range p.Images {
		out.Images = append(out.Images, PropertyImage{
			ID:           img.ID,
			URL:          img.URL,
			DisplayOrder: img.DisplayOrder,
			Cover:        img.Cover,
			UploadedAt:   img.UploadedAt,
		})
	}
	if cover, ok := p.CoverImage(); ok {
		out.CoverImageURL = cover.URL
	}
	return out
}

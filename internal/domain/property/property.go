package property

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"erent/internal/domain/reference"
	"erent/internal/domain/shared/events"
	"erent/internal/domain/shared/money"
	"erent/internal/domain/user"
)

var (
	ErrNotFound           = errors.New("property: not found")
	ErrTitleRequired      = errors.New("property: title is required")
	ErrMonthlyPrice       = errors.New("property: price per month must be greater than 0")
	ErrDailyPriceRequired = errors.New("property: price per day must be provided and greater than 0 when daily rental is allowed")
	ErrNegativeDailyPrice = errors.New("property: price per day must not be negative")
	ErrRooms              = errors.New("property: bedrooms and bathrooms must not be negative")
	ErrArea               = errors.New("property: area must not be negative")
	ErrLandlordRequired   = errors.New("property: landlord is required")
	ErrTypeRequired       = errors.New("property: property type is required")
	ErrCityRequired       = errors.New("property: city is required")
	ErrImageNotFound      = errors.New("property: image not found")
	ErrNotOwner           = errors.New("property: not owned by landlord")
)

type ID string

type Image struct {
	ID           string
	URL          string
	DisplayOrder int
	Cover        bool
	UploadedAt   time.Time
}

type Property struct {
	ID               ID
	LandlordID       user.ID
	Title            string
	Description      string
	PricePerMonth    money.Money
	PricePerDay      money.Money
	AllowDailyRental bool
	Bedrooms         int
	Bathrooms        int
	Area             float64
	PropertyTypeID   reference.ID
	CityID           reference.ID
	Address          string
	Latitude         float64
	Longitude        float64
	Amenities        []reference.ID
	Images           []Image
	Active           bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Version          int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Property, error)
	Search(ctx context.Context, params SearchParams) (SearchResult, error)
	Save(ctx context.Context, property *Property) error
	Delete(ctx context.Context, id ID) error
}

// Details holds the fields a landlord edits.
type Details struct {
	Title            string
	Description      string
	PricePerMonth    money.Money
	PricePerDay      money.Money
	AllowDailyRental bool
	Bedrooms         int
	Bathrooms        int
	Area             float64
	PropertyTypeID   reference.ID
	CityID           reference.ID
	Address          string
	Latitude         float64
	Longitude        float64
	Amenities        []reference.ID
}

type CreateParams struct {
	ID         ID
	LandlordID user.ID
	Details    Details
	Now        time.Time
}

func New(params CreateParams) (*Property, error) {
	if strings.TrimSpace(string(params.LandlordID)) == "" {
		return nil, ErrLandlordRequired
	}
	now := params.Now.UTC()
	p := &Property{
		ID:         params.ID,
		LandlordID: params.LandlordID,
		Active:     true,
		CreatedAt:  now,
	}
	if err := p.apply(params.Details, now); err != nil {
		return nil, err
	}
	p.Record(Created{PropertyID: p.ID, LandlordID: p.LandlordID, At: now})
	return p, nil
}

func (p *Property) Update(details Details, now time.Time) error {
	if err := p.apply(details, now.UTC()); err != nil {
		return err
	}
	p.Record(Updated{PropertyID: p.ID, At: p.UpdatedAt})
	return nil
}

// Validate checks the invariants of a details payload without mutating anything.
func (d Details) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrTitleRequired
	}
	if !d.PricePerMonth.IsPositive() {
		return ErrMonthlyPrice
	}
	if d.PricePerDay.Amount < 0 {
		return ErrNegativeDailyPrice
	}
	if d.AllowDailyRental && !d.PricePerDay.IsPositive() {
		return ErrDailyPriceRequired
	}
	if d.Bedrooms < 0 || d.Bathrooms < 0 {
		return ErrRooms
	}
	if d.Area < 0 {
		return ErrArea
	}
	if strings.TrimSpace(string(d.PropertyTypeID)) == "" {
		return ErrTypeRequired
	}
	if strings.TrimSpace(string(d.CityID)) == "" {
		return ErrCityRequired
	}
	return nil
}

func (p *Property) apply(d Details, now time.Time) error {
	if err := d.Validate(); err != nil {
		return err
	}
	currency := d.PricePerMonth.Currency
	if currency == "" {
		currency = money.DefaultCurrency
	}
	p.Title = strings.TrimSpace(d.Title)
	p.Description = strings.TrimSpace(d.Description)
	p.PricePerMonth = money.Money{Amount: d.PricePerMonth.Amount, Currency: currency}
	p.PricePerDay = money.Money{Amount: d.PricePerDay.Amount, Currency: currency}
	p.AllowDailyRental = d.AllowDailyRental
	p.Bedrooms = d.Bedrooms
	p.Bathrooms = d.Bathrooms
	p.Area = d.Area
	p.PropertyTypeID = d.PropertyTypeID
	p.CityID = d.CityID
	p.Address = strings.TrimSpace(d.Address)
	p.Latitude = d.Latitude
	p.Longitude = d.Longitude
	p.Amenities = dedupeIDs(d.Amenities)
	p.UpdatedAt = now
	return nil
}

// DailyRate returns the per-day price when daily rental is offered.
func (p *Property) DailyRate() (money.Money, bool) {
	if !p.AllowDailyRental || !p.PricePerDay.IsPositive() {
		return money.Money{}, false
	}
	return p.PricePerDay, true
}

func (p *Property) OwnedBy(id user.ID) bool {
	return p.LandlordID == id
}

func (p *Property) HasAmenity(id reference.ID) bool {
	for _, a := range p.Amenities {
		if a == id {
			return true
		}
	}
	return false
}

func (p *Property) Deactivate(now time.Time) {
	if !p.Active {
		return
	}
	p.Active = false
	p.UpdatedAt = now.UTC()
	p.Record(Deactivated{PropertyID: p.ID, At: p.UpdatedAt})
}

func (p *Property) Activate(now time.Time) {
	if p.Active {
		return
	}
	p.Active = true
	p.UpdatedAt = now.UTC()
}

// AddImage appends an image. The first image, or one flagged as cover, becomes the cover.
func (p *Property) AddImage(img Image, now time.Time) {
	img.UploadedAt = now.UTC()
	if img.DisplayOrder <= 0 {
		img.DisplayOrder = len(p.Images) + 1
	}
	if len(p.Images) == 0 {
		img.Cover = true
	}
	if img.Cover {
		for i := range p.Images {
			p.Images[i].Cover = false
		}
	}
	p.Images = append(p.Images, img)
	sort.SliceStable(p.Images, func(i, j int) bool {
		return p.Images[i].DisplayOrder < p.Images[j].DisplayOrder
	})
	p.UpdatedAt = now.UTC()
}

func (p *Property) RemoveImage(imageID string, now time.Time) error {
	idx := -1
	for i, img := range p.Images {
		if img.ID == imageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrImageNotFound
	}
	wasCover := p.Images[idx].Cover
	p.Images = append(p.Images[:idx], p.Images[idx+1:]...)
	if wasCover && len(p.Images) > 0 {
		p.Images[0].Cover = true
	}
	p.UpdatedAt = now.UTC()
	return nil
}

func (p *Property) CoverImage() (Image, bool) {
	for _, img := range p.Images {
		if img.Cover {
			return img, true
		}
	}
	return Image{}, false
}

func dedupeIDs(ids []reference.ID) []reference.ID {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[reference.ID]struct{}, len(ids))
	out := make([]reference.ID, 0, len(ids))
	for _, id := range ids {
		id = reference.ID(strings.TrimSpace(string(id)))
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

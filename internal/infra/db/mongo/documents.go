package mongo

import (
	"strings"
	"time"

	"erent/internal/domain/notification"
	"erent/internal/domain/property"
	"erent/internal/domain/reference"
	"erent/internal/domain/rent"
	"erent/internal/domain/reviews"
	"erent/internal/domain/shared/daterange"
	"erent/internal/domain/shared/money"
	"erent/internal/domain/user"
	"erent/internal/domain/viewing"
)

type imageDocument struct {
	ID           string    `bson:"id"`
	URL          string    `bson:"url"`
	DisplayOrder int       `bson:"display_order"`
	Cover        bool      `bson:"cover"`
	UploadedAt   time.Time `bson:"uploaded_at"`
}

type propertyDocument struct {
	ID               string          `bson:"_id"`
	LandlordID       string          `bson:"landlord_id"`
	Title            string          `bson:"title"`
	Description      string          `bson:"description"`
	PricePerMonth    money.Money     `bson:"price_per_month"`
	PricePerDay      money.Money     `bson:"price_per_day"`
	AllowDailyRental bool            `bson:"allow_daily_rental"`
	Bedrooms         int             `bson:"bedrooms"`
	Bathrooms        int             `bson:"bathrooms"`
	Area             float64         `bson:"area"`
	PropertyTypeID   string          `bson:"property_type_id"`
	CityID           string          `bson:"city_id"`
	Address          string          `bson:"address"`
	Latitude         float64         `bson:"latitude"`
	Longitude        float64         `bson:"longitude"`
	Amenities        []string        `bson:"amenities"`
	Images           []imageDocument `bson:"images"`
	Active           bool            `bson:"active"`
	CreatedAt        time.Time       `bson:"created_at"`
	UpdatedAt        time.Time       `bson:"updated_at"`
	Version          int64           `bson:"version"`
}

func newPropertyDocument(p *property.Property) propertyDocument {
	images := make([]imageDocument, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, imageDocument(img))
	}
	return propertyDocument{
		ID:               string(p.ID),
		LandlordID:       string(p.LandlordID),
		Title:            p.Title,
		Description:      p.Description,
		PricePerMonth:    p.PricePerMonth,
		PricePerDay:      p.PricePerDay,
		AllowDailyRental: p.AllowDailyRental,
		Bedrooms:         p.Bedrooms,
		Bathrooms:        p.Bathrooms,
		Area:             p.Area,
		PropertyTypeID:   string(p.PropertyTypeID),
		CityID:           string(p.CityID),
		Address:          p.Address,
		Latitude:         p.Latitude,
		Longitude:        p.Longitude,
		Amenities:        refStrings(p.Amenities),
		Images:           images,
		Active:           p.Active,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
		Version:          p.Version,
	}
}

func (d propertyDocument) toAggregate() *property.Property {
	images := make([]property.Image, 0, len(d.Images))
	for _, img := range d.Images {
		images = append(images, property.Image{
			ID:           img.ID,
			URL:          img.URL,
			DisplayOrder: img.DisplayOrder,
			Cover:        img.Cover,
			UploadedAt:   img.UploadedAt.UTC(),
		})
	}
	return &property.Property{
		ID:               property.ID(d.ID),
		LandlordID:       user.ID(d.LandlordID),
		Title:            d.Title,
		Description:      d.Description,
		PricePerMonth:    d.PricePerMonth,
		PricePerDay:      d.PricePerDay,
		AllowDailyRental: d.AllowDailyRental,
		Bedrooms:         d.Bedrooms,
		Bathrooms:        d.Bathrooms,
		Area:             d.Area,
		PropertyTypeID:   reference.ID(d.PropertyTypeID),
		CityID:           reference.ID(d.CityID),
		Address:          d.Address,
		Latitude:         d.Latitude,
		Longitude:        d.Longitude,
		Amenities:        refIDs(d.Amenities),
		Images:           images,
		Active:           d.Active,
		CreatedAt:        d.CreatedAt.UTC(),
		UpdatedAt:        d.UpdatedAt.UTC(),
		Version:          d.Version,
	}
}

type periodDocument struct {
	Start time.Time `bson:"start"`
	End   time.Time `bson:"end"`
}

type rentDocument struct {
	ID         string         `bson:"_id"`
	PropertyID string         `bson:"property_id"`
	TenantID   string         `bson:"tenant_id"`
	LandlordID string         `bson:"landlord_id"`
	Period     periodDocument `bson:"period"`
	Daily      bool           `bson:"daily"`
	Total      money.Money    `bson:"total"`
	Status     int            `bson:"status"`
	Active     bool           `bson:"active"`
	CreatedAt  time.Time      `bson:"created_at"`
	UpdatedAt  time.Time      `bson:"updated_at"`
	Version    int64          `bson:"version"`
}

func newRentDocument(r *rent.Rent) rentDocument {
	return rentDocument{
		ID:         string(r.ID),
		PropertyID: string(r.PropertyID),
		TenantID:   string(r.TenantID),
		LandlordID: string(r.LandlordID),
		Period:     periodDocument{Start: r.Period.Start, End: r.Period.End},
		Daily:      r.Daily,
		Total:      r.Total,
		Status:     int(r.Status),
		Active:     r.Active,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		Version:    r.Version,
	}
}

func (d rentDocument) toAggregate() *rent.Rent {
	return &rent.Rent{
		ID:         rent.ID(d.ID),
		PropertyID: property.ID(d.PropertyID),
		TenantID:   user.ID(d.TenantID),
		LandlordID: user.ID(d.LandlordID),
		Period:     daterange.DateRange{Start: d.Period.Start.UTC(), End: d.Period.End.UTC()},
		Daily:      d.Daily,
		Total:      d.Total,
		Status:     rent.Status(d.Status),
		Active:     d.Active,
		CreatedAt:  d.CreatedAt.UTC(),
		UpdatedAt:  d.UpdatedAt.UTC(),
		Version:    d.Version,
	}
}

// calendarDocument carries no bookings itself; its version is what
// serialises writers booking the same property.
type calendarDocument struct {
	PropertyID string    `bson:"_id"`
	UpdatedAt  time.Time `bson:"updated_at"`
	Version    int64     `bson:"version"`
}

func (d calendarDocument) toAggregate() *rent.Calendar {
	return &rent.Calendar{
		PropertyID: property.ID(d.PropertyID),
		UpdatedAt:  d.UpdatedAt.UTC(),
		Version:    d.Version,
	}
}

type viewingDocument struct {
	ID           string    `bson:"_id"`
	PropertyID   string    `bson:"property_id"`
	TenantID     string    `bson:"tenant_id"`
	LandlordID   string    `bson:"landlord_id"`
	Start        time.Time `bson:"start"`
	End          time.Time `bson:"end"`
	Status       int       `bson:"status"`
	TenantNote   string    `bson:"tenant_note"`
	LandlordNote string    `bson:"landlord_note"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
	Version      int64     `bson:"version"`
}

func newViewingDocument(a *viewing.Appointment) viewingDocument {
	return viewingDocument{
		ID:           string(a.ID),
		PropertyID:   string(a.PropertyID),
		TenantID:     string(a.TenantID),
		LandlordID:   string(a.LandlordID),
		Start:        a.Start,
		End:          a.End,
		Status:       int(a.Status),
		TenantNote:   a.TenantNote,
		LandlordNote: a.LandlordNote,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
		Version:      a.Version,
	}
}

func (d viewingDocument) toAggregate() *viewing.Appointment {
	return &viewing.Appointment{
		ID:           viewing.ID(d.ID),
		PropertyID:   property.ID(d.PropertyID),
		TenantID:     user.ID(d.TenantID),
		LandlordID:   user.ID(d.LandlordID),
		Start:        d.Start.UTC(),
		End:          d.End.UTC(),
		Status:       viewing.Status(d.Status),
		TenantNote:   d.TenantNote,
		LandlordNote: d.LandlordNote,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
		Version:      d.Version,
	}
}

type reviewDocument struct {
	ID         string    `bson:"_id"`
	RentID     string    `bson:"rent_id"`
	PropertyID string    `bson:"property_id"`
	TenantID   string    `bson:"tenant_id"`
	Rating     int       `bson:"rating"`
	Comment    string    `bson:"comment"`
	Active     bool      `bson:"active"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

func newReviewDocument(r *reviews.Review) reviewDocument {
	return reviewDocument{
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

func (d reviewDocument) toAggregate() *reviews.Review {
	return &reviews.Review{
		ID:         reviews.ReviewID(d.ID),
		RentID:     rent.ID(d.RentID),
		PropertyID: property.ID(d.PropertyID),
		TenantID:   user.ID(d.TenantID),
		Rating:     d.Rating,
		Comment:    d.Comment,
		Active:     d.Active,
		CreatedAt:  d.CreatedAt.UTC(),
		UpdatedAt:  d.UpdatedAt.UTC(),
	}
}

// referenceDocument keys entries by kind and id. NameKey backs the
// case-insensitive unique index on names.
type referenceDocument struct {
	Key         string    `bson:"_id"`
	ID          string    `bson:"ref_id"`
	Kind        string    `bson:"kind"`
	Name        string    `bson:"name"`
	NameKey     string    `bson:"name_key"`
	Code        string    `bson:"code"`
	Description string    `bson:"description"`
	ParentID    string    `bson:"parent_id"`
	Active      bool      `bson:"active"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func referenceKey(kind reference.Kind, id reference.ID) string {
	return string(kind) + "/" + string(id)
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func newReferenceDocument(e *reference.Entry) referenceDocument {
	return referenceDocument{
		Key:         referenceKey(e.Kind, e.ID),
		ID:          string(e.ID),
		Kind:        string(e.Kind),
		Name:        e.Name,
		NameKey:     nameKey(e.Name),
		Code:        e.Code,
		Description: e.Description,
		ParentID:    string(e.ParentID),
		Active:      e.Active,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func (d referenceDocument) toEntry() *reference.Entry {
	return &reference.Entry{
		ID:          reference.ID(d.ID),
		Kind:        reference.Kind(d.Kind),
		Name:        d.Name,
		Code:        d.Code,
		Description: d.Description,
		ParentID:    reference.ID(d.ParentID),
		Active:      d.Active,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

type userDocument struct {
	ID           string    `bson:"_id"`
	FirstName    string    `bson:"first_name"`
	LastName     string    `bson:"last_name"`
	Email        string    `bson:"email"`
	Username     string    `bson:"username"`
	PasswordHash string    `bson:"password_hash"`
	Phone        string    `bson:"phone"`
	GenderID     string    `bson:"gender_id"`
	CityID       string    `bson:"city_id"`
	Roles        []string  `bson:"roles"`
	Active       bool      `bson:"active"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func newUserDocument(u *user.User) userDocument {
	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, string(r))
	}
	return userDocument{
		ID:           string(u.ID),
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        user.NormalizeEmail(u.Email),
		Username:     user.NormalizeUsername(u.Username),
		PasswordHash: u.PasswordHash,
		Phone:        u.Phone,
		GenderID:     string(u.GenderID),
		CityID:       string(u.CityID),
		Roles:        roles,
		Active:       u.Active,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d userDocument) toAggregate() *user.User {
	roles := make([]user.Role, 0, len(d.Roles))
	for _, r := range d.Roles {
		roles = append(roles, user.Role(r))
	}
	return &user.User{
		ID:           user.ID(d.ID),
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Email:        d.Email,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		Phone:        d.Phone,
		GenderID:     reference.ID(d.GenderID),
		CityID:       reference.ID(d.CityID),
		Roles:        roles,
		Active:       d.Active,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

type notificationDocument struct {
	ID            string     `bson:"_id"`
	UserID        string     `bson:"user_id"`
	Title         string     `bson:"title"`
	Message       string     `bson:"message"`
	Type          int        `bson:"type"`
	ReferenceID   string     `bson:"reference_id"`
	ReferenceType string     `bson:"reference_type"`
	Read          bool       `bson:"read"`
	ReadAt        *time.Time `bson:"read_at,omitempty"`
	CreatedAt     time.Time  `bson:"created_at"`
}

func newNotificationDocument(n *notification.Notification) notificationDocument {
	return notificationDocument{
		ID:            string(n.ID),
		UserID:        string(n.UserID),
		Title:         n.Title,
		Message:       n.Message,
		Type:          int(n.Type),
		ReferenceID:   n.ReferenceID,
		ReferenceType: n.ReferenceType,
		Read:          n.Read,
		ReadAt:        n.ReadAt,
		CreatedAt:     n.CreatedAt,
	}
}

func (d notificationDocument) toAggregate() *notification.Notification {
	return &notification.Notification{
		ID:            notification.ID(d.ID),
		UserID:        user.ID(d.UserID),
		Title:         d.Title,
		Message:       d.Message,
		Type:          notification.Type(d.Type),
		ReferenceID:   d.ReferenceID,
		ReferenceType: d.ReferenceType,
		Read:          d.Read,
		ReadAt:        d.ReadAt,
		CreatedAt:     d.CreatedAt.UTC(),
	}
}

func refStrings(ids []reference.ID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}
	return out
}

func refIDs(raw []string) []reference.ID {
	out := make([]reference.ID, 0, len(raw))
	for _, id := range raw {
		out = append(out, reference.ID(id))
	}
	return out
}

package properties

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"erent/internal/app/access"
	"erent/internal/app/commands"
	"erent/internal/app/dto"
	handlersupport "erent/internal/app/handlers/support"
	"erent/internal/app/outbox"
	"erent/internal/app/policies"
	"erent/internal/app/uow"
	"erent/internal/domain/property"
	"erent/internal/domain/reference"
	"erent/internal/domain/shared/money"
	"erent/internal/domain/user"
)

const (
	createPropertyKey    = "properties.create"
	updatePropertyKey    = "properties.update"
	setPropertyActiveKey = "properties.set_active"
	addImageKey          = "properties.images.add"
	removeImageKey       = "properties.images.remove"
)

var (
	ErrUnknownReference = errors.New("properties: unknown reference")
	ErrImageStore       = errors.New("properties: image storage is not configured")
	ErrEmptyImage       = errors.New("properties: image is empty")
)

// Fields is the editable payload shared by create and update. Prices are in
// minor units.
type Fields struct {
	Title            string `validate:"required,max=200"`
	Description      string `validate:"max=4000"`
	PricePerMonth    int64  `validate:"gt=0"`
	PricePerDay      int64  `validate:"gte=0"`
	Currency         string `validate:"omitempty,len=3"`
	AllowDailyRental bool
	Bedrooms         int     `validate:"gte=0"`
	Bathrooms        int     `validate:"gte=0"`
	Area             float64 `validate:"gte=0"`
	PropertyTypeID   string  `validate:"required"`
	CityID           string  `validate:"required"`
	Address          string  `validate:"max=300"`
	Latitude         float64 `validate:"gte=-90,lte=90"`
	Longitude        float64 `validate:"gte=-180,lte=180"`
	AmenityIDs       []string
}

func (f Fields) details() property.Details {
	currency := f.Currency
	if currency == "" {
		currency = money.DefaultCurrency
	}
	amenities := make([]reference.ID, 0, len(f.AmenityIDs))
	for _, id := range f.AmenityIDs {
		amenities = append(amenities, reference.ID(id))
	}
	return property.Details{
		Title:            f.Title,
		Description:      f.Description,
		PricePerMonth:    money.Money{Amount: f.PricePerMonth, Currency: currency},
		PricePerDay:      money.Money{Amount: f.PricePerDay, Currency: currency},
		AllowDailyRental: f.AllowDailyRental,
		Bedrooms:         f.Bedrooms,
		Bathrooms:        f.Bathrooms,
		Area:             f.Area,
		PropertyTypeID:   reference.ID(f.PropertyTypeID),
		CityID:           reference.ID(f.CityID),
		Address:          f.Address,
		Latitude:         f.Latitude,
		Longitude:        f.Longitude,
		Amenities:        amenities,
	}
}

// CreatePropertyCommand lists a new property. Administrators may list on
// behalf of a landlord by setting LandlordID.
type CreatePropertyCommand struct {
	ID         string `validate:"required"`
	Actor      access.Actor
	LandlordID string
	Fields     Fields
	IdemKey    string
}

func (CreatePropertyCommand) Key() string               { return createPropertyKey }
func (c CreatePropertyCommand) Caller() access.Actor    { return c.Actor }
func (CreatePropertyCommand) AllowedRoles() []user.Role { return []user.Role{user.RoleLandlord} }
func (c CreatePropertyCommand) IdempotencyKey() string  { return c.IdemKey }
func (CreatePropertyCommand) ResultPrototype() any      { return &dto.Property{} }

type UpdatePropertyCommand struct {
	PropertyID string `validate:"required"`
	Actor      access.Actor
	Fields     Fields
}

func (UpdatePropertyCommand) Key() string               { return updatePropertyKey }
func (c UpdatePropertyCommand) Caller() access.Actor    { return c.Actor }
func (UpdatePropertyCommand) AllowedRoles() []user.Role { return []user.Role{user.RoleLandlord} }

// SetPropertyActiveCommand hides or re-lists a property. Deleting a property
// through the API deactivates it.
type SetPropertyActiveCommand struct {
	PropertyID string `validate:"required"`
	Actor      access.Actor
	Active     bool
}

func (SetPropertyActiveCommand) Key() string               { return setPropertyActiveKey }
func (c SetPropertyActiveCommand) Caller() access.Actor    { return c.Actor }
func (SetPropertyActiveCommand) AllowedRoles() []user.Role { return []user.Role{user.RoleLandlord} }

type AddImageCommand struct {
	PropertyID   string `validate:"required"`
	ImageID      string `validate:"required"`
	Actor        access.Actor
	ContentType  string `validate:"required"`
	Data         []byte
	Cover        bool
	DisplayOrder int `validate:"gte=0"`
}

func (AddImageCommand) Key() string               { return addImageKey }
func (c AddImageCommand) Caller() access.Actor    { return c.Actor }
func (AddImageCommand) AllowedRoles() []user.Role { return []user.Role{user.RoleLandlord} }

type RemoveImageCommand struct {
	PropertyID string `validate:"required"`
	ImageID    string `validate:"required"`
	Actor      access.Actor
}

func (RemoveImageCommand) Key() string               { return removeImageKey }
func (c RemoveImageCommand) Caller() access.Actor    { return c.Actor }
func (RemoveImageCommand) AllowedRoles() []user.Role { return []user.Role{user.RoleLandlord} }

// Handler serves every property write.
type Handler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Images     policies.ImageStore
	Clock      policies.Clock
	Logger     *slog.Logger
}

func (h *Handler) Create() commands.Handler[CreatePropertyCommand, dto.Property] {
	return commands.HandlerFunc[CreatePropertyCommand, dto.Property](h.create)
}

func (h *Handler) Update() commands.Handler[UpdatePropertyCommand, dto.Property] {
	return commands.HandlerFunc[UpdatePropertyCommand, dto.Property](h.update)
}

func (h *Handler) SetActive() commands.Handler[SetPropertyActiveCommand, dto.Property] {
	return commands.HandlerFunc[SetPropertyActiveCommand, dto.Property](h.setActive)
}

func (h *Handler) AddImage() commands.Handler[AddImageCommand, dto.Property] {
	return commands.HandlerFunc[AddImageCommand, dto.Property](h.addImage)
}

func (h *Handler) RemoveImage() commands.Handler[RemoveImageCommand, dto.Property] {
	return commands.HandlerFunc[RemoveImageCommand, dto.Property](h.removeImage)
}

func (h *Handler) create(ctx context.Context, cmd CreatePropertyCommand) (dto.Property, error) {
	landlord := cmd.Actor.ID
	if cmd.LandlordID != "" && cmd.Actor.IsAdmin() {
		landlord = user.ID(cmd.LandlordID)
	}
	m, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Property{}, err
	}
	defer m.Close()

	details := cmd.Fields.details()
	if err := details.Validate(); err != nil {
		return dto.Property{}, err
	}
	if _, err := m.Unit.Users().ByID(m.Ctx, landlord); err != nil {
		return dto.Property{}, err
	}
	if err := checkReferences(m.Ctx, m.Unit, details); err != nil {
		return dto.Property{}, err
	}
	p, err := property.New(property.CreateParams{
		ID:         property.ID(cmd.ID),
		LandlordID: landlord,
		Details:    details,
		Now:        h.Clock.Now(),
	})
	if err != nil {
		return dto.Property{}, err
	}
	if err := h.save(m, p); err != nil {
		return dto.Property{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("property created", "property_id", p.ID, "landlord_id", p.LandlordID)
	}
	return mapWithNames(m.Ctx, m.Unit, p), nil
}

func (h *Handler) update(ctx context.Context, cmd UpdatePropertyCommand) (dto.Property, error) {
	m, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Property{}, err
	}
	defer m.Close()

	p, err := ownedProperty(m.Ctx, m.Unit, cmd.PropertyID, cmd.Actor)
	if err != nil {
		return dto.Property{}, err
	}
	details := cmd.Fields.details()
	if err := details.Validate(); err != nil {
		return dto.Property{}, err
	}
	if err := checkReferences(m.Ctx, m.Unit, details); err != nil {
		return dto.Property{}, err
	}
	if err := p.Update(details, h.Clock.Now()); err != nil {
		return dto.Property{}, err
	}
	if err := h.save(m, p); err != nil {
		return dto.Property{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("property updated", "property_id", p.ID)
	}
	return mapWithNames(m.Ctx, m.Unit, p), nil
}

func (h *Handler) setActive(ctx context.Context, cmd SetPropertyActiveCommand) (dto.Property, error) {
	m, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Property{}, err
	}
	defer m.Close()

	p, err := ownedProperty(m.Ctx, m.Unit, cmd.PropertyID, cmd.Actor)
	if err != nil {
		return dto.Property{}, err
	}
	if cmd.Active {
		p.Activate(h.Clock.Now())
	} else {
		p.Deactivate(h.Clock.Now())
	}
	if err := h.save(m, p); err != nil {
		return dto.Property{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("property visibility changed", "property_id", p.ID, "active", p.Active)
	}
	return mapWithNames(m.Ctx, m.Unit, p), nil
}

func (h *Handler) addImage(ctx context.Context, cmd AddImageCommand) (dto.Property, error) {
	if h.Images == nil {
		return dto.Property{}, ErrImageStore
	}
	if len(cmd.Data) == 0 {
		return dto.Property{}, ErrEmptyImage
	}
	m, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Property{}, err
	}
	defer m.Close()

	p, err := ownedProperty(m.Ctx, m.Unit, cmd.PropertyID, cmd.Actor)
	if err != nil {
		return dto.Property{}, err
	}
	key := ImageKey(p.ID, cmd.ImageID)
	url, err := h.Images.Upload(m.Ctx, key, bytes.NewReader(cmd.Data), int64(len(cmd.Data)), cmd.ContentType)
	if err != nil {
		return dto.Property{}, fmt.Errorf("upload image: %w", err)
	}
	p.AddImage(property.Image{
		ID:           cmd.ImageID,
		URL:          url,
		DisplayOrder: cmd.DisplayOrder,
		Cover:        cmd.Cover,
	}, h.Clock.Now())
	if err := h.save(m, p); err != nil {
		_ = h.Images.Delete(context.WithoutCancel(ctx), key)
		return dto.Property{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("property image added", "property_id", p.ID, "image_id", cmd.ImageID, "bytes", len(cmd.Data))
	}
	return mapWithNames(m.Ctx, m.Unit, p), nil
}

func (h *Handler) removeImage(ctx context.Context, cmd RemoveImageCommand) (dto.Property, error) {
	m, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Property{}, err
	}
	defer m.Close()

	p, err := ownedProperty(m.Ctx, m.Unit, cmd.PropertyID, cmd.Actor)
	if err != nil {
		return dto.Property{}, err
	}
	if err := p.RemoveImage(cmd.ImageID, h.Clock.Now()); err != nil {
		return dto.Property{}, err
	}
	if err := h.save(m, p); err != nil {
		return dto.Property{}, err
	}
	if h.Images != nil {
		if err := h.Images.Delete(m.Ctx, ImageKey(p.ID, cmd.ImageID)); err != nil && h.Logger != nil {
			h.Logger.Warn("image object not deleted", "property_id", p.ID, "image_id", cmd.ImageID, "error", err)
		}
	}
	return mapWithNames(m.Ctx, m.Unit, p), nil
}

func (h *Handler) save(m *handlersupport.Managed, p *property.Property) error {
	if err := m.Unit.Properties().Save(m.Ctx, p); err != nil {
		return err
	}
	if err := outbox.Publish(m.Ctx, h.Outbox, h.Encoder, p); err != nil {
		return err
	}
	return m.Commit()
}

// ImageKey is the object key an image of a property is stored under.
func ImageKey(id property.ID, imageID string) string {
	return "properties/" + string(id) + "/" + imageID
}

func ownedProperty(ctx context.Context, unit uow.UnitOfWork, id string, actor access.Actor) (*property.Property, error) {
	p, err := unit.Properties().ByID(ctx, property.ID(id))
	if err != nil {
		return nil, err
	}
	if !actor.Is(p.LandlordID) {
		return nil, fmt.Errorf("%w: property belongs to another landlord", access.ErrForbidden)
	}
	return p, nil
}

func checkReferences(ctx context.Context, unit uow.UnitOfWork, d property.Details) error {
	refs := unit.Reference()
	if _, err := refs.ByID(ctx, reference.KindPropertyType, d.PropertyTypeID); err != nil {
		return referenceError(err, "property type", d.PropertyTypeID)
	}
	if _, err := refs.ByID(ctx, reference.KindCity, d.CityID); err != nil {
		return referenceError(err, "city", d.CityID)
	}
	for _, amenity := range d.Amenities {
		if _, err := refs.ByID(ctx, reference.KindAmenity, amenity); err != nil {
			return referenceError(err, "amenity", amenity)
		}
	}
	return nil
}

func referenceError(err error, what string, id reference.ID) error {
	if errors.Is(err, reference.ErrNotFound) {
		return fmt.Errorf("%w: %s %q", ErrUnknownReference, what, id)
	}
	return err
}

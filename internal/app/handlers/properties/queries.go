package properties

import (
	"context"
	"log/slog"

	"erent/internal/app/dto"
	handlersupport "erent/internal/app/handlers/support"
	"erent/internal/app/queries"
	"erent/internal/app/uow"
	"erent/internal/domain/property"
	"erent/internal/domain/reference"
	"erent/internal/domain/shared/paging"
	"erent/internal/domain/user"
)

const (
	getPropertyKey      = "properties.get"
	searchPropertiesKey = "properties.search"
)

type GetPropertyQuery struct {
	PropertyID string `validate:"required"`
}

func (GetPropertyQuery) Key() string { return getPropertyKey }

type GetPropertyHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetPropertyHandler) Handle(ctx context.Context, q GetPropertyQuery) (dto.Property, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Property{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	p, err := unit.Properties().ByID(execCtx, property.ID(q.PropertyID))
	if err != nil {
		return dto.Property{}, err
	}
	return mapWithNames(execCtx, unit, p), nil
}

// SearchPropertiesQuery filters the public catalogue. CountryID is resolved
// into the cities of that country.
type SearchPropertiesQuery struct {
	Title            string
	PropertyTypeID   string
	CityID           string
	CountryID        string
	LandlordID       string
	MinPricePerMonth *int64
	MaxPricePerMonth *int64
	MinPricePerDay   *int64
	MaxPricePerDay   *int64
	AllowDailyRental *bool
	MinBedrooms      *int
	MaxBedrooms      *int
	AmenityIDs       []string
	Active           *bool
	Paging           paging.Params
}

func (SearchPropertiesQuery) Key() string { return searchPropertiesKey }

type SearchPropertiesHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *SearchPropertiesHandler) Handle(ctx context.Context, q SearchPropertiesQuery) (dto.Page[dto.Property], error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Page[dto.Property]{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	params := property.SearchParams{
		Title:            q.Title,
		PropertyTypeID:   reference.ID(q.PropertyTypeID),
		CityID:           reference.ID(q.CityID),
		LandlordID:       user.ID(q.LandlordID),
		MinPricePerMonth: q.MinPricePerMonth,
		MaxPricePerMonth: q.MaxPricePerMonth,
		MinPricePerDay:   q.MinPricePerDay,
		MaxPricePerDay:   q.MaxPricePerDay,
		AllowDailyRental: q.AllowDailyRental,
		MinBedrooms:      q.MinBedrooms,
		MaxBedrooms:      q.MaxBedrooms,
		Active:           q.Active,
		Paging:           q.Paging,
	}
	for _, id := range q.AmenityIDs {
		params.AmenityIDs = append(params.AmenityIDs, reference.ID(id))
	}
	if q.CountryID != "" {
		cities, err := unit.Reference().List(execCtx, reference.ListParams{
			Kind:     reference.KindCity,
			ParentID: reference.ID(q.CountryID),
			Paging:   paging.Params{RetrieveAll: true},
		})
		if err != nil {
			return dto.Page[dto.Property]{}, err
		}
		params.CityIDs = make([]reference.ID, 0, len(cities.Items))
		for _, c := range cities.Items {
			params.CityIDs = append(params.CityIDs, c.ID)
		}
	}

	page, err := unit.Properties().Search(execCtx, params)
	if err != nil {
		return dto.Page[dto.Property]{}, err
	}
	names := loadNames(execCtx, unit)
	out := dto.MapPage(page, func(p *property.Property) dto.Property {
		return dto.MapProperty(p, names)
	})
	if h.Logger != nil {
		h.Logger.Debug("properties searched", "count", len(out.Items))
	}
	return out, nil
}

func mapWithNames(ctx context.Context, unit uow.UnitOfWork, p *property.Property) dto.Property {
	return dto.MapProperty(p, loadNames(ctx, unit))
}

// loadNames resolves property type and city names. Lookup failures leave the
// names empty; the ids are still returned.
func loadNames(ctx context.Context, unit uow.UnitOfWork) dto.Names {
	names := dto.Names{Types: map[string]string{}, Cities: map[string]string{}}
	fill := func(kind reference.Kind, into map[string]string) {
		page, err := unit.Reference().List(ctx, reference.ListParams{Kind: kind, Paging: paging.Params{RetrieveAll: true}})
		if err != nil {
			return
		}
		for _, e := range page.Items {
			into[string(e.ID)] = e.Name
		}
	}
	fill(reference.KindPropertyType, names.Types)
	fill(reference.KindCity, names.Cities)
	return names
}

var (
	_ queries.Handler[GetPropertyQuery, dto.Property]                = (*GetPropertyHandler)(nil)
	_ queries.Handler[SearchPropertiesQuery, dto.Page[dto.Property]] = (*SearchPropertiesHandler)(nil)
)

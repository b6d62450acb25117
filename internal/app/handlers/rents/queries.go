package rents

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"erent/internal/app/access"
	"erent/internal/app/dto"
	handlersupport "erent/internal/app/handlers/support"
	"erent/internal/app/queries"
	"erent/internal/app/uow"
	"erent/internal/domain/property"
	"erent/internal/domain/rent"
	"erent/internal/domain/shared/daterange"
	"erent/internal/domain/shared/paging"
	"erent/internal/domain/user"
)

const (
	getRentKey     = "rents.get"
	searchRentsKey = "rents.search"
	quoteRentKey   = "rents.quote"
)

type GetRentQuery struct {
	Actor  access.Actor
	RentID string `validate:"required"`
}

func (GetRentQuery) Key() string            { return getRentKey }
func (q GetRentQuery) Caller() access.Actor { return q.Actor }

type GetRentHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetRentHandler) Handle(ctx context.Context, q GetRentQuery) (dto.Rent, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Rent{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	r, err := unit.Rents().ByID(execCtx, rent.ID(q.RentID))
	if err != nil {
		return dto.Rent{}, err
	}
	if !r.Involves(q.Actor.ID) && !q.Actor.IsAdmin() {
		return dto.Rent{}, fmt.Errorf("%w: not a party of the rent", access.ErrForbidden)
	}
	prop, err := unit.Properties().ByID(execCtx, r.PropertyID)
	if err != nil {
		prop = nil
	}
	return dto.MapRent(r, prop), nil
}

// SearchRentsQuery lists rents. Non-administrators only see rents they are a
// party of: unless they filter on themselves as landlord, results are
// narrowed to their own tenancies.
type SearchRentsQuery struct {
	Actor         access.Actor
	PropertyID    string
	PropertyTitle string
	TenantID      string
	LandlordID    string
	Daily         *bool
	Status        *rent.Status
	StartFrom     *time.Time
	StartTo       *time.Time
	EndFrom       *time.Time
	EndTo         *time.Time
	Active        *bool
	Paging        paging.Params
}

func (SearchRentsQuery) Key() string            { return searchRentsKey }
func (q SearchRentsQuery) Caller() access.Actor { return q.Actor }

type SearchRentsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *SearchRentsHandler) Handle(ctx context.Context, q SearchRentsQuery) (dto.Page[dto.Rent], error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Page[dto.Rent]{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	params := rent.SearchParams{
		PropertyID: property.ID(q.PropertyID),
		TenantID:   user.ID(q.TenantID),
		LandlordID: user.ID(q.LandlordID),
		Daily:      q.Daily,
		Status:     q.Status,
		StartFrom:  q.StartFrom,
		StartTo:    q.StartTo,
		EndFrom:    q.EndFrom,
		EndTo:      q.EndTo,
		Active:     q.Active,
		Paging:     q.Paging,
	}
	if !q.Actor.IsAdmin() && params.LandlordID != q.Actor.ID {
		params.TenantID = q.Actor.ID
	}
	if q.PropertyTitle != "" {
		found, err := unit.Properties().Search(execCtx, property.SearchParams{Title: q.PropertyTitle})
		if err != nil {
			return dto.Page[dto.Rent]{}, err
		}
		params.PropertyIDs = make([]property.ID, 0, len(found.Items))
		for _, p := range found.Items {
			params.PropertyIDs = append(params.PropertyIDs, p.ID)
		}
	}

	page, err := unit.Rents().Search(execCtx, params)
	if err != nil {
		return dto.Page[dto.Rent]{}, err
	}
	titles := make(map[property.ID]*property.Property)
	out := dto.MapPage(page, func(r *rent.Rent) dto.Rent {
		prop, ok := titles[r.PropertyID]
		if !ok {
			prop, _ = unit.Properties().ByID(execCtx, r.PropertyID)
			titles[r.PropertyID] = prop
		}
		return dto.MapRent(r, prop)
	})

	if h.Logger != nil {
		h.Logger.Debug("rents searched", "actor", q.Actor.ID, "count", len(out.Items))
	}
	return out, nil
}

// QuoteRentQuery prices a prospective stay without reserving anything.
type QuoteRentQuery struct {
	PropertyID string    `validate:"required"`
	Start      time.Time `validate:"required"`
	End        time.Time `validate:"required,gtfield=Start"`
	Daily      bool
}

func (QuoteRentQuery) Key() string { return quoteRentKey }

type QuoteRentHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *QuoteRentHandler) Handle(ctx context.Context, q QuoteRentQuery) (dto.Quote, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Quote{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	prop, err := unit.Properties().ByID(execCtx, property.ID(q.PropertyID))
	if err != nil {
		return dto.Quote{}, err
	}
	period, err := daterange.New(q.Start, q.End)
	if err != nil {
		return dto.Quote{}, err
	}
	total, err := rent.Quote(prop, period, q.Daily)
	if err != nil {
		return dto.Quote{}, err
	}
	out := dto.Quote{
		PropertyID: string(prop.ID),
		StartDate:  period.Start,
		EndDate:    period.End,
		Daily:      q.Daily,
		Total:      dto.MapMoney(total),
	}
	if q.Daily {
		out.Units = rent.DayCount(period)
		out.Unit = "day"
		out.UnitPrice = dto.MapMoney(prop.PricePerDay)
	} else {
		out.Units = rent.MonthCount(period)
		out.Unit = "month"
		out.UnitPrice = dto.MapMoney(prop.PricePerMonth)
	}
	return out, nil
}

var (
	_ queries.Handler[GetRentQuery, dto.Rent]               = (*GetRentHandler)(nil)
	_ queries.Handler[SearchRentsQuery, dto.Page[dto.Rent]] = (*SearchRentsHandler)(nil)
	_ queries.Handler[QuoteRentQuery, dto.Quote]            = (*QuoteRentHandler)(nil)
)

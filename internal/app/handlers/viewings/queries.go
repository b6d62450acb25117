package viewings

import (
	"context"
	"fmt"
	"time"

	"erent/internal/app/access"
	"erent/internal/app/dto"
	handlersupport "erent/internal/app/handlers/support"
	"erent/internal/app/queries"
	"erent/internal/app/uow"
	"erent/internal/domain/property"
	"erent/internal/domain/shared/paging"
	"erent/internal/domain/user"
	"erent/internal/domain/viewing"
)

const (
	getViewingKey     = "viewings.get"
	searchViewingsKey = "viewings.search"
)

type GetViewingQuery struct {
	Actor     access.Actor
	ViewingID string `validate:"required"`
}

func (GetViewingQuery) Key() string            { return getViewingKey }
func (q GetViewingQuery) Caller() access.Actor { return q.Actor }

type GetViewingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetViewingHandler) Handle(ctx context.Context, q GetViewingQuery) (dto.Viewing, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Viewing{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	a, err := unit.Viewings().ByID(execCtx, viewing.ID(q.ViewingID))
	if err != nil {
		return dto.Viewing{}, err
	}
	if !a.Involves(q.Actor.ID) && !q.Actor.IsAdmin() {
		return dto.Viewing{}, fmt.Errorf("%w: not a party of the viewing", access.ErrForbidden)
	}
	return dto.MapViewing(a), nil
}

// SearchViewingsQuery lists appointments, newest slot first. Non-administrators
// only see appointments they take part in.
type SearchViewingsQuery struct {
	Actor      access.Actor
	PropertyID string
	TenantID   string
	LandlordID string
	Status     *viewing.Status
	From       *time.Time
	To         *time.Time
	Paging     paging.Params
}

func (SearchViewingsQuery) Key() string            { return searchViewingsKey }
func (q SearchViewingsQuery) Caller() access.Actor { return q.Actor }

type SearchViewingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *SearchViewingsHandler) Handle(ctx context.Context, q SearchViewingsQuery) (dto.Page[dto.Viewing], error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Page[dto.Viewing]{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	params := viewing.SearchParams{
		PropertyID: property.ID(q.PropertyID),
		TenantID:   user.ID(q.TenantID),
		LandlordID: user.ID(q.LandlordID),
		Status:     q.Status,
		From:       q.From,
		To:         q.To,
		Paging:     q.Paging,
	}
	if !q.Actor.IsAdmin() {
		params.Participant = q.Actor.ID
	}
	page, err := unit.Viewings().Search(execCtx, params)
	if err != nil {
		return dto.Page[dto.Viewing]{}, err
	}
	return dto.MapPage(page, dto.MapViewing), nil
}

var (
	_ queries.Handler[GetViewingQuery, dto.Viewing]               = (*GetViewingHandler)(nil)
	_ queries.Handler[SearchViewingsQuery, dto.Page[dto.Viewing]] = (*SearchViewingsHandler)(nil)
)

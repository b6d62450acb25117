package reference

import (
	"context"

	"erent/internal/app/dto"
	handlersupport "erent/internal/app/handlers/support"
	"erent/internal/app/queries"
	"erent/internal/app/uow"
	domainref "erent/internal/domain/reference"
	"erent/internal/domain/shared/paging"
)

const (
	getEntryKey    = "reference.get"
	listEntriesKey = "reference.list"
)

type GetEntryQuery struct {
	Kind domainref.Kind `validate:"required"`
	ID   string         `validate:"required"`
}

func (GetEntryQuery) Key() string { return getEntryKey }

type GetEntryHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetEntryHandler) Handle(ctx context.Context, q GetEntryQuery) (dto.ReferenceEntry, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReferenceEntry{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	entry, err := unit.Reference().ByID(execCtx, q.Kind, domainref.ID(q.ID))
	if err != nil {
		return dto.ReferenceEntry{}, err
	}
	return dto.MapReferenceEntry(entry), nil
}

// ListEntriesQuery lists one lookup table ordered by name. ParentID narrows
// cities to a country.
type ListEntriesQuery struct {
	Kind     domainref.Kind `validate:"required"`
	Name     string
	ParentID string
	Active   *bool
	Paging   paging.Params
}

func (ListEntriesQuery) Key() string { return listEntriesKey }

type ListEntriesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListEntriesHandler) Handle(ctx context.Context, q ListEntriesQuery) (dto.Page[dto.ReferenceEntry], error) {
	if !q.Kind.Valid() {
		return dto.Page[dto.ReferenceEntry]{}, domainref.ErrUnknownKind
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Page[dto.ReferenceEntry]{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	page, err := unit.Reference().List(execCtx, domainref.ListParams{
		Kind:     q.Kind,
		Name:     q.Name,
		ParentID: domainref.ID(q.ParentID),
		Active:   q.Active,
		Paging:   q.Paging,
	})
	if err != nil {
		return dto.Page[dto.ReferenceEntry]{}, err
	}
	return dto.MapPage(page, dto.MapReferenceEntry), nil
}

var (
	_ queries.Handler[GetEntryQuery, dto.ReferenceEntry]              = (*GetEntryHandler)(nil)
	_ queries.Handler[ListEntriesQuery, dto.Page[dto.ReferenceEntry]] = (*ListEntriesHandler)(nil)
)

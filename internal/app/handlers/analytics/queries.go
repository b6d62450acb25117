package analytics

import (
	"context"
	"fmt"

	"erent/internal/app/access"
	handlersupport "erent/internal/app/handlers/support"
	"erent/internal/app/policies"
	"erent/internal/app/queries"
	"erent/internal/app/uow"
	domainanalytics "erent/internal/domain/analytics"
	"erent/internal/domain/property"
	"erent/internal/domain/reference"
	"erent/internal/domain/rent"
	"erent/internal/domain/reviews"
	"erent/internal/domain/shared/paging"
	"erent/internal/domain/user"
)

const (
	platformReportKey = "analytics.platform"
	landlordReportKey = "analytics.landlord"
)

type PlatformReportQuery struct {
	Actor access.Actor
}

func (PlatformReportQuery) Key() string               { return platformReportKey }
func (q PlatformReportQuery) Caller() access.Actor    { return q.Actor }
func (PlatformReportQuery) AllowedRoles() []user.Role { return []user.Role{user.RoleAdministrator} }

// LandlordReportQuery is open to the landlord it describes and to administrators.
type LandlordReportQuery struct {
	Actor      access.Actor
	LandlordID string `validate:"required"`
}

func (LandlordReportQuery) Key() string            { return landlordReportKey }
func (q LandlordReportQuery) Caller() access.Actor { return q.Actor }

type Handler struct {
	UoWFactory uow.UoWFactory
	Clock      policies.Clock
}

func (h *Handler) Platform() queries.Handler[PlatformReportQuery, domainanalytics.Report] {
	return queries.HandlerFunc[PlatformReportQuery, domainanalytics.Report](func(ctx context.Context, q PlatformReportQuery) (domainanalytics.Report, error) {
		if !q.Actor.IsAdmin() {
			return domainanalytics.Report{}, fmt.Errorf("%w: platform report is for administrators", access.ErrForbidden)
		}
		ds, err := h.load(ctx, "")
		if err != nil {
			return domainanalytics.Report{}, err
		}
		return domainanalytics.Platform(ds, h.Clock.Now()), nil
	})
}

func (h *Handler) Landlord() queries.Handler[LandlordReportQuery, domainanalytics.Report] {
	return queries.HandlerFunc[LandlordReportQuery, domainanalytics.Report](func(ctx context.Context, q LandlordReportQuery) (domainanalytics.Report, error) {
		landlord := user.ID(q.LandlordID)
		if !q.Actor.Is(landlord) {
			return domainanalytics.Report{}, fmt.Errorf("%w: report of another landlord", access.ErrForbidden)
		}
		ds, err := h.load(ctx, landlord)
		if err != nil {
			return domainanalytics.Report{}, err
		}
		return domainanalytics.Landlord(ds, landlord, h.Clock.Now()), nil
	})
}

// load reads the dataset in one read-only unit. With a landlord set, only
// that landlord's properties and their rents are fetched and users are skipped.
func (h *Handler) load(ctx context.Context, landlord user.ID) (domainanalytics.Dataset, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return domainanalytics.Dataset{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	all := paging.Params{RetrieveAll: true}

	props, err := unit.Properties().Search(execCtx, property.SearchParams{LandlordID: landlord, Paging: all})
	if err != nil {
		return domainanalytics.Dataset{}, fmt.Errorf("load properties: %w", err)
	}
	rents, err := unit.Rents().Search(execCtx, rent.SearchParams{LandlordID: landlord, Paging: all})
	if err != nil {
		return domainanalytics.Dataset{}, fmt.Errorf("load rents: %w", err)
	}
	revs, err := unit.Reviews().Search(execCtx, reviews.SearchParams{Paging: all})
	if err != nil {
		return domainanalytics.Dataset{}, fmt.Errorf("load reviews: %w", err)
	}
	ds := domainanalytics.Dataset{
		Properties: props.Items,
		Rents:      rents.Items,
		Reviews:    revs.Items,
	}
	if landlord == "" {
		users, err := unit.Users().List(execCtx, user.ListParams{Paging: all})
		if err != nil {
			return domainanalytics.Dataset{}, fmt.Errorf("load users: %w", err)
		}
		ds.Users = users.Items
	}
	if ds.TypeNames, err = names(execCtx, unit.Reference(), reference.KindPropertyType); err != nil {
		return domainanalytics.Dataset{}, err
	}
	if ds.CityNames, err = names(execCtx, unit.Reference(), reference.KindCity); err != nil {
		return domainanalytics.Dataset{}, err
	}
	return ds, nil
}

func names(ctx context.Context, repo reference.Repository, kind reference.Kind) (map[reference.ID]string, error) {
	page, err := repo.List(ctx, reference.ListParams{Kind: kind, Paging: paging.Params{RetrieveAll: true}})
	if err != nil {
		return nil, fmt.Errorf("load %s names: %w", kind, err)
	}
	out := make(map[reference.ID]string, len(page.Items))
	for _, e := range page.Items {
		out[e.ID] = e.Name
	}
	return out, nil
}

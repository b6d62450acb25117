package reference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"erent/internal/app/access"
	"erent/internal/app/commands"
	"erent/internal/app/dto"
	handlersupport "erent/internal/app/handlers/support"
	"erent/internal/app/policies"
	"erent/internal/app/uow"
	"erent/internal/domain/property"
	domainref "erent/internal/domain/reference"
	"erent/internal/domain/shared/paging"
	"erent/internal/domain/user"
)

const (
	createEntryKey = "reference.create"
	updateEntryKey = "reference.update"
	deleteEntryKey = "reference.delete"
)

var ErrUnknownCountry = errors.New("reference: country does not exist")

// EntryFields is the editable part of a lookup row. Code applies to
// countries, ParentID to cities and Description to roles.
type EntryFields struct {
	Name        string `validate:"required,max=100"`
	Code        string `validate:"max=10"`
	Description string `validate:"max=500"`
	ParentID    string
	Active      *bool
}

type CreateEntryCommand struct {
	ID     string `validate:"required"`
	Actor  access.Actor
	Kind   domainref.Kind `validate:"required"`
	Fields EntryFields
}

func (CreateEntryCommand) Key() string               { return createEntryKey }
func (c CreateEntryCommand) Caller() access.Actor    { return c.Actor }
func (CreateEntryCommand) AllowedRoles() []user.Role { return []user.Role{user.RoleAdministrator} }

type UpdateEntryCommand struct {
	ID     string `validate:"required"`
	Actor  access.Actor
	Kind   domainref.Kind `validate:"required"`
	Fields EntryFields
}

func (UpdateEntryCommand) Key() string               { return updateEntryKey }
func (c UpdateEntryCommand) Caller() access.Actor    { return c.Actor }
func (UpdateEntryCommand) AllowedRoles() []user.Role { return []user.Role{user.RoleAdministrator} }

// DeleteEntryCommand removes a lookup row that nothing references any more.
type DeleteEntryCommand struct {
	ID    string `validate:"required"`
	Actor access.Actor
	Kind  domainref.Kind `validate:"required"`
}

func (DeleteEntryCommand) Key() string               { return deleteEntryKey }
func (c DeleteEntryCommand) Caller() access.Actor    { return c.Actor }
func (DeleteEntryCommand) AllowedRoles() []user.Role { return []user.Role{user.RoleAdministrator} }

type Handler struct {
	UoWFactory uow.UoWFactory
	Clock      policies.Clock
	Logger     *slog.Logger
}

func (h *Handler) Create() commands.Handler[CreateEntryCommand, dto.ReferenceEntry] {
	return commands.HandlerFunc[CreateEntryCommand, dto.ReferenceEntry](h.create)
}

func (h *Handler) Update() commands.Handler[UpdateEntryCommand, dto.ReferenceEntry] {
	return commands.HandlerFunc[UpdateEntryCommand, dto.ReferenceEntry](h.update)
}

func (h *Handler) Delete() commands.Handler[DeleteEntryCommand, struct{}] {
	return commands.HandlerFunc[DeleteEntryCommand, struct{}](h.delete)
}

func (h *Handler) create(ctx context.Context, cmd CreateEntryCommand) (dto.ReferenceEntry, error) {
	m, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReferenceEntry{}, err
	}
	defer m.Close()

	params := cmd.Fields.params(domainref.ID(cmd.ID), cmd.Kind, h.Clock)
	if err := checkParent(m.Ctx, m.Unit, params); err != nil {
		return dto.ReferenceEntry{}, err
	}
	entry, err := domainref.New(params)
	if err != nil {
		return dto.ReferenceEntry{}, err
	}
	if err := m.Unit.Reference().Save(m.Ctx, entry); err != nil {
		return dto.ReferenceEntry{}, err
	}
	if err := m.Commit(); err != nil {
		return dto.ReferenceEntry{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("reference entry created", "kind", entry.Kind, "id", entry.ID, "name", entry.Name)
	}
	return dto.MapReferenceEntry(entry), nil
}

func (h *Handler) update(ctx context.Context, cmd UpdateEntryCommand) (dto.ReferenceEntry, error) {
	m, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReferenceEntry{}, err
	}
	defer m.Close()

	entry, err := m.Unit.Reference().ByID(m.Ctx, cmd.Kind, domainref.ID(cmd.ID))
	if err != nil {
		return dto.ReferenceEntry{}, err
	}
	params := cmd.Fields.params(entry.ID, entry.Kind, h.Clock)
	if err := checkParent(m.Ctx, m.Unit, params); err != nil {
		return dto.ReferenceEntry{}, err
	}
	if err := entry.Update(params); err != nil {
		return dto.ReferenceEntry{}, err
	}
	if err := m.Unit.Reference().Save(m.Ctx, entry); err != nil {
		return dto.ReferenceEntry{}, err
	}
	if err := m.Commit(); err != nil {
		return dto.ReferenceEntry{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("reference entry updated", "kind", entry.Kind, "id", entry.ID)
	}
	return dto.MapReferenceEntry(entry), nil
}

func (h *Handler) delete(ctx context.Context, cmd DeleteEntryCommand) (struct{}, error) {
	m, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return struct{}{}, err
	}
	defer m.Close()

	entry, err := m.Unit.Reference().ByID(m.Ctx, cmd.Kind, domainref.ID(cmd.ID))
	if err != nil {
		return struct{}{}, err
	}
	inUse, err := referenced(m.Ctx, m.Unit, entry)
	if err != nil {
		return struct{}{}, err
	}
	if inUse {
		return struct{}{}, fmt.Errorf("%w: %s %q", domainref.ErrInUse, entry.Kind, entry.ID)
	}
	if err := m.Unit.Reference().Delete(m.Ctx, entry.Kind, entry.ID); err != nil {
		return struct{}{}, err
	}
	if err := m.Commit(); err != nil {
		return struct{}{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("reference entry deleted", "kind", entry.Kind, "id", entry.ID)
	}
	return struct{}{}, nil
}

func (f EntryFields) params(id domainref.ID, kind domainref.Kind, clock policies.Clock) domainref.Params {
	return domainref.Params{
		ID:          id,
		Kind:        kind,
		Name:        f.Name,
		Code:        f.Code,
		Description: f.Description,
		ParentID:    domainref.ID(f.ParentID),
		Active:      f.Active,
		Now:         clock.Now(),
	}
}

func checkParent(ctx context.Context, unit uow.UnitOfWork, params domainref.Params) error {
	if params.Kind != domainref.KindCity || params.ParentID == "" {
		return nil
	}
	if _, err := unit.Reference().ByID(ctx, domainref.KindCountry, params.ParentID); err != nil {
		if errors.Is(err, domainref.ErrNotFound) {
			return fmt.Errorf("%w: %q", ErrUnknownCountry, params.ParentID)
		}
		return err
	}
	return nil
}

// referenced reports whether any city, property or user still points at e.
func referenced(ctx context.Context, unit uow.UnitOfWork, e *domainref.Entry) (bool, error) {
	one := paging.Params{Page: paging.Int(0), PageSize: paging.Int(1)}
	switch e.Kind {
	case domainref.KindCountry:
		cities, err := unit.Reference().List(ctx, domainref.ListParams{Kind: domainref.KindCity, ParentID: e.ID, Paging: one})
		if err != nil {
			return false, err
		}
		return len(cities.Items) > 0, nil
	case domainref.KindCity, domainref.KindPropertyType, domainref.KindAmenity:
		params := property.SearchParams{Paging: one}
		switch e.Kind {
		case domainref.KindCity:
			params.CityID = e.ID
		case domainref.KindPropertyType:
			params.PropertyTypeID = e.ID
		default:
			params.AmenityIDs = []domainref.ID{e.ID}
		}
		found, err := unit.Properties().Search(ctx, params)
		if err != nil {
			return false, err
		}
		if len(found.Items) > 0 || e.Kind != domainref.KindCity {
			return len(found.Items) > 0, nil
		}
		return usersMatch(ctx, unit, func(u *user.User) bool { return u.CityID == e.ID })
	case domainref.KindGender:
		return usersMatch(ctx, unit, func(u *user.User) bool { return u.GenderID == e.ID })
	case domainref.KindRole:
		role := user.ParseRole(string(e.ID))
		if role == "" {
			role = user.ParseRole(e.Name)
		}
		if role == "" {
			return false, nil
		}
		found, err := unit.Users().List(ctx, user.ListParams{Role: role, Paging: one})
		if err != nil {
			return false, err
		}
		return len(found.Items) > 0, nil
	}
	return false, nil
}

func usersMatch(ctx context.Context, unit uow.UnitOfWork, match func(*user.User) bool) (bool, error) {
	all, err := unit.Users().List(ctx, user.ListParams{Paging: paging.Params{RetrieveAll: true}})
	if err != nil {
		return false, err
	}
	for _, u := range all.Items {
		if match(u) {
			return true, nil
		}
	}
	return false, nil
}

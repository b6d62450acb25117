package users

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
	"erent/internal/domain/reference"
	"erent/internal/domain/user"
)

const (
	updateProfileKey = "users.update_profile"
	setActiveKey     = "users.set_active"
	assignRolesKey   = "users.assign_roles"
)

var ErrUnknownReference = errors.New("users: unknown gender or city")

// UpdateProfileCommand edits the caller's own profile. Administrators may edit
// anyone.
type UpdateProfileCommand struct {
	UserID    string `validate:"required"`
	Actor     access.Actor
	FirstName string `validate:"required,max=100"`
	LastName  string `validate:"required,max=100"`
	Phone     string `validate:"max=30"`
	GenderID  string
	CityID    string
}

func (UpdateProfileCommand) Key() string            { return updateProfileKey }
func (c UpdateProfileCommand) Caller() access.Actor { return c.Actor }

type SetActiveCommand struct {
	UserID string `validate:"required"`
	Actor  access.Actor
	Active bool
}

func (SetActiveCommand) Key() string               { return setActiveKey }
func (c SetActiveCommand) Caller() access.Actor    { return c.Actor }
func (SetActiveCommand) AllowedRoles() []user.Role { return []user.Role{user.RoleAdministrator} }

type AssignRolesCommand struct {
	UserID string `validate:"required"`
	Actor  access.Actor
	Roles  []string `validate:"required,min=1"`
}

func (AssignRolesCommand) Key() string               { return assignRolesKey }
func (c AssignRolesCommand) Caller() access.Actor    { return c.Actor }
func (AssignRolesCommand) AllowedRoles() []user.Role { return []user.Role{user.RoleAdministrator} }

type Handler struct {
	UoWFactory uow.UoWFactory
	Clock      policies.Clock
	Logger     *slog.Logger
}

func (h *Handler) UpdateProfile() commands.Handler[UpdateProfileCommand, dto.User] {
	return commands.HandlerFunc[UpdateProfileCommand, dto.User](func(ctx context.Context, cmd UpdateProfileCommand) (dto.User, error) {
		if !cmd.Actor.Is(user.ID(cmd.UserID)) {
			return dto.User{}, fmt.Errorf("%w: profile of another user", access.ErrForbidden)
		}
		return h.modify(ctx, cmd.UserID, "profile updated", func(ctx context.Context, unit uow.UnitOfWork, u *user.User) error {
			if err := checkReference(ctx, unit, reference.KindGender, cmd.GenderID); err != nil {
				return err
			}
			if err := checkReference(ctx, unit, reference.KindCity, cmd.CityID); err != nil {
				return err
			}
			return u.UpdateProfile(user.ProfileParams{
				FirstName: cmd.FirstName,
				LastName:  cmd.LastName,
				Phone:     cmd.Phone,
				GenderID:  reference.ID(cmd.GenderID),
				CityID:    reference.ID(cmd.CityID),
			}, h.Clock.Now())
		})
	})
}

func (h *Handler) SetActive() commands.Handler[SetActiveCommand, dto.User] {
	return commands.HandlerFunc[SetActiveCommand, dto.User](func(ctx context.Context, cmd SetActiveCommand) (dto.User, error) {
		if !cmd.Actor.IsAdmin() {
			return dto.User{}, fmt.Errorf("%w: only administrators change account status", access.ErrForbidden)
		}
		return h.modify(ctx, cmd.UserID, "account status changed", func(_ context.Context, _ uow.UnitOfWork, u *user.User) error {
			u.SetActive(cmd.Active, h.Clock.Now())
			return nil
		})
	})
}

func (h *Handler) AssignRoles() commands.Handler[AssignRolesCommand, dto.User] {
	return commands.HandlerFunc[AssignRolesCommand, dto.User](func(ctx context.Context, cmd AssignRolesCommand) (dto.User, error) {
		if !cmd.Actor.IsAdmin() {
			return dto.User{}, fmt.Errorf("%w: only administrators assign roles", access.ErrForbidden)
		}
		roles := make([]user.Role, 0, len(cmd.Roles))
		for _, raw := range cmd.Roles {
			role := user.ParseRole(raw)
			if role == "" {
				return dto.User{}, fmt.Errorf("%w: %q", user.ErrInvalidRole, raw)
			}
			roles = append(roles, role)
		}
		return h.modify(ctx, cmd.UserID, "roles assigned", func(_ context.Context, _ uow.UnitOfWork, u *user.User) error {
			return u.AssignRoles(roles, h.Clock.Now())
		})
	})
}

func (h *Handler) modify(ctx context.Context, id, verb string, apply func(context.Context, uow.UnitOfWork, *user.User) error) (dto.User, error) {
	m, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.User{}, err
	}
	defer m.Close()

	u, err := m.Unit.Users().ByID(m.Ctx, user.ID(id))
	if err != nil {
		return dto.User{}, err
	}
	if err := apply(m.Ctx, m.Unit, u); err != nil {
		return dto.User{}, err
	}
	if err := m.Unit.Users().Save(m.Ctx, u); err != nil {
		return dto.User{}, err
	}
	if err := m.Commit(); err != nil {
		return dto.User{}, err
	}
	if h.Logger != nil {
		h.Logger.Info(verb, "user_id", u.ID)
	}
	return dto.MapUser(u), nil
}

func checkReference(ctx context.Context, unit uow.UnitOfWork, kind reference.Kind, id string) error {
	if id == "" {
		return nil
	}
	if _, err := unit.Reference().ByID(ctx, kind, reference.ID(id)); err != nil {
		if errors.Is(err, reference.ErrNotFound) {
			return fmt.Errorf("%w: %s %s", ErrUnknownReference, kind, id)
		}
		return err
	}
	return nil
}

package users

import (
	"context"

	"erent/internal/app/access"
	"erent/internal/app/dto"
	handlersupport "erent/internal/app/handlers/support"
	"erent/internal/app/queries"
	"erent/internal/app/uow"
	"erent/internal/domain/shared/paging"
	"erent/internal/domain/user"
)

const (
	getUserKey   = "users.get"
	listUsersKey = "users.list"
)

// GetUserQuery returns a public profile to any signed-in caller.
type GetUserQuery struct {
	Actor  access.Actor
	UserID string `validate:"required"`
}

func (GetUserQuery) Key() string            { return getUserKey }
func (q GetUserQuery) Caller() access.Actor { return q.Actor }

type GetUserHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetUserHandler) Handle(ctx context.Context, q GetUserQuery) (dto.User, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.User{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	u, err := unit.Users().ByID(execCtx, user.ID(q.UserID))
	if err != nil {
		return dto.User{}, err
	}
	return dto.MapUser(u), nil
}

type ListUsersQuery struct {
	Actor  access.Actor
	Query  string
	Role   string
	Active *bool
	Paging paging.Params
}

func (ListUsersQuery) Key() string               { return listUsersKey }
func (q ListUsersQuery) Caller() access.Actor    { return q.Actor }
func (ListUsersQuery) AllowedRoles() []user.Role { return []user.Role{user.RoleAdministrator} }

type ListUsersHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListUsersHandler) Handle(ctx context.Context, q ListUsersQuery) (dto.Page[dto.User], error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Page[dto.User]{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	page, err := unit.Users().List(execCtx, user.ListParams{
		Query:  q.Query,
		Role:   user.ParseRole(q.Role),
		Active: q.Active,
		Paging: q.Paging,
	})
	if err != nil {
		return dto.Page[dto.User]{}, err
	}
	return dto.MapPage(page, dto.MapUser), nil
}

var (
	_ queries.Handler[GetUserQuery, dto.User]             = (*GetUserHandler)(nil)
	_ queries.Handler[ListUsersQuery, dto.Page[dto.User]] = (*ListUsersHandler)(nil)
)

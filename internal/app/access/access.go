// Package access carries the authenticated caller through the application
// layer and enforces role requirements declared by commands and queries.
package access

import (
	"context"
	"errors"

	"erent/internal/domain/user"
)

var (
	ErrUnauthenticated = errors.New("access: authentication required")
	ErrForbidden       = errors.New("access: forbidden")
)

// Actor is the caller a command or query runs on behalf of.
type Actor struct {
	ID    user.ID
	Roles []user.Role
}

func (a Actor) Authenticated() bool {
	return a.ID != ""
}

func (a Actor) HasRole(role user.Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (a Actor) IsAdmin() bool {
	return a.HasRole(user.RoleAdministrator)
}

// Is reports whether the actor is id or an administrator.
func (a Actor) Is(id user.ID) bool {
	return a.ID == id || a.IsAdmin()
}

// Guarded is implemented by messages that must run on behalf of an actor.
type Guarded interface {
	Caller() Actor
}

// RoleGuarded narrows Guarded to callers holding any of the listed roles.
// Administrators always pass.
type RoleGuarded interface {
	Guarded
	AllowedRoles() []user.Role
}

// RoleAuthorizer implements the bus authorization middleware contract.
type RoleAuthorizer struct{}

func (RoleAuthorizer) Authorize(_ context.Context, message any) error {
	guarded, ok := message.(Guarded)
	if !ok {
		return nil
	}
	actor := guarded.Caller()
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	roleGuarded, ok := message.(RoleGuarded)
	if !ok || actor.IsAdmin() {
		return nil
	}
	allowed := roleGuarded.AllowedRoles()
	if len(allowed) == 0 {
		return nil
	}
	for _, role := range allowed {
		if actor.HasRole(role) {
			return nil
		}
	}
	return ErrForbidden
}

package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"erent/internal/domain/user"
)

type openMessage struct{}

type guardedMessage struct{ actor Actor }

func (m guardedMessage) Caller() Actor { return m.actor }

type landlordMessage struct{ actor Actor }

func (m landlordMessage) Caller() Actor             { return m.actor }
func (m landlordMessage) AllowedRoles() []user.Role { return []user.Role{user.RoleLandlord} }

func TestRoleAuthorizer(t *testing.T) {
	ctx := context.Background()
	auth := RoleAuthorizer{}
	tenant := Actor{ID: "t", Roles: []user.Role{user.RoleTenant}}
	landlord := Actor{ID: "l", Roles: []user.Role{user.RoleLandlord}}
	admin := Actor{ID: "a", Roles: []user.Role{user.RoleAdministrator}}

	assert.NoError(t, auth.Authorize(ctx, openMessage{}))
	assert.ErrorIs(t, auth.Authorize(ctx, guardedMessage{}), ErrUnauthenticated)
	assert.NoError(t, auth.Authorize(ctx, guardedMessage{actor: tenant}))
	assert.ErrorIs(t, auth.Authorize(ctx, landlordMessage{actor: tenant}), ErrForbidden)
	assert.NoError(t, auth.Authorize(ctx, landlordMessage{actor: landlord}))
	assert.NoError(t, auth.Authorize(ctx, landlordMessage{actor: admin}))
}

func TestActorIs(t *testing.T) {
	admin := Actor{ID: "a", Roles: []user.Role{user.RoleAdministrator}}
	assert.True(t, admin.Is("someone"))
	assert.True(t, Actor{ID: "x"}.Is("x"))
	assert.False(t, Actor{ID: "x"}.Is("y"))
}

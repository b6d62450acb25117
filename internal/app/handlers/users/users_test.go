package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erent/internal/app/access"
	"erent/internal/app/handlers/handlertest"
	"erent/internal/domain/reference"
	"erent/internal/domain/shared/paging"
	"erent/internal/domain/user"
	"erent/internal/infra/storage/memory"
)

func setup(t *testing.T) (*Handler, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	handlertest.SeedEntry(t, store, reference.KindCountry, "BA", "Bosnia and Herzegovina", "")
	handlertest.SeedEntry(t, store, reference.KindCity, "sarajevo", "Sarajevo", "BA")
	handlertest.SeedEntry(t, store, reference.KindGender, "female", "Female", "")
	handlertest.SeedUser(t, store, "amra")
	handlertest.SeedUser(t, store, "emir", user.RoleLandlord)
	return &Handler{UoWFactory: store, Clock: handlertest.Clock()}, store
}

func TestUpdateProfile(t *testing.T) {
	h, _ := setup(t)
	ctx := context.Background()

	out, err := h.UpdateProfile().Handle(ctx, UpdateProfileCommand{UserID: "amra", Actor: handlertest.Actor("amra"), FirstName: " Amra ", LastName: "Hodzic", Phone: "061 000 000", GenderID: "female", CityID: "sarajevo"})
	require.NoError(t, err)
	assert.Equal(t, "Amra Hodzic", out.FullName)
	assert.Equal(t, "sarajevo", out.CityID)
	assert.Equal(t, handlertest.Now, out.UpdatedAt)

	_, err = h.UpdateProfile().Handle(ctx, UpdateProfileCommand{UserID: "amra", Actor: handlertest.Actor("emir"), FirstName: "A", LastName: "B"})
	assert.ErrorIs(t, err, access.ErrForbidden)

	_, err = h.UpdateProfile().Handle(ctx, UpdateProfileCommand{UserID: "amra", Actor: handlertest.Actor("amra"), FirstName: "A", LastName: "B", CityID: "atlantis"})
	assert.ErrorIs(t, err, ErrUnknownReference)

	_, err = h.UpdateProfile().Handle(ctx, UpdateProfileCommand{UserID: "amra", Actor: handlertest.Admin(), FirstName: "", LastName: "B"})
	assert.ErrorIs(t, err, user.ErrNameRequired)
}

func TestAdministration(t *testing.T) {
	h, store := setup(t)
	ctx := context.Background()

	_, err := h.SetActive().Handle(ctx, SetActiveCommand{UserID: "amra", Actor: handlertest.Actor("emir", user.RoleLandlord)})
	assert.ErrorIs(t, err, access.ErrForbidden)

	out, err := h.SetActive().Handle(ctx, SetActiveCommand{UserID: "amra", Actor: handlertest.Admin(), Active: false})
	require.NoError(t, err)
	assert.False(t, out.Active)

	out, err = h.AssignRoles().Handle(ctx, AssignRolesCommand{UserID: "amra", Actor: handlertest.Admin(), Roles: []string{"tenant", "host"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"user", "landlord"}, out.Roles)

	_, err = h.AssignRoles().Handle(ctx, AssignRolesCommand{UserID: "amra", Actor: handlertest.Admin(), Roles: []string{"pilot"}})
	assert.ErrorIs(t, err, user.ErrInvalidRole)

	_, err = h.SetActive().Handle(ctx, SetActiveCommand{UserID: "ghost", Actor: handlertest.Admin()})
	assert.ErrorIs(t, err, user.ErrNotFound)

	inactive := false
	page, err := (&ListUsersHandler{UoWFactory: store}).Handle(ctx, ListUsersQuery{Actor: handlertest.Admin(), Active: &inactive, Paging: paging.Params{IncludeTotalCount: true}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "amra", page.Items[0].ID)
	require.NotNil(t, page.TotalCount)
	assert.Equal(t, 1, *page.TotalCount)

	landlords, err := (&ListUsersHandler{UoWFactory: store}).Handle(ctx, ListUsersQuery{Actor: handlertest.Admin(), Role: "landlord"})
	require.NoError(t, err)
	assert.Len(t, landlords.Items, 2)

	got, err := (&GetUserHandler{UoWFactory: store}).Handle(ctx, GetUserQuery{Actor: handlertest.Actor("emir"), UserID: "amra"})
	require.NoError(t, err)
	assert.Equal(t, "amra@example.com", got.Email)
}

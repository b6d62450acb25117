// Package handlertest seeds an in-memory store for use-case tests.
package handlertest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"erent/internal/app/access"
	"erent/internal/app/policies"
	"erent/internal/app/uow"
	"erent/internal/domain/property"
	"erent/internal/domain/reference"
	"erent/internal/domain/rent"
	"erent/internal/domain/shared/money"
	"erent/internal/domain/user"
	"erent/internal/infra/storage/memory"
)

// Now is the fixed instant handlers under test observe.
var Now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func Clock() policies.Clock {
	return func() time.Time { return Now }
}

func Actor(id string, roles ...user.Role) access.Actor {
	if len(roles) == 0 {
		roles = []user.Role{user.RoleTenant}
	}
	return access.Actor{ID: user.ID(id), Roles: roles}
}

func Admin() access.Actor {
	return Actor("admin", user.RoleAdministrator)
}

// Write runs fn in a committed unit of work.
func Write(t *testing.T, store *memory.Store, fn func(ctx context.Context, unit uow.UnitOfWork)) {
	t.Helper()
	ctx := context.Background()
	unit, err := store.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	fn(uow.ContextWithUnitOfWork(ctx, unit), unit)
	require.NoError(t, unit.Commit(ctx))
}

// Read runs fn in a read-only unit of work.
func Read(t *testing.T, store *memory.Store, fn func(ctx context.Context, unit uow.UnitOfWork)) {
	t.Helper()
	ctx := context.Background()
	unit, err := store.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer func() { _ = unit.Rollback(ctx) }()
	fn(uow.ContextWithUnitOfWork(ctx, unit), unit)
}

func SeedUser(t *testing.T, store *memory.Store, id string, roles ...user.Role) *user.User {
	t.Helper()
	u, err := user.NewUser(user.CreateParams{
		ID:           user.ID(id),
		FirstName:    "First " + id,
		LastName:     "Last " + id,
		Email:        id + "@example.com",
		Username:     id,
		PasswordHash: "hash",
		Roles:        roles,
		CreatedAt:    Now.AddDate(0, -1, 0),
	})
	require.NoError(t, err)
	Write(t, store, func(ctx context.Context, unit uow.UnitOfWork) {
		require.NoError(t, unit.Users().Save(ctx, u))
	})
	return u
}

func SeedEntry(t *testing.T, store *memory.Store, kind reference.Kind, id, name, parent string) *reference.Entry {
	t.Helper()
	code := ""
	if kind == reference.KindCountry {
		code = id
	}
	e, err := reference.New(reference.Params{
		ID:       reference.ID(id),
		Kind:     kind,
		Name:     name,
		Code:     code,
		ParentID: reference.ID(parent),
		Now:      Now,
	})
	require.NoError(t, err)
	Write(t, store, func(ctx context.Context, unit uow.UnitOfWork) {
		require.NoError(t, unit.Reference().Save(ctx, e))
	})
	return e
}

// Details returns a valid property payload: 1000.00 EUR a month, 50.00 EUR a
// day with daily rental allowed.
func Details() property.Details {
	return property.Details{
		Title:            "Sunny flat",
		Description:      "Two rooms near the river",
		PricePerMonth:    money.EUR(100000),
		PricePerDay:      money.EUR(5000),
		AllowDailyRental: true,
		Bedrooms:         2,
		Bathrooms:        1,
		Area:             54,
		PropertyTypeID:   "apartment",
		CityID:           "sarajevo",
	}
}

func SeedProperty(t *testing.T, store *memory.Store, id, landlord string) *property.Property {
	t.Helper()
	p, err := property.New(property.CreateParams{
		ID:         property.ID(id),
		LandlordID: user.ID(landlord),
		Details:    Details(),
		Now:        Now.AddDate(0, 0, -7),
	})
	require.NoError(t, err)
	p.PullEvents()
	Write(t, store, func(ctx context.Context, unit uow.UnitOfWork) {
		require.NoError(t, unit.Properties().Save(ctx, p))
	})
	return p
}

// Day returns midnight UTC of the given date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SeedRent stores a rent in the given status without going through the
// state machine.
func SeedRent(t *testing.T, store *memory.Store, r *rent.Rent) *rent.Rent {
	t.Helper()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = Now
		r.UpdatedAt = Now
	}
	Write(t, store, func(ctx context.Context, unit uow.UnitOfWork) {
		require.NoError(t, unit.Rents().Save(ctx, r))
	})
	return r
}

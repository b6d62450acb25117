package rents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erent/internal/app/access"
	"erent/internal/app/dto"
	"erent/internal/app/handlers/handlertest"
	"erent/internal/app/outbox"
	"erent/internal/app/uow"
	"erent/internal/domain/rent"
	"erent/internal/domain/shared/daterange"
	"erent/internal/domain/shared/paging"
	"erent/internal/domain/user"
	"erent/internal/infra/storage/memory"
)

type fixture struct {
	store      *memory.Store
	create     *CreateRentHandler
	update     *UpdateRentHandler
	transition *TransitionHandler
	search     *SearchRentsHandler
	get        *GetRentHandler
	quote      *QuoteRentHandler
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.NewStore()
	handlertest.SeedUser(t, store, "landlord", user.RoleLandlord)
	handlertest.SeedUser(t, store, "tenant")
	handlertest.SeedUser(t, store, "other")
	handlertest.SeedProperty(t, store, "flat", "landlord")
	enc := outbox.JSONEventEncoder{}
	return fixture{
		store:      store,
		create:     &CreateRentHandler{UoWFactory: store, Outbox: store.Outbox(), Encoder: enc, Clock: handlertest.Clock()},
		update:     &UpdateRentHandler{UoWFactory: store, Outbox: store.Outbox(), Encoder: enc, Clock: handlertest.Clock()},
		transition: &TransitionHandler{UoWFactory: store, Outbox: store.Outbox(), Encoder: enc, Clock: handlertest.Clock()},
		search:     &SearchRentsHandler{UoWFactory: store},
		get:        &GetRentHandler{UoWFactory: store},
		quote:      &QuoteRentHandler{UoWFactory: store},
	}
}

func (f fixture) request(t *testing.T, id, tenant string, month int) dto.Rent {
	t.Helper()
	out, err := f.create.Handle(context.Background(), CreateRentCommand{
		ID:         id,
		Actor:      handlertest.Actor(tenant),
		PropertyID: "flat",
		Start:      handlertest.Day(2026, 4, month),
		End:        handlertest.Day(2026, 4, month+10),
	})
	require.NoError(t, err)
	return out
}

func TestCreateRent(t *testing.T) {
	f := newFixture(t)

	out := f.request(t, "r-1", "tenant", 1)

	assert.Equal(t, "r-1", out.ID)
	assert.Equal(t, "Pending", out.Status)
	assert.Equal(t, int(rent.StatusPending), out.StatusID)
	assert.Equal(t, "landlord", out.LandlordID)
	assert.Equal(t, "Sunny flat", out.PropertyTitle)
	assert.Equal(t, int64(100000), out.Total.Amount, "a stay inside one month is billed one month")
	assert.Equal(t, 1, f.store.Outbox().Pending(), "rent.created is queued on commit")
}

func TestCreateRentRejectsOwnProperty(t *testing.T) {
	f := newFixture(t)

	_, err := f.create.Handle(context.Background(), CreateRentCommand{
		ID:         "r-1",
		Actor:      handlertest.Actor("landlord", user.RoleLandlord),
		PropertyID: "flat",
		Start:      handlertest.Day(2026, 4, 1),
		End:        handlertest.Day(2026, 4, 5),
	})

	assert.ErrorIs(t, err, rent.ErrOwnProperty)
	assert.Zero(t, f.store.Outbox().Pending(), "nothing is published when the unit rolls back")
}

func TestAcceptRechecksOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	landlord := handlertest.Actor("landlord", user.RoleLandlord)

	f.request(t, "r-1", "tenant", 1)
	f.request(t, "r-2", "other", 5)

	accepted, err := f.transition.Accept().Handle(ctx, AcceptRentCommand{RentID: "r-1", Actor: landlord})
	require.NoError(t, err)
	assert.Equal(t, "Accepted", accepted.Status)

	_, err = f.transition.Accept().Handle(ctx, AcceptRentCommand{RentID: "r-2", Actor: landlord})
	assert.ErrorIs(t, err, rent.ErrAcceptConflict)

	_, err = f.create.Handle(ctx, CreateRentCommand{
		ID:         "r-3",
		Actor:      handlertest.Actor("other"),
		PropertyID: "flat",
		Start:      handlertest.Day(2026, 4, 10),
		End:        handlertest.Day(2026, 4, 12),
	})
	assert.ErrorIs(t, err, rent.ErrAlreadyRented)

	f.request(t, "r-4", "other", 11)
}

func TestTransitionsCheckTheParty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.request(t, "r-1", "tenant", 1)

	t.Run("tenant cannot accept", func(t *testing.T) {
		_, err := f.transition.Accept().Handle(ctx, AcceptRentCommand{RentID: "r-1", Actor: handlertest.Actor("tenant", user.RoleLandlord)})
		assert.ErrorIs(t, err, access.ErrForbidden)
	})
	t.Run("stranger cannot cancel", func(t *testing.T) {
		_, err := f.transition.Cancel().Handle(ctx, CancelRentCommand{RentID: "r-1", Actor: handlertest.Actor("other")})
		assert.ErrorIs(t, err, access.ErrForbidden)
	})
	t.Run("pay needs an accepted rent", func(t *testing.T) {
		_, err := f.transition.Pay().Handle(ctx, PayRentCommand{RentID: "r-1", Actor: handlertest.Actor("tenant")})
		assert.ErrorIs(t, err, rent.ErrInvalidTransition)
	})
	t.Run("accept then pay", func(t *testing.T) {
		_, err := f.transition.Accept().Handle(ctx, AcceptRentCommand{RentID: "r-1", Actor: handlertest.Actor("landlord", user.RoleLandlord)})
		require.NoError(t, err)
		paid, err := f.transition.Pay().Handle(ctx, PayRentCommand{RentID: "r-1", Actor: handlertest.Actor("tenant")})
		require.NoError(t, err)
		assert.Equal(t, "Paid", paid.Status)
	})
	t.Run("paid rents cannot be rejected", func(t *testing.T) {
		_, err := f.transition.Reject().Handle(ctx, RejectRentCommand{RentID: "r-1", Actor: handlertest.Admin()})
		assert.ErrorIs(t, err, rent.ErrInvalidTransition)
	})
}

func TestUpdateRentReprices(t *testing.T) {
	f := newFixture(t)
	f.request(t, "r-1", "tenant", 1)

	out, err := f.update.Handle(context.Background(), UpdateRentCommand{
		RentID: "r-1",
		Actor:  handlertest.Actor("tenant"),
		Start:  handlertest.Day(2026, 4, 1),
		End:    handlertest.Day(2026, 4, 4),
		Daily:  true,
	})

	require.NoError(t, err)
	assert.True(t, out.Daily)
	assert.Equal(t, int64(15000), out.Total.Amount)

	_, err = f.update.Handle(context.Background(), UpdateRentCommand{
		RentID: "r-1",
		Actor:  handlertest.Actor("other"),
		Start:  handlertest.Day(2026, 4, 1),
		End:    handlertest.Day(2026, 4, 4),
	})
	assert.ErrorIs(t, err, access.ErrForbidden)
}

func TestSearchRentsIsScopedToTheCaller(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.request(t, "r-1", "tenant", 1)
	f.request(t, "r-2", "other", 15)

	mine, err := f.search.Handle(ctx, SearchRentsQuery{Actor: handlertest.Actor("tenant"), Paging: paging.Params{IncludeTotalCount: true}})
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, "r-1", mine.Items[0].ID)
	require.NotNil(t, mine.TotalCount)
	assert.Equal(t, 1, *mine.TotalCount)

	landlord, err := f.search.Handle(ctx, SearchRentsQuery{Actor: handlertest.Actor("landlord", user.RoleLandlord), LandlordID: "landlord"})
	require.NoError(t, err)
	assert.Len(t, landlord.Items, 2)

	byTitle, err := f.search.Handle(ctx, SearchRentsQuery{Actor: handlertest.Admin(), PropertyTitle: "castle"})
	require.NoError(t, err)
	assert.Empty(t, byTitle.Items)

	_, err = f.get.Handle(ctx, GetRentQuery{Actor: handlertest.Actor("other"), RentID: "r-1"})
	assert.ErrorIs(t, err, access.ErrForbidden)
}

func TestQuoteRent(t *testing.T) {
	f := newFixture(t)

	q, err := f.quote.Handle(context.Background(), QuoteRentQuery{
		PropertyID: "flat",
		Start:      handlertest.Day(2026, 4, 1),
		End:        handlertest.Day(2026, 6, 1),
	})

	require.NoError(t, err)
	assert.Equal(t, 2, q.Units)
	assert.Equal(t, "month", q.Unit)
	assert.Equal(t, int64(200000), q.Total.Amount)
}

func TestBlockingSeesAcceptedRentsOnly(t *testing.T) {
	f := newFixture(t)
	period, err := daterange.New(handlertest.Day(2026, 5, 1), handlertest.Day(2026, 5, 10))
	require.NoError(t, err)
	handlertest.SeedRent(t, f.store, &rent.Rent{ID: "paid", PropertyID: "flat", TenantID: "tenant", LandlordID: "landlord", Period: period, Status: rent.StatusPaid, Active: true})
	handlertest.SeedRent(t, f.store, &rent.Rent{ID: "pending", PropertyID: "flat", TenantID: "other", LandlordID: "landlord", Period: period, Status: rent.StatusPending, Active: true})

	handlertest.Read(t, f.store, func(ctx context.Context, unit uow.UnitOfWork) {
		blocking, err := unit.Rents().Blocking(ctx, "flat", period)
		require.NoError(t, err)
		require.Len(t, blocking, 1)
		assert.Equal(t, rent.ID("paid"), blocking[0].ID)
	})
}

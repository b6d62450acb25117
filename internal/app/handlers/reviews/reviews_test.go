package reviews

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erent/internal/app/access"
	"erent/internal/app/handlers/handlertest"
	"erent/internal/app/outbox"
	"erent/internal/domain/rent"
	domainreviews "erent/internal/domain/reviews"
	"erent/internal/domain/shared/daterange"
	"erent/internal/domain/shared/paging"
	"erent/internal/domain/user"
	"erent/internal/infra/storage/memory"
)

func setup(t *testing.T) (*memory.Store, *Handler) {
	t.Helper()
	store := memory.NewStore()
	handlertest.SeedUser(t, store, "landlord", user.RoleLandlord)
	handlertest.SeedUser(t, store, "tenant")
	handlertest.SeedUser(t, store, "other")
	handlertest.SeedProperty(t, store, "flat", "landlord")
	period, err := daterange.New(handlertest.Day(2026, 1, 1), handlertest.Day(2026, 2, 1))
	require.NoError(t, err)
	handlertest.SeedRent(t, store, &rent.Rent{ID: "paid", PropertyID: "flat", TenantID: "tenant", LandlordID: "landlord", Period: period, Status: rent.StatusPaid, Active: true})
	handlertest.SeedRent(t, store, &rent.Rent{ID: "pending", PropertyID: "flat", TenantID: "tenant", LandlordID: "landlord", Period: period, Status: rent.StatusPending, Active: true})
	h := &Handler{UoWFactory: store, Outbox: store.Outbox(), Encoder: outbox.JSONEventEncoder{}, Clock: handlertest.Clock()}
	return store, h
}

func TestSubmitReviewEligibility(t *testing.T) {
	_, h := setup(t)
	ctx := context.Background()

	out, err := h.Submit().Handle(ctx, SubmitReviewCommand{ID: "rv-1", Actor: handlertest.Actor("tenant"), RentID: "paid", Rating: 4, Comment: " quiet street "})
	require.NoError(t, err)
	assert.Equal(t, "flat", out.PropertyID)
	assert.Equal(t, "quiet street", out.Comment)

	cases := []struct {
		name string
		cmd  SubmitReviewCommand
		want error
	}{
		{"second review", SubmitReviewCommand{ID: "rv-2", Actor: handlertest.Actor("tenant"), RentID: "paid", Rating: 5}, domainreviews.ErrAlreadyReviewed},
		{"unpaid rent", SubmitReviewCommand{ID: "rv-3", Actor: handlertest.Actor("tenant"), RentID: "pending", Rating: 5}, domainreviews.ErrRentNotPaid},
		{"not the tenant", SubmitReviewCommand{ID: "rv-4", Actor: handlertest.Actor("other"), RentID: "paid", Rating: 5}, domainreviews.ErrNotTenant},
		{"unknown rent", SubmitReviewCommand{ID: "rv-5", Actor: handlertest.Actor("tenant"), RentID: "nope", Rating: 5}, rent.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.Submit().Handle(ctx, tc.cmd)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestUpdateAndWithdrawReview(t *testing.T) {
	_, h := setup(t)
	ctx := context.Background()
	_, err := h.Submit().Handle(ctx, SubmitReviewCommand{ID: "rv-1", Actor: handlertest.Actor("tenant"), RentID: "paid", Rating: 2})
	require.NoError(t, err)

	updated, err := h.Update().Handle(ctx, UpdateReviewCommand{ReviewID: "rv-1", Actor: handlertest.Actor("tenant"), Rating: 5, Comment: "grew on me"})
	require.NoError(t, err, "a review does not conflict with itself")
	assert.Equal(t, 5, updated.Rating)

	_, err = h.Update().Handle(ctx, UpdateReviewCommand{ReviewID: "rv-1", Actor: handlertest.Actor("other"), Rating: 1})
	assert.ErrorIs(t, err, access.ErrForbidden)

	withdrawn, err := h.Withdraw().Handle(ctx, WithdrawReviewCommand{ReviewID: "rv-1", Actor: handlertest.Admin()})
	require.NoError(t, err)
	assert.False(t, withdrawn.Active)

	_, err = h.Submit().Handle(ctx, SubmitReviewCommand{ID: "rv-2", Actor: handlertest.Actor("tenant"), RentID: "paid", Rating: 3})
	assert.NoError(t, err, "a withdrawn review frees the rent")
}

func TestSearchReviewsSummarizesEveryMatch(t *testing.T) {
	store, h := setup(t)
	ctx := context.Background()
	period, err := daterange.New(handlertest.Day(2026, 2, 1), handlertest.Day(2026, 3, 1))
	require.NoError(t, err)
	handlertest.SeedRent(t, store, &rent.Rent{ID: "paid-2", PropertyID: "flat", TenantID: "other", LandlordID: "landlord", Period: period, Status: rent.StatusPaid, Active: true})

	_, err = h.Submit().Handle(ctx, SubmitReviewCommand{ID: "rv-1", Actor: handlertest.Actor("tenant"), RentID: "paid", Rating: 5})
	require.NoError(t, err)
	_, err = h.Submit().Handle(ctx, SubmitReviewCommand{ID: "rv-2", Actor: handlertest.Actor("other"), RentID: "paid-2", Rating: 2})
	require.NoError(t, err)

	search := &SearchReviewsHandler{UoWFactory: store}
	page, err := search.Handle(ctx, SearchReviewsQuery{PropertyID: "flat", Paging: paging.Params{Page: paging.Int(0), PageSize: paging.Int(1), IncludeTotalCount: true}})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, *page.TotalCount)
	assert.Equal(t, 2, page.Summary.Count)
	assert.InDelta(t, 3.5, page.Summary.Average, 1e-9)
	assert.Equal(t, [5]int{0, 1, 0, 0, 1}, page.Summary.Histogram)

	got, err := (&GetReviewHandler{UoWFactory: store}).Handle(ctx, GetReviewQuery{ReviewID: "rv-2"})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Rating)
}

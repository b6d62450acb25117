package viewings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erent/internal/app/access"
	"erent/internal/app/handlers/handlertest"
	"erent/internal/app/outbox"
	"erent/internal/domain/user"
	"erent/internal/domain/viewing"
	"erent/internal/infra/storage/memory"
)

func setup(t *testing.T) (*memory.Store, *Handler) {
	t.Helper()
	store := memory.NewStore()
	handlertest.SeedUser(t, store, "landlord", user.RoleLandlord)
	handlertest.SeedUser(t, store, "tenant")
	handlertest.SeedUser(t, store, "other")
	handlertest.SeedProperty(t, store, "flat", "landlord")
	h := &Handler{UoWFactory: store, Outbox: store.Outbox(), Encoder: outbox.JSONEventEncoder{}, Clock: handlertest.Clock()}
	return store, h
}

func tomorrowAt(hour int) time.Time {
	return handlertest.Now.AddDate(0, 0, 1).Truncate(24 * time.Hour).Add(time.Duration(hour) * time.Hour)
}

func TestScheduleViewing(t *testing.T) {
	store, h := setup(t)
	ctx := context.Background()

	out, err := h.Schedule().Handle(ctx, ScheduleViewingCommand{ID: "v-1", Actor: handlertest.Actor("tenant"), PropertyID: "flat", Start: tomorrowAt(10), Note: "after work"})
	require.NoError(t, err)
	assert.Equal(t, "Pending", out.Status)
	assert.Equal(t, tomorrowAt(12), out.End)
	assert.Equal(t, "landlord", out.LandlordID)
	assert.Equal(t, 1, store.Outbox().Pending())

	t.Run("overlapping slot", func(t *testing.T) {
		_, err := h.Schedule().Handle(ctx, ScheduleViewingCommand{ID: "v-2", Actor: handlertest.Actor("other"), PropertyID: "flat", Start: tomorrowAt(11)})
		assert.ErrorIs(t, err, viewing.ErrSlotTaken)
	})
	t.Run("back to back slot", func(t *testing.T) {
		_, err := h.Schedule().Handle(ctx, ScheduleViewingCommand{ID: "v-3", Actor: handlertest.Actor("other"), PropertyID: "flat", Start: tomorrowAt(12)})
		assert.NoError(t, err)
	})
	t.Run("in the past", func(t *testing.T) {
		_, err := h.Schedule().Handle(ctx, ScheduleViewingCommand{ID: "v-4", Actor: handlertest.Actor("other"), PropertyID: "flat", Start: handlertest.Now.Add(-time.Hour)})
		assert.ErrorIs(t, err, viewing.ErrStartInPast)
	})
	t.Run("own property", func(t *testing.T) {
		_, err := h.Schedule().Handle(ctx, ScheduleViewingCommand{ID: "v-5", Actor: handlertest.Actor("landlord", user.RoleLandlord), PropertyID: "flat", Start: tomorrowAt(16)})
		assert.ErrorIs(t, err, viewing.ErrOwnProperty)
	})
}

func TestViewingTransitions(t *testing.T) {
	_, h := setup(t)
	ctx := context.Background()
	_, err := h.Schedule().Handle(ctx, ScheduleViewingCommand{ID: "v-1", Actor: handlertest.Actor("tenant"), PropertyID: "flat", Start: tomorrowAt(10)})
	require.NoError(t, err)

	_, err = h.Approve().Handle(ctx, ApproveViewingCommand{ViewingID: "v-1", Actor: handlertest.Actor("other", user.RoleLandlord)})
	assert.ErrorIs(t, err, access.ErrForbidden)

	approved, err := h.Approve().Handle(ctx, ApproveViewingCommand{ViewingID: "v-1", Actor: handlertest.Actor("landlord", user.RoleLandlord), Note: "ring twice"})
	require.NoError(t, err)
	assert.Equal(t, "Approved", approved.Status)
	assert.Equal(t, "ring twice", approved.LandlordNote)

	_, err = h.Reject().Handle(ctx, RejectViewingCommand{ViewingID: "v-1", Actor: handlertest.Actor("landlord", user.RoleLandlord)})
	assert.ErrorIs(t, err, viewing.ErrInvalidTransition)

	_, err = h.Cancel().Handle(ctx, CancelViewingCommand{ViewingID: "v-1", Actor: handlertest.Actor("other")})
	assert.ErrorIs(t, err, access.ErrForbidden)

	cancelled, err := h.Cancel().Handle(ctx, CancelViewingCommand{ViewingID: "v-1", Actor: handlertest.Actor("tenant")})
	require.NoError(t, err)
	assert.Equal(t, "Cancelled", cancelled.Status)
}

func TestCompleteDue(t *testing.T) {
	store, h := setup(t)
	ctx := context.Background()
	_, err := h.Schedule().Handle(ctx, ScheduleViewingCommand{ID: "v-1", Actor: handlertest.Actor("tenant"), PropertyID: "flat", Start: tomorrowAt(10)})
	require.NoError(t, err)
	_, err = h.Approve().Handle(ctx, ApproveViewingCommand{ViewingID: "v-1", Actor: handlertest.Actor("landlord", user.RoleLandlord)})
	require.NoError(t, err)
	_, err = h.Schedule().Handle(ctx, ScheduleViewingCommand{ID: "v-2", Actor: handlertest.Actor("other"), PropertyID: "flat", Start: tomorrowAt(14)})
	require.NoError(t, err)

	none, err := h.CompleteDue().Handle(ctx, CompleteDueCommand{})
	require.NoError(t, err)
	assert.Zero(t, none.Count)

	later := *h
	later.Clock = func() time.Time { return tomorrowAt(20) }
	done, err := later.CompleteDue().Handle(ctx, CompleteDueCommand{})
	require.NoError(t, err)
	assert.Equal(t, 1, done.Count, "pending viewings are left alone")

	get := &GetViewingHandler{UoWFactory: store}
	out, err := get.Handle(ctx, GetViewingQuery{Actor: handlertest.Actor("tenant"), ViewingID: "v-1"})
	require.NoError(t, err)
	assert.Equal(t, "Completed", out.Status)
}

func TestSearchViewingsIsScoped(t *testing.T) {
	store, h := setup(t)
	ctx := context.Background()
	_, err := h.Schedule().Handle(ctx, ScheduleViewingCommand{ID: "v-1", Actor: handlertest.Actor("tenant"), PropertyID: "flat", Start: tomorrowAt(10)})
	require.NoError(t, err)
	_, err = h.Schedule().Handle(ctx, ScheduleViewingCommand{ID: "v-2", Actor: handlertest.Actor("other"), PropertyID: "flat", Start: tomorrowAt(14)})
	require.NoError(t, err)

	search := &SearchViewingsHandler{UoWFactory: store}
	mine, err := search.Handle(ctx, SearchViewingsQuery{Actor: handlertest.Actor("tenant")})
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, "v-1", mine.Items[0].ID)

	landlord, err := search.Handle(ctx, SearchViewingsQuery{Actor: handlertest.Actor("landlord", user.RoleLandlord)})
	require.NoError(t, err)
	require.Len(t, landlord.Items, 2)
	assert.Equal(t, "v-2", landlord.Items[0].ID, "latest slot first")

	_, err = (&GetViewingHandler{UoWFactory: store}).Handle(ctx, GetViewingQuery{Actor: handlertest.Actor("other"), ViewingID: "v-1"})
	assert.ErrorIs(t, err, access.ErrForbidden)
}

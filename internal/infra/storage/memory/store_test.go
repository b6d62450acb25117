package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erent/internal/app/middleware"
	appoutbox "erent/internal/app/outbox"
	"erent/internal/app/uow"
	"erent/internal/domain/property"
)

func TestUnitStagesWritesUntilCommit(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	unit, err := store.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Properties().Save(ctx, &property.Property{ID: "p-1", Title: "Loft"}))
	require.NoError(t, unit.Rollback(ctx))

	unit, err = store.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	_, err = unit.Properties().ByID(ctx, "p-1")
	assert.ErrorIs(t, err, property.ErrNotFound)
	require.NoError(t, unit.Commit(ctx))

	unit, err = store.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Properties().Save(ctx, &property.Property{ID: "p-1", Title: "Loft"}))
	require.NoError(t, unit.Commit(ctx))

	unit, err = store.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	got, err := unit.Properties().ByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Loft", got.Title)
	assert.Equal(t, int64(1), got.Version)

	got.Title = "changed"
	again, err := unit.Properties().ByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Loft", again.Title, "reads hand out copies")

	assert.ErrorIs(t, unit.Properties().Save(ctx, got), ErrReadOnly)
	require.NoError(t, unit.Commit(ctx))
	assert.ErrorIs(t, unit.Commit(ctx), ErrClosed)
}

func TestDeleteIsVisibleInsideTheUnit(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	unit, err := store.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Properties().Save(ctx, &property.Property{ID: "p-1"}))
	require.NoError(t, unit.Properties().Delete(ctx, "p-1"))
	_, err = unit.Properties().ByID(ctx, "p-1")
	assert.ErrorIs(t, err, property.ErrNotFound)
	assert.ErrorIs(t, unit.Properties().Delete(ctx, "p-1"), property.ErrNotFound)
	require.NoError(t, unit.Commit(ctx))
}

func TestCalendarSaveRejectsAStaleVersion(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	unit, err := store.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	stale, err := unit.Rents().Calendar(ctx, "p-1")
	require.NoError(t, err)
	assert.Zero(t, stale.Version)
	fresh := *stale
	require.NoError(t, unit.Rents().SaveCalendar(ctx, &fresh))
	assert.Equal(t, int64(1), fresh.Version)
	require.NoError(t, unit.Commit(ctx))

	unit, err = store.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	assert.ErrorIs(t, unit.Rents().SaveCalendar(ctx, stale), uow.ErrConcurrentUpdate)
	current, err := unit.Rents().Calendar(ctx, "p-1")
	require.NoError(t, err)
	require.NoError(t, unit.Rents().SaveCalendar(ctx, current))
	require.NoError(t, unit.Rollback(ctx))

	unit, err = store.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	got, err := unit.Rents().Calendar(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version, "rolled back saves leave the version alone")
	assert.ErrorIs(t, unit.Rents().SaveCalendar(ctx, got), ErrReadOnly)
	require.NoError(t, unit.Commit(ctx))
}

func TestOutboxQueuesOnCommitOnly(t *testing.T) {
	store := NewStore()
	outbox := store.Outbox()
	record := func(id string) appoutbox.EventRecord {
		return appoutbox.EventRecord{ID: id, Name: "rent.created", Payload: []byte(`{}`), Headers: map[string]string{"k": "v"}}
	}

	unit, err := store.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	ctx := uow.ContextWithUnitOfWork(context.Background(), unit)
	require.NoError(t, outbox.Add(ctx, record("e-1")))
	assert.Zero(t, outbox.Pending())
	require.NoError(t, unit.Rollback(ctx))
	assert.Zero(t, outbox.Pending())

	unit, err = store.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	ctx = uow.ContextWithUnitOfWork(context.Background(), unit)
	require.NoError(t, outbox.Add(ctx, record("e-2")))
	require.NoError(t, unit.Commit(ctx))
	assert.Equal(t, 1, outbox.Pending())

	doc, err := outbox.Claim(context.Background(), "w-1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "e-2", doc.ID)
	assert.Equal(t, "w-1", doc.ClaimedBy)

	next, err := outbox.Claim(context.Background(), "w-2")
	require.NoError(t, err)
	assert.Nil(t, next, "claimed records are not handed out twice")

	require.NoError(t, outbox.MarkFailed(context.Background(), "e-2", time.Now().Add(-time.Second), "broker down"))
	doc, err = outbox.Claim(context.Background(), "w-2")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, 1, doc.Attempts)
	assert.Equal(t, "broker down", doc.LastError)

	require.NoError(t, outbox.MarkSent(context.Background(), "e-2"))
	assert.Zero(t, outbox.Pending())
}

func TestIdempotencyStoreExpiresRecords(t *testing.T) {
	store := NewIdempotencyStore(time.Minute)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	payload := []byte(`{"id":"r-1"}`)
	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "rent.create:u:k", Payload: payload, OccurredAt: now}))
	payload[0] = 'x'

	rec, ok, err := store.Get(ctx, "rent.create:u:k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"id":"r-1"}`, string(rec.Payload))

	now = now.Add(2 * time.Minute)
	_, ok, err = store.Get(ctx, "rent.create:u:k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "other", OccurredAt: now}))
	assert.Len(t, store.items, 1)
}

package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erent/internal/domain/auth"
	"erent/internal/domain/user"
)

func newStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionStore(client, ""), srv
}

func session(t *testing.T, id string, userID user.ID) *auth.Session {
	t.Helper()
	s, err := auth.NewSession(auth.CreateSessionParams{
		ID:     auth.SessionID(id),
		UserID: userID,
		Roles:  []user.Role{user.RoleLandlord},
		TTL:    time.Hour,
		Now:    time.Now(),
	})
	require.NoError(t, err)
	return s
}

func TestSessionRoundTrip(t *testing.T) {
	store, srv := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, session(t, "s-1", "u-1")))

	got, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID("u-1"), got.UserID)
	assert.Equal(t, []user.Role{user.RoleLandlord}, got.Roles)
	assert.InDelta(t, time.Hour.Seconds(), srv.TTL(store.sessionKey("s-1")).Seconds(), 5)

	require.NoError(t, store.Delete(ctx, "s-1"))
	_, err = store.Get(ctx, "s-1")
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)
	assert.NoError(t, store.Delete(ctx, "s-1"), "deleting twice is harmless")
}

func TestSessionExpiresWithRedisTTL(t *testing.T) {
	store, srv := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, session(t, "s-1", "u-1")))

	srv.FastForward(2 * time.Hour)

	_, err := store.Get(ctx, "s-1")
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)
}

func TestDeleteByUser(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, session(t, "s-1", "u-1")))
	require.NoError(t, store.Save(ctx, session(t, "s-2", "u-1")))
	require.NoError(t, store.Save(ctx, session(t, "s-3", "u-2")))

	require.NoError(t, store.DeleteByUser(ctx, "u-1"))

	for _, id := range []auth.SessionID{"s-1", "s-2"} {
		_, err := store.Get(ctx, id)
		assert.ErrorIs(t, err, auth.ErrSessionNotFound)
	}
	_, err := store.Get(ctx, "s-3")
	assert.NoError(t, err)
}

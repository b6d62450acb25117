package reference

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("country normalizes code", func(t *testing.T) {
		e, err := New(Params{ID: "ba", Kind: KindCountry, Name: " Bosnia and Herzegovina ", Code: "ba", Now: now})
		require.NoError(t, err)
		assert.Equal(t, "Bosnia and Herzegovina", e.Name)
		assert.Equal(t, "BA", e.Code)
		assert.True(t, e.Active)
	})

	t.Run("country without code", func(t *testing.T) {
		_, err := New(Params{ID: "x", Kind: KindCountry, Name: "Nowhere", Now: now})
		assert.ErrorIs(t, err, ErrCodeRequired)
	})

	t.Run("city needs a country", func(t *testing.T) {
		_, err := New(Params{ID: "sa", Kind: KindCity, Name: "Sarajevo", Now: now})
		assert.ErrorIs(t, err, ErrParentRequired)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := New(Params{ID: "a", Kind: KindAmenity, Name: "  ", Now: now})
		assert.ErrorIs(t, err, ErrNameRequired)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := New(Params{ID: "a", Kind: "planet", Name: "Mars", Now: now})
		assert.ErrorIs(t, err, ErrUnknownKind)
	})
}

func TestListParamsMatches(t *testing.T) {
	inactive := false
	city := &Entry{ID: "mo", Kind: KindCity, Name: "Mostar", ParentID: "ba", Active: true}

	assert.True(t, ListParams{Kind: KindCity, Name: "most"}.Matches(city))
	assert.True(t, ListParams{Kind: KindCity, ParentID: "ba"}.Matches(city))
	assert.False(t, ListParams{Kind: KindCity, ParentID: "hr"}.Matches(city))
	assert.False(t, ListParams{Kind: KindCountry}.Matches(city))
	assert.False(t, ListParams{Kind: KindCity, Active: &inactive}.Matches(city))
}

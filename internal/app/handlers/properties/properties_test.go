package properties

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"erent/internal/app/access"
	"erent/internal/app/handlers/handlertest"
	"erent/internal/app/outbox"
	"erent/internal/domain/property"
	"erent/internal/domain/reference"
	"erent/internal/domain/shared/paging"
	"erent/internal/domain/user"
	"erent/internal/infra/storage/memory"
)

type mockImages struct{ mock.Mock }

func (m *mockImages) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	data, _ := io.ReadAll(r)
	args := m.Called(key, string(data), size, contentType)
	return args.String(0), args.Error(1)
}

func (m *mockImages) Delete(ctx context.Context, key string) error {
	return m.Called(key).Error(0)
}

func seedCatalogue(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	handlertest.SeedUser(t, store, "landlord", user.RoleLandlord)
	handlertest.SeedUser(t, store, "rival", user.RoleLandlord)
	handlertest.SeedEntry(t, store, reference.KindCountry, "BA", "Bosnia and Herzegovina", "")
	handlertest.SeedEntry(t, store, reference.KindCountry, "HR", "Croatia", "")
	handlertest.SeedEntry(t, store, reference.KindCity, "sarajevo", "Sarajevo", "BA")
	handlertest.SeedEntry(t, store, reference.KindCity, "split", "Split", "HR")
	handlertest.SeedEntry(t, store, reference.KindPropertyType, "apartment", "Apartment", "")
	handlertest.SeedEntry(t, store, reference.KindAmenity, "wifi", "Wi-Fi", "")
	return store
}

func fields() Fields {
	return Fields{
		Title:            "Old town loft",
		PricePerMonth:    90000,
		PricePerDay:      4000,
		AllowDailyRental: true,
		Bedrooms:         1,
		PropertyTypeID:   "apartment",
		CityID:           "sarajevo",
		AmenityIDs:       []string{"wifi"},
	}
}

func newHandler(store *memory.Store, images *mockImages) *Handler {
	h := &Handler{UoWFactory: store, Outbox: store.Outbox(), Encoder: outbox.JSONEventEncoder{}, Clock: handlertest.Clock()}
	if images != nil {
		h.Images = images
	}
	return h
}

func TestCreateProperty(t *testing.T) {
	store := seedCatalogue(t)
	h := newHandler(store, nil)
	landlord := handlertest.Actor("landlord", user.RoleLandlord)

	out, err := h.Create().Handle(context.Background(), CreatePropertyCommand{ID: "p-1", Actor: landlord, Fields: fields()})
	require.NoError(t, err)
	assert.Equal(t, "Apartment", out.PropertyType)
	assert.Equal(t, "Sarajevo", out.City)
	assert.Equal(t, []string{"wifi"}, out.AmenityIDs)
	require.NotNil(t, out.PricePerDay)
	assert.Equal(t, int64(4000), out.PricePerDay.Amount)

	t.Run("unknown amenity", func(t *testing.T) {
		f := fields()
		f.AmenityIDs = []string{"pool"}
		_, err := h.Create().Handle(context.Background(), CreatePropertyCommand{ID: "p-2", Actor: landlord, Fields: f})
		assert.ErrorIs(t, err, ErrUnknownReference)
	})
	t.Run("daily rental needs a daily price", func(t *testing.T) {
		f := fields()
		f.PricePerDay = 0
		_, err := h.Create().Handle(context.Background(), CreatePropertyCommand{ID: "p-3", Actor: landlord, Fields: f})
		assert.ErrorIs(t, err, property.ErrDailyPriceRequired)
	})
}

func TestUpdatePropertyRequiresOwner(t *testing.T) {
	store := seedCatalogue(t)
	h := newHandler(store, nil)
	ctx := context.Background()
	_, err := h.Create().Handle(ctx, CreatePropertyCommand{ID: "p-1", Actor: handlertest.Actor("landlord", user.RoleLandlord), Fields: fields()})
	require.NoError(t, err)

	f := fields()
	f.Title = "Renamed"
	_, err = h.Update().Handle(ctx, UpdatePropertyCommand{PropertyID: "p-1", Actor: handlertest.Actor("rival", user.RoleLandlord), Fields: f})
	assert.ErrorIs(t, err, access.ErrForbidden)

	out, err := h.Update().Handle(ctx, UpdatePropertyCommand{PropertyID: "p-1", Actor: handlertest.Admin(), Fields: f})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", out.Title)

	out, err = h.SetActive().Handle(ctx, SetPropertyActiveCommand{PropertyID: "p-1", Actor: handlertest.Actor("landlord", user.RoleLandlord)})
	require.NoError(t, err)
	assert.False(t, out.Active)
}

func TestPropertyImages(t *testing.T) {
	store := seedCatalogue(t)
	images := &mockImages{}
	h := newHandler(store, images)
	ctx := context.Background()
	landlord := handlertest.Actor("landlord", user.RoleLandlord)
	_, err := h.Create().Handle(ctx, CreatePropertyCommand{ID: "p-1", Actor: landlord, Fields: fields()})
	require.NoError(t, err)

	images.On("Upload", "properties/p-1/img-1", "jpeg-bytes", int64(10), "image/jpeg").Return("https://cdn.test/properties/p-1/img-1", nil).Once()
	out, err := h.AddImage().Handle(ctx, AddImageCommand{PropertyID: "p-1", ImageID: "img-1", Actor: landlord, ContentType: "image/jpeg", Data: []byte("jpeg-bytes")})
	require.NoError(t, err)
	require.Len(t, out.Images, 1)
	assert.True(t, out.Images[0].Cover)
	assert.Equal(t, "https://cdn.test/properties/p-1/img-1", out.CoverImageURL)

	images.On("Delete", "properties/p-1/img-1").Return(nil).Once()
	out, err = h.RemoveImage().Handle(ctx, RemoveImageCommand{PropertyID: "p-1", ImageID: "img-1", Actor: landlord})
	require.NoError(t, err)
	assert.Empty(t, out.Images)

	images.On("Upload", "properties/p-1/img-2", "x", int64(1), "image/png").Return("", errors.New("bucket gone")).Once()
	_, err = h.AddImage().Handle(ctx, AddImageCommand{PropertyID: "p-1", ImageID: "img-2", Actor: landlord, ContentType: "image/png", Data: []byte("x")})
	assert.Error(t, err)
	images.AssertExpectations(t)
}

func TestSearchPropertiesByCountry(t *testing.T) {
	store := seedCatalogue(t)
	h := newHandler(store, nil)
	ctx := context.Background()
	landlord := handlertest.Actor("landlord", user.RoleLandlord)
	_, err := h.Create().Handle(ctx, CreatePropertyCommand{ID: "p-1", Actor: landlord, Fields: fields()})
	require.NoError(t, err)
	coastal := fields()
	coastal.CityID = "split"
	coastal.Title = "Sea view"
	_, err = h.Create().Handle(ctx, CreatePropertyCommand{ID: "p-2", Actor: landlord, Fields: coastal})
	require.NoError(t, err)

	search := &SearchPropertiesHandler{UoWFactory: store}
	page, err := search.Handle(ctx, SearchPropertiesQuery{CountryID: "HR", Paging: paging.Params{IncludeTotalCount: true}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Sea view", page.Items[0].Title)
	assert.Equal(t, 1, *page.TotalCount)

	none, err := search.Handle(ctx, SearchPropertiesQuery{CountryID: "XX"})
	require.NoError(t, err)
	assert.Empty(t, none.Items)

	get := &GetPropertyHandler{UoWFactory: store}
	_, err = get.Handle(ctx, GetPropertyQuery{PropertyID: "missing"})
	assert.ErrorIs(t, err, property.ErrNotFound)
}

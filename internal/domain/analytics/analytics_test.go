package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erent/internal/domain/property"
	"erent/internal/domain/reference"
	"erent/internal/domain/rent"
	"erent/internal/domain/reviews"
	"erent/internal/domain/shared/daterange"
	"erent/internal/domain/shared/money"
	"erent/internal/domain/user"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func prop(id property.ID, landlord user.ID, typ, city string, month, day int64, active bool) *property.Property {
	return &property.Property{
		ID:             id,
		LandlordID:     landlord,
		PropertyTypeID: reference.ID("t-" + typ),
		CityID:         reference.ID("c-" + city),
		PricePerMonth:  money.EUR(month),
		PricePerDay:    money.EUR(day),
		Active:         active,
		CreatedAt:      now.AddDate(0, -2, 0),
	}
}

func rentOf(id rent.ID, p property.ID, status rent.Status, total int64, start, end time.Time, created time.Time) *rent.Rent {
	return &rent.Rent{
		ID:         id,
		PropertyID: p,
		Status:     status,
		Total:      money.EUR(total),
		Period:     daterange.DateRange{Start: start, End: end},
		Daily:      end.Sub(start) < 30*24*time.Hour,
		Active:     true,
		CreatedAt:  created,
	}
}

func dataset() Dataset {
	return Dataset{
		Properties: []*property.Property{
			prop("p1", "l1", "flat", "sarajevo", 50000, 3000, true),
			prop("p2", "l1", "house", "mostar", 90000, 0, true),
			prop("p3", "l2", "flat", "mostar", 70000, 5000, false),
		},
		Rents: []*rent.Rent{
			rentOf("r1", "p1", rent.StatusPaid, 9000, now.AddDate(0, 0, -2), now.AddDate(0, 0, 1), now.AddDate(0, 0, -3)),
			rentOf("r2", "p2", rent.StatusPaid, 180000, now.AddDate(0, -4, 0), now.AddDate(0, -2, 0), now.AddDate(0, -5, 0)),
			rentOf("r3", "p2", rent.StatusPending, 90000, now.AddDate(0, 0, -1), now.AddDate(0, 1, 0), now),
			rentOf("r4", "p3", rent.StatusCancelled, 5000, now.AddDate(0, 0, 5), now.AddDate(0, 0, 6), now),
		},
		Users: []*user.User{
			{ID: "a", Roles: []user.Role{user.RoleAdministrator}, Active: true, CreatedAt: now.AddDate(-1, 0, 0)},
			{ID: "l1", Roles: []user.Role{user.RoleLandlord}, Active: true, CreatedAt: now.AddDate(0, -1, 0)},
			{ID: "t", Roles: []user.Role{user.RoleTenant}, Active: false, CreatedAt: now},
		},
		Reviews: []*reviews.Review{
			{ID: "v1", PropertyID: "p1", Rating: 5, Active: true},
			{ID: "v2", PropertyID: "p2", Rating: 3, Active: true},
			{ID: "v3", PropertyID: "p3", Rating: 1, Active: false},
		},
		TypeNames: map[reference.ID]string{"t-flat": "Flat", "t-house": "House"},
		CityNames: map[reference.ID]string{"c-sarajevo": "Sarajevo", "c-mostar": "Mostar"},
	}
}

func TestPlatform(t *testing.T) {
	r := Platform(dataset(), now)

	t.Run("revenue", func(t *testing.T) {
		assert.Equal(t, int64(189000), r.Revenue.Total)
		assert.Equal(t, int64(9000), r.Revenue.ThisMonth)
		assert.Equal(t, int64(94500), r.Revenue.AveragePrice)
		require.Len(t, r.RevenueByType, 2)
		assert.Equal(t, GroupRevenue{Name: "House", Revenue: 180000, RentCount: 1}, r.RevenueByType[0])
		assert.Equal(t, "Mostar", r.RevenueByCity[0].Name)
	})

	t.Run("trend covers twelve months ending now", func(t *testing.T) {
		require.Len(t, r.RevenueTrend, 12)
		assert.Equal(t, "2024-07", r.RevenueTrend[0].Month)
		assert.Equal(t, "2025-06", r.RevenueTrend[11].Month)
		assert.Equal(t, int64(9000), r.RevenueTrend[11].Revenue)
		assert.Equal(t, int64(180000), r.RevenueTrend[6].Revenue)
	})

	t.Run("rent counts and occupancy", func(t *testing.T) {
		assert.Equal(t, 4, r.Rents.Total)
		assert.Equal(t, 2, r.Rents.Paid)
		assert.Equal(t, 1, r.Rents.Pending)
		assert.Equal(t, 1, r.Rents.Cancelled)
		// p1 is occupied by a paid rent; the pending rent on p2 does not count.
		assert.InDelta(t, 50.0, r.Rents.OccupancyRate, 0.001)
		assert.Greater(t, r.Rents.AverageDuration, 50.0)
	})

	t.Run("properties", func(t *testing.T) {
		assert.Equal(t, 3, r.Properties.Total)
		assert.Equal(t, 1, r.Properties.Inactive)
		assert.Equal(t, GroupCount{Name: "Flat", Count: 2, Active: 1}, r.Properties.ByType[0])
		require.Len(t, r.Properties.AveragePrices, 2)
		flat := r.Properties.AveragePrices[0]
		assert.Equal(t, "Flat", flat.Name)
		assert.Equal(t, int64(60000), flat.AveragePerMonth)
		require.NotNil(t, flat.AveragePerDay)
		assert.Equal(t, int64(4000), *flat.AveragePerDay)
		assert.Nil(t, r.Properties.AveragePrices[1].AveragePerDay)
	})

	t.Run("users and reviews", func(t *testing.T) {
		require.NotNil(t, r.Users)
		assert.Equal(t, UserStats{Total: 3, Active: 2, Landlords: 1, Tenants: 1, Admins: 1}, *r.Users)
		assert.Equal(t, 2, r.Reviews.Total)
		assert.InDelta(t, 4.0, r.Reviews.AverageRating, 0.001)
		last := r.UserGrowth[11]
		assert.Equal(t, Growth{Month: "2025-06", New: 1, Total: 3}, last)
	})
}

func TestLandlord(t *testing.T) {
	r := Landlord(dataset(), "l1", now)
	assert.Nil(t, r.Users)
	assert.Equal(t, 2, r.Properties.Total)
	assert.Equal(t, 3, r.Rents.Total)
	assert.Equal(t, int64(189000), r.Revenue.Total)
	assert.Equal(t, 2, r.Reviews.Total)
	assert.InDelta(t, 50.0, r.Rents.OccupancyRate, 0.001)
}

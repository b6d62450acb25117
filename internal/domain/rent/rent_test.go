package rent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erent/internal/domain/property"
	"erent/internal/domain/shared/daterange"
	"erent/internal/domain/shared/money"
)

var now = time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func period(start, end time.Time) daterange.DateRange {
	return daterange.DateRange{Start: start, End: end}
}

func testProperty(t *testing.T, daily bool) *property.Property {
	t.Helper()
	d := property.Details{
		Title:          "Flat",
		PricePerMonth:  money.EUR(60000),
		PropertyTypeID: "apartment",
		CityID:         "sarajevo",
	}
	if daily {
		d.AllowDailyRental = true
		d.PricePerDay = money.EUR(3000)
	}
	p, err := property.New(property.CreateParams{ID: "p-1", LandlordID: "landlord", Details: d, Now: now})
	require.NoError(t, err)
	return p
}

func pending(t *testing.T, id ID, start, end time.Time) *Rent {
	t.Helper()
	r, err := New(CreateParams{ID: id, Property: testProperty(t, true), TenantID: "tenant", Period: period(start, end), Daily: true, Now: now})
	require.NoError(t, err)
	return r
}

func withStatus(r *Rent, s Status) *Rent {
	r.Status = s
	return r
}

func TestQuote(t *testing.T) {
	daily := testProperty(t, true)
	monthly := testProperty(t, false)

	cases := []struct {
		name   string
		prop   *property.Property
		period daterange.DateRange
		daily  bool
		want   int64
		err    error
	}{
		{"daily four nights", daily, period(day(2025, 2, 1), day(2025, 2, 5)), true, 4 * 3000, nil},
		{"daily shorter than a day", daily, period(day(2025, 2, 1), day(2025, 2, 1).Add(10*time.Hour)), true, 0, ErrInvalidDailyRange},
		{"daily partial day is dropped", daily, period(day(2025, 2, 1), day(2025, 2, 3).Add(5*time.Hour)), true, 2 * 3000, nil},
		{"daily not allowed", monthly, period(day(2025, 2, 1), day(2025, 2, 5)), true, 0, ErrDailyNotAllowed},
		{"monthly same month floors at one", monthly, period(day(2025, 2, 1), day(2025, 2, 27)), false, 60000, nil},
		{"monthly partial months count boundaries", monthly, period(day(2025, 1, 31), day(2025, 3, 1)), false, 2 * 60000, nil},
		{"monthly across years", monthly, period(day(2024, 11, 15), day(2025, 2, 15)), false, 3 * 60000, nil},
		{"start equals end", monthly, period(day(2025, 2, 1), day(2025, 2, 1)), false, 0, daterange.ErrInvalidRange},
		{"start after end", daily, period(day(2025, 2, 5), day(2025, 2, 1)), true, 0, daterange.ErrInvalidRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			total, err := Quote(tc.prop, tc.period, tc.daily)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, total.Amount)
			assert.Equal(t, "EUR", total.Currency)
		})
	}

	t.Run("daily rental without positive daily price", func(t *testing.T) {
		p := testProperty(t, true)
		p.PricePerDay = money.EUR(0)
		_, err := Quote(p, period(day(2025, 2, 1), day(2025, 2, 5)), true)
		assert.ErrorIs(t, err, ErrDailyPriceMissing)
	})
}

func TestNew(t *testing.T) {
	t.Run("starts pending and records event", func(t *testing.T) {
		r := pending(t, "r-1", day(2025, 2, 1), day(2025, 2, 3))
		assert.Equal(t, StatusPending, r.Status)
		assert.True(t, r.Active)
		assert.Equal(t, int64(6000), r.Total.Amount)
		assert.Equal(t, "landlord", string(r.LandlordID))
		evs := r.PendingEvents()
		require.Len(t, evs, 1)
		assert.Equal(t, EventCreated, evs[0].EventName())
	})

	t.Run("rejects overlap with accepted rent", func(t *testing.T) {
		held := withStatus(pending(t, "held", day(2025, 2, 1), day(2025, 2, 10)), StatusAccepted)
		_, err := New(CreateParams{ID: "r-2", Property: testProperty(t, true), TenantID: "t2", Period: period(day(2025, 2, 9), day(2025, 2, 12)), Daily: true, Blocking: []*Rent{held}, Now: now})
		assert.ErrorIs(t, err, ErrAlreadyRented)
	})

	t.Run("touching periods do not overlap", func(t *testing.T) {
		held := withStatus(pending(t, "held", day(2025, 2, 1), day(2025, 2, 10)), StatusPaid)
		_, err := New(CreateParams{ID: "r-2", Property: testProperty(t, true), TenantID: "t2", Period: period(day(2025, 2, 10), day(2025, 2, 12)), Daily: true, Blocking: []*Rent{held}, Now: now})
		assert.NoError(t, err)
	})

	t.Run("landlord cannot rent own property", func(t *testing.T) {
		_, err := New(CreateParams{ID: "r-3", Property: testProperty(t, false), TenantID: "landlord", Period: period(day(2025, 2, 1), day(2025, 5, 1)), Now: now})
		assert.ErrorIs(t, err, ErrOwnProperty)
	})

	t.Run("inactive property", func(t *testing.T) {
		p := testProperty(t, false)
		p.Deactivate(now)
		_, err := New(CreateParams{ID: "r-3", Property: p, TenantID: "tenant", Period: period(day(2025, 2, 1), day(2025, 5, 1)), Now: now})
		assert.ErrorIs(t, err, ErrPropertyInactive)
	})
}

func TestNonBlockingStatusesNeverBlock(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusRejected, StatusCancelled} {
		t.Run(s.String(), func(t *testing.T) {
			other := withStatus(pending(t, "other", day(2025, 2, 1), day(2025, 2, 10)), s)
			assert.NoError(t, EnsureAvailable([]*Rent{other}, period(day(2025, 2, 1), day(2025, 2, 10)), ""))
		})
	}

	t.Run("inactive accepted rent does not block", func(t *testing.T) {
		other := withStatus(pending(t, "other", day(2025, 2, 1), day(2025, 2, 10)), StatusAccepted)
		other.Deactivate(now)
		assert.NoError(t, EnsureAvailable([]*Rent{other}, period(day(2025, 2, 1), day(2025, 2, 10)), ""))
	})
}

func TestTransitions(t *testing.T) {
	type step func(r *Rent) error
	accept := func(r *Rent) error { return r.Accept(nil, now) }
	reject := func(r *Rent) error { return r.Reject(now) }
	cancel := func(r *Rent) error { return r.Cancel(now) }
	pay := func(r *Rent) error { return r.Pay(now) }

	cases := []struct {
		name string
		from Status
		do   step
		to   Status
		ok   bool
	}{
		{"pending accept", StatusPending, accept, StatusAccepted, true},
		{"pending reject", StatusPending, reject, StatusRejected, true},
		{"pending cancel", StatusPending, cancel, StatusCancelled, true},
		{"pending pay", StatusPending, pay, StatusPending, false},
		{"accepted pay", StatusAccepted, pay, StatusPaid, true},
		{"accepted cancel", StatusAccepted, cancel, StatusCancelled, true},
		{"accepted reject", StatusAccepted, reject, StatusAccepted, false},
		{"accepted accept", StatusAccepted, accept, StatusAccepted, false},
		{"paid cancel", StatusPaid, cancel, StatusPaid, false},
		{"rejected accept", StatusRejected, accept, StatusRejected, false},
		{"cancelled pay", StatusCancelled, pay, StatusCancelled, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := withStatus(pending(t, "r", day(2025, 2, 1), day(2025, 2, 3)), tc.from)
			r.ClearEvents()
			err := tc.do(r)
			if tc.ok {
				require.NoError(t, err)
				assert.Len(t, r.PendingEvents(), 1)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition)
				assert.Empty(t, r.PendingEvents())
			}
			assert.Equal(t, tc.to, r.Status)
		})
	}
}

func TestAcceptRechecksOverlap(t *testing.T) {
	first := pending(t, "first", day(2025, 3, 1), day(2025, 3, 10))
	second := pending(t, "second", day(2025, 3, 5), day(2025, 3, 15))

	require.NoError(t, first.Accept([]*Rent{second}, now))

	err := second.Accept([]*Rent{first, second}, now)
	assert.ErrorIs(t, err, ErrAcceptConflict)
	assert.Equal(t, StatusPending, second.Status)

	require.NoError(t, first.Cancel(now))
	assert.NoError(t, second.Accept([]*Rent{first, second}, now))
}

func TestReschedule(t *testing.T) {
	t.Run("reprices when dates change", func(t *testing.T) {
		r := pending(t, "r", day(2025, 2, 1), day(2025, 2, 3))
		err := r.Reschedule(RescheduleParams{Property: testProperty(t, true), Period: period(day(2025, 2, 1), day(2025, 2, 6)), Daily: true, Now: now})
		require.NoError(t, err)
		assert.Equal(t, int64(5*3000), r.Total.Amount)
	})

	t.Run("switching to monthly reprices", func(t *testing.T) {
		r := pending(t, "r", day(2025, 2, 1), day(2025, 4, 1))
		err := r.Reschedule(RescheduleParams{Property: testProperty(t, true), Period: r.Period, Daily: false, Now: now})
		require.NoError(t, err)
		assert.Equal(t, int64(2*60000), r.Total.Amount)
	})

	t.Run("excludes itself from overlap", func(t *testing.T) {
		r := pending(t, "r", day(2025, 2, 1), day(2025, 2, 3))
		stale := &Rent{ID: r.ID, PropertyID: r.PropertyID, Period: r.Period, Status: StatusAccepted, Active: true}
		err := r.Reschedule(RescheduleParams{Property: testProperty(t, true), Period: period(day(2025, 2, 2), day(2025, 2, 4)), Daily: true, Blocking: []*Rent{stale}, Now: now})
		assert.NoError(t, err)
	})

	t.Run("conflict with another reservation", func(t *testing.T) {
		other := withStatus(pending(t, "other", day(2025, 2, 10), day(2025, 2, 20)), StatusPaid)
		r := pending(t, "r", day(2025, 2, 1), day(2025, 2, 3))
		err := r.Reschedule(RescheduleParams{Property: testProperty(t, true), Period: period(day(2025, 2, 1), day(2025, 2, 11)), Daily: true, Blocking: []*Rent{other}, Now: now})
		assert.ErrorIs(t, err, ErrAlreadyRented)
		assert.Equal(t, day(2025, 2, 3), r.Period.End)
		assert.Equal(t, int64(2*3000), r.Total.Amount)
	})

	t.Run("only pending", func(t *testing.T) {
		r := withStatus(pending(t, "r", day(2025, 2, 1), day(2025, 2, 3)), StatusAccepted)
		err := r.Reschedule(RescheduleParams{Property: testProperty(t, true), Period: r.Period, Daily: true, Now: now})
		assert.ErrorIs(t, err, ErrNotEditable)
	})
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("4")
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, s)

	s, err = ParseStatus("paid")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, s)

	_, err = ParseStatus("9")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestSearchParamsMatches(t *testing.T) {
	r := pending(t, "r", day(2025, 2, 1), day(2025, 2, 3))
	from := day(2025, 1, 15)
	to := day(2025, 1, 31)
	accepted := StatusAccepted

	assert.True(t, SearchParams{TenantID: "tenant", StartFrom: &from}.Matches(r))
	assert.False(t, SearchParams{StartTo: &to}.Matches(r))
	assert.False(t, SearchParams{Status: &accepted}.Matches(r))
	assert.True(t, SearchParams{LandlordID: "landlord"}.Matches(r))
	assert.False(t, SearchParams{PropertyIDs: []property.ID{}}.Matches(r))
}

package rent

import (
	"errors"

	"erent/internal/domain/property"
	"erent/internal/domain/shared/daterange"
	"erent/internal/domain/shared/money"
)

var (
	ErrDailyNotAllowed   = errors.New("rent: this property does not allow daily rentals")
	ErrDailyPriceMissing = errors.New("rent: property does not have a valid daily price")
	ErrInvalidDailyRange = errors.New("rent: invalid date range for daily rental")
)

// Quote prices a stay. Daily stays cost the per-day price times whole days
// and must span at least one; monthly stays cost the per-month price times
// calendar months, at least one.
func Quote(p *property.Property, period daterange.DateRange, daily bool) (money.Money, error) {
	if p == nil {
		return money.Money{}, ErrPropertyRequired
	}
	if err := period.Validate(); err != nil {
		return money.Money{}, err
	}
	if daily {
		if !p.AllowDailyRental {
			return money.Money{}, ErrDailyNotAllowed
		}
		rate, ok := p.DailyRate()
		if !ok {
			return money.Money{}, ErrDailyPriceMissing
		}
		days := DayCount(period)
		if days < 1 {
			return money.Money{}, ErrInvalidDailyRange
		}
		return rate.Multiply(int64(days)), nil
	}
	return p.PricePerMonth.Multiply(int64(MonthCount(period))), nil
}

// DayCount is the number of whole days in period. Partial days are dropped.
func DayCount(period daterange.DateRange) int {
	return period.Days()
}

func MonthCount(period daterange.DateRange) int {
	months := period.CalendarMonths()
	if months < 1 {
		return 1
	}
	return months
}

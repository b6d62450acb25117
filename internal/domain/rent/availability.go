package rent

import (
	"errors"

	"erent/internal/domain/shared/daterange"
)

var (
	ErrAlreadyRented  = errors.New("rent: property is already rented for the selected dates")
	ErrAcceptConflict = errors.New("rent: cannot accept rent, property is already rented for the selected dates")
)

// Conflicts returns the rents that reserve an interval intersecting period.
// The rent identified by exclude is ignored so a rent never conflicts with itself.
func Conflicts(existing []*Rent, period daterange.DateRange, exclude ID) []*Rent {
	var out []*Rent
	for _, other := range existing {
		if other == nil || (exclude != "" && other.ID == exclude) {
			continue
		}
		if !other.Blocks() {
			continue
		}
		if other.Period.Overlaps(period) {
			out = append(out, other)
		}
	}
	return out
}

func EnsureAvailable(existing []*Rent, period daterange.DateRange, exclude ID) error {
	if len(Conflicts(existing, period, exclude)) > 0 {
		return ErrAlreadyRented
	}
	return nil
}

package daterange

import (
	"errors"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: start must be before end")
)

// DateRange represents a half-open interval [Start, End).
type DateRange struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) (DateRange, error) {
	dr := DateRange{Start: start.UTC(), End: end.UTC()}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ErrInvalidRange
	}
	if !dr.End.After(dr.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Days returns the number of whole days covered by the range.
func (dr DateRange) Days() int {
	return int(dr.End.Sub(dr.Start).Hours() / 24)
}

// CalendarMonths counts month boundaries between Start and End, ignoring the day of month.
// A range from Jan 31 to Feb 1 counts as one month; Jan 1 to Jan 31 counts as zero.
func (dr DateRange) CalendarMonths() int {
	return (dr.End.Year()-dr.Start.Year())*12 + int(dr.End.Month()) - int(dr.Start.Month())
}

func (dr DateRange) Duration() time.Duration {
	return dr.End.Sub(dr.Start)
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.Start.Before(other.End) && other.Start.Before(dr.End)
}

func (dr DateRange) Contains(other DateRange) bool {
	return !other.Start.Before(dr.Start) && !other.End.After(dr.End)
}

// ContainsDate reports whether t falls inside the range. End is exclusive.
func (dr DateRange) ContainsDate(t time.Time) bool {
	t = t.UTC()
	return !t.Before(dr.Start) && t.Before(dr.End)
}

func (dr DateRange) Equal(other DateRange) bool {
	return dr.Start.Equal(other.Start) && dr.End.Equal(other.End)
}

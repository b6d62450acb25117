package rent

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"erent/internal/domain/property"
	"erent/internal/domain/shared/daterange"
	"erent/internal/domain/shared/events"
	"erent/internal/domain/shared/money"
	"erent/internal/domain/shared/paging"
	"erent/internal/domain/user"
)

var (
	ErrNotFound          = errors.New("rent: not found")
	ErrInvalidTransition = errors.New("rent: invalid status transition")
	ErrTenantRequired    = errors.New("rent: tenant is required")
	ErrPropertyRequired  = errors.New("rent: property is required")
	ErrPropertyInactive  = errors.New("rent: property is not active")
	ErrOwnProperty       = errors.New("rent: landlord cannot rent own property")
	ErrNotEditable       = errors.New("rent: only pending rents can be changed")
	ErrUnknownStatus     = errors.New("rent: unknown status")
)

type ID string

// Status keeps the numeric identifiers clients already know.
type Status int

const (
	StatusPending   Status = 1
	StatusCancelled Status = 2
	StatusRejected  Status = 3
	StatusAccepted  Status = 4
	StatusPaid      Status = 5
)

var statusNames = map[Status]string{
	StatusPending:   "Pending",
	StatusCancelled: "Cancelled",
	StatusRejected:  "Rejected",
	StatusAccepted:  "Accepted",
	StatusPaid:      "Paid",
}

// Statuses lists every status in id order.
func Statuses() []Status {
	return []Status{StatusPending, StatusCancelled, StatusRejected, StatusAccepted, StatusPaid}
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown"
}

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// Blocking reports whether rents in this status reserve the property.
func (s Status) Blocking() bool {
	return s == StatusAccepted || s == StatusPaid
}

// ParseStatus accepts either the numeric id or the name.
func ParseStatus(raw string) (Status, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		s := Status(n)
		if !s.Valid() {
			return 0, fmt.Errorf("%w: %d", ErrUnknownStatus, n)
		}
		return s, nil
	}
	for s, name := range statusNames {
		if strings.EqualFold(name, raw) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
}

type Rent struct {
	ID         ID
	PropertyID property.ID
	TenantID   user.ID
	LandlordID user.ID
	Period     daterange.DateRange
	Daily      bool
	Total      money.Money
	Status     Status
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Rent, error)
	Save(ctx context.Context, rent *Rent) error
	Search(ctx context.Context, params SearchParams) (paging.Page[*Rent], error)
	// Blocking returns active Accepted or Paid rents of the property whose
	// period intersects the given one.
	Blocking(ctx context.Context, propertyID property.ID, period daterange.DateRange) ([]*Rent, error)
	// Calendar returns the reservation record of the property, or a fresh
	// one at version zero.
	Calendar(ctx context.Context, propertyID property.ID) (*Calendar, error)
	// SaveCalendar fails with a concurrent-update error when the stored version
	// moved on since the calendar was read.
	SaveCalendar(ctx context.Context, c *Calendar) error
}

type CreateParams struct {
	ID       ID
	Property *property.Property
	TenantID user.ID
	Period   daterange.DateRange
	Daily    bool
	// Blocking are the reservations already held on the property, as returned by Repository.Blocking.
	Blocking []*Rent
	Now      time.Time
}

// New validates the request, prices it and returns a Pending rent.
func New(params CreateParams) (*Rent, error) {
	if params.Property == nil {
		return nil, ErrPropertyRequired
	}
	if strings.TrimSpace(string(params.TenantID)) == "" {
		return nil, ErrTenantRequired
	}
	if !params.Property.Active {
		return nil, ErrPropertyInactive
	}
	if params.Property.OwnedBy(params.TenantID) {
		return nil, ErrOwnProperty
	}
	total, err := Quote(params.Property, params.Period, params.Daily)
	if err != nil {
		return nil, err
	}
	if err := EnsureAvailable(params.Blocking, params.Period, ""); err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	r := &Rent{
		ID:         params.ID,
		PropertyID: params.Property.ID,
		TenantID:   params.TenantID,
		LandlordID: params.Property.LandlordID,
		Period:     params.Period,
		Daily:      params.Daily,
		Total:      total,
		Status:     StatusPending,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.Record(Created{Notice: r.notice(now)})
	return r, nil
}

type RescheduleParams struct {
	Property *property.Property
	Period   daterange.DateRange
	Daily    bool
	Blocking []*Rent
	Now      time.Time
}

// Reschedule changes the period or rental type of a pending rent, re-pricing it
// when either changed.
func (r *Rent) Reschedule(params RescheduleParams) error {
	if r.Status != StatusPending {
		return ErrNotEditable
	}
	if params.Property == nil || params.Property.ID != r.PropertyID {
		return ErrPropertyRequired
	}
	if err := params.Period.Validate(); err != nil {
		return err
	}
	total := r.Total
	if !params.Period.Equal(r.Period) || params.Daily != r.Daily {
		quoted, err := Quote(params.Property, params.Period, params.Daily)
		if err != nil {
			return err
		}
		total = quoted
	}
	if err := EnsureAvailable(params.Blocking, params.Period, r.ID); err != nil {
		return err
	}
	r.Total = total
	r.Period = params.Period
	r.Daily = params.Daily
	r.UpdatedAt = params.Now.UTC()
	r.Record(Updated{Notice: r.notice(r.UpdatedAt)})
	return nil
}

// Accept moves a pending rent to Accepted after re-checking that no other
// reservation took the dates in the meantime.
func (r *Rent) Accept(blocking []*Rent, now time.Time) error {
	if r.Status != StatusPending {
		return ErrInvalidTransition
	}
	if len(Conflicts(blocking, r.Period, r.ID)) > 0 {
		return ErrAcceptConflict
	}
	r.transition(StatusAccepted, now)
	r.Record(Accepted{Notice: r.notice(r.UpdatedAt)})
	return nil
}

func (r *Rent) Reject(now time.Time) error {
	if r.Status != StatusPending {
		return ErrInvalidTransition
	}
	r.transition(StatusRejected, now)
	r.Record(Rejected{Notice: r.notice(r.UpdatedAt)})
	return nil
}

func (r *Rent) Cancel(now time.Time) error {
	if r.Status != StatusPending && r.Status != StatusAccepted {
		return ErrInvalidTransition
	}
	r.transition(StatusCancelled, now)
	r.Record(Cancelled{Notice: r.notice(r.UpdatedAt)})
	return nil
}

func (r *Rent) Pay(now time.Time) error {
	if r.Status != StatusAccepted {
		return ErrInvalidTransition
	}
	r.transition(StatusPaid, now)
	r.Record(Paid{Notice: r.notice(r.UpdatedAt)})
	return nil
}

// Deactivate hides the rent; inactive rents never reserve the property.
func (r *Rent) Deactivate(now time.Time) {
	r.Active = false
	r.UpdatedAt = now.UTC()
}

// Blocks reports whether the rent currently reserves its period.
func (r *Rent) Blocks() bool {
	return r.Active && r.Status.Blocking()
}

func (r *Rent) Involves(id user.ID) bool {
	return r.TenantID == id || r.LandlordID == id
}

func (r *Rent) transition(to Status, now time.Time) {
	r.Status = to
	r.UpdatedAt = now.UTC()
}

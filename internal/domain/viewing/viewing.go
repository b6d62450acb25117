package viewing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"erent/internal/domain/property"
	"erent/internal/domain/shared/events"
	"erent/internal/domain/shared/paging"
	"erent/internal/domain/user"
)

// SlotLength is how long a viewing lasts.
const SlotLength = 2 * time.Hour

const maxNoteLength = 500

var (
	ErrNotFound          = errors.New("viewing: not found")
	ErrInvalidTransition = errors.New("viewing: invalid status transition")
	ErrStartInPast       = errors.New("viewing: appointment must be scheduled in the future")
	ErrSlotTaken         = errors.New("viewing: property already has an appointment at this time")
	ErrPropertyInactive  = errors.New("viewing: property is not active")
	ErrOwnProperty       = errors.New("viewing: landlord cannot book a viewing of own property")
	ErrPropertyRequired  = errors.New("viewing: property is required")
	ErrTenantRequired    = errors.New("viewing: tenant is required")
	ErrNoteTooLong       = errors.New("viewing: note must be at most 500 characters")
	ErrUnknownStatus     = errors.New("viewing: unknown status")
)

type ID string

type Status int

const (
	StatusPending   Status = 0
	StatusApproved  Status = 1
	StatusRejected  Status = 2
	StatusCancelled Status = 3
	StatusCompleted Status = 4
)

var statusNames = map[Status]string{
	StatusPending:   "Pending",
	StatusApproved:  "Approved",
	StatusRejected:  "Rejected",
	StatusCancelled: "Cancelled",
	StatusCompleted: "Completed",
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

// Holding reports whether an appointment in this status occupies its slot.
func (s Status) Holding() bool {
	return s == StatusPending || s == StatusApproved
}

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

type Appointment struct {
	ID           ID
	PropertyID   property.ID
	TenantID     user.ID
	LandlordID   user.ID
	Start        time.Time
	End          time.Time
	Status       Status
	TenantNote   string
	LandlordNote string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Appointment, error)
	Save(ctx context.Context, appointment *Appointment) error
	Search(ctx context.Context, params SearchParams) (paging.Page[*Appointment], error)
	// Holding returns Pending or Approved appointments of the property that
	// intersect [start, end).
	Holding(ctx context.Context, propertyID property.ID, start, end time.Time) ([]*Appointment, error)
	// DueForCompletion returns Approved appointments that ended before now.
	DueForCompletion(ctx context.Context, now time.Time) ([]*Appointment, error)
}

type ScheduleParams struct {
	ID       ID
	Property *property.Property
	TenantID user.ID
	Start    time.Time
	Note     string
	Existing []*Appointment
	Now      time.Time
}

// Schedule books a two hour viewing slot. Existing are the holding
// appointments of the property as returned by Repository.Holding.
func Schedule(params ScheduleParams) (*Appointment, error) {
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
	now := params.Now.UTC()
	start := params.Start.UTC()
	if !start.After(now) {
		return nil, ErrStartInPast
	}
	note, err := cleanNote(params.Note)
	if err != nil {
		return nil, err
	}
	end := start.Add(SlotLength)
	if len(Conflicts(params.Existing, start, end, "")) > 0 {
		return nil, ErrSlotTaken
	}
	a := &Appointment{
		ID:         params.ID,
		PropertyID: params.Property.ID,
		TenantID:   params.TenantID,
		LandlordID: params.Property.LandlordID,
		Start:      start,
		End:        end,
		Status:     StatusPending,
		TenantNote: note,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	a.Record(Created{Notice: a.notice(now)})
	return a, nil
}

// Conflicts returns the holding appointments whose slot intersects [start, end).
func Conflicts(existing []*Appointment, start, end time.Time, exclude ID) []*Appointment {
	var out []*Appointment
	for _, other := range existing {
		if other == nil || (exclude != "" && other.ID == exclude) || !other.Status.Holding() {
			continue
		}
		if other.Start.Before(end) && start.Before(other.End) {
			out = append(out, other)
		}
	}
	return out
}

func (a *Appointment) Approve(note string, now time.Time) error {
	if a.Status != StatusPending {
		return ErrInvalidTransition
	}
	clean, err := cleanNote(note)
	if err != nil {
		return err
	}
	a.LandlordNote = clean
	a.transition(StatusApproved, now)
	a.Record(Approved{Notice: a.notice(a.UpdatedAt)})
	return nil
}

func (a *Appointment) Reject(note string, now time.Time) error {
	if a.Status != StatusPending {
		return ErrInvalidTransition
	}
	clean, err := cleanNote(note)
	if err != nil {
		return err
	}
	a.LandlordNote = clean
	a.transition(StatusRejected, now)
	a.Record(Rejected{Notice: a.notice(a.UpdatedAt)})
	return nil
}

func (a *Appointment) Cancel(now time.Time) error {
	if !a.Status.Holding() {
		return ErrInvalidTransition
	}
	a.transition(StatusCancelled, now)
	a.Record(Cancelled{Notice: a.notice(a.UpdatedAt)})
	return nil
}

// Complete closes an approved appointment once its slot has passed.
func (a *Appointment) Complete(now time.Time) error {
	if a.Status != StatusApproved || now.Before(a.End) {
		return ErrInvalidTransition
	}
	a.transition(StatusCompleted, now)
	return nil
}

func (a *Appointment) Involves(id user.ID) bool {
	return a.TenantID == id || a.LandlordID == id
}

func (a *Appointment) transition(to Status, now time.Time) {
	a.Status = to
	a.UpdatedAt = now.UTC()
}

func cleanNote(note string) (string, error) {
	note = strings.TrimSpace(note)
	if len([]rune(note)) > maxNoteLength {
		return "", ErrNoteTooLong
	}
	return note, nil
}

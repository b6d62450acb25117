package notification

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"erent/internal/domain/shared/paging"
	"erent/internal/domain/user"
)

var (
	ErrNotFound        = errors.New("notification: not found")
	ErrUserRequired    = errors.New("notification: user is required")
	ErrTitleRequired   = errors.New("notification: title is required")
	ErrMessageRequired = errors.New("notification: message is required")
	ErrUnknownType     = errors.New("notification: unknown type")
	ErrNotRecipient    = errors.New("notification: not addressed to user")
)

type ID string

type Type int

const (
	TypeRentCreated Type = iota
	TypeRentAccepted
	TypeRentRejected
	TypeRentCancelled
	TypeRentPaid
	TypeViewingCreated
	TypeViewingApproved
	TypeViewingRejected
	TypeViewingCancelled
)

var typeNames = [...]string{
	"RentCreated",
	"RentAccepted",
	"RentRejected",
	"RentCancelled",
	"RentPaid",
	"ViewingCreated",
	"ViewingApproved",
	"ViewingRejected",
	"ViewingCancelled",
}

func (t Type) Valid() bool {
	return t >= TypeRentCreated && int(t) < len(typeNames)
}

func (t Type) String() string {
	if !t.Valid() {
		return "Unknown"
	}
	return typeNames[t]
}

func ParseType(raw string) (Type, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		t := Type(n)
		if !t.Valid() {
			return 0, fmt.Errorf("%w: %d", ErrUnknownType, n)
		}
		return t, nil
	}
	for i, name := range typeNames {
		if strings.EqualFold(name, raw) {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, raw)
}

// Reference types name the aggregate a notification points at.
const (
	ReferenceRent    = "Rent"
	ReferenceViewing = "ViewingAppointment"
)

type Notification struct {
	ID            ID
	UserID        user.ID
	Title         string
	Message       string
	Type          Type
	ReferenceID   string
	ReferenceType string
	Read          bool
	ReadAt        *time.Time
	CreatedAt     time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Notification, error)
	Save(ctx context.Context, n *Notification) error
	Search(ctx context.Context, params SearchParams) (paging.Page[*Notification], error)
	// MarkAllRead flags every unread notification of the user and returns how many changed.
	MarkAllRead(ctx context.Context, userID user.ID, at time.Time) (int, error)
	UnreadCount(ctx context.Context, userID user.ID) (int, error)
}

type CreateParams struct {
	ID            ID
	UserID        user.ID
	Title         string
	Message       string
	Type          Type
	ReferenceID   string
	ReferenceType string
	Now           time.Time
}

func New(params CreateParams) (*Notification, error) {
	if strings.TrimSpace(string(params.UserID)) == "" {
		return nil, ErrUserRequired
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	message := strings.TrimSpace(params.Message)
	if message == "" {
		return nil, ErrMessageRequired
	}
	if !params.Type.Valid() {
		return nil, ErrUnknownType
	}
	return &Notification{
		ID:            params.ID,
		UserID:        params.UserID,
		Title:         title,
		Message:       message,
		Type:          params.Type,
		ReferenceID:   params.ReferenceID,
		ReferenceType: params.ReferenceType,
		CreatedAt:     params.Now.UTC(),
	}, nil
}

// MarkRead is idempotent; it reports whether the flag changed.
func (n *Notification) MarkRead(now time.Time) bool {
	if n.Read {
		return false
	}
	at := now.UTC()
	n.Read = true
	n.ReadAt = &at
	return true
}

type SearchParams struct {
	UserID        user.ID
	Type          *Type
	Read          *bool
	ReferenceType string
	// Text matches title or message, case-insensitively.
	Text   string
	Paging paging.Params
}

func (s SearchParams) Matches(n *Notification) bool {
	if s.UserID != "" && n.UserID != s.UserID {
		return false
	}
	if s.Type != nil && n.Type != *s.Type {
		return false
	}
	if s.Read != nil && n.Read != *s.Read {
		return false
	}
	if s.ReferenceType != "" && !strings.EqualFold(n.ReferenceType, s.ReferenceType) {
		return false
	}
	if text := strings.ToLower(strings.TrimSpace(s.Text)); text != "" {
		if !strings.Contains(strings.ToLower(n.Title), text) && !strings.Contains(strings.ToLower(n.Message), text) {
			return false
		}
	}
	return true
}

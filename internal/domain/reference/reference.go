package reference

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"erent/internal/domain/shared/paging"
)

var (
	ErrNotFound       = errors.New("reference: not found")
	ErrNameRequired   = errors.New("reference: name is required")
	ErrNameTooLong    = errors.New("reference: name must be at most 100 characters")
	ErrDuplicateName  = errors.New("reference: name already exists")
	ErrUnknownKind    = errors.New("reference: unknown kind")
	ErrCodeRequired   = errors.New("reference: country code is required")
	ErrParentRequired = errors.New("reference: city requires a country")
	ErrInUse          = errors.New("reference: entry is still referenced")
)

type ID string

// Kind names one lookup table.
type Kind string

const (
	KindCountry      Kind = "country"
	KindCity         Kind = "city"
	KindAmenity      Kind = "amenity"
	KindPropertyType Kind = "property_type"
	KindGender       Kind = "gender"
	KindRole         Kind = "role"
)

var kinds = []Kind{KindCountry, KindCity, KindAmenity, KindPropertyType, KindGender, KindRole}

func Kinds() []Kind {
	return append([]Kind(nil), kinds...)
}

func (k Kind) Valid() bool {
	for _, known := range kinds {
		if k == known {
			return true
		}
	}
	return false
}

const maxNameLength = 100

// Entry is a row of any lookup table. Code is used by countries, ParentID by
// cities (the country) and Description by roles.
type Entry struct {
	ID          ID
	Kind        Kind
	Name        string
	Code        string
	Description string
	ParentID    ID
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Params struct {
	ID          ID
	Kind        Kind
	Name        string
	Code        string
	Description string
	ParentID    ID
	Active      *bool
	Now         time.Time
}

func New(params Params) (*Entry, error) {
	entry := &Entry{ID: params.ID, Kind: params.Kind, Active: true, CreatedAt: params.Now.UTC()}
	if err := entry.apply(params); err != nil {
		return nil, err
	}
	return entry, nil
}

// Update replaces the mutable fields of the entry.
func (e *Entry) Update(params Params) error {
	params.Kind = e.Kind
	return e.apply(params)
}

func (e *Entry) apply(params Params) error {
	if !params.Kind.Valid() {
		return ErrUnknownKind
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return ErrNameRequired
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return ErrNameTooLong
	}
	code := strings.ToUpper(strings.TrimSpace(params.Code))
	if params.Kind == KindCountry && code == "" {
		return ErrCodeRequired
	}
	parent := ID(strings.TrimSpace(string(params.ParentID)))
	if params.Kind == KindCity && parent == "" {
		return ErrParentRequired
	}
	e.Name = name
	e.Code = code
	e.Description = strings.TrimSpace(params.Description)
	e.ParentID = parent
	if params.Active != nil {
		e.Active = *params.Active
	}
	e.UpdatedAt = params.Now.UTC()
	return nil
}

// SameName compares names the way uniqueness is enforced.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

type ListParams struct {
	Kind     Kind
	Name     string
	ParentID ID
	Active   *bool
	Paging   paging.Params
}

// Matches applies the non-paging filters of p.
func (p ListParams) Matches(e *Entry) bool {
	if e.Kind != p.Kind {
		return false
	}
	if p.Name != "" && !strings.Contains(strings.ToLower(e.Name), strings.ToLower(strings.TrimSpace(p.Name))) {
		return false
	}
	if p.ParentID != "" && e.ParentID != p.ParentID {
		return false
	}
	if p.Active != nil && e.Active != *p.Active {
		return false
	}
	return true
}

type Repository interface {
	ByID(ctx context.Context, kind Kind, id ID) (*Entry, error)
	ByName(ctx context.Context, kind Kind, name string) (*Entry, error)
	List(ctx context.Context, params ListParams) (paging.Page[*Entry], error)
	Save(ctx context.Context, entry *Entry) error
	Delete(ctx context.Context, kind Kind, id ID) error
}

package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"erent/internal/domain/reference"
	"erent/internal/domain/shared/paging"
)

var (
	ErrIDRequired          = errors.New("user: id is required")
	ErrEmailRequired       = errors.New("user: email is required")
	ErrUsernameRequired    = errors.New("user: username is required")
	ErrPasswordHashMissing = errors.New("user: password hash is required")
	ErrNameRequired        = errors.New("user: first and last name are required")
	ErrInvalidRole         = errors.New("user: invalid role")
	ErrEmailAlreadyUsed    = errors.New("user: email already used")
	ErrUsernameTaken       = errors.New("user: username already taken")
	ErrNotFound            = errors.New("user: not found")
)

type ID string

type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleLandlord      Role = "landlord"
	RoleTenant        Role = "user"
)

// KnownRoles lists every role the API accepts.
var KnownRoles = []Role{RoleAdministrator, RoleLandlord, RoleTenant}

type User struct {
	ID           ID
	FirstName    string
	LastName     string
	Email        string
	Username     string
	PasswordHash string
	Phone        string
	GenderID     reference.ID
	CityID       reference.ID
	Roles        []Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ListParams struct {
	Query  string
	Role   Role
	Active *bool
	Paging paging.Params
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	ByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context, params ListParams) (paging.Page[*User], error)
	Save(ctx context.Context, user *User) error
}

type CreateParams struct {
	ID           ID
	FirstName    string
	LastName     string
	Email        string
	Username     string
	PasswordHash string
	Phone        string
	GenderID     reference.ID
	CityID       reference.ID
	Roles        []Role
	CreatedAt    time.Time
}

func NewUser(params CreateParams) (*User, error) {
	id := strings.TrimSpace(string(params.ID))
	if id == "" {
		return nil, ErrIDRequired
	}
	email := NormalizeEmail(params.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	username := NormalizeUsername(params.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if strings.TrimSpace(params.PasswordHash) == "" {
		return nil, ErrPasswordHashMissing
	}
	first, last := strings.TrimSpace(params.FirstName), strings.TrimSpace(params.LastName)
	if first == "" || last == "" {
		return nil, ErrNameRequired
	}

	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	roles, err := normalizeRoles(params.Roles)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		roles = []Role{RoleTenant}
	}

	return &User{
		ID:           ID(id),
		FirstName:    first,
		LastName:     last,
		Email:        email,
		Username:     username,
		PasswordHash: params.PasswordHash,
		Phone:        strings.TrimSpace(params.Phone),
		GenderID:     params.GenderID,
		CityID:       params.CityID,
		Roles:        roles,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

type ProfileParams struct {
	FirstName string
	LastName  string
	Phone     string
	GenderID  reference.ID
	CityID    reference.ID
}

func (u *User) UpdateProfile(params ProfileParams, now time.Time) error {
	first, last := strings.TrimSpace(params.FirstName), strings.TrimSpace(params.LastName)
	if first == "" || last == "" {
		return ErrNameRequired
	}
	u.FirstName = first
	u.LastName = last
	u.Phone = strings.TrimSpace(params.Phone)
	u.GenderID = params.GenderID
	u.CityID = params.CityID
	u.touch(now)
	return nil
}

func (u *User) SetPasswordHash(hash string, now time.Time) error {
	if strings.TrimSpace(hash) == "" {
		return ErrPasswordHashMissing
	}
	u.PasswordHash = hash
	u.touch(now)
	return nil
}

func (u *User) AssignRoles(roles []Role, now time.Time) error {
	norm, err := normalizeRoles(roles)
	if err != nil {
		return err
	}
	if len(norm) == 0 {
		norm = []Role{RoleTenant}
	}
	u.Roles = norm
	u.touch(now)
	return nil
}

func (u *User) SetActive(active bool, now time.Time) {
	u.Active = active
	u.touch(now)
}

func (u *User) HasRole(role Role) bool {
	role = normalizeRole(role)
	if role == "" {
		return false
	}
	for _, current := range u.Roles {
		if normalizeRole(current) == role {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdministrator)
}

func (u *User) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	u.UpdatedAt = now.UTC()
}

func normalizeRoles(roles []Role) ([]Role, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	seen := make(map[Role]struct{}, len(roles))
	normalized := make([]Role, 0, len(roles))
	for _, role := range roles {
		normalizedRole := normalizeRole(role)
		if normalizedRole == "" {
			return nil, ErrInvalidRole
		}
		if _, ok := seen[normalizedRole]; ok {
			continue
		}
		seen[normalizedRole] = struct{}{}
		normalized = append(normalized, normalizedRole)
	}
	return normalized, nil
}

// ParseRole maps API spellings onto a known role. Unknown values yield "".
func ParseRole(raw string) Role {
	return normalizeRole(Role(raw))
}

func normalizeRole(role Role) Role {
	switch strings.ToLower(strings.TrimSpace(string(role))) {
	case "administrator", "admin":
		return RoleAdministrator
	case "landlord", "host":
		return RoleLandlord
	case "user", "tenant", "guest":
		return RoleTenant
	default:
		return ""
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Matches applies the non-paging filters of p.
func (p ListParams) Matches(u *User) bool {
	if p.Role != "" && !u.HasRole(p.Role) {
		return false
	}
	if p.Active != nil && u.Active != *p.Active {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(p.Query)); q != "" {
		haystack := strings.ToLower(u.FullName() + " " + u.Email + " " + u.Username)
		if !strings.Contains(haystack, q) {
			return false
		}
	}
	return true
}

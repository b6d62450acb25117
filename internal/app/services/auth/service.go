package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"erent/internal/app/access"
	handlersupport "erent/internal/app/handlers/support"
	"erent/internal/app/policies"
	"erent/internal/app/uow"
	domainauth "erent/internal/domain/auth"
	"erent/internal/domain/reference"
	domainuser "erent/internal/domain/user"
)

const (
	minPasswordLength = 8
	defaultSessionTTL = 24 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrPasswordTooShort   = errors.New("auth: password must be at least 8 characters")
	ErrUserInactive       = errors.New("auth: user is not active")
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrTokenExpired       = errors.New("auth: token expired")
	ErrRoleNotAllowed     = errors.New("auth: role cannot be self-assigned")
	ErrUnknownReference   = errors.New("auth: unknown gender or city")
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns ErrInvalidCredentials when password does not match hash.
	Compare(hash, password string) error
}

// TokenClaims is what a bearer token carries.
type TokenClaims struct {
	SessionID string
	UserID    domainuser.ID
	Roles     []domainuser.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type TokenIssuer interface {
	Issue(claims TokenClaims) (string, error)
	// Parse returns ErrInvalidToken or ErrTokenExpired for unusable tokens.
	Parse(token string) (TokenClaims, error)
}

type Service struct {
	UoWFactory uow.UoWFactory
	Sessions   domainauth.SessionStore
	Passwords  PasswordHasher
	Tokens     TokenIssuer
	SessionTTL time.Duration
	Clock      policies.Clock
	Logger     *slog.Logger
}

type RegisterParams struct {
	FirstName string
	LastName  string
	Email     string
	Username  string
	Password  string
	Phone     string
	GenderID  string
	CityID    string
	// Roles may hold "user" and "landlord". Empty means tenant.
	Roles []string
}

type LoginParams struct {
	// Login is a username or an e-mail address.
	Login    string
	Password string
}

type LoginResult struct {
	User      *domainuser.User
	Token     string
	ExpiresAt time.Time
}

func (s *Service) Register(ctx context.Context, params RegisterParams) (*domainuser.User, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(params.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	roles, err := selfAssignable(params.Roles)
	if err != nil {
		return nil, err
	}
	hash, err := s.Passwords.Hash(params.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u, err := domainuser.NewUser(domainuser.CreateParams{
		ID:           domainuser.ID(uuid.NewString()),
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Email:        params.Email,
		Username:     params.Username,
		PasswordHash: hash,
		Phone:        params.Phone,
		GenderID:     reference.ID(params.GenderID),
		CityID:       reference.ID(params.CityID),
		Roles:        roles,
		CreatedAt:    s.Clock.Now(),
	})
	if err != nil {
		return nil, err
	}

	m, err := handlersupport.BeginUnit(ctx, s.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer m.Close()
	if err := ensureUnique(m.Ctx, m.Unit.Users(), u); err != nil {
		return nil, err
	}
	if err := checkReference(m.Ctx, m.Unit.Reference(), reference.KindGender, u.GenderID); err != nil {
		return nil, err
	}
	if err := checkReference(m.Ctx, m.Unit.Reference(), reference.KindCity, u.CityID); err != nil {
		return nil, err
	}
	if err := m.Unit.Users().Save(m.Ctx, u); err != nil {
		return nil, err
	}
	if err := m.Commit(); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("user registered", "user_id", u.ID, "username", u.Username, "roles", u.Roles)
	}
	return u, nil
}

// Login verifies the credentials and opens a session named by the token's jti.
func (s *Service) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	u, err := s.verify(ctx, params.Login, params.Password)
	if err != nil {
		return nil, err
	}
	session, err := domainauth.NewSession(domainauth.CreateSessionParams{
		ID:     domainauth.SessionID(uuid.NewString()),
		UserID: u.ID,
		Roles:  u.Roles,
		TTL:    s.sessionTTL(),
		Now:    s.Clock.Now(),
	})
	if err != nil {
		return nil, err
	}
	token, err := s.Tokens.Issue(TokenClaims{
		SessionID: string(session.ID),
		UserID:    u.ID,
		Roles:     u.Roles,
		IssuedAt:  session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("user logged in", "user_id", u.ID)
	}
	return &LoginResult{User: u, Token: token, ExpiresAt: session.ExpiresAt}, nil
}

// Logout revokes the session behind token. Unknown or expired tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.ensureDependencies(); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		return nil
	}
	if err := s.Sessions.Delete(ctx, domainauth.SessionID(claims.SessionID)); err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Info("session revoked", "user_id", claims.UserID)
	}
	return nil
}

// ResolveToken maps a bearer token onto the caller. The token must name a live
// session of an active user.
func (s *Service) ResolveToken(ctx context.Context, token string) (access.Actor, error) {
	if err := s.ensureDependencies(); err != nil {
		return access.Actor{}, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return access.Actor{}, domainauth.ErrTokenRequired
	}
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		return access.Actor{}, err
	}
	session, err := s.Sessions.Get(ctx, domainauth.SessionID(claims.SessionID))
	if err != nil {
		return access.Actor{}, err
	}
	if session.UserID != claims.UserID {
		return access.Actor{}, ErrInvalidToken
	}
	u, err := s.loadUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			_ = s.Sessions.Delete(ctx, session.ID)
			return access.Actor{}, domainauth.ErrSessionNotFound
		}
		return access.Actor{}, err
	}
	if !u.Active {
		_ = s.Sessions.DeleteByUser(ctx, u.ID)
		return access.Actor{}, ErrUserInactive
	}
	return actorOf(u), nil
}

// AuthenticateBasic checks HTTP Basic credentials.
func (s *Service) AuthenticateBasic(ctx context.Context, login, password string) (access.Actor, error) {
	if err := s.ensureDependencies(); err != nil {
		return access.Actor{}, err
	}
	u, err := s.verify(ctx, login, password)
	if err != nil {
		return access.Actor{}, err
	}
	return actorOf(u), nil
}

func (s *Service) verify(ctx context.Context, login, password string) (*domainuser.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := s.findByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.Passwords.Compare(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.Active {
		return nil, ErrUserInactive
	}
	return u, nil
}

func (s *Service) findByLogin(ctx context.Context, login string) (*domainuser.User, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, s.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	users := unit.Users()
	if strings.Contains(login, "@") {
		u, err := users.ByEmail(execCtx, domainuser.NormalizeEmail(login))
		if !errors.Is(err, domainuser.ErrNotFound) {
			return u, err
		}
	}
	return users.ByUsername(execCtx, domainuser.NormalizeUsername(login))
}

func (s *Service) loadUser(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, s.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	return unit.Users().ByID(execCtx, id)
}

func (s *Service) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return defaultSessionTTL
}

func (s *Service) ensureDependencies() error {
	switch {
	case s.UoWFactory == nil:
		return errors.New("auth: unit of work factory required")
	case s.Sessions == nil:
		return errors.New("auth: session store required")
	case s.Passwords == nil:
		return errors.New("auth: password hasher required")
	case s.Tokens == nil:
		return errors.New("auth: token issuer required")
	default:
		return nil
	}
}

func actorOf(u *domainuser.User) access.Actor {
	return access.Actor{ID: u.ID, Roles: append([]domainuser.Role(nil), u.Roles...)}
}

func selfAssignable(raw []string) ([]domainuser.Role, error) {
	roles := make([]domainuser.Role, 0, len(raw))
	for _, r := range raw {
		role := domainuser.ParseRole(r)
		switch role {
		case domainuser.RoleTenant, domainuser.RoleLandlord:
			roles = append(roles, role)
		case "":
			return nil, fmt.Errorf("%w: %q", domainuser.ErrInvalidRole, r)
		default:
			return nil, fmt.Errorf("%w: %s", ErrRoleNotAllowed, role)
		}
	}
	return roles, nil
}

func ensureUnique(ctx context.Context, users domainuser.Repository, u *domainuser.User) error {
	if _, err := users.ByEmail(ctx, u.Email); err == nil {
		return domainuser.ErrEmailAlreadyUsed
	} else if !errors.Is(err, domainuser.ErrNotFound) {
		return err
	}
	if _, err := users.ByUsername(ctx, u.Username); err == nil {
		return domainuser.ErrUsernameTaken
	} else if !errors.Is(err, domainuser.ErrNotFound) {
		return err
	}
	return nil
}

func checkReference(ctx context.Context, repo reference.Repository, kind reference.Kind, id reference.ID) error {
	if id == "" {
		return nil
	}
	if _, err := repo.ByID(ctx, kind, id); err != nil {
		if errors.Is(err, reference.ErrNotFound) {
			return fmt.Errorf("%w: %s %s", ErrUnknownReference, kind, id)
		}
		return err
	}
	return nil
}

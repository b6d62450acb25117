package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erent/internal/app/handlers/handlertest"
	"erent/internal/app/uow"
	domainauth "erent/internal/domain/auth"
	domainuser "erent/internal/domain/user"
	"erent/internal/infra/storage/memory"
)

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return ErrInvalidCredentials
	}
	return nil
}

// stubTokens encodes the claims as "session|user" without signing.
type stubTokens struct{}

func (stubTokens) Issue(c TokenClaims) (string, error) {
	return c.SessionID + "|" + string(c.UserID), nil
}

func (stubTokens) Parse(token string) (TokenClaims, error) {
	session, userID, ok := strings.Cut(token, "|")
	if !ok {
		return TokenClaims{}, ErrInvalidToken
	}
	return TokenClaims{SessionID: session, UserID: domainuser.ID(userID)}, nil
}

func newService() (*Service, *memory.Store, *memory.SessionStore) {
	store := memory.NewStore()
	sessions := memory.NewSessionStore()
	return &Service{
		UoWFactory: store,
		Sessions:   sessions,
		Passwords:  plainHasher{},
		Tokens:     stubTokens{},
		SessionTTL: time.Hour,
	}, store, sessions
}

func register(t *testing.T, svc *Service, username string, roles ...string) *domainuser.User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterParams{
		FirstName: "Lejla",
		LastName:  "Begic",
		Email:     username + "@example.com",
		Username:  username,
		Password:  "correct horse",
		Roles:     roles,
	})
	require.NoError(t, err)
	return u
}

func TestRegister(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	u := register(t, svc, "Lejla", "landlord")
	assert.Equal(t, "lejla", u.Username)
	assert.Equal(t, "hashed:correct horse", u.PasswordHash)
	assert.Equal(t, []domainuser.Role{domainuser.RoleLandlord}, u.Roles)
	assert.True(t, u.Active)

	t.Run("short password", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterParams{FirstName: "A", LastName: "B", Email: "a@b.c", Username: "ab", Password: "short"})
		assert.ErrorIs(t, err, ErrPasswordTooShort)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterParams{FirstName: "A", LastName: "B", Email: "LEJLA@example.com", Username: "other", Password: "long enough"})
		assert.ErrorIs(t, err, domainuser.ErrEmailAlreadyUsed)
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterParams{FirstName: "A", LastName: "B", Email: "new@example.com", Username: "LEJLA", Password: "long enough"})
		assert.ErrorIs(t, err, domainuser.ErrUsernameTaken)
	})

	t.Run("administrator cannot be self-assigned", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterParams{FirstName: "A", LastName: "B", Email: "x@example.com", Username: "x", Password: "long enough", Roles: []string{"admin"}})
		assert.ErrorIs(t, err, ErrRoleNotAllowed)
	})

	t.Run("unknown city", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterParams{FirstName: "A", LastName: "B", Email: "y@example.com", Username: "y", Password: "long enough", CityID: "atlantis"})
		assert.ErrorIs(t, err, ErrUnknownReference)
	})
}

func TestLoginResolveLogout(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	u := register(t, svc, "lejla")

	_, err := svc.Login(ctx, LoginParams{Login: "lejla", Password: "wrong password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginParams{Login: "nobody", Password: "correct horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	byEmail, err := svc.Login(ctx, LoginParams{Login: "Lejla@Example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.User.ID)

	res, err := svc.Login(ctx, LoginParams{Login: "lejla", Password: "correct horse"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), res.ExpiresAt, time.Minute)

	actor, err := svc.ResolveToken(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, actor.ID)
	assert.True(t, actor.HasRole(domainuser.RoleTenant))

	_, err = svc.ResolveToken(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, svc.Logout(ctx, res.Token))
	_, err = svc.ResolveToken(ctx, res.Token)
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)

	_, err = svc.ResolveToken(ctx, byEmail.Token)
	assert.NoError(t, err, "other sessions survive a logout")
}

func TestInactiveUsersAreRefused(t *testing.T) {
	svc, store, _ := newService()
	ctx := context.Background()
	u := register(t, svc, "lejla")
	res, err := svc.Login(ctx, LoginParams{Login: "lejla", Password: "correct horse"})
	require.NoError(t, err)

	handlertest.Write(t, store, func(ctx context.Context, unit uow.UnitOfWork) {
		stored, err := unit.Users().ByID(ctx, u.ID)
		require.NoError(t, err)
		stored.SetActive(false, time.Now())
		require.NoError(t, unit.Users().Save(ctx, stored))
	})

	_, err = svc.ResolveToken(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUserInactive)
	_, err = svc.AuthenticateBasic(ctx, "lejla", "correct horse")
	assert.ErrorIs(t, err, ErrUserInactive)
	_, err = svc.Login(ctx, LoginParams{Login: "lejla", Password: "correct horse"})
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestAuthenticateBasic(t *testing.T) {
	svc, _, _ := newService()
	register(t, svc, "lejla", "user", "landlord")

	actor, err := svc.AuthenticateBasic(context.Background(), "lejla", "correct horse")
	require.NoError(t, err)
	assert.True(t, actor.HasRole(domainuser.RoleLandlord))

	_, err = svc.AuthenticateBasic(context.Background(), "lejla", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

package security

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"erent/internal/app/services/auth"
	"erent/internal/domain/user"
)

const defaultIssuer = "erent"

// Claims are the bearer token claims. The registered "jti" names the
// server-side session.
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// JWTIssuer signs and verifies HS256 bearer tokens.
type JWTIssuer struct {
	Secret []byte
	Issuer string
}

func NewJWTIssuer(secret, issuer string) (*JWTIssuer, error) {
	if secret == "" {
		return nil, errors.New("security: jwt secret is required")
	}
	if issuer == "" {
		issuer = defaultIssuer
	}
	return &JWTIssuer{Secret: []byte(secret), Issuer: issuer}, nil
}

func (j *JWTIssuer) Issue(claims auth.TokenClaims) (string, error) {
	roles := make([]string, 0, len(claims.Roles))
	for _, r := range claims.Roles {
		roles = append(roles, string(r))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        claims.SessionID,
			Subject:   string(claims.UserID),
			Issuer:    j.Issuer,
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	})
	return token.SignedString(j.Secret)
}

// Parse verifies the signature, issuer and expiry of raw.
func (j *JWTIssuer) Parse(raw string) (auth.TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, auth.ErrInvalidToken
		}
		return j.Secret, nil
	}, jwt.WithIssuer(j.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return auth.TokenClaims{}, auth.ErrTokenExpired
		}
		return auth.TokenClaims{}, auth.ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.ID == "" || claims.Subject == "" {
		return auth.TokenClaims{}, auth.ErrInvalidToken
	}
	out := auth.TokenClaims{
		SessionID: claims.ID,
		UserID:    user.ID(claims.Subject),
	}
	for _, r := range claims.Roles {
		out.Roles = append(out.Roles, user.Role(r))
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

var _ auth.TokenIssuer = (*JWTIssuer)(nil)
